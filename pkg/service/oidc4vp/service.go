/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

//go:generate mockgen -destination service_mocks_test.go -self_package mocks -package oidc4vp_test -source=service.go -mock_names credentialStore=MockCredentialStore,httpClient=MockHTTPClient

// Package oidc4vp implements the holder side of OpenID for Verifiable
// Presentations: resolving a verifier's authorization request, deriving
// disclosure queries from it, ranking stored credentials against those
// queries, building a verifiable presentation with selective disclosure and a
// holder proof, and submitting the response.
//
// The pipeline is stateless across requests. Each stage consumes the prior
// stage's output, so concurrent flows for different verifiers are
// independent. Credential selection stays with the caller: the engine ranks
// candidates but never chooses.
package oidc4vp

import (
	"context"
	"net/http"
	"time"

	gojose "github.com/go-jose/go-jose/v3"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/hyperledger/aries-framework-go/pkg/doc/jose"

	"github.com/persona-chain/wallet-sdk/pkg/doc/vc"
)

var logger = log.New("oidc4vp-wallet")

const (
	responseTypeVPToken = "vp_token"

	responseModeDirectPost    = "direct_post"
	responseModeDirectPostJWT = "direct_post.jwt"

	// defaultDefinitionID names the submission's definition when the request
	// carried only a scope and no presentation definition.
	defaultDefinitionID = "urn:openid4vp:scope"

	defaultTokenLifetime = 5 * time.Minute
)

type credentialStore interface {
	List(ctx context.Context) ([]*vc.Credential, error)
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// JWEEncrypterCreator creates JWE encrypter for given JWK, alg and enc.
type JWEEncrypterCreator func(jwk gojose.JSONWebKey, alg gojose.KeyAlgorithm, enc gojose.ContentEncryption) (gojose.Encrypter, error) //nolint:lll

// Config holds the engine's collaborators. CredentialStore and HTTPClient
// are required; RequestObjectVerifier is required to accept signed request
// objects.
type Config struct {
	CredentialStore       credentialStore
	HTTPClient            httpClient
	RequestObjectVerifier jose.SignatureVerifier
	JWEEncrypterCreator   JWEEncrypterCreator
	TokenLifetime         time.Duration
}

// Service is the presentation engine. It holds no per-request state.
type Service struct {
	credentialStore       credentialStore
	httpClient            httpClient
	requestObjectVerifier jose.SignatureVerifier
	jweEncrypterCreator   JWEEncrypterCreator
	tokenLifetime         time.Duration
}

// NewService returns a presentation engine using the given collaborators.
func NewService(cfg *Config) *Service {
	tokenLifetime := cfg.TokenLifetime
	if tokenLifetime == 0 {
		tokenLifetime = defaultTokenLifetime
	}

	jweEncrypterCreator := cfg.JWEEncrypterCreator
	if jweEncrypterCreator == nil {
		jweEncrypterCreator = func(
			jwk gojose.JSONWebKey, alg gojose.KeyAlgorithm, enc gojose.ContentEncryption,
		) (gojose.Encrypter, error) {
			return gojose.NewEncrypter(enc, gojose.Recipient{Algorithm: alg, Key: &jwk}, nil)
		}
	}

	return &Service{
		credentialStore:       cfg.CredentialStore,
		httpClient:            cfg.HTTPClient,
		requestObjectVerifier: cfg.RequestObjectVerifier,
		jweEncrypterCreator:   jweEncrypterCreator,
		tokenLifetime:         tokenLifetime,
	}
}
