/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oidc4vp_test

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/hyperledger/aries-framework-go/pkg/doc/presexch"
	"github.com/stretchr/testify/require"

	"github.com/persona-chain/wallet-sdk/pkg/doc/vc"
	"github.com/persona-chain/wallet-sdk/pkg/doc/vp"
	"github.com/persona-chain/wallet-sdk/pkg/service/oidc4vp"
)

func TestAssembleResponse(t *testing.T) {
	service := oidc4vp.NewService(&oidc4vp.Config{})

	identity := parseTestCredential(t, identityCredentialJSON)
	residency := parseTestCredential(t, residencyCredentialJSON)

	queries := oidc4vp.ExtractQueries(parseTestDefinition(t))

	selection := []*oidc4vp.SelectedCredential{
		{DescriptorID: "identity", Credential: identity},
		{DescriptorID: "residency", Credential: residency},
	}

	holder := testHolder(t)

	request := testRequest()
	request.State = "state-789"
	request.PresentationDefinition = parseTestDefinition(t)

	presentation, err := service.BuildPresentation(holder, request, queries, selection)
	require.NoError(t, err)

	t.Run("signed jwt token by default", func(t *testing.T) {
		response, err := service.AssembleResponse(holder, request, presentation, selection)
		require.NoError(t, err)
		require.Equal(t, "state-789", response.State)

		submission := response.PresentationSubmission
		require.NotEmpty(t, submission.ID)
		require.Equal(t, "pd-identity-check", submission.DefinitionID)
		require.Len(t, submission.DescriptorMap, 2)

		for i, id := range []string{"identity", "residency"} {
			mapping := submission.DescriptorMap[i]
			require.Equal(t, id, mapping.ID)
			require.Equal(t, "jwt_vp", mapping.Format)
			require.Equal(t, fmt.Sprintf("$.verifiableCredential[%d]", i), mapping.Path)
		}

		parts := strings.Split(response.VPToken, ".")
		require.Len(t, parts, 3)

		headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
		require.NoError(t, err)

		var header map[string]interface{}
		require.NoError(t, json.Unmarshal(headerBytes, &header))
		require.Equal(t, "ES256", header["alg"])
		require.Equal(t, "JWT", header["typ"])
		require.Equal(t, holder.KeyID, header["kid"])

		payload, err := base64.RawURLEncoding.DecodeString(parts[1])
		require.NoError(t, err)

		var claims oidc4vp.VPTokenClaims
		require.NoError(t, json.Unmarshal(payload, &claims))

		require.Equal(t, "nonce-123", claims.Nonce)
		require.Equal(t, holder.DID, claims.Iss)
		require.Equal(t, "did:web:verifier.example", claims.Aud)
		require.NotEmpty(t, claims.Jti)
		require.Equal(t, int64(300), claims.Exp-claims.Iat)

		require.NotNil(t, claims.VP)
		require.Len(t, claims.VP.VerifiableCredential, 2)
		require.NotNil(t, claims.VP.Proof)

		signature, err := base64.RawURLEncoding.DecodeString(parts[2])
		require.NoError(t, err)
		require.Len(t, signature, 64)

		digest := sha256.Sum256([]byte(parts[0] + "." + parts[1]))

		signer := holder.Signer.(*testSigner)
		require.True(t, ecdsa.Verify(&signer.key.PublicKey, digest[:],
			new(big.Int).SetBytes(signature[:32]),
			new(big.Int).SetBytes(signature[32:])))
	})

	t.Run("ldp document when verifier supports only ldp_vp", func(t *testing.T) {
		ldpRequest := *request
		ldpRequest.ClientMetadata = &oidc4vp.ClientMetadata{
			VPFormats: &presexch.Format{
				LdpVP: &presexch.LdpType{ProofType: []string{"JsonWebSignature2020"}},
			},
		}

		response, err := service.AssembleResponse(holder, &ldpRequest, presentation, selection)
		require.NoError(t, err)

		require.Equal(t, "ldp_vp", response.PresentationSubmission.DescriptorMap[0].Format)

		parsed, err := vp.Parse([]byte(response.VPToken))
		require.NoError(t, err)
		require.Len(t, parsed.VerifiableCredential, 2)
		require.NotNil(t, parsed.Proof)
	})

	t.Run("jwt preferred when verifier supports both", func(t *testing.T) {
		bothRequest := *request
		bothRequest.ClientMetadata = &oidc4vp.ClientMetadata{
			VPFormats: &presexch.Format{
				JwtVP: &presexch.JwtType{Alg: []string{"ES256"}},
				LdpVP: &presexch.LdpType{ProofType: []string{"JsonWebSignature2020"}},
			},
		}

		response, err := service.AssembleResponse(holder, &bothRequest, presentation, selection)
		require.NoError(t, err)
		require.Equal(t, "jwt_vp", response.PresentationSubmission.DescriptorMap[0].Format)
	})

	t.Run("definition id falls back for scope-only requests", func(t *testing.T) {
		scopeRequest := testRequest()

		single := vp.New(holder.DID)
		single.VerifiableCredential = []*vc.Credential{identity}

		response, err := service.AssembleResponse(holder, scopeRequest, single,
			[]*oidc4vp.SelectedCredential{{DescriptorID: "IdentityCredential", Credential: identity}})
		require.NoError(t, err)
		require.Equal(t, "urn:openid4vp:scope", response.PresentationSubmission.DefinitionID)
	})

	t.Run("credential count mismatch", func(t *testing.T) {
		_, err := service.AssembleResponse(holder, request, presentation, selection[:1])
		require.ErrorIs(t, err, oidc4vp.ErrPresentationBuild)
		require.ErrorContains(t, err, "selected")
	})

	t.Run("signer failure", func(t *testing.T) {
		failing := &vc.Holder{
			DID:    holder.DID,
			KeyID:  holder.KeyID,
			Signer: failingSigner{},
		}

		_, err := service.AssembleResponse(failing, request, presentation, selection)
		require.ErrorIs(t, err, oidc4vp.ErrPresentationBuild)
		require.ErrorContains(t, err, "sign vp_token")
	})
}
