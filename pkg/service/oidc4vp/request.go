/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oidc4vp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/hyperledger/aries-framework-go/pkg/doc/jwt"
	"github.com/hyperledger/aries-framework-go/pkg/doc/presexch"

	"github.com/persona-chain/wallet-sdk/internal/logfields"
)

// requestSchemes are the URL schemes an authorization request may arrive on.
var requestSchemes = []string{
	"openid-vc", "openid4vp", "haip", "eudi-openid4vp", "http", "https",
}

// ResolveRequest normalizes an authorization request from any of the
// supported transport forms: a literal request object (JSON or a signed
// compact token), a URL whose query string is the request, or a URL carrying
// request_uri to dereference. The returned request is validated and has its
// remote references (presentation definition, client metadata) resolved.
func (s *Service) ResolveRequest(ctx context.Context, raw string) (*AuthorizationRequest, error) {
	request, err := s.parseRequestTransport(ctx, strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}

	if err = validateRequest(request); err != nil {
		return nil, err
	}

	if err = s.resolveDefinition(ctx, request); err != nil {
		return nil, err
	}

	s.resolveClientMetadata(ctx, request)

	logger.Debugc(ctx, "resolved authorization request",
		logfields.WithClientID(request.ClientID),
		logfields.WithResponseMode(request.ResponseMode),
		logfields.WithResponseURI(request.ResponseURI),
	)

	return request, nil
}

func (s *Service) parseRequestTransport(ctx context.Context, raw string) (*AuthorizationRequest, error) {
	switch {
	case strings.HasPrefix(raw, "{"):
		return parseRequestJSON([]byte(raw))
	case isCompactJWT(raw):
		return s.parseSignedRequest(raw)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return nil, fmt.Errorf("%w: not an authorization request", ErrRequestInvalid)
	}

	if !lo.Contains(requestSchemes, u.Scheme) {
		return nil, fmt.Errorf("%w: unsupported request scheme %q", ErrRequestInvalid, u.Scheme)
	}

	query := u.Query()

	switch {
	case query.Get("request_uri") != "":
		return s.fetchRequestObject(ctx, query.Get("request_uri"))
	case query.Get("request") != "":
		return s.parseSignedRequest(query.Get("request"))
	default:
		return requestFromQuery(query)
	}
}

// isCompactJWT reports whether raw looks like a compact JWS: three dot
// separated segments and no URL scheme.
func isCompactJWT(raw string) bool {
	return len(strings.Split(raw, ".")) == 3 && !strings.Contains(raw, "://")
}

func parseRequestJSON(raw []byte) (*AuthorizationRequest, error) {
	var request AuthorizationRequest

	if err := json.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("%w: decode request object: %v", ErrRequestInvalid, err)
	}

	return &request, nil
}

// parseSignedRequest verifies a signed request object and decodes its claims
// into the request shape. Claims are decoded strictly: validation downstream
// fails closed on any missing mandatory claim rather than defaulting.
func (s *Service) parseSignedRequest(raw string) (*AuthorizationRequest, error) {
	if s.requestObjectVerifier == nil {
		return nil, fmt.Errorf("%w: signed request object received but no verifier configured", ErrRequestInvalid)
	}

	_, rawClaims, err := jwt.Parse(raw,
		jwt.WithSignatureVerifier(s.requestObjectVerifier),
		jwt.WithIgnoreClaimsMapDecoding(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: verify request object: %v", ErrRequestInvalid, err)
	}

	return parseRequestJSON(rawClaims)
}

func (s *Service) fetchRequestObject(ctx context.Context, uri string) (*AuthorizationRequest, error) {
	body, contentType, err := s.get(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch request object: %v", ErrRequestResolution, err)
	}

	body = bytes.TrimSpace(body)

	if strings.Contains(contentType, "jwt") || isCompactJWT(string(body)) {
		return s.parseSignedRequest(string(body))
	}

	return parseRequestJSON(body)
}

func requestFromQuery(query url.Values) (*AuthorizationRequest, error) {
	request := &AuthorizationRequest{
		ClientID:                  query.Get("client_id"),
		ClientIDScheme:            query.Get("client_id_scheme"),
		ResponseType:              query.Get("response_type"),
		ResponseMode:              query.Get("response_mode"),
		ResponseURI:               query.Get("response_uri"),
		RedirectURI:               query.Get("redirect_uri"),
		Nonce:                     query.Get("nonce"),
		State:                     query.Get("state"),
		Scope:                     query.Get("scope"),
		PresentationDefinitionURI: query.Get("presentation_definition_uri"),
		ClientMetadataURI:         query.Get("client_metadata_uri"),
	}

	if pd := query.Get("presentation_definition"); pd != "" {
		request.PresentationDefinition = &presexch.PresentationDefinition{}

		if err := json.Unmarshal([]byte(pd), request.PresentationDefinition); err != nil {
			return nil, fmt.Errorf("%w: decode presentation_definition: %v", ErrRequestInvalid, err)
		}
	}

	if metadata := query.Get("client_metadata"); metadata != "" {
		request.ClientMetadata = &ClientMetadata{}

		if err := json.Unmarshal([]byte(metadata), request.ClientMetadata); err != nil {
			return nil, fmt.Errorf("%w: decode client_metadata: %v", ErrRequestInvalid, err)
		}
	}

	return request, nil
}

// validateRequest checks the mandatory request fields and applies protocol
// defaults (response mode, response URI fallback). It runs before any
// reference resolution so an invalid request triggers no further I/O.
func validateRequest(request *AuthorizationRequest) error {
	if request.ClientID == "" {
		return fmt.Errorf("%w: client_id is required", ErrRequestInvalid)
	}

	if request.Nonce == "" {
		return fmt.Errorf("%w: nonce is required", ErrRequestInvalid)
	}

	if !lo.Contains(strings.Fields(request.ResponseType), responseTypeVPToken) {
		return fmt.Errorf("%w: response_type must include vp_token", ErrRequestInvalid)
	}

	if request.PresentationDefinition != nil && request.PresentationDefinitionURI != "" {
		return fmt.Errorf(
			"%w: presentation_definition and presentation_definition_uri are mutually exclusive", ErrRequestInvalid)
	}

	if request.PresentationDefinition == nil && request.PresentationDefinitionURI == "" &&
		len(scopeQueryTokens(request.Scope)) == 0 {
		return fmt.Errorf("%w: no presentation query source", ErrRequestInvalid)
	}

	if request.ResponseMode == "" {
		request.ResponseMode = responseModeDirectPost
	}

	if request.ResponseURI == "" {
		request.ResponseURI = request.RedirectURI
	}

	if request.ResponseURI == "" {
		return fmt.Errorf("%w: response_uri is required", ErrRequestInvalid)
	}

	return nil
}

// scopeQueryTokens returns the scope values that name a credential
// requirement. The bare "openid" scope does not.
func scopeQueryTokens(scope string) []string {
	return lo.Filter(strings.Fields(scope), func(token string, _ int) bool {
		return token != "openid"
	})
}

// resolveDefinition substitutes a remote presentation definition referenced
// by presentation_definition_uri, or synthesizes one for scope-only requests.
// A resolved request always carries a definition. There is no fallback for a
// definition that cannot be fetched or decoded.
func (s *Service) resolveDefinition(ctx context.Context, request *AuthorizationRequest) error {
	if request.PresentationDefinition != nil {
		return nil
	}

	if request.PresentationDefinitionURI == "" {
		request.PresentationDefinition = definitionFromScope(request.Scope)

		return nil
	}

	body, _, err := s.get(ctx, request.PresentationDefinitionURI)
	if err != nil {
		return fmt.Errorf("%w: fetch presentation definition: %v", ErrRequestResolution, err)
	}

	pd := &presexch.PresentationDefinition{}

	if err = json.Unmarshal(body, pd); err != nil {
		return fmt.Errorf("%w: decode presentation definition: %v", ErrRequestResolution, err)
	}

	request.PresentationDefinition = pd

	return nil
}

// resolveClientMetadata substitutes remote client metadata. Metadata is
// informational, so a failed fetch logs and leaves the request usable.
func (s *Service) resolveClientMetadata(ctx context.Context, request *AuthorizationRequest) {
	if request.ClientMetadata != nil || request.ClientMetadataURI == "" {
		return
	}

	body, _, err := s.get(ctx, request.ClientMetadataURI)
	if err != nil {
		logger.Warnc(ctx, "Failed to fetch client metadata", log.WithError(err))

		return
	}

	metadata := &ClientMetadata{}

	if err = json.Unmarshal(body, metadata); err != nil {
		logger.Warnc(ctx, "Failed to decode client metadata", log.WithError(err))

		return
	}

	request.ClientMetadata = metadata
}

func (s *Service) get(ctx context.Context, uri string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, uri)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	return body, resp.Header.Get("Content-Type"), nil
}
