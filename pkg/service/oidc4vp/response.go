/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oidc4vp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v3"
	"github.com/google/uuid"

	"github.com/hyperledger/aries-framework-go/pkg/doc/jwt"
	"github.com/hyperledger/aries-framework-go/pkg/doc/presexch"

	"github.com/persona-chain/wallet-sdk/internal/logfields"
	"github.com/persona-chain/wallet-sdk/pkg/doc/vc"
	"github.com/persona-chain/wallet-sdk/pkg/doc/vc/jws"
	"github.com/persona-chain/wallet-sdk/pkg/doc/vp"
)

// VPTokenClaims is the JWT claim set wrapping the presentation when the
// negotiated vp_token format is a signed token.
type VPTokenClaims struct {
	VP    *vp.Presentation `json:"vp"`
	Nonce string           `json:"nonce"`
	Exp   int64            `json:"exp"`
	Iss   string           `json:"iss"`
	Aud   string           `json:"aud"`
	Nbf   int64            `json:"nbf"`
	Iat   int64            `json:"iat"`
	Jti   string           `json:"jti"`
}

// AssembleResponse builds the authorization response: a fresh presentation
// submission mapping each credential to its descriptor by position, and the
// vp_token serialized in the format negotiated with the verifier. Exactly one
// serialization is produced per response.
func (s *Service) AssembleResponse(
	holder *vc.Holder,
	request *AuthorizationRequest,
	presentation *vp.Presentation,
	selected []*SelectedCredential,
) (*Response, error) {
	if len(presentation.VerifiableCredential) != len(selected) {
		return nil, fmt.Errorf("%w: presentation carries %d credentials but %d were selected",
			ErrPresentationBuild, len(presentation.VerifiableCredential), len(selected))
	}

	format := negotiateFormat(request.ClientMetadata)

	submission := &presexch.PresentationSubmission{
		ID:           uuid.NewString(),
		DefinitionID: definitionID(request),
	}

	for i, sel := range selected {
		submission.DescriptorMap = append(submission.DescriptorMap, &presexch.InputDescriptorMapping{
			ID:     sel.DescriptorID,
			Format: string(format.OIDC()),
			Path:   fmt.Sprintf("$.verifiableCredential[%d]", i),
		})
	}

	var (
		vpToken string
		err     error
	)

	switch format {
	case vc.Jwt:
		vpToken, err = s.signVPToken(holder, request, presentation)
	case vc.Ldp:
		var b []byte

		b, err = json.Marshal(presentation)
		vpToken = string(b)
	}

	if err != nil {
		return nil, err
	}

	logger.Debug("assembled authorization response",
		logfields.WithSubmissionID(submission.ID),
		logfields.WithPresDefID(submission.DefinitionID),
		logfields.WithFormat(string(format)),
	)

	return &Response{
		VPToken:                vpToken,
		PresentationSubmission: submission,
		State:                  request.State,
	}, nil
}

func definitionID(request *AuthorizationRequest) string {
	if request.PresentationDefinition != nil && request.PresentationDefinition.ID != "" {
		return request.PresentationDefinition.ID
	}

	return defaultDefinitionID
}

// negotiateFormat picks the vp_token serialization the verifier supports.
// Signed tokens are the default; ldp_vp is used only when the verifier
// advertises it without jwt_vp support.
func negotiateFormat(metadata *ClientMetadata) vc.Format {
	if metadata == nil || metadata.VPFormats == nil {
		return vc.Jwt
	}

	if metadata.VPFormats.JwtVP == nil && metadata.VPFormats.LdpVP != nil {
		return vc.Ldp
	}

	return vc.Jwt
}

func (s *Service) signVPToken(
	holder *vc.Holder,
	request *AuthorizationRequest,
	presentation *vp.Presentation,
) (string, error) {
	if holder == nil || holder.Signer == nil {
		return "", fmt.Errorf("%w: holder signer is required", ErrPresentationBuild)
	}

	now := time.Now()

	claims := &VPTokenClaims{
		VP:    presentation,
		Nonce: request.Nonce,
		Exp:   now.Add(s.tokenLifetime).Unix(),
		Iss:   holder.DID,
		Aud:   request.ClientID,
		Nbf:   now.Unix(),
		Iat:   now.Unix(),
		Jti:   uuid.NewString(),
	}

	token, err := jwt.NewSigned(claims, map[string]interface{}{"typ": "JWT"},
		jws.NewSigner(holder.KeyID, holder.Signer.Alg(), holder.Signer))
	if err != nil {
		return "", fmt.Errorf("%w: sign vp_token: %v", ErrPresentationBuild, err)
	}

	vpToken, err := token.Serialize(false)
	if err != nil {
		return "", fmt.Errorf("%w: serialize vp_token: %v", ErrPresentationBuild, err)
	}

	return vpToken, nil
}

// encryptResponse wraps the response parameters as a compact JWE for
// direct_post.jwt submissions, using the key and algorithms the verifier
// advertised in its client metadata.
func (s *Service) encryptResponse(response *Response, metadata *ClientMetadata) (string, error) {
	if metadata == nil || metadata.AuthorizationEncryptedResponseAlg == "" ||
		metadata.JWKS == nil || len(metadata.JWKS.Keys) == 0 {
		return "", errors.New("verifier did not advertise encryption parameters")
	}

	enc := metadata.AuthorizationEncryptedResponseEnc
	if enc == "" {
		enc = string(gojose.A256GCM)
	}

	encrypter, err := s.jweEncrypterCreator(
		encryptionKey(metadata.JWKS),
		gojose.KeyAlgorithm(metadata.AuthorizationEncryptedResponseAlg),
		gojose.ContentEncryption(enc),
	)
	if err != nil {
		return "", fmt.Errorf("create encrypter: %w", err)
	}

	params := map[string]interface{}{
		"vp_token":                response.VPToken,
		"presentation_submission": response.PresentationSubmission,
	}

	if response.State != "" {
		params["state"] = response.State
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal response params: %w", err)
	}

	encrypted, err := encrypter.Encrypt(payload)
	if err != nil {
		return "", fmt.Errorf("encrypt response: %w", err)
	}

	jwe, err := encrypted.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("serialize response: %w", err)
	}

	return jwe, nil
}

// encryptionKey picks the verifier's encryption key: the first key marked for
// encryption use, else the first key in the set.
func encryptionKey(jwks *gojose.JSONWebKeySet) gojose.JSONWebKey {
	for _, key := range jwks.Keys {
		if key.Use == "enc" {
			return key
		}
	}

	return jwks.Keys[0]
}
