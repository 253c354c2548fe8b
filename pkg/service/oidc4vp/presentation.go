/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oidc4vp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/persona-chain/wallet-sdk/internal/logfields"
	"github.com/persona-chain/wallet-sdk/pkg/doc/vc"
	"github.com/persona-chain/wallet-sdk/pkg/doc/vp"
)

const proofType = "JsonWebSignature2020"

// BuildPresentation assembles a verifiable presentation from the caller's
// credential selection. Credentials for queries that require disclosure
// limitation are stripped to their whitelisted subject fields, and the
// presentation carries a holder proof binding the nonce, the verifier domain
// and the exact disclosed content. Every query must be covered by at least
// one selected credential.
func (s *Service) BuildPresentation(
	holder *vc.Holder,
	request *AuthorizationRequest,
	queries []*DisclosureQuery,
	selected []*SelectedCredential,
) (*vp.Presentation, error) {
	if holder == nil || holder.Signer == nil {
		return nil, fmt.Errorf("%w: holder signer is required", ErrPresentationBuild)
	}

	queriesByID := lo.KeyBy(queries, func(query *DisclosureQuery) string {
		return query.ID
	})

	for _, query := range queries {
		covered := lo.ContainsBy(selected, func(sel *SelectedCredential) bool {
			return sel.DescriptorID == query.ID
		})

		if !covered {
			return nil, fmt.Errorf("%w: no credential selected for descriptor %q", ErrPresentationBuild, query.ID)
		}
	}

	presentation := vp.New(holder.DID)

	for _, sel := range selected {
		query, ok := queriesByID[sel.DescriptorID]
		if !ok {
			return nil, fmt.Errorf("%w: selected credential references unknown descriptor %q",
				ErrPresentationBuild, sel.DescriptorID)
		}

		credential := sel.Credential

		if query.LimitDisclosure {
			disclosed, err := applySelectiveDisclosure(credential, query)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPresentationBuild, err)
			}

			credential = disclosed
		}

		presentation.VerifiableCredential = append(presentation.VerifiableCredential, credential)
	}

	proof, err := s.signPresentation(holder, presentation, request)
	if err != nil {
		return nil, err
	}

	presentation.Proof = proof

	logger.Debug("built presentation",
		logfields.WithCredentialCount(len(presentation.VerifiableCredential)),
		logfields.WithClientID(request.ClientID),
	)

	return presentation, nil
}

// signPresentation produces the holder proof: a detached JWS over the
// canonical digest of the proof options and the presentation document.
// Altering the nonce, the domain, the holder key or any disclosed credential
// invalidates the signature.
func (s *Service) signPresentation(
	holder *vc.Holder,
	presentation *vp.Presentation,
	request *AuthorizationRequest,
) (*vp.Proof, error) {
	proof := &vp.Proof{
		Type:               proofType,
		Created:            time.Now().UTC().Format(time.RFC3339),
		ProofPurpose:       vp.ProofPurposeAuthentication,
		VerificationMethod: holder.KeyID,
		Challenge:          request.Nonce,
		Domain:             request.ClientID,
	}

	signingInput, err := presentation.SigningInput(proof)
	if err != nil {
		return nil, fmt.Errorf("%w: canonicalize presentation: %v", ErrPresentationBuild, err)
	}

	header, err := json.Marshal(map[string]interface{}{
		"alg":  holder.Signer.Alg(),
		"b64":  false,
		"crit": []string{"b64"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal proof header: %v", ErrPresentationBuild, err)
	}

	protected := base64.RawURLEncoding.EncodeToString(header)

	signature, err := holder.Signer.Sign(append([]byte(protected+"."), signingInput...))
	if err != nil {
		return nil, fmt.Errorf("%w: sign presentation: %v", ErrPresentationBuild, err)
	}

	proof.JWS = protected + ".." + base64.RawURLEncoding.EncodeToString(signature)

	return proof, nil
}

// applySelectiveDisclosure strips the credential subject down to the id plus
// the fields the query whitelists. The whitelist is strict: fields the query
// does not name are never emitted, fields requested but absent are omitted
// without error. The source credential is never mutated.
func applySelectiveDisclosure(credential *vc.Credential, query *DisclosureQuery) (*vc.Credential, error) {
	raw := credential.Raw()

	filtered := []byte(`{}`)

	var err error

	if id := gjson.GetBytes(raw, "credentialSubject.id"); id.Exists() {
		filtered, err = sjson.SetBytes(filtered, "id", id.Value())
		if err != nil {
			return nil, fmt.Errorf("disclose subject id: %w", err)
		}
	}

	for _, name := range subjectWhitelist(query) {
		value := gjson.GetBytes(raw, "credentialSubject."+name)
		if !value.Exists() {
			continue
		}

		filtered, err = sjson.SetRawBytes(filtered, name, []byte(value.Raw))
		if err != nil {
			return nil, fmt.Errorf("disclose subject field %q: %w", name, err)
		}
	}

	disclosed, err := sjson.SetRawBytes(raw, "credentialSubject", filtered)
	if err != nil {
		return nil, fmt.Errorf("filter credential subject: %w", err)
	}

	return vc.ParseCredential(disclosed)
}

// subjectWhitelist lists the subject field names a query discloses: the first
// path segment under credentialSubject of each field selector.
func subjectWhitelist(query *DisclosureQuery) []string {
	var names []string

	for _, field := range query.Selector.Fields {
		rest, ok := strings.CutPrefix(field.Path, "credentialSubject.")
		if !ok {
			continue
		}

		name, _, _ := strings.Cut(rest, ".")
		if name != "" && !lo.Contains(names, name) {
			names = append(names, name)
		}
	}

	return names
}
