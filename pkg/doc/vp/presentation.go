/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vp

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/persona-chain/wallet-sdk/pkg/doc/vc"
)

const (
	// ContextV1 is the base W3C credentials context.
	ContextV1 = "https://www.w3.org/2018/credentials/v1"

	// TypeVerifiablePresentation is the mandatory presentation type.
	TypeVerifiablePresentation = "VerifiablePresentation"

	// ProofPurposeAuthentication is the proof purpose for holder proofs.
	ProofPurposeAuthentication = "authentication"
)

// Proof is the holder proof attached to a presentation. Challenge carries the
// verifier nonce and Domain the verifier client id, binding the presentation
// to a single request.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	ProofPurpose       string `json:"proofPurpose"`
	VerificationMethod string `json:"verificationMethod"`
	ProofValue         string `json:"proofValue,omitempty"`
	JWS                string `json:"jws,omitempty"`
	Challenge          string `json:"challenge,omitempty"`
	Domain             string `json:"domain,omitempty"`
}

// Presentation is a W3C verifiable presentation assembled by the wallet.
type Presentation struct {
	Context              []string         `json:"@context"`
	ID                   string           `json:"id,omitempty"`
	Type                 []string         `json:"type"`
	Holder               string           `json:"holder,omitempty"`
	VerifiableCredential []*vc.Credential `json:"verifiableCredential"`
	Proof                *Proof           `json:"proof,omitempty"`
}

// New returns an empty presentation carrying the base context and type.
func New(holder string) *Presentation {
	return &Presentation{
		Context: []string{ContextV1},
		Type:    []string{TypeVerifiablePresentation},
		Holder:  holder,
	}
}

// Parse decodes a presentation document and fails closed on documents that
// do not carry the mandatory context and type.
func Parse(raw []byte) (*Presentation, error) {
	var pres Presentation

	if err := json.Unmarshal(raw, &pres); err != nil {
		return nil, fmt.Errorf("decode presentation: %w", err)
	}

	if !lo.Contains(pres.Context, ContextV1) {
		return nil, errors.New("presentation @context is missing the base credentials context")
	}

	if !lo.Contains(pres.Type, TypeVerifiablePresentation) {
		return nil, errors.New("presentation type is missing VerifiablePresentation")
	}

	return &pres, nil
}

// SigningInput returns the bytes a holder proof signs: the SHA-256 digest of
// the proof options (without any signature value) concatenated with the
// SHA-256 digest of the presentation document without its proof. Any change
// to the challenge, domain, key reference or disclosed credentials changes
// this input.
func (p *Presentation) SigningInput(options *Proof) ([]byte, error) {
	doc := *p
	doc.Proof = nil

	docBytes, err := json.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal presentation: %w", err)
	}

	opts := *options
	opts.ProofValue = ""
	opts.JWS = ""

	optsBytes, err := json.Marshal(&opts)
	if err != nil {
		return nil, fmt.Errorf("marshal proof options: %w", err)
	}

	optsDigest := sha256.Sum256(optsBytes)
	docDigest := sha256.Sum256(docBytes)

	return append(optsDigest[:], docDigest[:]...), nil
}
