/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oidc4vp

import (
	gojose "github.com/go-jose/go-jose/v3"

	"github.com/hyperledger/aries-framework-go/pkg/doc/presexch"

	"github.com/persona-chain/wallet-sdk/pkg/doc/vc"
)

// AuthorizationRequest is a normalized OpenID4VP authorization request. It is
// produced by ResolveRequest from any of the supported transport forms and
// carries exactly one resolvable query source: an inline presentation
// definition (possibly substituted from presentation_definition_uri) or a
// scope string.
type AuthorizationRequest struct {
	ClientID       string `json:"client_id"`
	ClientIDScheme string `json:"client_id_scheme,omitempty"`
	ResponseType   string `json:"response_type"`
	ResponseMode   string `json:"response_mode,omitempty"`
	ResponseURI    string `json:"response_uri,omitempty"`
	RedirectURI    string `json:"redirect_uri,omitempty"`
	Nonce          string `json:"nonce"`
	State          string `json:"state,omitempty"`
	Scope          string `json:"scope,omitempty"`

	PresentationDefinition    *presexch.PresentationDefinition `json:"presentation_definition,omitempty"`
	PresentationDefinitionURI string                           `json:"presentation_definition_uri,omitempty"`

	ClientMetadata    *ClientMetadata `json:"client_metadata,omitempty"`
	ClientMetadataURI string          `json:"client_metadata_uri,omitempty"`
}

// ClientMetadata carries the verifier's display information, supported
// presentation formats and, for encrypted responses, its encryption
// parameters. Display fields are informational only.
type ClientMetadata struct {
	ClientName                  string           `json:"client_name,omitempty"`
	ClientPurpose               string           `json:"client_purpose,omitempty"`
	LogoURI                     string           `json:"logo_uri,omitempty"`
	SubjectSyntaxTypesSupported []string         `json:"subject_syntax_types_supported,omitempty"`
	VPFormats                   *presexch.Format `json:"vp_formats,omitempty"`

	AuthorizationEncryptedResponseAlg string               `json:"authorization_encrypted_response_alg,omitempty"`
	AuthorizationEncryptedResponseEnc string               `json:"authorization_encrypted_response_enc,omitempty"`
	JWKS                              *gojose.JSONWebKeySet `json:"jwks,omitempty"`
}

// DisclosureQuery is the normalized form of one input descriptor: which
// credential the verifier asks for and which of its fields it wants to see.
// Queries preserve descriptor order.
type DisclosureQuery struct {
	ID              string
	Purpose         string
	Selector        Selector
	LimitDisclosure bool
	Retention       string
}

// Selector constrains the credentials a query accepts. Type and issuer
// constraints hoisted from descriptor fields match against the credential
// envelope; field selectors match against the document by dot path.
type Selector struct {
	CredentialTypes []string
	Issuers         []string
	Fields          []FieldSelector
}

// FieldSelector is a single field constraint: a dot path into the credential
// document, an optional filter copied verbatim from the descriptor, and
// whether the field is essential for the query.
type FieldSelector struct {
	Path      string
	Filter    *presexch.Filter
	Essential bool
}

// Candidate is a stored credential with its compatibility score against one
// query.
type Candidate struct {
	Credential *vc.Credential
	Score      float64
}

// MatchResult ranks the stored credentials compatible with one query.
// Candidates are ordered by descending score; Score is the mean candidate
// score and orders the result list itself. An empty candidate list means the
// wallet cannot satisfy the query.
type MatchResult struct {
	Query      *DisclosureQuery
	Candidates []*Candidate
	Score      float64
}

// SelectedCredential is the caller's choice of credential for one input
// descriptor. Selection authority lives with the caller; the engine only
// ranks.
type SelectedCredential struct {
	DescriptorID string
	Credential   *vc.Credential
}

// Response is the assembled OpenID4VP authorization response, ready for
// submission.
type Response struct {
	VPToken                string
	PresentationSubmission *presexch.PresentationSubmission
	State                  string
}

// SubmissionResult reports the outcome of a response submission. It is always
// returned as data, never as an error, so the caller can recover without the
// flow unwinding.
type SubmissionResult struct {
	Success          bool
	StatusCode       int
	RedirectURI      string
	Error            string
	ErrorDescription string
	Body             []byte
}
