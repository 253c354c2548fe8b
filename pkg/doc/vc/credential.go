/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ContextV1 is the base W3C credentials context.
const ContextV1 = "https://www.w3.org/2018/credentials/v1"

// Credential is a W3C verifiable credential as the wallet stores it. The
// document is opaque to the presentation engine: it is parsed for the fields
// the engine reads (type, issuer, subject) and is otherwise carried verbatim,
// never mutated.
type Credential struct {
	Context        []string
	ID             string
	Types          []string
	Issuer         string
	IssuanceDate   string
	ExpirationDate string
	Subject        map[string]interface{}
	Proof          map[string]interface{}

	raw []byte
}

// rawCredential is the wire form. Issuer and type accept both the string and
// the expanded forms allowed by the data model.
type rawCredential struct {
	Context        interface{}            `json:"@context,omitempty"`
	ID             string                 `json:"id,omitempty"`
	Type           interface{}            `json:"type"`
	Issuer         interface{}            `json:"issuer,omitempty"`
	IssuanceDate   string                 `json:"issuanceDate,omitempty"`
	ExpirationDate string                 `json:"expirationDate,omitempty"`
	Subject        map[string]interface{} `json:"credentialSubject,omitempty"`
	Proof          map[string]interface{} `json:"proof,omitempty"`
}

// ParseCredential decodes a stored credential document.
func ParseCredential(raw []byte) (*Credential, error) {
	var rc rawCredential

	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}

	types := toStringSlice(rc.Type)
	if len(types) == 0 {
		return nil, errors.New("credential type is required")
	}

	cred := &Credential{
		Context:        toStringSlice(rc.Context),
		ID:             rc.ID,
		Types:          types,
		Issuer:         issuerID(rc.Issuer),
		IssuanceDate:   rc.IssuanceDate,
		ExpirationDate: rc.ExpirationDate,
		Subject:        rc.Subject,
		Proof:          rc.Proof,
		raw:            raw,
	}

	return cred, nil
}

// MarshalJSON writes the credential document exactly as it was parsed.
func (c *Credential) MarshalJSON() ([]byte, error) {
	if len(c.raw) > 0 {
		return c.raw, nil
	}

	return json.Marshal(&rawCredential{
		Context:        c.Context,
		ID:             c.ID,
		Type:           c.Types,
		Issuer:         c.Issuer,
		IssuanceDate:   c.IssuanceDate,
		ExpirationDate: c.ExpirationDate,
		Subject:        c.Subject,
		Proof:          c.Proof,
	})
}

// UnmarshalJSON decodes a credential document in place.
func (c *Credential) UnmarshalJSON(raw []byte) error {
	cred, err := ParseCredential(raw)
	if err != nil {
		return err
	}

	*c = *cred

	return nil
}

// Raw returns the credential document bytes.
func (c *Credential) Raw() []byte {
	if len(c.raw) > 0 {
		return c.raw
	}

	raw, err := c.MarshalJSON()
	if err != nil {
		return nil
	}

	return raw
}

// Field reads a value from the credential document by dot path, e.g.
// "credentialSubject.birthDate" or "expirationDate". Only plain dot paths are
// supported: array indices and wildcards are out of scope for disclosure
// queries.
func (c *Credential) Field(path string) gjson.Result {
	return gjson.GetBytes(c.Raw(), path)
}

// SubjectField reads a value from the credential subject by dot path, e.g.
// "birthDate" or "address.country".
func (c *Credential) SubjectField(path string) gjson.Result {
	return c.Field("credentialSubject." + path)
}

// SubjectID returns the subject identifier, if present.
func (c *Credential) SubjectID() string {
	if c.Subject == nil {
		return ""
	}

	id, _ := c.Subject["id"].(string)

	return id
}

func toStringSlice(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))

		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}

		return out
	case []string:
		return t
	default:
		return nil
	}
}

// issuerID extracts the issuer identifier from either the compact string form
// or the expanded {"id": ...} form.
func issuerID(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		id, _ := t["id"].(string)
		return id
	default:
		return ""
	}
}
