/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oidc4vp

import (
	"encoding/json"
	"errors"
	"io"
)

var (
	// ErrRequestInvalid is returned when an authorization request is missing
	// or contradicts required fields. The flow aborts before any further I/O.
	ErrRequestInvalid = errors.New("authorization request invalid")

	// ErrRequestResolution is returned when fetching a remote request object,
	// presentation definition or client metadata fails. There is no safe
	// fallback for a definition that cannot be resolved.
	ErrRequestResolution = errors.New("authorization request resolution failed")

	// ErrPresentationBuild is returned when the holder proof cannot be
	// produced or a mandatory descriptor has no selected credential.
	ErrPresentationBuild = errors.New("presentation build failed")
)

// errorResponse is the RFC 6749 style error body a verifier returns on a
// rejected submission.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// parseErrorResponse decodes a verifier error body. The raw body is returned
// alongside so callers can surface payloads that do not carry the error shape.
func parseErrorResponse(reader io.Reader) (*errorResponse, []byte) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil
	}

	var e errorResponse

	if err = json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return nil, body
	}

	return &e, body
}
