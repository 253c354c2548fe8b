/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oidc4vp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/persona-chain/wallet-sdk/internal/logfields"
)

// SubmitResponse delivers the response to the verifier's response URI as an
// application/x-www-form-urlencoded POST and interprets the outcome. All
// outcomes, success or failure, come back as data so the caller can recover
// (re-select credentials, resubmit) without the flow unwinding.
//
// The POST is the flow's only externally visible effect and is not
// idempotent-safe to blindly retry; any retry policy belongs to an external
// resilience layer.
func (s *Service) SubmitResponse(
	ctx context.Context,
	request *AuthorizationRequest,
	response *Response,
) *SubmissionResult {
	form, err := s.responseForm(request, response)
	if err != nil {
		return &SubmissionResult{Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, request.ResponseURI, strings.NewReader(form.Encode()))
	if err != nil {
		return &SubmissionResult{Error: err.Error()}
	}

	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &SubmissionResult{Error: err.Error()}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	result := readSubmissionResult(resp)

	if result.Success {
		logger.Infoc(ctx, "Presentation submitted",
			logfields.WithResponseURI(request.ResponseURI),
			logfields.WithStatusCode(result.StatusCode),
			logfields.WithState(response.State),
		)
	} else {
		logger.Warnc(ctx, "Presentation rejected",
			logfields.WithResponseURI(request.ResponseURI),
			logfields.WithStatusCode(result.StatusCode),
			logfields.WithSubmission(response.PresentationSubmission),
		)
	}

	return result
}

// responseForm encodes the response parameters. For direct_post they are
// individual form fields; for direct_post.jwt they are folded into a single
// encrypted response field.
func (s *Service) responseForm(request *AuthorizationRequest, response *Response) (url.Values, error) {
	form := url.Values{}

	if request.ResponseMode == responseModeDirectPostJWT {
		jwe, err := s.encryptResponse(response, request.ClientMetadata)
		if err != nil {
			return nil, err
		}

		form.Set("response", jwe)

		return form, nil
	}

	submission, err := json.Marshal(response.PresentationSubmission)
	if err != nil {
		return nil, fmt.Errorf("marshal presentation submission: %w", err)
	}

	form.Set("vp_token", response.VPToken)
	form.Set("presentation_submission", string(submission))

	if response.State != "" {
		form.Set("state", response.State)
	}

	return form, nil
}

// readSubmissionResult interprets the verifier's reply. Any 2xx status is a
// success, with an optional redirect URI in the JSON body or the Location
// header. Other statuses are decoded as error bodies when possible.
func readSubmissionResult(resp *http.Response) *SubmissionResult {
	result := &SubmissionResult{StatusCode: resp.StatusCode}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		result.Success = true

		if body, err := io.ReadAll(resp.Body); err == nil && len(body) > 0 {
			result.Body = body
			result.RedirectURI = fastjson.GetString(body, "redirect_uri")
		}

		if result.RedirectURI == "" {
			result.RedirectURI = resp.Header.Get("Location")
		}

		return result
	}

	wireErr, body := parseErrorResponse(resp.Body)
	result.Body = body

	if wireErr != nil {
		result.Error = wireErr.Error
		result.ErrorDescription = wireErr.ErrorDescription
	} else {
		result.Error = fmt.Sprintf("unexpected status code %d", resp.StatusCode)
	}

	return result
}
