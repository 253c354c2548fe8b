/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logfields

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/logutil-go/pkg/log"
)

func TestStandardFields(t *testing.T) {
	const (
		module = "test_module"
	)

	t.Run("json fields", func(t *testing.T) {
		stdOut := newMockWriter()

		logger := log.New(module, log.WithStdOut(stdOut), log.WithEncoding(log.JSON))

		candidates := 2
		clientID := "did:web:verifier.example"
		credentialCount := 4
		credentialID := "urn:uuid:credential-1"
		descriptorID := "identity"
		format := "jwt"
		presDefID := "somePresDefID"
		queries := 3
		responseMode := "direct_post"
		responseURI := "https://verifier.example/present"
		score := 0.75
		state := "someState"
		statusCode := 200
		submission := &mockObject{
			Field1: "submission1",
			Field2: 123,
		}
		submissionID := "someSubmissionID"

		logger.Info(
			"Some message",
			WithCandidates(candidates),
			WithClientID(clientID),
			WithCredentialCount(credentialCount),
			WithCredentialID(credentialID),
			WithDescriptorID(descriptorID),
			WithFormat(format),
			WithPresDefID(presDefID),
			WithQueries(queries),
			WithResponseMode(responseMode),
			WithResponseURI(responseURI),
			WithScore(score),
			WithState(state),
			WithStatusCode(statusCode),
			WithSubmission(submission),
			WithSubmissionID(submissionID),
		)

		l := unmarshalLogData(t, stdOut.Bytes())

		require.Equal(t, candidates, l.Candidates)
		require.Equal(t, clientID, l.ClientID)
		require.Equal(t, credentialCount, l.CredentialCount)
		require.Equal(t, credentialID, l.CredentialID)
		require.Equal(t, descriptorID, l.DescriptorID)
		require.Equal(t, format, l.Format)
		require.Equal(t, presDefID, l.PresDefID)
		require.Equal(t, queries, l.Queries)
		require.Equal(t, responseMode, l.ResponseMode)
		require.Equal(t, responseURI, l.ResponseURI)
		require.Equal(t, score, l.Score)
		require.Equal(t, state, l.State)
		require.Equal(t, statusCode, l.StatusCode)
		require.Equal(t, submission, l.Submission)
		require.Equal(t, submissionID, l.SubmissionID)
	})
}

type mockObject struct {
	Field1 string
	Field2 int
}

type logData struct {
	Level  string `json:"level"`
	Time   string `json:"time"`
	Logger string `json:"logger"`
	Caller string `json:"caller"`
	Msg    string `json:"msg"`
	Error  string `json:"error"`

	Candidates      int         `json:"candidates"`
	ClientID        string      `json:"clientID"`
	CredentialCount int         `json:"credentialCount"`
	CredentialID    string      `json:"credentialID"`
	DescriptorID    string      `json:"descriptorID"`
	Format          string      `json:"format"`
	PresDefID       string      `json:"presDefID"`
	Queries         int         `json:"queries"`
	ResponseMode    string      `json:"responseMode"`
	ResponseURI     string      `json:"responseURI"`
	Score           float64     `json:"score"`
	State           string      `json:"state"`
	StatusCode      int         `json:"statusCode"`
	Submission      *mockObject `json:"submission"`
	SubmissionID    string      `json:"submissionID"`
}

func unmarshalLogData(t *testing.T, b []byte) *logData {
	t.Helper()

	l := &logData{}

	require.NoError(t, json.Unmarshal(b, l))

	return l
}

type mockWriter struct {
	*bytes.Buffer
}

func (m *mockWriter) Sync() error {
	return nil
}

func newMockWriter() *mockWriter {
	return &mockWriter{Buffer: bytes.NewBuffer(nil)}
}
