/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logfields

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log Fields.
const (
	FieldCandidates      = "candidates"
	FieldClientID        = "clientID"
	FieldCredentialCount = "credentialCount"
	FieldCredentialID    = "credentialID"
	FieldDescriptorID    = "descriptorID"
	FieldFormat          = "format"
	FieldPresDefID       = "presDefID"
	FieldQueries         = "queries"
	FieldResponseMode    = "responseMode"
	FieldResponseURI     = "responseURI"
	FieldScore           = "score"
	FieldState           = "state"
	FieldStatusCode      = "statusCode"
	FieldSubmission      = "submission"
	FieldSubmissionID    = "submissionID"
)

// WithCandidates sets the Candidates field.
func WithCandidates(candidates int) zap.Field {
	return zap.Int(FieldCandidates, candidates)
}

// WithClientID sets the ClientID field.
func WithClientID(clientID string) zap.Field {
	return zap.String(FieldClientID, clientID)
}

// WithCredentialCount sets the CredentialCount field.
func WithCredentialCount(count int) zap.Field {
	return zap.Int(FieldCredentialCount, count)
}

// WithCredentialID sets the CredentialID field.
func WithCredentialID(credentialID string) zap.Field {
	return zap.String(FieldCredentialID, credentialID)
}

// WithDescriptorID sets the DescriptorID (input descriptor ID) field.
func WithDescriptorID(descriptorID string) zap.Field {
	return zap.String(FieldDescriptorID, descriptorID)
}

// WithFormat sets the Format field.
func WithFormat(format string) zap.Field {
	return zap.String(FieldFormat, format)
}

// WithPresDefID sets the PresDefID (presentation definition ID) field.
func WithPresDefID(presDefID string) zap.Field {
	return zap.String(FieldPresDefID, presDefID)
}

// WithQueries sets the Queries field.
func WithQueries(queries int) zap.Field {
	return zap.Int(FieldQueries, queries)
}

// WithResponseMode sets the ResponseMode field.
func WithResponseMode(responseMode string) zap.Field {
	return zap.String(FieldResponseMode, responseMode)
}

// WithResponseURI sets the ResponseURI field.
func WithResponseURI(responseURI string) zap.Field {
	return zap.String(FieldResponseURI, responseURI)
}

// WithScore sets the Score field.
func WithScore(score float64) zap.Field {
	return zap.Float64(FieldScore, score)
}

// WithState sets the State field.
func WithState(state string) zap.Field {
	return zap.String(FieldState, state)
}

// WithStatusCode sets the StatusCode field.
func WithStatusCode(statusCode int) zap.Field {
	return zap.Int(FieldStatusCode, statusCode)
}

// WithSubmission sets the Submission field.
func WithSubmission(submission interface{}) zap.Field {
	return zap.Inline(NewObjectMarshaller(FieldSubmission, submission))
}

// WithSubmissionID sets the SubmissionID field.
func WithSubmissionID(submissionID string) zap.Field {
	return zap.String(FieldSubmissionID, submissionID)
}

// ObjectMarshaller uses reflection to marshal an object's fields.
type ObjectMarshaller struct {
	key string
	obj interface{}
}

// NewObjectMarshaller returns a new ObjectMarshaller.
func NewObjectMarshaller(key string, obj interface{}) *ObjectMarshaller {
	return &ObjectMarshaller{key: key, obj: obj}
}

// MarshalLogObject marshals the object's fields.
func (m *ObjectMarshaller) MarshalLogObject(e zapcore.ObjectEncoder) error {
	return e.AddReflected(m.key, m.obj)
}
