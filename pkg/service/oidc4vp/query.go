/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oidc4vp

import (
	"strings"

	"github.com/hyperledger/aries-framework-go/pkg/doc/presexch"
)

// ExtractQueries converts a presentation definition's input descriptors into
// disclosure queries, one per descriptor in descriptor order. The ordering is
// relied upon when the descriptor map is assembled. The transformation is
// pure: no I/O, no engine state.
func ExtractQueries(pd *presexch.PresentationDefinition) []*DisclosureQuery {
	if pd == nil {
		return nil
	}

	queries := make([]*DisclosureQuery, 0, len(pd.InputDescriptors))

	for _, descriptor := range pd.InputDescriptors {
		queries = append(queries, queryFromDescriptor(descriptor))
	}

	return queries
}

func queryFromDescriptor(descriptor *presexch.InputDescriptor) *DisclosureQuery {
	query := &DisclosureQuery{
		ID:      descriptor.ID,
		Purpose: descriptor.Purpose,
	}

	if query.Purpose == "" {
		query.Purpose = descriptor.Name
	}

	if retention, ok := descriptor.Metadata["retention"].(string); ok {
		query.Retention = retention
	}

	constraints := descriptor.Constraints
	if constraints == nil {
		return query
	}

	query.LimitDisclosure = constraints.LimitDisclosure != nil && *constraints.LimitDisclosure == presexch.Required

	for _, field := range constraints.Fields {
		path, ok := normalizeFieldPath(field.Path)
		if !ok {
			continue
		}

		// Type and issuer constraints with exact values are hoisted into the
		// selector so they match against the credential envelope rather than
		// the subject document.
		if values, hoisted := hoistExactValues(path, "type", field.Filter); hoisted {
			query.Selector.CredentialTypes = append(query.Selector.CredentialTypes, values...)

			continue
		}

		if values, hoisted := hoistExactValues(path, "issuer", field.Filter); hoisted {
			query.Selector.Issuers = append(query.Selector.Issuers, values...)

			continue
		}

		query.Selector.Fields = append(query.Selector.Fields, FieldSelector{
			Path:      path,
			Filter:    field.Filter,
			Essential: field.Predicate != nil && *field.Predicate == presexch.Required,
		})
	}

	return query
}

// normalizeFieldPath converts the first usable JSONPath alternative into the
// restricted dot-path form, stripping the root and JWT envelope prefixes.
// Paths with array indices or wildcards are out of scope and are skipped.
func normalizeFieldPath(paths []string) (string, bool) {
	for _, path := range paths {
		if strings.ContainsAny(path, "[]*") {
			continue
		}

		path = strings.TrimPrefix(path, "$.")
		path = strings.TrimPrefix(path, "vc.")

		if path == "" || strings.HasPrefix(path, "$") {
			continue
		}

		return path, true
	}

	return "", false
}

// hoistExactValues returns the exact values a const or enum filter accepts
// when the path addresses the given envelope field ("type" or "issuer").
func hoistExactValues(path, envelope string, filter *presexch.Filter) ([]string, bool) {
	if path != envelope && path != envelope+".id" {
		return nil, false
	}

	if filter == nil {
		return nil, false
	}

	if value, ok := filter.Const.(string); ok && value != "" {
		return []string{value}, true
	}

	var values []string

	for _, entry := range filter.Enum {
		if value, ok := entry.(string); ok {
			values = append(values, value)
		}
	}

	return values, len(values) > 0
}

// definitionFromScope synthesizes a presentation definition for scope-only
// requests: one descriptor per scope token, each requiring the token as a
// credential type.
func definitionFromScope(scope string) *presexch.PresentationDefinition {
	tokens := scopeQueryTokens(scope)

	descriptors := make([]*presexch.InputDescriptor, 0, len(tokens))

	for _, token := range tokens {
		descriptors = append(descriptors, &presexch.InputDescriptor{
			ID: token,
			Constraints: &presexch.Constraints{
				Fields: []*presexch.Field{{
					Path:   []string{"$.type"},
					Filter: &presexch.Filter{Const: token},
				}},
			},
		})
	}

	return &presexch.PresentationDefinition{
		ID:               defaultDefinitionID,
		InputDescriptors: descriptors,
	}
}
