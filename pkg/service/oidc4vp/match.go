/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oidc4vp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/hyperledger/aries-framework-go/pkg/doc/presexch"

	"github.com/persona-chain/wallet-sdk/internal/logfields"
	"github.com/persona-chain/wallet-sdk/pkg/doc/vc"
)

// candidateThreshold is the minimum compatibility score for a credential to
// be offered as a candidate.
const candidateThreshold = 0.5

const (
	essentialFieldWeight = 2
	optionalFieldWeight  = 1
)

// MatchCredentials scores the stored credentials against each query and
// returns ranked candidates. Results are ordered by descending mean candidate
// score, candidates within a result by descending individual score. A query
// nobody satisfies yields an empty candidate list; that is data for the
// caller to act on, not an error. The engine never selects credentials
// itself.
func (s *Service) MatchCredentials(ctx context.Context, queries []*DisclosureQuery) ([]*MatchResult, error) {
	credentials, err := s.credentialStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	results := make([]*MatchResult, 0, len(queries))

	for _, query := range queries {
		result := &MatchResult{Query: query}

		for _, credential := range credentials {
			score := scoreCredential(credential, query)
			if score > candidateThreshold {
				result.Candidates = append(result.Candidates, &Candidate{
					Credential: credential,
					Score:      score,
				})
			}
		}

		sort.SliceStable(result.Candidates, func(i, j int) bool {
			return result.Candidates[i].Score > result.Candidates[j].Score
		})

		if len(result.Candidates) > 0 {
			total := lo.SumBy(result.Candidates, func(candidate *Candidate) float64 {
				return candidate.Score
			})

			result.Score = total / float64(len(result.Candidates))
		}

		logger.Debugc(ctx, "ranked candidates for query",
			logfields.WithDescriptorID(query.ID),
			logfields.WithCandidates(len(result.Candidates)),
			logfields.WithScore(result.Score),
		)

		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	logger.Debugc(ctx, "matched credentials against queries",
		logfields.WithQueries(len(queries)),
		logfields.WithCredentialCount(len(credentials)),
	)

	return results, nil
}

// scoreCredential computes the normalized compatibility score of one
// credential against one query. Type and issuer constraints weigh 1 each,
// field constraints weigh 2 when essential and 1 otherwise; the score is the
// achieved share of the maximum.
func scoreCredential(credential *vc.Credential, query *DisclosureQuery) float64 {
	if matchesAnyCredential(query.Selector) {
		return 1
	}

	var max, achieved float64

	if len(query.Selector.CredentialTypes) > 0 {
		max++

		if len(lo.Intersect(credential.Types, query.Selector.CredentialTypes)) > 0 {
			achieved++
		}
	}

	if len(query.Selector.Issuers) > 0 {
		max++

		if lo.Contains(query.Selector.Issuers, credential.Issuer) {
			achieved++
		}
	}

	for _, field := range query.Selector.Fields {
		weight := float64(optionalFieldWeight)
		if field.Essential {
			weight = essentialFieldWeight
		}

		max += weight

		value := credential.Field(field.Path)
		if value.Exists() && matchesFilter(value, field.Filter) {
			achieved += weight
		}
	}

	return achieved / max
}

// matchesAnyCredential reports whether the selector places no constraints at
// all. Such a query matches every credential with a full score. The policy is
// isolated here so it can be flipped without touching the scoring loop.
func matchesAnyCredential(selector Selector) bool {
	return len(selector.CredentialTypes) == 0 && len(selector.Issuers) == 0 && len(selector.Fields) == 0
}

// matchesFilter validates a field value against the descriptor filter, which
// is a JSON Schema fragment (pattern, const, enum, numeric and length
// bounds).
func matchesFilter(value gjson.Result, filter *presexch.Filter) bool {
	if filter == nil {
		return true
	}

	schema, err := json.Marshal(filter)
	if err != nil {
		return false
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(string(schema)),
		gojsonschema.NewGoLoader(value.Value()),
	)
	if err != nil {
		return false
	}

	return result.Valid()
}
