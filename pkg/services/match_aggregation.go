package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/vectorindex"
)

// AggregateMatches turns raw index hits into ranked project matches for owner.
//
// Hits owned by anyone else are dropped. The remaining hits are grouped by
// project and each group scores the arithmetic mean of its hits. Groups are
// ordered by descending mean, ties keep the order in which the project first
// appeared in hits. Only groups scoring strictly above threshold are returned.
// The result is never nil.
func AggregateMatches(hits []vectorindex.Hit, owner models.OwnerID, threshold float64) []models.MatchResult {
	type group struct {
		name  string
		total float64
		count int
	}

	groups := make(map[uuid.UUID]*group)
	var order []uuid.UUID

	for _, hit := range hits {
		if !owner.Owns(hit.Metadata.OwnerID) {
			continue
		}
		g, ok := groups[hit.Metadata.ProjectID]
		if !ok {
			g = &group{name: hit.Metadata.ProjectName}
			groups[hit.Metadata.ProjectID] = g
			order = append(order, hit.Metadata.ProjectID)
		}
		g.total += hit.Score
		g.count++
	}

	results := make([]models.MatchResult, 0, len(order))
	for _, id := range order {
		g := groups[id]
		results = append(results, models.MatchResult{
			ProjectID:    id,
			ProjectName:  g.name,
			AverageScore: g.total / float64(g.count),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].AverageScore > results[j].AverageScore
	})

	kept := results[:0]
	for _, r := range results {
		if r.AverageScore > threshold {
			kept = append(kept, r)
		}
	}
	return kept
}
