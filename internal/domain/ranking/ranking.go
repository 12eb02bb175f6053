// Package ranking selects the best compositions for a lobby.
package ranking

import (
	"slices"

	"github.com/okian/comprank/internal/domain/model"
	"github.com/okian/comprank/internal/domain/scoring"
)

// TopN is the number of compositions returned by BestComps.
const TopN = 3

// BestComps scores every composition in pool against lobby and returns the
// TopN highest, best first. Equal scores keep their pool order; NaN compares
// equal to everything. The pool is not modified.
func BestComps(lobby model.Lobby, pool []model.Composition) []model.ScoredComp {
	scored := make([]model.ScoredComp, len(pool))
	for i, comp := range pool {
		scored[i] = model.ScoredComp{Name: comp.Name, Score: scoring.Score(comp, lobby)}
	}
	slices.SortStableFunc(scored, byScoreDesc)
	if len(scored) > TopN {
		scored = scored[:TopN]
	}
	return scored
}

// byScoreDesc compares NaN equal to everything, which is not a strict weak
// order; scores built from decoded JSON numbers are never NaN.
func byScoreDesc(a, b model.ScoredComp) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	default:
		return 0
	}
}
