package loadtest

import (
	"fmt"
	"math"

	"github.com/okian/comprank/internal/domain/model"
)

// scoreTolerance absorbs float formatting on the wire.
const scoreTolerance = 1e-9

// verifyRanking checks a server ranking against the local one: same names in
// the same order and scores within tolerance.
func verifyRanking(expected, got []model.ScoredComp) error {
	if len(expected) != len(got) {
		return fmt.Errorf("expected %d results, got %d", len(expected), len(got))
	}
	for i := range expected {
		if expected[i].Name != got[i].Name {
			return fmt.Errorf("position %d: expected %q, got %q", i, expected[i].Name, got[i].Name)
		}
		if !scoresEqual(expected[i].Score, got[i].Score) {
			return fmt.Errorf("position %d (%s): expected score %.6f, got %.6f",
				i, expected[i].Name, expected[i].Score, got[i].Score)
		}
	}
	return nil
}

func scoresEqual(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= scoreTolerance
}
