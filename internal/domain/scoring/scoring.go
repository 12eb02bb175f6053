// Package scoring computes how well a composition fits a lobby.
//
// score = base_power + 0.6*affinity - 0.4*contest
//
// affinity is the fraction of the composition the player already owns and
// contest is the fraction that appears on any opposing board.
package scoring

import "github.com/okian/comprank/internal/domain/model"

// Fixed model weights.
const (
	affinityWeight = 0.6
	contestWeight  = 0.4
)

// Score returns the score of comp in lobby. Compositions without champions
// score exactly their base power.
func Score(comp model.Composition, lobby model.Lobby) float64 {
	if len(comp.Champions) == 0 {
		return comp.BasePower
	}
	return comp.BasePower +
		affinityWeight*Affinity(lobby.MyUnits, comp) -
		contestWeight*Contest(lobby.EnemyUnits, comp)
}

// Affinity returns the fraction of comp's champion positions present in owned.
func Affinity(owned []string, comp model.Composition) float64 {
	if len(comp.Champions) == 0 {
		return 0
	}
	return fraction(comp.Champions, toSet(owned))
}

// Contest returns the fraction of comp's champion positions found on any enemy
// board. Boards are merged into one set, so a unit seen on several boards
// counts once.
func Contest(enemyBoards [][]string, comp model.Composition) float64 {
	if len(comp.Champions) == 0 {
		return 0
	}
	n := 0
	for _, board := range enemyBoards {
		n += len(board)
	}
	union := make(map[string]struct{}, n)
	for _, board := range enemyBoards {
		for _, id := range board {
			union[id] = struct{}{}
		}
	}
	return fraction(comp.Champions, union)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// fraction counts positions of champions whose id is in set.
func fraction(champions []string, set map[string]struct{}) float64 {
	hits := 0
	for _, c := range champions {
		if _, ok := set[c]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(champions))
}
