package loadtest

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
	"github.com/okian/comprank/internal/domain/model"
	"github.com/okian/comprank/internal/domain/ranking"
	"github.com/okian/comprank/pkg/logger"
)

// Board size bounds for generated lobbies.
const (
	minBoardSize = 1
	maxBoardSize = 9
)

// champions returns the distinct champions of pool in first-seen order.
func champions(pool []model.Composition) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range pool {
		for _, ch := range c.Champions {
			if _, ok := seen[ch]; ok {
				continue
			}
			seen[ch] = struct{}{}
			out = append(out, ch)
		}
	}
	return out
}

// generateCases builds cfg.NumLobbies lobbies drawn from the pool's
// champions and computes the expected ranking for each.
func generateCases(ctx context.Context, cfg *Config, pool []model.Composition, stats *Stats) []Case {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	names := champions(pool)

	cases := make([]Case, cfg.NumLobbies)
	for i := range cases {
		lobby := model.Lobby{
			MyUnits:    randomBoard(rng, names),
			EnemyUnits: make([][]string, cfg.Opponents),
		}
		for j := range lobby.EnemyUnits {
			lobby.EnemyUnits[j] = randomBoard(rng, names)
		}
		cases[i] = Case{
			ID:       uuid.NewString(),
			Lobby:    lobby,
			Expected: ranking.BestComps(lobby, pool),
		}
	}

	stats.LobbiesGenerated = len(cases)
	logger.Get().Info(ctx, "generated lobbies",
		logger.Int("count", len(cases)),
		logger.Int("champions", len(names)),
	)
	return cases
}

// randomBoard picks a random board from names. Boards may repeat a champion
// the way a real board holds duplicate units.
func randomBoard(rng *rand.Rand, names []string) []string {
	if len(names) == 0 {
		return []string{}
	}
	n := minBoardSize + rng.IntN(maxBoardSize-minBoardSize+1)
	board := make([]string, n)
	for i := range board {
		board[i] = names[rng.IntN(len(names))]
	}
	slices.Sort(board)
	return board
}
