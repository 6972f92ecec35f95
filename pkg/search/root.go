package search

import (
	"context"
	"sort"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/eval"
	"github.com/herohde/corvid/pkg/movegen"
)

// Root owns the root position and its legal move list across
// iterative-deepening rounds. The list order is the root move ordering:
// seeded once from static evaluations, then maintained by rotating each
// round's best move to the front.
type Root struct {
	Pos   board.Position
	Moves []board.Move
}

func NewRoot(pos *board.Position, underpromotions bool) *Root {
	return &Root{Pos: *pos, Moves: movegen.GenerateAll(pos, underpromotions)}
}

// Root ordering bonuses: prefer castling and queen promotions among
// otherwise equal-looking moves.
const (
	rootCastleBonus     = 30
	rootQueenPromoBonus = 115
)

// SeedScores orders the root list by a full evaluation of each successor
// position plus bounded noise, so that iterative deepening starts from a
// sensible ordering and low playing levels spread their choices.
func (r *Root) SeedScores(ctx context.Context, e eval.Evaluator, noise eval.Random) {
	for i := range r.Moves {
		child := r.Pos.MakeMove(r.Moves[i])
		score := int(e.Evaluate(ctx, &child).Negate())
		score += noise.Noise()
		if r.Moves[i].IsCastle() {
			score += rootCastleBonus
		}
		if r.Moves[i].Type == board.PromoteQueen {
			score += rootQueenPromoBonus
		}
		r.Moves[i].Score = int32(score)
	}

	sort.SliceStable(r.Moves, func(i, j int) bool {
		return r.Moves[i].Score > r.Moves[j].Score
	})
}

// RotateBest moves the i'th move to the front, preserving the relative
// order of the rest.
func (r *Root) RotateBest(i int) {
	if i <= 0 || i >= len(r.Moves) {
		return
	}
	best := r.Moves[i]
	copy(r.Moves[1:i+1], r.Moves[0:i])
	r.Moves[0] = best
}
