package search

import (
	"context"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/movegen"
)

// quiesce resolves the horizon: stand pat against the static evaluation,
// then search only tactical moves (all evasions when in check) down to a
// separate quiescence depth budget. Underpromotions are never searched
// here.
func (r *runAlphaBeta) quiesce(ctx context.Context, pos *board.Position, alpha, beta board.Score, qdepth int) board.Score {
	r.sctx.Nodes++
	if r.sctx.Stopped() {
		return 0
	}

	inCheck := pos.IsChecked(pos.Turn)
	if !inCheck {
		standPat := r.sctx.Eval.Evaluate(ctx, pos)
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}
	if qdepth <= 0 {
		if inCheck {
			return r.sctx.Eval.Evaluate(ctx, pos)
		}
		return alpha
	}

	moves := movegen.GenerateTactical(pos, false)
	if len(moves) == 0 {
		if inCheck {
			return -board.Inf // mated
		}
		return alpha
	}

	picker := NewPicker(moves)
	for {
		m, _, ok := picker.Next()
		if !ok {
			break
		}
		if isUnderpromotion(m) {
			continue
		}

		child := pos.MakeMove(m)
		score := r.quiesce(ctx, &child, beta.Negate(), alpha.Negate(), qdepth-1).Negate()

		if score > alpha {
			alpha = score
			if alpha >= beta {
				break // cutoff
			}
		}
	}
	return alpha
}
