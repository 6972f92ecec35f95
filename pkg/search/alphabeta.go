package search

import (
	"context"
	"math"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/movegen"
)

// AlphaBeta is the full-width search: alpha-beta with principal variation
// search at the root, null-move pruning, late-move reductions, check and
// singleton extensions, and quiescence at the leaves.
type AlphaBeta struct{}

// Search runs one fixed-depth round over the prepared root list. The
// returned PV is from the root side's perspective. On completion the best
// move is rotated to the front of the root list, so the next round starts
// from the previous principal variation; this also holds for aborted
// rounds if a better move had already been found.
func (AlphaBeta) Search(ctx context.Context, sctx *Context, root *Root, depth int) (PV, error) {
	run := &runAlphaBeta{sctx: sctx}

	alpha, beta := -board.Inf, board.Inf
	best := -1
	var pv []board.Move

	for i, m := range root.Moves {
		if isUnderpromotion(m) && board.Score(m.Score) < alpha+underpromotionMargin {
			continue
		}

		child := root.Pos.MakeMove(m)

		var score board.Score
		var rem []board.Move
		if best < 0 {
			// First move: full window.
			s, r := run.search(ctx, &child, depth-1, 1, -beta, -alpha, true, false)
			score, rem = s.Negate(), r
		} else {
			// Null-window probe, re-search on a fail-high.
			s, _ := run.search(ctx, &child, depth-1, 1, -(alpha + 1), -alpha, false, false)
			score = s.Negate()
			if score > alpha {
				s, r := run.search(ctx, &child, depth-1, 1, -beta, -alpha, true, false)
				score, rem = s.Negate(), r
			}
		}

		if sctx.IsStopped() {
			break // discard the interrupted probe; keep the best so far
		}
		if best < 0 || score > alpha {
			alpha = score
			best = i
			pv = append([]board.Move{m}, rem...)
		}
	}

	if best >= 0 {
		root.RotateBest(best)
	}
	if sctx.IsStopped() {
		return PV{}, ErrHalted
	}
	return PV{Depth: depth, Moves: pv, Score: alpha, Nodes: sctx.Nodes}, nil
}

const underpromotionMargin = 300

func isUnderpromotion(m board.Move) bool {
	return m.IsPromotion() && m.Type != board.PromoteQueen
}

type runAlphaBeta struct {
	sctx *Context
}

// search is the interior negamax. Returns the score from the perspective
// of pos.Turn; a cancelled node returns 0 immediately and the root
// discards the round.
func (r *runAlphaBeta) search(ctx context.Context, pos *board.Position, depth, ply int, alpha, beta board.Score, pv, nullOnPath bool) (board.Score, []board.Move) {
	r.sctx.Nodes++
	if r.sctx.Stopped() {
		return 0, nil
	}

	if depth <= 0 || ply >= MaxSearchDepth {
		return r.quiesce(ctx, pos, alpha, beta, r.sctx.QDepth), nil
	}

	ring := r.sctx.Ring
	ring.Push(pos.Hash)
	defer ring.Pop()

	if pos.Fifty > 100 || pos.HasInsufficientMaterial() || ring.IsThreefold(pos.Hash) {
		return 0, nil
	}

	inCheck := pos.IsChecked(pos.Turn)

	if score, ok := r.tryNullMove(ctx, pos, depth, ply, beta, pv, nullOnPath, inCheck); ok {
		return score, nil
	}

	moves := movegen.GenerateAll(pos, r.sctx.Underpromotions)
	if len(moves) == 0 {
		if inCheck {
			return -board.Inf, nil // mated
		}
		return 0, nil // stalemate
	}

	ext := 0
	if len(moves) == 1 || (depth == 1 && inCheck) {
		ext = 1
	}

	r.sctx.Ordering.ApplyHints(pos.Hash, moves)

	var pvMoves []board.Move
	picker := NewPicker(moves)
	for {
		m, i, ok := picker.Next()
		if !ok {
			break
		}

		childDepth := depth - 1 + ext
		if ext == 0 && depth == 1 && m.Type == board.PromoteQueen {
			childDepth++
		}
		childPV := pv && i < 2 && m.Score == 0

		child := pos.MakeMove(m)

		if r.reducible(depth, i, len(moves), inCheck, m, childPV) && !child.IsChecked(child.Turn) {
			reduced := childDepth - lmrReduction(depth, i)
			s, _ := r.search(ctx, &child, reduced, ply+1, -(alpha + 1), -alpha, false, nullOnPath)
			if s.Negate() <= alpha {
				continue // the reduction held; skip the full-depth re-search
			}
		}

		s, rem := r.search(ctx, &child, childDepth, ply+1, -beta, -alpha, childPV, nullOnPath)
		score := s.Negate()

		if score > alpha {
			alpha = score
			pvMoves = append([]board.Move{m}, rem...)

			if alpha >= beta {
				r.sctx.Ordering.StoreKiller(pos.Hash, m)
				return alpha, pvMoves
			}
			r.sctx.Ordering.StoreGood(pos.Hash, m)
		}
	}

	return alpha, pvMoves
}

// tryNullMove attempts the null-move cutoff: if passing still leaves the
// side to move above beta at reduced depth, the node is good enough to
// prune. Guarded against zugzwang-prone material, check, PV lines and
// stacked null moves.
func (r *runAlphaBeta) tryNullMove(ctx context.Context, pos *board.Position, depth, ply int, beta board.Score, pv, nullOnPath, inCheck bool) (board.Score, bool) {
	if pv || nullOnPath || depth < 3 || inCheck || !hasNullMaterial(pos) {
		return 0, false
	}
	if r.sctx.Eval.Evaluate(ctx, pos) < beta {
		return 0, false
	}

	null := pos.MakeNull()
	s, _ := r.search(ctx, &null, depth-(depth/4+3), ply+1, -beta, -beta+1, false, true)
	if score := s.Negate(); score >= beta {
		return score, true
	}
	return 0, false
}

// hasNullMaterial reports whether the side to move has enough material
// that passing is unlikely to be its best option: any officer, or at
// least two pawns.
func hasNullMaterial(pos *board.Position) bool {
	c := pos.Turn
	officers := pos.PiecesOf(c, board.Knight) | pos.PiecesOf(c, board.Bishop) |
		pos.PiecesOf(c, board.Rook) | pos.PiecesOf(c, board.Queen)
	return officers != 0 || pos.PiecesOf(c, board.Pawn).PopCount() >= 2
}

// reducible reports whether late-move reduction applies to the i'th move
// of the node.
func (r *runAlphaBeta) reducible(depth, i, total int, inCheck bool, m board.Move, childPV bool) bool {
	return depth >= 2 && total >= 5 && !inCheck && i >= 1 && m.Score == 0 && !childPV
}

// lmrReduction is the reduction amount: 2 plus a logarithmic term in
// depth and move index, clamped to [1;6].
func lmrReduction(depth, i int) int {
	r := int(0.25 * math.Log(float64(depth)) * math.Log(float64(i)))
	if r < 1 {
		r = 1
	}
	if r > 6 {
		r = 6
	}
	return 2 + r
}
