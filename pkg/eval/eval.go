// Package eval contains position evaluation logic and utilities.
package eval

import (
	"context"

	"github.com/herohde/corvid/pkg/board"
	"go.uber.org/atomic"
)

// Evaluator is a static position evaluator.
type Evaluator interface {
	// Evaluate returns the position score in centipawns from the side to
	// move's perspective (positive = good for the side to move).
	Evaluate(ctx context.Context, pos *board.Position) board.Score
}

// Hybrid evaluates positions with the NNUE network when one is loaded and
// the position suits it, falling back to the classical hand-crafted terms
// otherwise. Scores are cached by Zobrist key; noise and the fifty-move
// shuffle scale are applied outside the cache since they depend on state
// the hash does not cover.
type Hybrid struct {
	net   *Network
	noise Random

	// nnueOff permanently disables the network once the search has
	// concluded it is in a decided endgame (see searchctl), where the
	// classical evaluator's king-drive terms convert wins more directly.
	nnueOff atomic.Bool

	cache evalCache
}

func NewHybrid(net *Network, noise Random) *Hybrid {
	return &Hybrid{net: net, noise: noise}
}

func (h *Hybrid) Evaluate(ctx context.Context, pos *board.Position) board.Score {
	if isTrivialDraw(pos) {
		return 0
	}
	if draw, ok := h.probeKPK(pos); ok && draw {
		return 0
	}

	score, ok := h.cache.read(pos.Hash)
	if !ok {
		if h.useNNUE(pos) {
			score = h.evaluateNNUE(pos)
		} else {
			score = h.evaluateClassical(pos)
		}
		h.cache.write(pos.Hash, score)
	}

	score = shuffleScale(score, pos.Fifty)
	score += h.noise.Noise()
	return board.Score(score)
}

// DisableNNUE switches the evaluator to classical permanently, until the
// next game reset.
func (h *Hybrid) DisableNNUE() {
	h.nnueOff.Store(true)
}

// HasNNUE reports whether the network path is currently in play.
func (h *Hybrid) HasNNUE() bool {
	return h.net != nil && !h.nnueOff.Load()
}

// evaluateClassical computes the hand-crafted evaluation from the side to
// move's perspective.
func (h *Hybrid) evaluateClassical(pos *board.Position) int {
	var mg, eg int

	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		c, pt, ok := pos.PieceAt(sq)
		if !ok {
			continue
		}
		pmg, peg := psqt(c, pt, sq)
		pmg += materialMG[pt]
		peg += materialEG[pt]
		if c == board.White {
			mg += pmg
			eg += peg
		} else {
			mg -= pmg
			eg -= peg
		}
	}

	score := blend(mg, eg, phase(pos))
	score += mobility(pos, board.White) - mobility(pos, board.Black)

	if pos.PiecesOf(board.White, board.Bishop).PopCount() >= 2 {
		score += bishopPairBonus
	}
	if pos.PiecesOf(board.Black, board.Bishop).PopCount() >= 2 {
		score -= bishopPairBonus
	}
	score -= frcBishopPenalty * frcBishopTraps(pos, board.White)
	score += frcBishopPenalty * frcBishopTraps(pos, board.Black)

	score = endgameAdjust(pos, score)

	score *= pos.Turn.Unit()
	score += tempoBonus
	if pos.IsChecked(pos.Turn) {
		// The opponent is giving check.
		score -= checkBonus
	}
	return score
}

// evaluateNNUE probes the network and rescales its output to the same
// range as the classical terms.
func (h *Hybrid) evaluateNNUE(pos *board.Position) int {
	pieces, squares := nnueArrays(pos)
	return h.net.Evaluate(pos.Turn, &pieces, &squares)/4 + tempoBonus
}

// useNNUE is the activation policy: the network is preferred except in
// positions it was not trained for, where the classical terms are more
// reliable.
func (h *Hybrid) useNNUE(pos *board.Position) bool {
	if !h.HasNNUE() {
		return false
	}
	// Bare-king endings are decided by the king-drive heuristics.
	if pieceCount(pos, pos.Turn.Opponent()) <= 2 {
		return false
	}
	if isThreeRookEnding(pos) {
		return false
	}
	return !isWeirdMaterial(pos)
}

// isThreeRookEnding reports a kings-and-rooks-only position with exactly
// three rooks on the board.
func isThreeRookEnding(pos *board.Position) bool {
	rooks := pos.PiecesOf(board.White, board.Rook) | pos.PiecesOf(board.Black, board.Rook)
	kings := pos.PiecesOf(board.White, board.King) | pos.PiecesOf(board.Black, board.King)
	return rooks.PopCount() == 3 && pos.Occupancy() == rooks|kings
}

// isWeirdMaterial reports material configurations outside anything a
// network trained on real games has seen: excess pawns or pieces from
// editor setups, or pawns on the back ranks.
func isWeirdMaterial(pos *board.Position) bool {
	backRanks := board.BitRank(board.Rank1) | board.BitRank(board.Rank8)
	for c := board.ZeroColor; c < board.NumColors; c++ {
		if pos.PiecesOf(c, board.Pawn).PopCount() >= 9 {
			return true
		}
		if pos.PiecesOf(c, board.Pawn)&backRanks != 0 {
			return true
		}
		for _, pt := range []board.Piece{board.Knight, board.Bishop, board.Rook, board.Queen} {
			if pos.PiecesOf(c, pt).PopCount() >= 3 {
				return true
			}
		}
		if pieceCount(pos, c) >= 17 {
			return true
		}
	}
	return false
}

// probeKPK reports (draw, ok) where ok is true iff the position is a KPK
// ending. Black-pawn endings are mirrored vertically before the probe.
func (h *Hybrid) probeKPK(pos *board.Position) (bool, bool) {
	wp := pos.PiecesOf(board.White, board.Pawn)
	bp := pos.PiecesOf(board.Black, board.Pawn)

	switch {
	case wp.PopCount() == 1 && pieceCount(pos, board.White) == 2 && pieceCount(pos, board.Black) == 1:
		return KpkIsDraw(pos.King(board.White), wp.LSB(), pos.King(board.Black), pos.Turn == board.White), true
	case bp.PopCount() == 1 && pieceCount(pos, board.Black) == 2 && pieceCount(pos, board.White) == 1:
		flip := func(sq board.Square) board.Square { return sq ^ 56 }
		return KpkIsDraw(flip(pos.King(board.Black)), flip(bp.LSB()), flip(pos.King(board.White)), pos.Turn == board.Black), true
	default:
		return false, false
	}
}

// shuffleScale fades the score towards zero as the fifty-move counter
// climbs past 30 half-moves without progress, nudging the engine to break
// shuffling sequences while it still can.
func shuffleScale(score, fifty int) int {
	if fifty <= 30 {
		return score
	}
	num := 140 - fifty
	if num < 0 {
		num = 0
	}
	return score * num / 110
}

// evalCache is a fixed-size direct-mapped cache of evaluations keyed by
// Zobrist hash. Collisions displace; correctness never depends on a hit.
type evalCache struct {
	entries [1 << 16]evalEntry
}

type evalEntry struct {
	hash  board.ZobristHash
	score int32
	valid bool
}

func (c *evalCache) read(h board.ZobristHash) (int, bool) {
	e := &c.entries[uint64(h)&(uint64(len(c.entries))-1)]
	if e.valid && e.hash == h {
		return int(e.score), true
	}
	return 0, false
}

func (c *evalCache) write(h board.ZobristHash, score int) {
	e := &c.entries[uint64(h)&(uint64(len(c.entries))-1)]
	*e = evalEntry{hash: h, score: int32(score), valid: true}
}
