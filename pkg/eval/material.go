package eval

import (
	"github.com/herohde/corvid/pkg/board"
)

// Material values in centipawns, split into middlegame and endgame phases.
// The king has no material value; its placement is scored by the PSQT and
// the endgame heuristics.
var (
	materialMG = [board.NumPieces]int{
		board.Pawn: 82, board.Knight: 337, board.Bishop: 365,
		board.Rook: 477, board.Queen: 1025,
	}
	materialEG = [board.NumPieces]int{
		board.Pawn: 94, board.Knight: 281, board.Bishop: 297,
		board.Rook: 512, board.Queen: 936,
	}
)

// phaseWeight is the contribution of each piece kind to the game phase.
// Pawns and kings carry no phase: a position is "middlegame" in proportion
// to the officers still on the board.
var phaseWeight = [board.NumPieces]int{
	board.Knight: 1, board.Bishop: 1, board.Rook: 2, board.Queen: 4,
}

// maxPhase is the phase sum of the full starting material: 4 knights and
// bishops at 1, 4 rooks at 2, 2 queens at 4.
const maxPhase = 24

// phase returns the game phase in [0;maxPhase], where maxPhase means full
// starting material and 0 a bare-kings-and-pawns ending.
func phase(pos *board.Position) int {
	n := 0
	for c := board.ZeroColor; c < board.NumColors; c++ {
		for _, pt := range []board.Piece{board.Knight, board.Bishop, board.Rook, board.Queen} {
			n += pos.PiecesOf(c, pt).PopCount() * phaseWeight[pt]
		}
	}
	if n > maxPhase {
		n = maxPhase
	}
	return n
}

// blend interpolates between the middlegame and endgame components of a
// score according to the phase.
func blend(mg, eg, phase int) int {
	return (mg*phase + eg*(maxPhase-phase)) / maxPhase
}

// IsEndgame reports whether the position has endgame-level material on
// both sides, the regime where the network hand-off policy applies.
func IsEndgame(pos *board.Position) bool {
	return phase(pos) <= 8
}

// mobilityWeight is the per-destination-square bonus for each piece kind.
// Pawn mobility is not counted; pawn structure is expressed through the
// PSQT instead.
var mobilityWeight = [board.NumPieces]int{
	board.Knight: 2, board.Bishop: 3, board.Rook: 3, board.Queen: 2, board.King: 1,
}

const (
	bishopPairBonus = 20
	tempoBonus      = 25
	checkBonus      = 17

	// frcBishopPenalty punishes a corner bishop locked in by its own pawn
	// on the diagonally adjacent square, a trap specific to some Chess960
	// starting arrays (a bishop on a1/h1/a8/h8 behind b2/g2/b7/g7).
	frcBishopPenalty = 100
)

// minorCount returns the number of knights and bishops of the given color.
func minorCount(pos *board.Position, c board.Color) int {
	return pos.PiecesOf(c, board.Knight).PopCount() + pos.PiecesOf(c, board.Bishop).PopCount()
}

// pieceCount returns the total number of pieces (including king and pawns)
// of the given color.
func pieceCount(pos *board.Position, c board.Color) int {
	return pos.OccupancyOf(c).PopCount()
}
