package eval

import (
	"github.com/herohde/corvid/pkg/board"
)

// mobility returns the weighted pseudo-legal mobility for the given color:
// the number of destination squares not occupied by own pieces, scaled by
// a per-kind weight. Pawns are excluded; their placement is covered by the
// PSQT.
func mobility(pos *board.Position, c board.Color) int {
	occ := pos.Occupancy()
	own := pos.OccupancyOf(c)

	sum := 0
	for _, pt := range board.KnightBishopRookQueenKing {
		bb := pos.PiecesOf(c, pt)
		for bb != 0 {
			var sq board.Square
			sq, bb = bb.PopLSB()
			sum += (board.Attackboard(occ, sq, pt) &^ own).PopCount() * mobilityWeight[pt]
		}
	}
	return sum
}

// frcBishopTraps counts corner bishops of the given color blocked in by an
// own pawn on the diagonally adjacent square, e.g. Ba1 with Pb2. The
// pattern cannot arise from a standard start but is common fallout of
// careless Chess960 openings.
func frcBishopTraps(pos *board.Position, c board.Color) int {
	type trap struct {
		bishop, pawn board.Square
	}
	traps := [4]trap{
		{board.NewSquare(board.FileA, board.Rank1), board.NewSquare(board.FileB, board.Rank2)},
		{board.NewSquare(board.FileH, board.Rank1), board.NewSquare(board.FileG, board.Rank2)},
		{board.NewSquare(board.FileA, board.Rank8), board.NewSquare(board.FileB, board.Rank7)},
		{board.NewSquare(board.FileH, board.Rank8), board.NewSquare(board.FileG, board.Rank7)},
	}

	n := 0
	bishops := pos.PiecesOf(c, board.Bishop)
	pawns := pos.PiecesOf(c, board.Pawn)
	for _, t := range traps {
		if bishops.IsSet(t.bishop) && pawns.IsSet(t.pawn) {
			n++
		}
	}
	return n
}

// distance is the Chebyshev distance between two squares.
func distance(a, b board.Square) int {
	df := int(a.File()) - int(b.File())
	if df < 0 {
		df = -df
	}
	dr := int(a.Rank()) - int(b.Rank())
	if dr < 0 {
		dr = -dr
	}
	if df > dr {
		return df
	}
	return dr
}
