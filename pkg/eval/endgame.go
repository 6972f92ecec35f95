package eval

import (
	"github.com/herohde/corvid/pkg/board"
)

// endgameAdjust applies the endgame heuristics to a white-relative score:
// king-drive bonuses in won bare-king endings and a scaling divisor for
// drawish 4- and 5-man piece configurations.
func endgameAdjust(pos *board.Position, score int) int {
	wOnlyKing := pieceCount(pos, board.White) == 1
	bOnlyKing := pieceCount(pos, board.Black) == 1

	switch {
	case bOnlyKing && !wOnlyKing:
		score += kingDrive(pos, board.White)
	case wOnlyKing && !bOnlyKing:
		score -= kingDrive(pos, board.Black)
	}

	if isDrawishPieceEnding(pos) {
		score /= drawishDivisor
	}
	return score
}

const drawishDivisor = 4

var corners = [4]board.Square{
	board.NewSquare(board.FileA, board.Rank1),
	board.NewSquare(board.FileH, board.Rank1),
	board.NewSquare(board.FileA, board.Rank8),
	board.NewSquare(board.FileH, board.Rank8),
}

// kingDrive rewards the mating side for closing in with its king and for
// having the defending king near a corner. In KBNK only the corners of the
// bishop's color count, since mate can only be forced there.
func kingDrive(pos *board.Position, strong board.Color) int {
	weak := strong.Opponent()
	strongK := pos.King(strong)
	weakK := pos.King(weak)

	cornerDist := 14
	for _, c := range corners {
		if kbnkOnly(pos, strong) && squareShade(c) != squareShade(pos.PiecesOf(strong, board.Bishop).LSB()) {
			continue
		}
		if d := distance(weakK, c); d < cornerDist {
			cornerDist = d
		}
	}

	return 10*(7-distance(strongK, weakK)) + 10*(7-cornerDist)
}

// kbnkOnly reports whether the strong side has exactly king, bishop and
// knight, the one won bare-king ending where the mating corner is
// constrained.
func kbnkOnly(pos *board.Position, strong board.Color) bool {
	return pos.PiecesOf(strong, board.Bishop).PopCount() == 1 &&
		pos.PiecesOf(strong, board.Knight).PopCount() == 1 &&
		pieceCount(pos, strong) == 3
}

func squareShade(sq board.Square) int {
	return (int(sq.File()) + int(sq.Rank())) & 1
}

// isDrawishPieceEnding reports whether the position is a pawnless 4- or
// 5-man ending of rooks and minors only. Such endings (R v R, R v minor,
// R+minor v R, minor v minor) are drawn with best play far more often than
// the bare material balance suggests.
func isDrawishPieceEnding(pos *board.Position) bool {
	if pos.PiecesOf(board.White, board.Pawn)|pos.PiecesOf(board.Black, board.Pawn) != 0 {
		return false
	}
	if pos.PiecesOf(board.White, board.Queen)|pos.PiecesOf(board.Black, board.Queen) != 0 {
		return false
	}
	total := pieceCount(pos, board.White) + pieceCount(pos, board.Black)
	if total != 4 && total != 5 {
		return false
	}
	// Both sides must still have a piece besides the king; a bare-king
	// ending is handled by the king-drive bonus instead.
	return pieceCount(pos, board.White) > 1 && pieceCount(pos, board.Black) > 1
}

// isTrivialDraw reports the material configurations evaluated as dead
// draws without further inspection: bare kings plus at most one minor in
// total, or exactly one equal minor each (KBKB, KNKN).
func isTrivialDraw(pos *board.Position) bool {
	if pos.PiecesOf(board.White, board.Pawn)|pos.PiecesOf(board.Black, board.Pawn) != 0 {
		return false
	}
	for _, pt := range []board.Piece{board.Rook, board.Queen} {
		if pos.PiecesOf(board.White, pt)|pos.PiecesOf(board.Black, pt) != 0 {
			return false
		}
	}

	w, b := minorCount(pos, board.White), minorCount(pos, board.Black)
	if w+b <= 1 {
		return true
	}
	if w == 1 && b == 1 {
		return pos.PiecesOf(board.White, board.Knight).PopCount() == pos.PiecesOf(board.Black, board.Knight).PopCount()
	}
	return false
}
