package eval

import (
	"github.com/herohde/corvid/pkg/board"
)

// King-and-pawn vs king bitbase, generated once at startup by retrograde
// analysis. The probe answers "is this KPK position a draw with best
// play". Queries with a black pawn are handled by the caller mirroring the
// position vertically first, so the table only covers white pawns.
//
// The index folds the pawn file into [a;d] by horizontal mirror, leaving
// 2 (side to move) x 64 x 64 (kings) x 4 (file) x 6 (ranks 2-7) entries.

type kpkResult uint8

const (
	kpkInvalid kpkResult = 0
	kpkUnknown kpkResult = 1 << iota
	kpkDraw
	kpkWin
)

const kpkSize = 2 * 64 * 64 * 4 * 6

var kpkTable [kpkSize]kpkResult

// KpkIsDraw reports whether a white-pawn KPK position is drawn with best
// play. wtm is true when White is to move.
func KpkIsDraw(wk, wp, bk board.Square, wtm bool) bool {
	if wp.File() > board.FileD {
		wk = mirrorFile(wk)
		wp = mirrorFile(wp)
		bk = mirrorFile(bk)
	}
	return kpkTable[kpkIndex(wtm, wk, bk, wp)]&kpkWin == 0
}

func mirrorFile(sq board.Square) board.Square {
	return board.NewSquare(board.FileH-sq.File(), sq.Rank())
}

func kpkIndex(wtm bool, wk, bk, p board.Square) int {
	stm := 1
	if wtm {
		stm = 0
	}
	return int(wk) | int(bk)<<6 | stm<<12 | int(p.File())<<13 | (6-int(p.Rank()))<<15
}

func init() {
	// Seed every entry with its leaf classification, then propagate
	// win/draw values backwards until the table reaches a fixpoint.
	for idx := 0; idx < kpkSize; idx++ {
		kpkTable[idx] = kpkClassifyLeaf(idx)
	}

	for changed := true; changed; {
		changed = false
		for idx := 0; idx < kpkSize; idx++ {
			if kpkTable[idx] == kpkUnknown {
				if r := kpkClassify(idx); r != kpkUnknown {
					kpkTable[idx] = r
					changed = true
				}
			}
		}
	}
}

func kpkDecode(idx int) (wtm bool, wk, bk, p board.Square) {
	wk = board.Square(idx & 63)
	bk = board.Square((idx >> 6) & 63)
	wtm = (idx>>12)&1 == 0
	file := board.File((idx >> 13) & 3)
	rank := board.Rank(6 - (idx>>15)&7)
	return wtm, wk, bk, board.NewSquare(file, rank)
}

func kpkClassifyLeaf(idx int) kpkResult {
	wtm, wk, bk, p := kpkDecode(idx)

	if wk == bk || wk == p || bk == p || distance(wk, bk) <= 1 {
		return kpkInvalid
	}
	pawnHits := board.PawnAttackboard(board.White, board.BitMask(p))
	if wtm && pawnHits.IsSet(bk) {
		return kpkInvalid // black king already capturable
	}

	if wtm {
		// Promotion next move, safe from capture.
		promo := board.NewSquare(p.File(), board.Rank8)
		if p.Rank() == board.Rank7 && wk != promo &&
			(distance(bk, promo) > 1 || distance(wk, promo) == 1) {
			return kpkWin
		}
		return kpkUnknown
	}

	// Stalemate: the black king has nowhere safe to go.
	escapes := board.KingAttackboard(bk) &^ board.KingAttackboard(wk) &^ pawnHits
	if escapes == 0 {
		return kpkDraw
	}
	// Undefended pawn falls.
	if board.KingAttackboard(bk).IsSet(p) && distance(wk, p) > 1 {
		return kpkDraw
	}
	return kpkUnknown
}

func kpkClassify(idx int) kpkResult {
	wtm, wk, bk, p := kpkDecode(idx)

	var r kpkResult
	if wtm {
		moves := board.KingAttackboard(wk)
		for moves != 0 {
			var to board.Square
			to, moves = moves.PopLSB()
			if to != p {
				r |= kpkTable[kpkIndex(false, to, bk, p)]
			}
		}
		if p.Rank() < board.Rank7 {
			push := board.NewSquare(p.File(), p.Rank()+1)
			if push != wk && push != bk {
				r |= kpkTable[kpkIndex(false, wk, bk, push)]
				if p.Rank() == board.Rank2 {
					jump := board.NewSquare(p.File(), p.Rank()+2)
					if jump != wk && jump != bk {
						r |= kpkTable[kpkIndex(false, wk, bk, jump)]
					}
				}
			}
		}

		// White picks the best continuation: a single winning reply wins,
		// and only all-drawn replies draw.
		switch {
		case r&kpkWin != 0:
			return kpkWin
		case r&kpkUnknown != 0:
			return kpkUnknown
		default:
			return kpkDraw
		}
	}

	moves := board.KingAttackboard(bk)
	for moves != 0 {
		var to board.Square
		to, moves = moves.PopLSB()
		r |= kpkTable[kpkIndex(true, wk, to, p)]
	}

	switch {
	case r&kpkDraw != 0:
		return kpkDraw
	case r&kpkUnknown != 0:
		return kpkUnknown
	default:
		return kpkWin
	}
}
