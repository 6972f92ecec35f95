// Package movegen generates legal moves for a board.Position.
//
// Generation is pseudo-legal-then-filter: candidates are built
// directly from the magic/attack tables in pkg/board, then every candidate
// is applied with Position.MakeMove and discarded unless the mover's own
// king is safe in the result. This keeps legality in one place
// (Position.IsChecked) instead of duplicating pin/check detection here.
//
// Adapted from BelikovArtem-chego/movegen/movegen.go's pseudo-legal-then-
// copy-make-and-check-own-king approach, re-expressed against pkg/board's
// magic tables and copy-make Position.
package movegen

import (
	"github.com/herohde/corvid/pkg/board"
)

// pieceRank ranks piece kinds for "most valuable victim, least valuable
// attacker" capture ordering. A King never appears as a victim
// (it is never captured), but can be the attacker; every king capture
// scores a flat 99, above any other capture, regardless of the victim.
var pieceRank = [board.NumPieces]int32{board.Pawn: 1, board.Knight: 2, board.Bishop: 3, board.Rook: 4, board.Queen: 5, board.King: 6}

func mvvLva(attacker, victim board.Piece) int32 {
	if attacker == board.King {
		return 99
	}
	return pieceRank[victim]*10 - pieceRank[attacker]
}

const (
	scoreEnPassant      = 10
	scorePawnPush7th    = 91
	scoreQueenPromotion = 115
)

// GenerateAll returns every legal move available to the side to move,
// including underpromotions unless allowUnderpromotion is false, in
// which case only knight and
// queen promotions are generated.
func GenerateAll(pos *board.Position, allowUnderpromotion bool) []board.Move {
	return filterLegal(pos, pseudoLegal(pos, false, allowUnderpromotion))
}

// GenerateTactical returns captures and promotions when the side to move
// is not in check. When in check it returns all legal moves instead, so
// that quiescence search never prunes a check evasion.
func GenerateTactical(pos *board.Position, allowUnderpromotion bool) []board.Move {
	if pos.IsChecked(pos.Turn) {
		return GenerateAll(pos, allowUnderpromotion)
	}
	return filterLegal(pos, pseudoLegal(pos, true, allowUnderpromotion))
}

func filterLegal(pos *board.Position, candidates []board.Move) []board.Move {
	turn := pos.Turn
	legal := make([]board.Move, 0, len(candidates))
	for _, m := range candidates {
		next := pos.MakeMove(m)
		if !next.IsChecked(turn) {
			legal = append(legal, m)
		}
	}
	return legal
}

// pseudoLegal generates candidate moves without verifying that the mover's
// own king ends up safe. tacticalOnly restricts non-pawn, non-castling
// moves to captures; pawn promotions and captures (including en passant)
// are always included since both are tactical.
func pseudoLegal(pos *board.Position, tacticalOnly, allowUnderpromotion bool) []board.Move {
	turn := pos.Turn
	opp := turn.Opponent()
	occ := pos.Occupancy()
	own := pos.OccupancyOf(turn)
	enemy := pos.OccupancyOf(opp)

	var moves []board.Move

	moves = genPawnMoves(pos, turn, occ, enemy, tacticalOnly, allowUnderpromotion, moves)

	for _, pt := range board.KnightBishopRookQueenKing {
		pieces := pos.PiecesOf(turn, pt)
		for pieces != 0 {
			var from board.Square
			from, pieces = pieces.PopLSB()

			targets := board.Attackboard(occ, from, pt) &^ own
			if tacticalOnly {
				targets &= enemy
			}
			for targets != 0 {
				var to board.Square
				to, targets = targets.PopLSB()

				capture := board.NoPiece
				if _, cp, ok := pos.PieceAt(to); ok {
					capture = cp
				}
				score := int32(0)
				if capture != board.NoPiece {
					score = mvvLva(pt, capture)
				}
				moves = append(moves, board.Move{Type: board.Quiet, From: from, To: to, Piece: pt, Capture: capture, Score: score})
			}
		}
	}

	if !tacticalOnly {
		moves = genCastling(pos, turn, occ, moves)
	}

	return moves
}

func genPawnMoves(pos *board.Position, turn board.Color, occ, enemy board.Bitboard, tacticalOnly, allowUnderpromotion bool, moves []board.Move) []board.Move {
	pawns := pos.PiecesOf(turn, board.Pawn)
	promoRank := board.PawnPromotionRank(turn)

	captureTargets := enemy
	if pos.EPSquare != board.NoSquare {
		captureTargets |= board.BitMask(pos.EPSquare)
	}

	for pawns != 0 {
		var from board.Square
		from, pawns = pawns.PopLSB()

		fromBB := board.BitMask(from)

		// Captures (including en passant), always generated: tactical by
		// definition.
		targets := board.PawnAttackboard(turn, fromBB) & captureTargets
		for targets != 0 {
			var to board.Square
			to, targets = targets.PopLSB()

			if pos.EPSquare == to && !enemy.IsSet(to) {
				moves = append(moves, board.Move{Type: board.EnPassant, From: from, To: to, Piece: board.Pawn, Capture: board.Pawn, Score: scoreEnPassant})
				continue
			}

			_, capture, _ := pos.PieceAt(to)
			if board.BitMask(to)&promoRank != 0 {
				moves = appendPromotions(moves, from, to, board.Pawn, capture, allowUnderpromotion)
			} else {
				moves = append(moves, board.Move{Type: board.Quiet, From: from, To: to, Piece: board.Pawn, Capture: capture, Score: mvvLva(board.Pawn, capture)})
			}
		}

		single := board.PawnPushboard(occ, turn, fromBB)
		if tacticalOnly {
			// Pushes are tactical only when they promote.
			if single&promoRank != 0 {
				moves = appendPromotions(moves, from, single.LSB(), board.Pawn, board.NoPiece, allowUnderpromotion)
			}
			continue
		}

		if single != 0 {
			to := single.LSB()
			if board.BitMask(to)&promoRank != 0 {
				moves = appendPromotions(moves, from, to, board.Pawn, board.NoPiece, allowUnderpromotion)
			} else {
				score := int32(0)
				if board.BitMask(to)&board.PawnStartRank(turn.Opponent()) != 0 {
					// 7th rank (2nd for Black) push: one step from promoting.
					score = scorePawnPush7th
				}
				moves = append(moves, board.Move{Type: board.Quiet, From: from, To: to, Piece: board.Pawn, Score: score})
			}

			if fromBB&board.PawnStartRank(turn) != 0 {
				double := board.PawnPushboard(occ, turn, single)
				if double != 0 {
					moves = append(moves, board.Move{Type: board.Quiet, From: from, To: double.LSB(), Piece: board.Pawn})
				}
			}
		}
	}

	return moves
}

func appendPromotions(moves []board.Move, from, to board.Square, piece, capture board.Piece, allowUnderpromotion bool) []board.Move {
	score := int32(0)
	if capture != board.NoPiece {
		score = mvvLva(piece, capture)
	}
	moves = append(moves, board.Move{Type: board.PromoteQueen, From: from, To: to, Piece: piece, Capture: capture, Score: score + scoreQueenPromotion})
	if allowUnderpromotion {
		moves = append(moves, board.Move{Type: board.PromoteRook, From: from, To: to, Piece: piece, Capture: capture, Score: score})
		moves = append(moves, board.Move{Type: board.PromoteBishop, From: from, To: to, Piece: piece, Capture: capture, Score: score})
	}
	moves = append(moves, board.Move{Type: board.PromoteKnight, From: from, To: to, Piece: piece, Capture: capture, Score: score})
	return moves
}

func genCastling(pos *board.Position, turn board.Color, occ board.Bitboard, moves []board.Move) []board.Move {
	rank := board.Rank1
	if turn == board.Black {
		rank = board.Rank8
	}
	kingFrom := pos.King(turn)

	for _, ks := range []bool{true, false} {
		right := board.RightFor(turn, ks)
		if !pos.Castle.IsAllowed(right) {
			continue
		}

		var rookFile board.File
		var kingToFile, rookToFile board.File
		if ks {
			rookFile = pos.Rooks.KingSideRookFile(turn)
			kingToFile, rookToFile = board.FileG, board.FileF
		} else {
			rookFile = pos.Rooks.QueenSideRookFile(turn)
			kingToFile, rookToFile = board.FileC, board.FileD
		}
		rookFrom := board.NewSquare(rookFile, rank)
		kingTo := board.NewSquare(kingToFile, rank)
		rookTo := board.NewSquare(rookToFile, rank)

		if _, pt, ok := pos.PieceAt(rookFrom); !ok || pt != board.Rook {
			continue // tracked rook origin no longer holds a rook
		}

		if !squaresClear(occ, kingFrom, kingTo, kingFrom, rookFrom) {
			continue
		}
		if !squaresClear(occ, rookFrom, rookTo, kingFrom, rookFrom) {
			continue
		}

		if anyAttacked(pos, turn, kingFrom, kingTo) {
			continue
		}

		var t board.MoveType
		switch {
		case turn == board.White && ks:
			t = board.WhiteCastleKingSide
		case turn == board.White && !ks:
			t = board.WhiteCastleQueenSide
		case turn == board.Black && ks:
			t = board.BlackCastleKingSide
		default:
			t = board.BlackCastleQueenSide
		}
		moves = append(moves, board.Move{Type: t, From: kingFrom, To: rookFrom, Piece: board.King})
	}
	return moves
}

// squaresClear reports whether every square from a to b (both ends
// included) is empty, except for ignore1/ignore2 which are
// allowed to be occupied (the king's and rook's own origin squares, which
// may overlap in Chess960).
func squaresClear(occ board.Bitboard, a, b board.Square, ignore1, ignore2 board.Square) bool {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	for f := lo.File(); f <= hi.File(); f++ {
		sq := board.NewSquare(f, lo.Rank())
		if sq == ignore1 || sq == ignore2 {
			continue
		}
		if occ.IsSet(sq) {
			return false
		}
	}
	return true
}

// anyAttacked reports whether any square the king traverses between a and
// b (inclusive of both ends) is attacked by the opponent.
func anyAttacked(pos *board.Position, mover board.Color, a, b board.Square) bool {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	for f := lo.File(); f <= hi.File(); f++ {
		if pos.IsAttacked(mover, board.NewSquare(f, lo.Rank())) {
			return true
		}
	}
	return false
}
