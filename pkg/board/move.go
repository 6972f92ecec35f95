package board

import "fmt"

// MoveType tags a move with enough information to apply it without
// re-deriving context from the position: 0 covers both quiet moves and
// captures (Capture is inferred from the Capture field being non-zero),
// 1-4 are the four castling variants, and 5-8 are the four promotion
// pieces. EnPassant is its own tag since it is the one case where the
// captured square differs from To.
type MoveType uint8

const (
	Quiet MoveType = iota
	WhiteCastleKingSide
	WhiteCastleQueenSide
	BlackCastleKingSide
	BlackCastleQueenSide
	PromoteKnight
	PromoteBishop
	PromoteRook
	PromoteQueen
	EnPassant
)

// Move represents a not-necessarily-legal move along with the metadata
// needed to apply and unapply it. For castling, From/To follow the
// Chess960 "king captures own rook" convention: From is the
// king's origin square and To is the rook's origin square, even in
// standard chess where the king visibly lands two squares over.
type Move struct {
	Type     MoveType
	From, To Square
	Piece    Piece // moving piece kind
	Capture  Piece // captured piece kind, NoPiece if none.
	Score    int32 // move-ordering score, not a search value.
}

func (m Move) IsCastle() bool {
	switch m.Type {
	case WhiteCastleKingSide, WhiteCastleQueenSide, BlackCastleKingSide, BlackCastleQueenSide:
		return true
	default:
		return false
	}
}

func (m Move) IsPromotion() bool {
	switch m.Type {
	case PromoteKnight, PromoteBishop, PromoteRook, PromoteQueen:
		return true
	default:
		return false
	}
}

func (m Move) PromotionPiece() Piece {
	switch m.Type {
	case PromoteKnight:
		return Knight
	case PromoteBishop:
		return Bishop
	case PromoteRook:
		return Rook
	case PromoteQueen:
		return Queen
	default:
		return NoPiece
	}
}

func (m Move) IsCapture() bool {
	return m.Capture != NoPiece || m.Type == EnPassant
}

// ParseMove parses a move in pure algebraic coordinate notation, such as
// "a2a4" or "a7a8q". The From/To squares are taken verbatim; the caller
// (movegen) is responsible for re-tagging castling/en passant/capture
// against a concrete position, since notation alone can't distinguish a
// standard king-side castle from a quiet king move in Chess960.
func ParseMove(str string) (Move, error) {
	runes := []rune(str)

	if len(runes) < 4 || len(runes) > 5 {
		return Move{}, fmt.Errorf("invalid move: %q", str)
	}

	from, err := ParseSquare(runes[0], runes[1])
	if err != nil {
		return Move{}, fmt.Errorf("invalid from in move %q: %w", str, err)
	}
	to, err := ParseSquare(runes[2], runes[3])
	if err != nil {
		return Move{}, fmt.Errorf("invalid to in move %q: %w", str, err)
	}

	if len(runes) == 5 {
		promo, ok := ParsePiece(runes[4])
		if !ok || promo == Pawn || promo == King {
			return Move{}, fmt.Errorf("invalid promotion in move %q", str)
		}
		t, ok := promotionMoveType(promo)
		if !ok {
			return Move{}, fmt.Errorf("invalid promotion in move %q", str)
		}
		return Move{Type: t, From: from, To: to}, nil
	}

	return Move{From: from, To: to}, nil
}

func promotionMoveType(p Piece) (MoveType, bool) {
	switch p {
	case Knight:
		return PromoteKnight, true
	case Bishop:
		return PromoteBishop, true
	case Rook:
		return PromoteRook, true
	case Queen:
		return PromoteQueen, true
	default:
		return Quiet, false
	}
}

func (m Move) Equals(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Type == o.Type
}

// Format renders the move in UCI long algebraic notation for the given
// protocol mode. In Chess960 mode castling is emitted as the king
// capturing its own rook, which is how the internal encoding already
// stores it; otherwise it falls back to the classic two-square king hop.
func (m Move) Format(chess960 bool) string {
	if chess960 && m.IsCastle() {
		return fmt.Sprintf("%v%v", m.From, m.To)
	}
	return m.String()
}

// String renders the move in UCI long algebraic notation. Chess960
// castling moves are rendered as the king's visible destination square
// (the standard two-square hop) rather than the internal king-captures-
// rook encoding, since that is what UCI expects on the wire.
func (m Move) String() string {
	to := m.To
	switch m.Type {
	case WhiteCastleKingSide:
		to = NewSquare(FileG, Rank1)
	case WhiteCastleQueenSide:
		to = NewSquare(FileC, Rank1)
	case BlackCastleKingSide:
		to = NewSquare(FileG, Rank8)
	case BlackCastleQueenSide:
		to = NewSquare(FileC, Rank8)
	}
	if m.IsPromotion() {
		return fmt.Sprintf("%v%v%v", m.From, to, m.PromotionPiece())
	}
	return fmt.Sprintf("%v%v", m.From, to)
}
