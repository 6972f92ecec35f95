package board

// Piece represents a chess piece kind (King, Pawn, etc) with no color. 3 bits.
type Piece uint8

const (
	NoPiece Piece = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

const (
	ZeroPiece Piece = Pawn
	NumPieces Piece = King + 1
)

// KnightBishopRookQueenKing enumerates the "officer" piece kinds, i.e.
// everything but the pawn. Useful for attack generation loops.
var KnightBishopRookQueenKing = []Piece{Knight, Bishop, Rook, Queen, King}

func ParsePiece(r rune) (Piece, bool) {
	switch r {
	case 'p', 'P':
		return Pawn, true
	case 'n', 'N':
		return Knight, true
	case 'b', 'B':
		return Bishop, true
	case 'r', 'R':
		return Rook, true
	case 'q', 'Q':
		return Queen, true
	case 'k', 'K':
		return King, true
	default:
		return NoPiece, false
	}
}

func (p Piece) IsValid() bool {
	return Pawn <= p && p <= King
}

// NominalValue is the classical material value of the piece kind, in
// centipawns (the King's is an arbitrary large constant, never summed into
// material balance directly).
func (p Piece) NominalValue() int {
	switch p {
	case Pawn:
		return 100
	case Knight:
		return 320
	case Bishop:
		return 330
	case Rook:
		return 500
	case Queen:
		return 900
	case King:
		return 20000
	default:
		return 0
	}
}

func (p Piece) String() string {
	switch p {
	case NoPiece:
		return " "
	case Pawn:
		return "p"
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Rook:
		return "r"
	case Queen:
		return "q"
	case King:
		return "k"
	default:
		return "?"
	}
}
