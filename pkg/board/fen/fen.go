// Package fen contains utilities for reading and writing positions in FEN
// notation, including Shredder-FEN style castling fields for Chess960.
package fen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/herohde/corvid/pkg/board"
)

const Initial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Decode returns a new position from a FEN (or Shredder-FEN) description.
// chess960 controls how the castling field is interpreted: when true, a
// file letter (A-H/a-h) names the rook's origin square for that castling
// right, the Shredder-FEN convention, and the classic "KQkq" letters are
// accepted as well; when false only the classic letters are used and rook files are
// inferred from the actual back-rank rook positions (so a standard FEN
// with a randomized back rank, e.g. from a Chess960 start position saved
// with ordinary letters, still decodes correctly).
//
// Example: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
func Decode(s string, chess960 bool) (*board.Position, error) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid number of fields in FEN: %q", s)
	}

	// (1) Piece placement, from white's perspective: rank 8 down to rank
	// 1, each rank from file a through file h.

	var pieces []board.Placement

	r, f := board.Rank8, board.FileA
	for _, c := range parts[0] {
		switch {
		case c == '/':
			if f != board.NumFiles {
				return nil, fmt.Errorf("invalid rank length in FEN: %q", s)
			}
			r--
			f = board.FileA

		case unicode.IsDigit(c):
			f += board.File(c - '0')

		case unicode.IsLetter(c):
			color, piece, ok := parsePiece(c)
			if !ok {
				return nil, fmt.Errorf("invalid piece %q in FEN: %q", c, s)
			}
			if f >= board.NumFiles || !r.IsValid() {
				return nil, fmt.Errorf("piece placement overflows rank in FEN: %q", s)
			}
			pieces = append(pieces, board.Placement{Square: board.NewSquare(f, r), Color: color, Piece: piece})
			f++

		default:
			return nil, fmt.Errorf("invalid character %q in FEN: %q", c, s)
		}
	}
	if r != board.Rank1 || f != board.NumFiles {
		return nil, fmt.Errorf("invalid number of squares in FEN: %q", s)
	}

	// (2) Active color.

	turn, ok := parseColor(parts[1])
	if !ok {
		return nil, fmt.Errorf("invalid active color in FEN: %q", s)
	}

	// (3) Castling availability and, implicitly for Chess960, rook
	// origin files.

	rooks := inferRookOrigins(pieces)
	castle, err := parseCastling(parts[2], chess960, pieces, &rooks)
	if err != nil {
		return nil, fmt.Errorf("invalid castling in FEN %q: %w", s, err)
	}

	// (4) En passant target square.

	ep := board.NoSquare
	if parts[3] != "-" {
		sq, err := board.ParseSquareStr(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant square in FEN: %q", s)
		}
		ep = sq
	}

	// (5) Halfmove clock since the last pawn move or capture.

	fifty, err := strconv.Atoi(parts[4])
	if err != nil || fifty < 0 {
		return nil, fmt.Errorf("invalid halfmove clock in FEN: %q", s)
	}

	// (6) Fullmove number, starting at 1, incremented after Black moves.

	fullmove, err := strconv.Atoi(parts[5])
	if err != nil || fullmove < 1 {
		return nil, fmt.Errorf("invalid fullmove number in FEN: %q", s)
	}

	return board.NewPosition(pieces, turn, castle, ep, fifty, fullmove, rooks)
}

// Encode encodes the position in FEN notation. Castling rights are
// printed using the classic KQkq letters; callers targeting strict
// Shredder-FEN consumers should use EncodeShredder instead.
func Encode(p *board.Position) string {
	return encode(p, false)
}

// EncodeShredder encodes the position's castling field using rook-origin
// file letters, unambiguous for Chess960 positions.
func EncodeShredder(p *board.Position) string {
	return encode(p, true)
}

func encode(p *board.Position, shredder bool) string {
	var sb strings.Builder
	for r := board.Rank8; ; r-- {
		blanks := 0
		for f := board.FileA; f < board.NumFiles; f++ {
			color, piece, ok := p.PieceAt(board.NewSquare(f, r))
			if !ok {
				blanks++
				continue
			}
			if blanks > 0 {
				sb.WriteString(strconv.Itoa(blanks))
				blanks = 0
			}
			sb.WriteRune(printPiece(color, piece))
		}
		if blanks > 0 {
			sb.WriteString(strconv.Itoa(blanks))
		}
		if r == board.Rank1 {
			break
		}
		sb.WriteString("/")
	}

	ep := "-"
	if p.EPSquare != board.NoSquare {
		ep = p.EPSquare.String()
	}

	castle := printCastling(p.Castle, shredder, p.Rooks)

	return fmt.Sprintf("%v %v %v %v %v %v", sb.String(), printColor(p.Turn), castle, ep, p.Fifty, p.FullMove)
}

// inferRookOrigins scans the back ranks for the outermost rooks flanking
// each king, the standard way to recover Chess960 rook files when the
// FEN uses plain KQkq letters instead of Shredder file letters.
func inferRookOrigins(pieces []board.Placement) board.RookOrigins {
	rooks := board.DefaultRookOrigins()
	for _, c := range []board.Color{board.White, board.Black} {
		rank := board.Rank1
		if c == board.Black {
			rank = board.Rank8
		}
		var kingFile board.File = -1
		var rookFiles []board.File
		for _, pl := range pieces {
			if pl.Color != c || pl.Square.Rank() != rank {
				continue
			}
			if pl.Piece == board.King {
				kingFile = pl.Square.File()
			}
			if pl.Piece == board.Rook {
				rookFiles = append(rookFiles, pl.Square.File())
			}
		}
		if kingFile < 0 {
			continue
		}
		var files board.RookOrigins
		files = rooks
		kingSide, queenSide := files.KingSideRookFile(c), files.QueenSideRookFile(c)
		foundQueenSide := false
		for _, rf := range rookFiles {
			if rf > kingFile {
				kingSide = rf
			} else if rf < kingFile && !foundQueenSide {
				queenSide = rf
				foundQueenSide = true
			}
		}
		rooks.File[c] = [2]board.File{kingSide, queenSide}
	}
	return rooks
}

func parseCastling(s string, chess960 bool, pieces []board.Placement, rooks *board.RookOrigins) (board.Castling, error) {
	var c board.Castling
	if s == "-" {
		return c, nil
	}
	for _, r := range s {
		switch {
		case r == 'K':
			c |= board.WhiteKingSide
		case r == 'Q':
			c |= board.WhiteQueenSide
		case r == 'k':
			c |= board.BlackKingSide
		case r == 'q':
			c |= board.BlackQueenSide
		case chess960 && r >= 'A' && r <= 'H':
			setShredderRight(rooks, board.White, board.File(r-'A'), pieces, &c)
		case chess960 && r >= 'a' && r <= 'h':
			setShredderRight(rooks, board.Black, board.File(r-'a'), pieces, &c)
		default:
			return 0, fmt.Errorf("invalid castling letter %q", r)
		}
	}
	return c, nil
}

func setShredderRight(rooks *board.RookOrigins, c board.Color, file board.File, pieces []board.Placement, out *board.Castling) {
	rank := board.Rank1
	if c == board.Black {
		rank = board.Rank8
	}
	var kingFile board.File = -1
	for _, pl := range pieces {
		if pl.Color == c && pl.Piece == board.King && pl.Square.Rank() == rank {
			kingFile = pl.Square.File()
		}
	}
	if file > kingFile {
		rooks.File[c][0] = file
		*out |= board.RightFor(c, true)
	} else {
		rooks.File[c][1] = file
		*out |= board.RightFor(c, false)
	}
}

func printCastling(c board.Castling, shredder bool, rooks board.RookOrigins) string {
	if c == 0 {
		return "-"
	}
	var sb strings.Builder
	if !shredder {
		return c.String()
	}
	if c.IsAllowed(board.WhiteKingSide) {
		sb.WriteRune(rune('A' + rooks.KingSideRookFile(board.White)))
	}
	if c.IsAllowed(board.WhiteQueenSide) {
		sb.WriteRune(rune('A' + rooks.QueenSideRookFile(board.White)))
	}
	if c.IsAllowed(board.BlackKingSide) {
		sb.WriteRune(rune('a' + rooks.KingSideRookFile(board.Black)))
	}
	if c.IsAllowed(board.BlackQueenSide) {
		sb.WriteRune(rune('a' + rooks.QueenSideRookFile(board.Black)))
	}
	return sb.String()
}

func parseColor(s string) (board.Color, bool) {
	switch s {
	case "w", "W":
		return board.White, true
	case "b", "B":
		return board.Black, true
	default:
		return 0, false
	}
}

func printColor(c board.Color) string {
	if c == board.White {
		return "w"
	}
	return "b"
}

func parsePiece(r rune) (board.Color, board.Piece, bool) {
	p, ok := board.ParsePiece(r)
	if !ok {
		return 0, 0, false
	}
	if unicode.IsUpper(r) {
		return board.White, p, true
	}
	return board.Black, p, true
}

func printPiece(c board.Color, p board.Piece) rune {
	s := p.String()
	if c == board.White {
		s = strings.ToUpper(s)
	}
	return []rune(s)[0]
}
