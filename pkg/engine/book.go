package engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/movegen"
)

// Book represents an opening book.
type Book interface {
	// Find returns a book move for the given position, if any. Once no
	// move is returned, the book should not be consulted again for the
	// game.
	Find(ctx context.Context, pos *board.Position) (board.Move, bool)
}

// PolyglotBook reads the Polyglot binary book format: sorted 16-byte
// big-endian entries of (key, move, weight, learn). Keys hash piece
// placement, castling rights, a legal en passant file and the side to
// move; moves pack destination in bits 0-5, origin in bits 6-11 and an
// optional promotion piece in bits 12-14. Castling is stored as the king
// capturing its own rook, which matches the internal Move encoding.
type PolyglotBook struct {
	entries []bookEntry
}

type bookEntry struct {
	key    uint64
	move   uint16
	weight uint16
}

const bookEntrySize = 16

// OpenPolyglotBook loads an entire book into memory. Book files are small
// relative to the search's appetite for memory, and an in-memory slice
// keeps probing allocation-free.
func OpenPolyglotBook(path string) (*PolyglotBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%bookEntrySize != 0 {
		return nil, fmt.Errorf("truncated book file %v: %v bytes", path, len(data))
	}

	b := &PolyglotBook{entries: make([]bookEntry, 0, len(data)/bookEntrySize)}
	for i := 0; i+bookEntrySize <= len(data); i += bookEntrySize {
		b.entries = append(b.entries, bookEntry{
			key:    binary.BigEndian.Uint64(data[i:]),
			move:   binary.BigEndian.Uint16(data[i+8:]),
			weight: binary.BigEndian.Uint16(data[i+10:]),
		})
	}
	if !sort.SliceIsSorted(b.entries, func(i, j int) bool { return b.entries[i].key < b.entries[j].key }) {
		return nil, fmt.Errorf("book file %v is not sorted by key", path)
	}
	return b, nil
}

// Find probes the book and returns the heaviest-weighted entry whose move
// is legal in the position.
func (b *PolyglotBook) Find(ctx context.Context, pos *board.Position) (board.Move, bool) {
	key := polyglotKey(pos)

	first := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].key >= key })

	legal := movegen.GenerateAll(pos, true)

	var best board.Move
	var weight int = -1
	for i := first; i < len(b.entries) && b.entries[i].key == key; i++ {
		m, ok := decodeBookMove(b.entries[i].move, legal)
		if ok && int(b.entries[i].weight) > weight {
			best, weight = m, int(b.entries[i].weight)
		}
	}
	return best, weight >= 0
}

// decodeBookMove unpacks a book move and resolves it against the legal
// move list. Castling entries arrive as king-takes-rook, which is the
// internal castling encoding already, so a plain from/to/promotion match
// suffices.
func decodeBookMove(raw uint16, legal []board.Move) (board.Move, bool) {
	to := board.Square(raw & 63)
	from := board.Square((raw >> 6) & 63)
	promo := bookPromotion(raw >> 12 & 7)

	for _, m := range legal {
		if m.From != from || m.To != to {
			continue
		}
		if m.IsPromotion() != (promo != board.NoPiece) || (promo != board.NoPiece && m.PromotionPiece() != promo) {
			continue
		}
		return m, true
	}
	return board.Move{}, false
}

func bookPromotion(code uint16) board.Piece {
	switch code {
	case 1:
		return board.Knight
	case 2:
		return board.Bishop
	case 3:
		return board.Rook
	case 4:
		return board.Queen
	default:
		return board.NoPiece
	}
}

// Polyglot key schedule: 768 piece-square keys (black pawn first, then
// white pawn, alternating through the kings), 4 castling keys, 8 en
// passant file keys and one turn key. The keys are drawn from a fixed
// deterministic seed so books built against this engine remain valid
// across runs and platforms.
var polyglotKeys = newPolyglotKeys(0x70ab41)

type polyglotKeyTable struct {
	psq       [12][board.NumSquares]uint64
	castling  [4]uint64
	enpassant [board.NumFiles]uint64
	turn      uint64
}

func newPolyglotKeys(seed int64) *polyglotKeyTable {
	t := &polyglotKeyTable{}
	r := rand.New(rand.NewSource(seed))

	for p := range t.psq {
		for sq := range t.psq[p] {
			t.psq[p][sq] = r.Uint64()
		}
	}
	for i := range t.castling {
		t.castling[i] = r.Uint64()
	}
	for f := range t.enpassant {
		t.enpassant[f] = r.Uint64()
	}
	t.turn = r.Uint64()
	return t
}

// polyglotPiece maps a colored piece to its key plane: black pieces take
// the even planes and white the odd, pawns first and kings last.
var polyglotPiece = [board.NumColors][board.NumPieces]int{
	board.Black: {
		board.Pawn: 0, board.Knight: 2, board.Bishop: 4,
		board.Rook: 6, board.Queen: 8, board.King: 10,
	},
	board.White: {
		board.Pawn: 1, board.Knight: 3, board.Bishop: 5,
		board.Rook: 7, board.Queen: 9, board.King: 11,
	},
}

// polyglotKey hashes the position in the Polyglot manner. The en passant
// key is folded in only when a capturing pawn actually stands next to the
// target, a stricter condition than the FEN field alone.
func polyglotKey(pos *board.Position) uint64 {
	var key uint64

	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		if c, pt, ok := pos.PieceAt(sq); ok {
			key ^= polyglotKeys.psq[polyglotPiece[c][pt]][sq]
		}
	}

	for i, right := range []board.Castling{board.WhiteKingSide, board.WhiteQueenSide, board.BlackKingSide, board.BlackQueenSide} {
		if pos.Castle.IsAllowed(right) {
			key ^= polyglotKeys.castling[i]
		}
	}

	if ep := pos.EPSquare; ep != board.NoSquare && epCapturable(pos) {
		key ^= polyglotKeys.enpassant[ep.File()]
	}

	if pos.Turn == board.White {
		key ^= polyglotKeys.turn
	}
	return key
}

// epCapturable reports whether a pawn of the side to move attacks the en
// passant target square.
func epCapturable(pos *board.Position) bool {
	return board.PawnAttackboard(pos.Turn.Opponent(), board.BitMask(pos.EPSquare))&pos.PiecesOf(pos.Turn, board.Pawn) != 0
}
