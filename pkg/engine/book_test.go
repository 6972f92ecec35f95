package engine

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeBookMove(from, to board.Square) uint16 {
	return uint16(to) | uint16(from)<<6
}

func writeBook(t *testing.T, entries []bookEntry) string {
	t.Helper()

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	var data []byte
	for _, e := range entries {
		var buf [bookEntrySize]byte
		binary.BigEndian.PutUint64(buf[0:], e.key)
		binary.BigEndian.PutUint16(buf[8:], e.move)
		binary.BigEndian.PutUint16(buf[10:], e.weight)
		data = append(data, buf[:]...)
	}

	path := filepath.Join(t.TempDir(), "test.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPolyglotBookFind(t *testing.T) {
	pos, err := fen.Decode(fen.Initial, false)
	require.NoError(t, err)
	key := polyglotKey(pos)

	path := writeBook(t, []bookEntry{
		{key: key, move: encodeBookMove(board.E2, board.E4), weight: 100},
		{key: key, move: encodeBookMove(board.D2, board.D4), weight: 50},
		{key: key + 1, move: encodeBookMove(board.A2, board.A3), weight: 200},
	})

	book, err := OpenPolyglotBook(path)
	require.NoError(t, err)

	m, ok := book.Find(context.Background(), pos)
	require.True(t, ok)
	assert.Equal(t, "e2e4", m.String())
}

func TestPolyglotBookMiss(t *testing.T) {
	pos, err := fen.Decode(fen.Initial, false)
	require.NoError(t, err)

	path := writeBook(t, []bookEntry{
		{key: polyglotKey(pos) ^ 1, move: encodeBookMove(board.E2, board.E4), weight: 100},
	})

	book, err := OpenPolyglotBook(path)
	require.NoError(t, err)

	_, ok := book.Find(context.Background(), pos)
	assert.False(t, ok)
}

func TestPolyglotBookIgnoresIllegalMoves(t *testing.T) {
	pos, err := fen.Decode(fen.Initial, false)
	require.NoError(t, err)
	key := polyglotKey(pos)

	path := writeBook(t, []bookEntry{
		{key: key, move: encodeBookMove(board.E2, board.E5), weight: 200}, // not a legal pawn move
		{key: key, move: encodeBookMove(board.G1, board.F3), weight: 10},
	})

	book, err := OpenPolyglotBook(path)
	require.NoError(t, err)

	m, ok := book.Find(context.Background(), pos)
	require.True(t, ok)
	assert.Equal(t, "g1f3", m.String())
}

func TestPolyglotBookCastlingEncoding(t *testing.T) {
	// Book castling is stored as king-takes-rook: e1h1.
	pos, err := fen.Decode("r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1", false)
	require.NoError(t, err)

	path := writeBook(t, []bookEntry{
		{key: polyglotKey(pos), move: encodeBookMove(board.E1, board.H1), weight: 1},
	})

	book, err := OpenPolyglotBook(path)
	require.NoError(t, err)

	m, ok := book.Find(context.Background(), pos)
	require.True(t, ok)
	assert.Equal(t, board.WhiteCastleKingSide, m.Type)
	assert.Equal(t, "e1g1", m.String())
	assert.Equal(t, "e1h1", m.Format(true))
}

func TestPolyglotBookErrors(t *testing.T) {
	_, err := OpenPolyglotBook(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))
	_, err = OpenPolyglotBook(path)
	assert.Error(t, err)
}

func TestPolyglotKeyDistinguishesState(t *testing.T) {
	base, err := fen.Decode(fen.Initial, false)
	require.NoError(t, err)

	// Same placement, different castling rights or side to move.
	noCastle, err := fen.Decode("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1", false)
	require.NoError(t, err)
	blackToMove, err := fen.Decode("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1", false)
	require.NoError(t, err)

	assert.NotEqual(t, polyglotKey(base), polyglotKey(noCastle))
	assert.NotEqual(t, polyglotKey(base), polyglotKey(blackToMove))
}

func TestPolyglotKeyEnPassantOnlyWhenCapturable(t *testing.T) {
	// After e2e4 the ep square is set but no black pawn can take it.
	after, err := fen.Decode("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", false)
	require.NoError(t, err)
	plain, err := fen.Decode("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", false)
	require.NoError(t, err)
	assert.Equal(t, polyglotKey(plain), polyglotKey(after))

	// With a black pawn on d4, the ep capture is real and keyed.
	capturable, err := fen.Decode("rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", false)
	require.NoError(t, err)
	noEP, err := fen.Decode("rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", false)
	require.NoError(t, err)
	assert.NotEqual(t, polyglotKey(noEP), polyglotKey(capturable))
}
