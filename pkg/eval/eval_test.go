package eval

import (
	"context"
	"testing"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateSymmetry(t *testing.T) {
	tests := []string{
		fen.Initial,
		"r2q2k1/pQ2bppp/4p3/8/3r1B2/6P1/P3PP1P/1R3RK1 w - - 0 1",
		"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 1",
		"6k1/3r4/2R5/P5P1/1P4p1/8/4rB2/6K1 b - - 0 1",
		"3r2k1/5p2/6p1/4b3/1P2P3/1R2P2p/P1K1N3/8 b - - 0 1",
	}

	h := NewHybrid(nil, Random{})
	for _, tt := range tests {
		pos, err := fen.Decode(tt, false)
		require.NoError(t, err)

		mirrored, err := mirrorRanks(pos)
		require.NoError(t, err)

		assert.Equal(t, h.evaluateClassical(pos), h.evaluateClassical(mirrored), "eval not symmetric: %v", tt)
	}
}

// mirrorRanks flips the position vertically and swaps piece colors, so
// the mirrored position is the same game seen from the other side.
func mirrorRanks(pos *board.Position) (*board.Position, error) {
	var placements []board.Placement
	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		if c, pt, ok := pos.PieceAt(sq); ok {
			placements = append(placements, board.Placement{Square: sq ^ 56, Color: c.Opponent(), Piece: pt})
		}
	}

	var castle board.Castling
	for _, m := range []struct{ from, to board.Castling }{
		{board.WhiteKingSide, board.BlackKingSide},
		{board.WhiteQueenSide, board.BlackQueenSide},
		{board.BlackKingSide, board.WhiteKingSide},
		{board.BlackQueenSide, board.WhiteQueenSide},
	} {
		if pos.Castle.IsAllowed(m.from) {
			castle |= m.to
		}
	}

	ep := pos.EPSquare
	if ep != board.NoSquare {
		ep ^= 56
	}
	return board.NewPosition(placements, pos.Turn.Opponent(), castle, ep, pos.Fifty, pos.FullMove, pos.Rooks)
}

func TestTrivialDraws(t *testing.T) {
	tests := []struct {
		fen  string
		draw bool
	}{
		{"8/8/8/4k3/8/8/8/4K3 w - - 0 1", true},  // KK
		{"8/8/8/4k3/8/2B5/8/4K3 w - - 0 1", true}, // KBK
		{"8/8/8/2b1k3/8/2B5/8/4K3 w - - 0 1", true},  // KBKB
		{"8/8/8/2n1k3/8/2N5/8/4K3 w - - 0 1", true},  // KNKN
		{"8/8/8/2n1k3/8/2B5/8/4K3 w - - 0 1", false}, // KBKN
		{"8/8/8/4k3/8/2R5/8/4K3 w - - 0 1", false},   // KRK
		{"8/8/8/4k3/4p3/8/8/4K3 w - - 0 1", false},   // pawn present
	}

	for _, tt := range tests {
		pos, err := fen.Decode(tt.fen, false)
		require.NoError(t, err)
		assert.Equal(t, tt.draw, isTrivialDraw(pos), "trivial draw mismatch: %v", tt.fen)
	}
}

func TestKPKProbe(t *testing.T) {
	h := NewHybrid(nil, Random{})
	ctx := context.Background()

	tests := []struct {
		fen  string
		draw bool
	}{
		// Rook pawn with the defending king in the corner.
		{"k7/8/8/8/3K4/8/P7/8 w - - 0 1", true},
		{"k7/8/8/8/3K4/8/P7/8 b - - 0 1", true},
		// King on the sixth rank in front of its pawn always wins.
		{"4k3/8/4K3/4P3/8/8/8/8 w - - 0 1", false},
		// Mirrored for a black pawn: same shapes from the other side.
		{"8/p7/8/3k4/8/8/8/K7 b - - 0 1", true},
		{"8/8/8/8/4p3/4k3/8/4K3 b - - 0 1", false},
	}

	for _, tt := range tests {
		pos, err := fen.Decode(tt.fen, false)
		require.NoError(t, err)

		draw, ok := h.probeKPK(pos)
		require.True(t, ok, "not recognized as KPK: %v", tt.fen)
		assert.Equal(t, tt.draw, draw, "KPK result mismatch: %v", tt.fen)

		if tt.draw {
			assert.Equal(t, board.Score(0), h.Evaluate(ctx, pos), "drawn KPK not scored 0: %v", tt.fen)
		}
	}
}

func TestKvKPIsNotDrawnForThePawnSide(t *testing.T) {
	// KvKP from the search scenarios: Black's extra pawn should score
	// clearly positive for Black.
	pos, err := fen.Decode("8/8/8/4p3/4k3/8/8/4K3 b - - 0 1", false)
	require.NoError(t, err)

	h := NewHybrid(nil, Random{})
	assert.Greater(t, int(h.Evaluate(context.Background(), pos)), 0)
}

func TestShuffleScale(t *testing.T) {
	assert.Equal(t, 100, shuffleScale(100, 0))
	assert.Equal(t, 100, shuffleScale(100, 30))
	assert.Greater(t, shuffleScale(100, 31), 90)
	assert.Less(t, shuffleScale(100, 90), 50)
	assert.Equal(t, 0, shuffleScale(100, 140))
	assert.Equal(t, 0, shuffleScale(100, 200))
}

func TestNoiseLimit(t *testing.T) {
	assert.Equal(t, 0, NoiseLimit(100))
	assert.Equal(t, 495, NoiseLimit(1))
	assert.Equal(t, 250, NoiseLimit(50))
	assert.Equal(t, 0, NoiseLimit(0)) // level 0 picks a random move instead
}

func TestNoiseBounds(t *testing.T) {
	r := NewRandom(50, 1)
	for i := 0; i < 1000; i++ {
		n := r.Noise()
		assert.GreaterOrEqual(t, n, -50)
		assert.LessOrEqual(t, n, 50)
	}
	assert.Equal(t, 0, Random{}.Noise())
}

func TestWeirdMaterial(t *testing.T) {
	tests := []struct {
		fen   string
		weird bool
	}{
		{fen.Initial, false},
		{"4k3/8/8/8/8/8/PPPPPPPP/RNBQKBNR w KQ - 0 1", false},
		{"4k3/8/8/8/8/2NNN3/8/4K3 w - - 0 1", true},   // three knights
		{"4k3/pppppppp/p7/8/8/8/8/4K3 w - - 0 1", true}, // nine pawns
		{"4k2P/8/8/8/8/8/8/4K3 w - - 0 1", true},        // pawn on rank 8
	}

	for _, tt := range tests {
		pos, err := fen.Decode(tt.fen, false)
		require.NoError(t, err)
		assert.Equal(t, tt.weird, isWeirdMaterial(pos), "weird material mismatch: %v", tt.fen)
	}
}

func TestNNUEArrays(t *testing.T) {
	pos, err := fen.Decode(fen.Initial, false)
	require.NoError(t, err)

	pieces, squares := nnueArrays(pos)
	assert.Equal(t, nnueWKing, pieces[0])
	assert.Equal(t, uint8(board.E1), squares[0])
	assert.Equal(t, nnueBKing, pieces[1])
	assert.Equal(t, uint8(board.E8), squares[1])

	n := 0
	for n < nnueProbeLen && pieces[n] != 0 {
		n++
	}
	assert.Equal(t, 32, n)
}
