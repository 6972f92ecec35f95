package search

import (
	"context"
	"testing"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/board/fen"
	"github.com/herohde/corvid/pkg/eval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() *Context {
	return NewContext(eval.NewHybrid(nil, eval.Random{}), NewOrderingTable(context.Background(), 1), nil, nil)
}

// searchToDepth runs iterative deepening by hand up to the given depth
// and returns the last PV.
func searchToDepth(t *testing.T, position string, depth int) PV {
	t.Helper()

	pos, err := fen.Decode(position, false)
	require.NoError(t, err)

	sctx := newTestContext()
	root := NewRoot(pos, true)
	require.NotEmpty(t, root.Moves)
	root.SeedScores(context.Background(), sctx.Eval, eval.Random{})

	var alg AlphaBeta
	var pv PV
	for d := 1; d <= depth; d++ {
		sctx.QDepth = 2 * d
		if sctx.QDepth > MaxQDepth {
			sctx.QDepth = MaxQDepth
		}
		pv, err = alg.Search(context.Background(), sctx, root, d)
		require.NoError(t, err)
	}
	return pv
}

func TestSearchFindsMateInOne(t *testing.T) {
	// Back-rank mate: Ra8#.
	pv := searchToDepth(t, "6k1/5ppp/8/8/8/8/8/R3K3 w - - 0 1", 2)

	require.NotEmpty(t, pv.Moves)
	assert.Equal(t, "a1a8", pv.Moves[0].String())
	assert.Equal(t, board.Inf, pv.Score)
}

func TestSearchFindsMateForBlack(t *testing.T) {
	// The white king is boxed in by its own pawns: Rd1#.
	pv := searchToDepth(t, "3r3k/8/8/8/8/8/5PPP/6K1 b - - 0 1", 2)

	require.NotEmpty(t, pv.Moves)
	assert.Equal(t, "d8d1", pv.Moves[0].String())
	assert.Equal(t, board.Inf, pv.Score)
}

func TestSearchWinsHangingQueen(t *testing.T) {
	// The black queen on d8 is unguarded and the kings are far away.
	pv := searchToDepth(t, "3q3k/8/8/8/8/8/8/3Q3K w - - 0 1", 3)

	require.NotEmpty(t, pv.Moves)
	assert.Equal(t, "d1d8", pv.Moves[0].String())
	assert.Greater(t, int(pv.Score), 500)
}

func TestSearchDetectsStalemate(t *testing.T) {
	pos, err := fen.Decode("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false)
	require.NoError(t, err)

	root := NewRoot(pos, true)
	assert.Empty(t, root.Moves)
}

func TestSearchHaltsOnStop(t *testing.T) {
	pos, err := fen.Decode(fen.Initial, false)
	require.NoError(t, err)

	sctx := newTestContext()
	sctx.Stop()

	root := NewRoot(pos, true)
	root.SeedScores(context.Background(), sctx.Eval, eval.Random{})

	var alg AlphaBeta
	_, err = alg.Search(context.Background(), sctx, root, 4)
	assert.ErrorIs(t, err, ErrHalted)
}

func TestSearchScoresDrawnPositionZero(t *testing.T) {
	// KBKB on the same color complex is dead drawn for the evaluator and
	// the search alike.
	pv := searchToDepth(t, "8/8/4k3/2b5/8/2B5/8/4K3 w - - 0 1", 3)
	assert.Equal(t, board.Score(0), pv.Score)
}

func TestRootRotateBest(t *testing.T) {
	pos, err := fen.Decode(fen.Initial, false)
	require.NoError(t, err)

	root := NewRoot(pos, true)
	require.GreaterOrEqual(t, len(root.Moves), 20)

	third := root.Moves[2]
	first := root.Moves[0]
	second := root.Moves[1]
	root.RotateBest(2)

	assert.True(t, root.Moves[0].Equals(third))
	assert.True(t, root.Moves[1].Equals(first))
	assert.True(t, root.Moves[2].Equals(second))

	// Rotating the front is a no-op.
	root.RotateBest(0)
	assert.True(t, root.Moves[0].Equals(third))
}

func TestLMRReductionBounds(t *testing.T) {
	for depth := 2; depth <= 32; depth++ {
		for i := 1; i < 64; i++ {
			r := lmrReduction(depth, i)
			assert.GreaterOrEqual(t, r, 3)
			assert.LessOrEqual(t, r, 8)
		}
	}
}

func TestHasNullMaterial(t *testing.T) {
	tests := []struct {
		fen string
		ok  bool
	}{
		{fen.Initial, true},
		{"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", false}, // lone pawn
		{"4k3/8/8/8/8/8/3PP3/4K3 w - - 0 1", true}, // two pawns
		{"4k3/8/8/8/8/8/8/4KN2 w - - 0 1", true},   // officer
		{"4k3/8/8/8/8/8/8/4K3 w - - 0 1", false},   // bare king
	}

	for _, tt := range tests {
		pos, err := fen.Decode(tt.fen, false)
		require.NoError(t, err)
		assert.Equal(t, tt.ok, hasNullMaterial(pos), "null material mismatch: %v", tt.fen)
	}
}
