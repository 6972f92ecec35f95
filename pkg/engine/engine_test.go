package engine

import (
	"context"
	"testing"

	"github.com/herohde/corvid/pkg/board/fen"
	"github.com/herohde/corvid/pkg/movegen"
	"github.com/herohde/corvid/pkg/search/searchctl"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()

	if opts.Hash == 0 {
		opts.Hash = 1
	}
	if opts.Level == 0 {
		opts.Level = DefaultLevel
	}
	return New(context.Background(), "corvid", "test", WithOptions(opts), WithSeed(1))
}

func TestEngineResetRejectsMalformedFEN(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Options{})

	assert.Error(t, e.Reset(ctx, "banana"))
	assert.Error(t, e.Reset(ctx, "8/8/8/8/8/8/8/8 w - - 0 1"))          // no kings
	assert.Error(t, e.Reset(ctx, "4k3/8/8/8/8/8/8/4K3 w - -"))          // missing fields
	assert.NoError(t, e.Reset(ctx, "4k3/8/8/8/8/8/8/4K3 w - - 0 1"))
}

func TestEngineMoveRejectsUnknownMove(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Options{})

	err := e.Move(ctx, "e2e5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "e2e5")

	require.NoError(t, e.Move(ctx, "e2e4"))
	require.NoError(t, e.Move(ctx, "e7e5"))
	assert.Error(t, e.Move(ctx, "e4e5")) // blocked
}

func TestEngineAnalyzeReportsBestMove(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Options{})

	out, err := e.Analyze(ctx, searchctl.Options{DepthLimit: lang.Some(uint(2))})
	require.NoError(t, err)

	var moves int
	for pv := range out {
		require.NotEmpty(t, pv.Moves)
		moves++
	}
	assert.Greater(t, moves, 0)

	pv, err := e.Halt(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, pv.Moves)
}

func TestEngineLevelZeroPlaysImmediately(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Options{})
	e.SetLevel(0)

	out, err := e.Analyze(ctx, searchctl.Options{})
	require.NoError(t, err)

	pv := <-out
	require.NotEmpty(t, pv.Moves)

	// The fast move must be legal in the starting position.
	legal := false
	for _, m := range movegen.GenerateAll(e.Board().Position(), true) {
		if m.Equals(pv.Moves[0]) {
			legal = true
		}
	}
	assert.True(t, legal)

	_, err = e.Halt(ctx)
	require.NoError(t, err)
}

func TestEngineSecondAnalyzeFailsWhileActive(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Options{})

	_, err := e.Analyze(ctx, searchctl.Options{Infinite: true})
	require.NoError(t, err)

	_, err = e.Analyze(ctx, searchctl.Options{})
	assert.Error(t, err)

	_, err = e.Halt(ctx)
	require.NoError(t, err)
}

func TestEngineNewGameResets(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Options{})

	require.NoError(t, e.Move(ctx, "e2e4"))
	e.NewGame(ctx)

	assert.Equal(t, fen.Initial, fen.Encode(e.Board().Position()))
}

func TestEngineBookMoveShortcut(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Options{})

	pos, err := fen.Decode(fen.Initial, false)
	require.NoError(t, err)

	path := writeBook(t, []bookEntry{
		{key: polyglotKey(pos), move: encodeBookMove(12, 28), weight: 1}, // e2e4
	})
	e.SetBookFile(ctx, path)

	out, err := e.Analyze(ctx, searchctl.Options{})
	require.NoError(t, err)

	pv := <-out
	require.NotEmpty(t, pv.Moves)
	assert.Equal(t, "e2e4", pv.Moves[0].String())

	_, err = e.Halt(ctx)
	require.NoError(t, err)
}

func TestEngineMissingFilesFallBackSilently(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Options{EvalFile: "/nonexistent/net.bin", BookFile: "/nonexistent/book.bin"})

	// go must still work, on classical evaluation with no book.
	out, err := e.Analyze(ctx, searchctl.Options{DepthLimit: lang.Some(uint(1))})
	require.NoError(t, err)
	for range out {
	}
	pv, err := e.Halt(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, pv.Moves)
}
