// Package engine contains the root controller: game state, option
// handling, fast-move shortcuts and search management.
package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/board/fen"
	"github.com/herohde/corvid/pkg/eval"
	"github.com/herohde/corvid/pkg/movegen"
	"github.com/herohde/corvid/pkg/search"
	"github.com/herohde/corvid/pkg/search/searchctl"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

var version = build.NewVersion(1, 2, 0)

// Options are engine runtime options, settable over UCI.
type Options struct {
	// Chess960 switches castling notation to king-captures-rook.
	Chess960 bool
	// Hash is the ordering-table size in MB.
	Hash uint64
	// Level is the playing strength in [0;100]: 100 is full strength, 0
	// picks uniformly random moves.
	Level int
	// MoveOverhead is reserved from every time budget for transport
	// latency.
	MoveOverhead time.Duration
	// EvalFile is the NNUE network path, empty for classical only.
	EvalFile string
	// BookFile is the Polyglot opening book path, empty for none.
	BookFile string
}

func (o Options) String() string {
	return fmt.Sprintf("{chess960=%v, hash=%vMB, level=%v, overhead=%v}", o.Chess960, o.Hash, o.Level, o.MoveOverhead)
}

const (
	DefaultHashMB       = 64
	DefaultLevel        = 100
	DefaultMoveOverhead = 10 * time.Millisecond
)

// Engine encapsulates game-playing logic, search and evaluation.
type Engine struct {
	name, author string

	launcher searchctl.Launcher
	seed     int64
	opts     Options

	b        *board.Board
	ordering *search.OrderingTable
	hybrid   *eval.Hybrid
	net      *eval.Network
	book     Book
	rand     *rand.Rand

	active searchctl.Handle
	mu     sync.Mutex
}

// Option is an engine creation option.
type Option func(*Engine)

// WithOptions sets initial runtime options.
func WithOptions(opts Options) Option {
	return func(e *Engine) {
		e.opts = opts
	}
}

// WithSeed fixes the seed for noise and random-move generation, for
// reproducible games.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

func New(ctx context.Context, name, author string, opts ...Option) *Engine {
	e := &Engine{
		name:   name,
		author: author,
		opts: Options{
			Hash:         DefaultHashMB,
			Level:        DefaultLevel,
			MoveOverhead: DefaultMoveOverhead,
		},
		seed:     time.Now().UnixNano(),
		launcher: &searchctl.Iterative{Underpromotions: true},
	}
	for _, fn := range opts {
		fn(e)
	}
	e.rand = rand.New(rand.NewSource(e.seed))

	e.ordering = search.NewOrderingTable(ctx, e.opts.Hash)
	e.loadFiles(ctx)
	_ = e.Reset(ctx, fen.Initial)

	logw.Infof(ctx, "Initialized engine: %v, options=%v", e.Name(), e.opts)
	return e
}

// Name returns the engine name and version.
func (e *Engine) Name() string {
	return fmt.Sprintf("%v %v", e.name, version)
}

// Author returns the author.
func (e *Engine) Author() string {
	return e.author
}

func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.opts
}

// SetHash resizes the ordering table, dropping all hints.
func (e *Engine) SetHash(ctx context.Context, mb uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.Hash = mb
	e.ordering = search.NewOrderingTable(ctx, mb)
}

func (e *Engine) SetLevel(level int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	e.opts.Level = level
}

func (e *Engine) SetChess960(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.Chess960 = on
}

func (e *Engine) SetMoveOverhead(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.MoveOverhead = d
}

// SetEvalFile loads an NNUE network. A missing or invalid file logs a
// warning and silently falls back to classical evaluation.
func (e *Engine) SetEvalFile(ctx context.Context, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.EvalFile = path
	e.loadFiles(ctx)
	e.hybrid = eval.NewHybrid(e.net, e.noiseLocked())
}

// SetBookFile loads a Polyglot opening book. A missing or invalid file
// logs a warning and disables the book.
func (e *Engine) SetBookFile(ctx context.Context, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.BookFile = path
	e.loadFiles(ctx)
}

func (e *Engine) loadFiles(ctx context.Context) {
	e.net = nil
	if e.opts.EvalFile != "" {
		net, err := eval.LoadNetwork(e.opts.EvalFile)
		if err != nil {
			logw.Warningf(ctx, "NNUE network %v unavailable, using classical evaluation: %v", e.opts.EvalFile, err)
		} else {
			e.net = net
			logw.Infof(ctx, "Loaded NNUE network: %v", e.opts.EvalFile)
		}
	}

	e.book = nil
	if e.opts.BookFile != "" {
		book, err := OpenPolyglotBook(e.opts.BookFile)
		if err != nil {
			logw.Warningf(ctx, "Opening book %v unavailable: %v", e.opts.BookFile, err)
		} else {
			e.book = book
			logw.Infof(ctx, "Loaded opening book: %v", e.opts.BookFile)
		}
	}
}

// Chess960 reports the active castling notation mode.
func (e *Engine) Chess960() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.opts.Chess960
}

// Board returns a forked board.
func (e *Engine) Board() *board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.b.Fork()
}

// NewGame resets the game state, the ordering table and the evaluator
// for a fresh game.
func (e *Engine) NewGame(ctx context.Context) {
	e.mu.Lock()
	e.ordering.Clear()
	e.mu.Unlock()

	_ = e.Reset(ctx, fen.Initial)
}

// Reset resets the engine to a new starting position in FEN format. A
// malformed FEN is rejected loudly and leaves the previous position in
// place.
func (e *Engine) Reset(ctx context.Context, position string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, _ = e.haltSearchIfActive(ctx)

	pos, err := fen.Decode(position, e.opts.Chess960)
	if err != nil {
		return fmt.Errorf("invalid position %q: %w", position, err)
	}
	e.b = board.NewBoard(pos)
	e.hybrid = eval.NewHybrid(e.net, e.noiseLocked())

	logw.Infof(ctx, "Reset: %v", e.b)
	return nil
}

// noiseLocked builds the level-scaled noise source. Requires e.mu held.
func (e *Engine) noiseLocked() eval.Random {
	return eval.NewRandom(eval.NoiseLimit(e.opts.Level), e.seed)
}

// Move applies the given move, usually an opponent move, in UCI long
// algebraic notation.
func (e *Engine) Move(ctx context.Context, move string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, _ = e.haltSearchIfActive(ctx)

	for _, m := range movegen.GenerateAll(e.b.Position(), true) {
		if m.String() != move && m.Format(true) != move {
			continue
		}
		if !e.b.PushMove(m) {
			return fmt.Errorf("illegal move: %v", move)
		}
		logw.Debugf(ctx, "Move %v: %v", m, e.b)
		return nil
	}
	return fmt.Errorf("unknown move: %q", move)
}

// Analyze starts a search on the current position. Fast moves short-cut
// the search entirely: a book hit or, at level 0, a uniformly random
// legal move.
func (e *Engine) Analyze(ctx context.Context, opt searchctl.Options) (<-chan search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return nil, fmt.Errorf("search already active")
	}
	if _, ok := opt.MoveOverhead.V(); !ok {
		opt.MoveOverhead = lang.Some(e.opts.MoveOverhead)
	}

	logw.Infof(ctx, "Analyze %v, opt=%v", e.b, opt)

	if m, ok := e.fastMove(ctx); ok {
		out := make(chan search.PV, 1)
		pv := search.PV{Moves: []board.Move{m}}
		out <- pv
		close(out)
		e.active = fastHandle{pv: pv}
		return out, nil
	}

	ring := e.b.Repetitions()
	sctx := search.NewContext(e.hybrid, e.ordering, &ring, nil)

	handle, out := e.launcher.Launch(ctx, e.b.Fork(), sctx, e.noiseLocked(), opt)
	e.active = handle
	return out, nil
}

// fastMove returns a move that makes searching unnecessary: a book move,
// or any legal move when playing at level 0.
func (e *Engine) fastMove(ctx context.Context) (board.Move, bool) {
	if e.book != nil {
		if m, ok := e.book.Find(ctx, e.b.Position()); ok {
			logw.Infof(ctx, "Book move: %v", m)
			return m, true
		}
	}
	if e.opts.Level == 0 {
		moves := movegen.GenerateAll(e.b.Position(), false)
		if len(moves) > 0 {
			m := moves[e.rand.Intn(len(moves))]
			logw.Infof(ctx, "Random move (level 0): %v", m)
			return m, true
		}
	}
	return board.Move{}, false
}

// Halt halts the active search and returns the principal variation, if
// any.
func (e *Engine) Halt(ctx context.Context) (search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pv, ok := e.haltSearchIfActive(ctx)
	if !ok {
		return search.PV{}, fmt.Errorf("no active search")
	}
	return pv, nil
}

func (e *Engine) haltSearchIfActive(ctx context.Context) (search.PV, bool) {
	if e.active != nil {
		pv := e.active.Halt()
		logw.Infof(ctx, "Search halted: %v", pv)

		e.active = nil
		return pv, true
	}
	return search.PV{}, false
}

// fastHandle is the Handle for a fast move already decided at launch.
type fastHandle struct {
	pv search.PV
}

func (h fastHandle) Halt() search.PV {
	return h.pv
}
