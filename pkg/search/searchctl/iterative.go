package searchctl

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/eval"
	"github.com/herohde/corvid/pkg/search"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/contextx"
	"github.com/seekerror/stdlib/pkg/util/iox"
)

// Iterative is a search harness for iterative deepening search.
type Iterative struct {
	// Underpromotions gates rook and bishop promotions in full-width
	// generation.
	Underpromotions bool
}

func (i *Iterative) Launch(ctx context.Context, b *board.Board, sctx *search.Context, noise eval.Random, opt Options) (Handle, <-chan search.PV) {
	out := make(chan search.PV, 1)
	h := &handle{
		init: iox.NewAsyncCloser(),
		quit: iox.NewAsyncCloser(),
		sctx: sctx,
	}
	go h.process(ctx, b, sctx, noise, opt, i.Underpromotions, out)

	return h, out
}

type handle struct {
	init, quit iox.AsyncCloser
	sctx       *search.Context

	pv search.PV
	mu sync.Mutex
}

// endgameHandoffStreak is how many consecutive depths must score outside
// the decided-endgame window before the network is switched off for the
// rest of the game.
const (
	endgameHandoffStreak = 7
	endgameHandoffScore  = 400
)

// nnueSwitcher is implemented by evaluators that can hand off from the
// network to their classical terms mid-game.
type nnueSwitcher interface {
	HasNNUE() bool
	DisableNNUE()
}

func (h *handle) process(ctx context.Context, b *board.Board, sctx *search.Context, noise eval.Random, opt Options, underpromotions bool, out chan search.PV) {
	defer h.init.Close()
	defer close(out)

	pos := b.Position()
	root := search.NewRoot(pos, underpromotions)
	if len(root.Moves) == 0 {
		return // mate or stalemate; the engine reports bestmove 0000
	}
	root.SeedScores(ctx, sctx.Eval, noise)

	_, _ = EnforceTimeControl(ctx, h, opt, pos.Turn)

	wctx, cancel := contextx.WithQuitCancel(ctx, h.quit.Closed())
	defer cancel()

	maxDepth := int(optionalOr(opt.DepthLimit, uint(search.MaxSearchDepth)))
	if maxDepth <= 0 || maxDepth > search.MaxSearchDepth {
		maxDepth = search.MaxSearchDepth
	}

	endgame := eval.IsEndgame(pos)
	streak := 0

	var alg search.AlphaBeta
	for depth := 1; !h.quit.IsClosed(); depth++ {
		start := time.Now()

		sctx.QDepth = 2 * depth
		if sctx.QDepth > search.MaxQDepth {
			sctx.QDepth = search.MaxQDepth
		}

		pv, err := alg.Search(wctx, sctx, root, depth)
		if err != nil {
			if errors.Is(err, search.ErrHalted) {
				return // Halt was called or the budget expired.
			}
			logw.Errorf(ctx, "Search failed on %v at depth=%v: %v", pos, depth, err)
			return
		}
		pv.Time = time.Since(start)

		logw.Debugf(ctx, "Searched %v: %v", pos, pv)

		h.mu.Lock()
		h.pv = pv
		h.mu.Unlock()

		select {
		case <-out:
		default:
		}
		out <- pv

		h.init.Close()

		if endgame {
			if pv.Score > endgameHandoffScore || pv.Score < -endgameHandoffScore {
				streak++
			} else {
				streak = 0
			}
			if streak == endgameHandoffStreak {
				if sw, ok := sctx.Eval.(nnueSwitcher); ok && sw.HasNNUE() {
					logw.Infof(ctx, "Decided endgame: switching to classical evaluation")
					sw.DisableNNUE()
				}
			}
		}

		if depth >= maxDepth {
			return // halt: reached max depth
		}
		if pv.Score == board.Inf || pv.Score == -board.Inf {
			return // halt: forced mate found. Exact result.
		}
	}
}

func (h *handle) Halt() search.PV {
	h.sctx.Stop()
	h.quit.Close()
	<-h.init.Closed()

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.pv
}
