// Package searchctl contains the iterative-deepening controller and its
// stop conditions.
package searchctl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/eval"
	"github.com/herohde/corvid/pkg/search"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Options hold dynamic search options. The user may change these on a
// particular search.
type Options struct {
	// DepthLimit, if set, limits the search to the given ply depth.
	DepthLimit lang.Optional[uint]
	// TimeControl, if set, limits the search to the given clock parameters.
	TimeControl lang.Optional[TimeControl]
	// MoveTime, if set, fixes the budget for this move exactly.
	MoveTime lang.Optional[time.Duration]
	// MoveOverhead is reserved per move for transport latency.
	MoveOverhead lang.Optional[time.Duration]
	// Infinite searches until halted, ignoring any time budget.
	Infinite bool
}

func (o Options) String() string {
	var ret []string
	if v, ok := o.DepthLimit.V(); ok {
		ret = append(ret, fmt.Sprintf("depth=%v", v))
	}
	if v, ok := o.TimeControl.V(); ok {
		ret = append(ret, fmt.Sprintf("time=%v", v))
	}
	if v, ok := o.MoveTime.V(); ok {
		ret = append(ret, fmt.Sprintf("movetime=%v", v))
	}
	if o.Infinite {
		ret = append(ret, "infinite")
	}
	return fmt.Sprintf("[%v]", strings.Join(ret, ", "))
}

// Launcher is an interface for managing searches.
type Launcher interface {
	// Launch a new search from the given position. It expects an exclusive
	// (forked) board and returns a PV channel for iteratively deeper
	// searches. If the search is exhausted, the channel is closed. The
	// search can be stopped at any time.
	Launch(ctx context.Context, b *board.Board, sctx *search.Context, noise eval.Random, opt Options) (Handle, <-chan search.PV)
}

// Handle is an interface for the engine to manage searches. The engine is
// expected to spin off searches with forked boards and close/abandon them
// when no longer needed. This design keeps stopping conditions and
// re-synchronization trivial.
type Handle interface {
	// Halt halts the search, if running. Idempotent.
	Halt() search.PV
}
