package searchctl

import (
	"context"
	"fmt"
	"time"

	"github.com/herohde/corvid/pkg/board"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

// defaultMovesToGo is assumed when the GUI reports clock times without a
// moves-to-go horizon (sudden death).
const defaultMovesToGo = 26

// TimeControl represents clock information from the GUI: remaining time
// and increment per side, plus moves to the next time control.
type TimeControl struct {
	White, Black time.Duration
	WhiteInc     time.Duration
	BlackInc     time.Duration
	Moves        int // 0 == rest of game
}

// Budget returns the millisecond budget for one move of the given color.
// The overhead covers GUI/transport latency and is always reserved.
func (t TimeControl) Budget(c board.Color, overhead time.Duration) time.Duration {
	remainder, inc := t.White, t.WhiteInc
	if c == board.Black {
		remainder, inc = t.Black, t.BlackInc
	}

	moves := t.Moves
	if moves <= 0 {
		moves = defaultMovesToGo
	}

	budget := remainder/time.Duration(moves) + inc - overhead
	if max := remainder - overhead; budget > max {
		budget = max
	}
	if budget < time.Millisecond {
		budget = time.Millisecond
	}
	return budget
}

func (t TimeControl) String() string {
	if t.Moves == 0 {
		return fmt.Sprintf("%.1f<>%.1f", t.White.Seconds(), t.Black.Seconds())
	}
	return fmt.Sprintf("%.1f<>%.1f[moves=%v]", t.White.Seconds(), t.Black.Seconds(), t.Moves)
}

// EnforceTimeControl computes the move budget, if any, and schedules a
// hard halt at the deadline. Returns the budget.
func EnforceTimeControl(ctx context.Context, h Handle, opt Options, turn board.Color) (time.Duration, bool) {
	overhead, _ := opt.MoveOverhead.V()

	budget := time.Duration(0)
	if mt, ok := opt.MoveTime.V(); ok {
		budget = mt
	} else if tc, ok := opt.TimeControl.V(); ok {
		budget = tc.Budget(turn, overhead)
	} else {
		return 0, false
	}
	if opt.Infinite {
		return 0, false
	}

	time.AfterFunc(budget, func() {
		h.Halt()
	})

	logw.Debugf(ctx, "Time budget for %v: %v", turn, budget)
	return budget, true
}

// optionalOr returns the optional's value or the given default.
func optionalOr[T any](o lang.Optional[T], def T) T {
	if v, ok := o.V(); ok {
		return v
	}
	return def
}
