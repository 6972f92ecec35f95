// Package search contains search functionality and utilities.
package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/eval"
	"go.uber.org/atomic"
)

const (
	// MaxSearchDepth bounds the selective search ply, beyond which nodes
	// drop straight into quiescence.
	MaxSearchDepth = 64
	// MaxQDepth is the ceiling for the quiescence depth ramp.
	MaxQDepth = 16

	// stopPollMask throttles the stop-flag and clock poll to every 512
	// nodes, keeping the hot loop free of time syscalls.
	stopPollMask = 511
)

// ErrHalted is returned when a search is aborted before completion.
var ErrHalted = errors.New("search halted")

// PV represents the principal variation for some search depth.
type PV struct {
	Depth int           // depth of search
	Moves []board.Move  // principal variation
	Score board.Score   // evaluation at depth, from the searched side's perspective
	Nodes uint64        // interior/leaf nodes searched
	Time  time.Duration // time taken by search
}

func (p PV) String() string {
	var moves string
	for i, m := range p.Moves {
		if i > 0 {
			moves += " "
		}
		moves += m.String()
	}
	return fmt.Sprintf("depth=%v score=%v nodes=%v time=%v pv=%v", p.Depth, p.Score, p.Nodes, p.Time, moves)
}

// Context carries the process-wide mutable search state: the evaluator,
// the ordering-hint table, the repetition ring shared with the game
// history, and the stop flag. It is mutated only by the single search
// goroutine (the stop flag aside) and reused across iterative-deepening
// rounds.
type Context struct {
	Eval     eval.Evaluator
	Ordering *OrderingTable
	Ring     *board.RepetitionRing

	// QDepth is the quiescence depth ceiling for the current round. The
	// iterative controller ramps it by 2 per depth up to MaxQDepth.
	QDepth int
	// Underpromotions gates rook and bishop promotions in full-width
	// generation.
	Underpromotions bool

	Nodes uint64

	stop *atomic.Bool
}

// NewContext returns a Context wired to the given stop flag. A nil flag
// means the search never stops on its own.
func NewContext(e eval.Evaluator, ordering *OrderingTable, ring *board.RepetitionRing, stop *atomic.Bool) *Context {
	if ring == nil {
		ring = &board.RepetitionRing{}
	}
	if stop == nil {
		stop = atomic.NewBool(false)
	}
	return &Context{Eval: e, Ordering: ordering, Ring: ring, Underpromotions: true, stop: stop}
}

// Stopped polls the stop flag. Cheap enough to call per node: the actual
// flag read happens only every 512 nodes.
func (c *Context) Stopped() bool {
	if c.Nodes&stopPollMask != 0 {
		return false
	}
	return c.stop.Load()
}

// IsStopped reads the stop flag directly, bypassing the node throttle.
func (c *Context) IsStopped() bool {
	return c.stop.Load()
}

// Stop raises the stop flag. The search unwinds at its next poll.
func (c *Context) Stop() {
	c.stop.Store(true)
}
