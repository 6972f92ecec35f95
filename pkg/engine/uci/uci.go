// Package uci contains a driver for using the engine under the UCI
// protocol.
//
// See: http://wbec-ridderkerk.nl/html/UCIProtocol.html
package uci

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/board/fen"
	"github.com/herohde/corvid/pkg/engine"
	"github.com/herohde/corvid/pkg/search"
	"github.com/herohde/corvid/pkg/search/searchctl"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"go.uber.org/atomic"
)

const ProtocolName = "uci"

// Driver implements a UCI driver for an engine. It is activated if sent
// "uci" as the first line.
type Driver struct {
	e *engine.Engine

	out chan<- string

	active       atomic.Bool // a "go" is outstanding and owes a bestmove
	lastPosition string      // last position line (empty if no last position)

	quit   chan struct{}
	closed atomic.Bool
}

func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{
		e:    e,
		out:  out,
		quit: make(chan struct{}),
	}
	go d.process(ctx, in)

	return d, out
}

func (d *Driver) Close() {
	if d.closed.CAS(false, true) {
		close(d.quit)
	}
}

func (d *Driver) Closed() <-chan struct{} {
	return d.quit
}

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.Close()
	defer close(d.out)

	logw.Infof(ctx, "UCI protocol initialized")

	d.out <- fmt.Sprintf("id name %v", d.e.Name())
	d.out <- fmt.Sprintf("id author %v", d.e.Author())
	d.out <- "option name UCI_Chess960 type check default false"
	d.out <- fmt.Sprintf("option name Hash type spin default %v min 1 max 1048576", engine.DefaultHashMB)
	d.out <- fmt.Sprintf("option name Level type spin default %v min 0 max 100", engine.DefaultLevel)
	d.out <- fmt.Sprintf("option name MoveOverhead type spin default %v min 0 max 100000", engine.DefaultMoveOverhead.Milliseconds())
	d.out <- "option name EvalFile type string default <empty>"
	d.out <- "option name BookFile type string default <empty>"
	d.out <- "uciok"

	for {
		select {
		case line, ok := <-in:
			if !ok {
				logw.Infof(ctx, "Input stream broken. Exiting")
				return
			}

			parts := strings.Fields(line)
			if len(parts) == 0 {
				break
			}
			cmd, args := parts[0], parts[1:]

			switch strings.ToLower(cmd) {
			case "isready":
				// Answered immediately, also mid-search: isready is a
				// liveness ping, not a stop condition.
				d.out <- "readyok"

			case "debug", "register", "ponderhit":
				// Accepted and ignored.

			case "setoption":
				d.handleSetOption(ctx, args)

			case "ucinewgame":
				d.haltIfActive(ctx)
				d.e.NewGame(ctx)
				d.lastPosition = ""

			case "position":
				d.handlePosition(ctx, line, args)

			case "go":
				d.handleGo(ctx, args)

			case "stop":
				// Unwind the search and report the best-known move.
				d.haltIfActive(ctx)

			case "quit":
				d.haltIfActive(ctx)
				return

			default:
				logw.Debugf(ctx, "Ignoring unknown command: %q", line)
			}

		case <-d.quit:
			return
		}
	}
}

// handleSetOption parses "setoption name <id> [value <x>]". Option names
// are matched case-insensitively.
func (d *Driver) handleSetOption(ctx context.Context, args []string) {
	var name, value string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "name":
			j := i + 1
			for ; j < len(args) && args[j] != "value"; j++ {
			}
			name = strings.Join(args[i+1:j], " ")
			i = j - 1
		case "value":
			value = strings.Join(args[i+1:], " ")
			i = len(args)
		}
	}

	switch strings.ToLower(name) {
	case "uci_chess960":
		on, _ := strconv.ParseBool(value)
		d.e.SetChess960(on)
	case "hash":
		if mb, err := strconv.ParseUint(value, 10, 64); err == nil && mb >= 1 {
			d.e.SetHash(ctx, mb)
		}
	case "level":
		if level, err := strconv.Atoi(value); err == nil {
			d.e.SetLevel(level)
		}
	case "moveoverhead":
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			d.e.SetMoveOverhead(time.Duration(ms) * time.Millisecond)
		}
	case "evalfile":
		d.e.SetEvalFile(ctx, value)
	case "bookfile":
		d.e.SetBookFile(ctx, value)
	default:
		logw.Debugf(ctx, "Ignoring unknown option: %q", name)
	}
}

// handlePosition sets up "position [fen <fen> | startpos] moves ...". A
// line extending the previous position replays only the new moves.
func (d *Driver) handlePosition(ctx context.Context, line string, args []string) {
	d.haltIfActive(ctx)

	if d.lastPosition != "" && strings.HasPrefix(line, d.lastPosition) {
		// Continuation of game.
		moves := strings.TrimSpace(strings.TrimPrefix(line, d.lastPosition))
		for _, arg := range strings.Fields(moves) {
			if arg == "moves" {
				continue
			}
			if err := d.e.Move(ctx, arg); err != nil {
				logw.Errorf(ctx, "Invalid position move %q: %v", arg, err)
				return
			}
		}
		d.lastPosition = line
		return
	}

	// New position.
	position := fen.Initial
	if len(args) >= 7 && args[0] == "fen" {
		position = strings.Join(args[1:7], " ")
	}
	if err := d.e.Reset(ctx, position); err != nil {
		logw.Errorf(ctx, "Invalid position %q: %v", line, err)
		return
	}

	inMoves := false
	for _, arg := range args {
		if arg == "moves" {
			inMoves = true
			continue
		}
		if !inMoves {
			continue
		}
		if err := d.e.Move(ctx, arg); err != nil {
			logw.Errorf(ctx, "Invalid position move %q: %v", arg, err)
			return
		}
	}
	d.lastPosition = line
}

// handleGo parses the search parameters, launches the search and spins
// off a goroutine that forwards progress and ultimately the bestmove.
func (d *Driver) handleGo(ctx context.Context, args []string) {
	d.haltIfActive(ctx)

	var opt searchctl.Options
	var tc searchctl.TimeControl
	hasClock := false

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "wtime", "btime", "winc", "binc", "movestogo", "depth", "movetime":
			i++
			if i == len(args) {
				logw.Errorf(ctx, "Missing argument for %v", arg)
				return
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				logw.Errorf(ctx, "Invalid argument for %v: %v", arg, err)
				return
			}

			switch arg {
			case "depth":
				opt.DepthLimit = lang.Some(uint(n))
			case "movetime":
				opt.MoveTime = lang.Some(time.Duration(n) * time.Millisecond)
			case "wtime":
				tc.White, hasClock = time.Duration(n)*time.Millisecond, true
			case "btime":
				tc.Black, hasClock = time.Duration(n)*time.Millisecond, true
			case "winc":
				tc.WhiteInc = time.Duration(n) * time.Millisecond
			case "binc":
				tc.BlackInc = time.Duration(n) * time.Millisecond
			case "movestogo":
				tc.Moves = n
			}

		case "infinite":
			opt.Infinite = true

		default:
			// Silently ignore anything not handled.
		}
	}
	if hasClock {
		opt.TimeControl = lang.Some(tc)
	}

	out, err := d.e.Analyze(ctx, opt)
	if err != nil {
		logw.Errorf(ctx, "Analyze failed: %v", err)
		return
	}
	d.active.Store(true)

	go func() {
		var last search.PV
		for pv := range out {
			last = pv
			if pv.Depth > 0 {
				d.out <- formatInfo(pv)
			}
		}
		if !opt.Infinite {
			d.searchCompleted(ctx, last)
		}
	}()
}

// haltIfActive releases any outstanding search and, if a bestmove is
// still owed for it, flushes it.
func (d *Driver) haltIfActive(ctx context.Context) {
	pv, err := d.e.Halt(ctx)
	if err != nil {
		return // no active search
	}
	d.searchCompleted(ctx, pv)
}

// searchCompleted emits the bestmove once per "go". With no legal moves
// (mate or stalemate at the root) the null move 0000 is reported.
func (d *Driver) searchCompleted(ctx context.Context, pv search.PV) {
	if !d.active.CAS(true, false) {
		return
	}
	if len(pv.Moves) == 0 {
		d.out <- "bestmove 0000"
		return
	}
	d.out <- fmt.Sprintf("bestmove %v", pv.Moves[0].Format(d.e.Chess960()))
}

func formatInfo(pv search.PV) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %v score %v nodes %v time %v", pv.Depth, formatScore(pv.Score), pv.Nodes, pv.Time.Milliseconds())
	if len(pv.Moves) > 0 {
		sb.WriteString(" pv")
		for _, m := range pv.Moves {
			sb.WriteString(" ")
			sb.WriteString(m.String())
		}
	}
	return sb.String()
}

// formatScore renders a score for an info line. The search does not carry
// mate distances, so a mate is reported at its sentinel value.
func formatScore(s board.Score) string {
	switch s {
	case board.Inf:
		return "mate 1"
	case -board.Inf:
		return "mate -1"
	default:
		return fmt.Sprintf("cp %v", int(s))
	}
}
