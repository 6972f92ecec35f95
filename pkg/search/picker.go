package search

import (
	"github.com/herohde/corvid/pkg/board"
)

// Picker yields moves from a list in descending ordering-score order,
// using lazy selection sort: before yielding slot i it scans the tail and
// swaps the best-scored candidate in. Once the best remaining score is
// zero the list is exhausted of interesting moves and the remaining tail
// is yielded as-is, saving the quadratic scan where ordering no longer
// matters.
type Picker struct {
	moves  []board.Move
	next   int
	sorted bool
}

func NewPicker(moves []board.Move) Picker {
	return Picker{moves: moves}
}

// Next returns the next move and its index in the underlying list.
func (p *Picker) Next() (board.Move, int, bool) {
	if p.next >= len(p.moves) {
		return board.Move{}, 0, false
	}

	i := p.next
	if !p.sorted {
		best := i
		for j := i + 1; j < len(p.moves); j++ {
			if p.moves[j].Score > p.moves[best].Score {
				best = j
			}
		}
		if best != i {
			p.moves[i], p.moves[best] = p.moves[best], p.moves[i]
		}
		if p.moves[i].Score == 0 {
			p.sorted = true
		}
	}

	p.next++
	return p.moves[i], i, true
}
