package search

import (
	"context"
	"fmt"

	"github.com/herohde/corvid/pkg/board"
	"github.com/seekerror/logw"
)

// OrderingTable is a hash-indexed store of move-ordering hints. Each slot
// remembers, for a position signature, the move that last produced a beta
// cutoff (the "killer") and the move that last improved alpha (the
// "good" move). Slots are keyed by hash modulo table size and verified
// against the high 32 bits of the full hash; colliding writes silently
// displace older entries. The hints are purely advisory: a stale or
// displaced entry costs ordering quality, never correctness.
type OrderingTable struct {
	slots []orderingSlot
}

type orderingSlot struct {
	killerHash, goodHash uint32
	killer, good         moveHint
}

// moveHint is the identity of a move independent of its generating list:
// origin, destination and type tag.
type moveHint struct {
	from, to board.Square
	mt       board.MoveType
	valid    bool
}

func (h moveHint) matches(m board.Move) bool {
	return h.valid && h.from == m.From && h.to == m.To && h.mt == m.Type
}

const orderingSlotSize = 16 // bytes, two packed hint pairs

// NewOrderingTable allocates a table sized from a megabyte budget.
func NewOrderingTable(ctx context.Context, sizeMB uint64) *OrderingTable {
	n := sizeMB << 20 / orderingSlotSize
	if n == 0 {
		n = 1
	}
	logw.Infof(ctx, "Allocating %vMB ordering table with %v slots", sizeMB, n)

	return &OrderingTable{slots: make([]orderingSlot, n)}
}

// Clear drops all hints, for ucinewgame.
func (t *OrderingTable) Clear() {
	for i := range t.slots {
		t.slots[i] = orderingSlot{}
	}
}

func (t *OrderingTable) slot(hash board.ZobristHash) (*orderingSlot, uint32) {
	return &t.slots[uint64(hash)%uint64(len(t.slots))], uint32(uint64(hash) >> 32)
}

// StoreKiller records the move that produced a beta cutoff in the
// position with the given hash.
func (t *OrderingTable) StoreKiller(hash board.ZobristHash, m board.Move) {
	if t == nil {
		return
	}
	s, hi := t.slot(hash)
	s.killerHash = hi
	s.killer = moveHint{from: m.From, to: m.To, mt: m.Type, valid: true}
}

// StoreGood records the move that improved alpha in the position with the
// given hash.
func (t *OrderingTable) StoreGood(hash board.ZobristHash, m board.Move) {
	if t == nil {
		return
	}
	s, hi := t.slot(hash)
	s.goodHash = hi
	s.good = moveHint{from: m.From, to: m.To, mt: m.Type, valid: true}
}

// Hint-boost amplitudes. Killers order ahead of good moves, and both
// ahead of any statically seeded score.
const (
	killerBoost = 10000
	goodBoost   = 7000
)

// ApplyHints boosts the scores of hinted moves in place. Entries whose
// high hash bits do not verify are ignored.
func (t *OrderingTable) ApplyHints(hash board.ZobristHash, moves []board.Move) {
	if t == nil {
		return
	}
	s, hi := t.slot(hash)
	for i := range moves {
		if s.killerHash == hi && s.killer.matches(moves[i]) {
			moves[i].Score += killerBoost
		}
		if s.goodHash == hi && s.good.matches(moves[i]) {
			moves[i].Score += goodBoost
		}
	}
}

func (t *OrderingTable) String() string {
	return fmt.Sprintf("ordering[slots=%v]", len(t.slots))
}
