package board_test

import (
	"testing"

	"github.com/herohde/corvid/pkg/board"
	"github.com/stretchr/testify/assert"
)

func TestBitboard(t *testing.T) {

	t.Run("popcount", func(t *testing.T) {
		tests := []struct {
			bb       board.Bitboard
			expected int
		}{
			{board.EmptyBitboard, 0},
			{board.BitMask(board.G4), 1},
			{board.BitMask(board.G3) | board.BitMask(board.G4), 2},
		}

		for _, tt := range tests {
			assert.Equal(t, tt.expected, tt.bb.PopCount())
		}
	})

	t.Run("popLSB", func(t *testing.T) {
		bb := board.BitMask(board.B2) | board.BitMask(board.D4)

		sq, rest := bb.PopLSB()
		assert.Equal(t, board.B2, sq)
		assert.Equal(t, 1, rest.PopCount())

		sq, rest = rest.PopLSB()
		assert.Equal(t, board.D4, sq)
		assert.Equal(t, 0, rest.PopCount())
	})

	t.Run("string", func(t *testing.T) {
		tests := []struct {
			bb       board.Bitboard
			expected string
		}{
			{board.EmptyBitboard, "--------/--------/--------/--------/--------/--------/--------/--------"},
			{board.BitMask(board.H1), "--------/--------/--------/--------/--------/--------/--------/-------X"},
			{board.BitMask(board.G3) | board.BitMask(board.G4), "--------/--------/--------/--------/------X-/------X-/--------/--------"},
		}

		for _, tt := range tests {
			assert.Equal(t, tt.expected, tt.bb.String())
		}
	})

	t.Run("rank and file masks", func(t *testing.T) {
		assert.Equal(t, 8, board.BitRank(board.Rank1).PopCount())
		assert.True(t, board.BitRank(board.Rank1).IsSet(board.A1))
		assert.True(t, board.BitRank(board.Rank1).IsSet(board.H1))
		assert.False(t, board.BitRank(board.Rank1).IsSet(board.A2))

		assert.Equal(t, 8, board.BitFile(board.FileE).PopCount())
		assert.True(t, board.BitFile(board.FileE).IsSet(board.E1))
		assert.True(t, board.BitFile(board.FileE).IsSet(board.E8))
	})

	t.Run("king", func(t *testing.T) {
		tests := []struct {
			sq       board.Square
			expected string
		}{
			{board.A1, "--------/--------/--------/--------/--------/--------/XX------/-X------"},
			{board.D1, "--------/--------/--------/--------/--------/--------/--XXX---/--X-X---"},
			{board.D3, "--------/--------/--------/--------/--XXX---/--X-X---/--XXX---/--------"},
			{board.H8, "------X-/------XX/--------/--------/--------/--------/--------/--------"},
		}

		for _, tt := range tests {
			assert.Equal(t, tt.expected, board.KingAttackboard(tt.sq).String())
		}
	})

	t.Run("knight", func(t *testing.T) {
		tests := []struct {
			sq       board.Square
			expected string
		}{
			{board.A1, "--------/--------/--------/--------/--------/-X------/--X-----/--------"},
			{board.D4, "--------/--------/--X-X---/-X---X--/--------/-X---X--/--X-X---/--------"},
		}

		for _, tt := range tests {
			assert.Equal(t, tt.expected, board.KnightAttackboard(tt.sq).String())
		}
	})

	t.Run("rook magic matches occupancy", func(t *testing.T) {
		occ := board.BitMask(board.D1) | board.BitMask(board.D6) | board.BitMask(board.B4) | board.BitMask(board.G4)

		attacks := board.RookAttacks(board.D4, occ)
		assert.True(t, attacks.IsSet(board.D1))
		assert.True(t, attacks.IsSet(board.D6))
		assert.False(t, attacks.IsSet(board.D7), "blocked beyond D6")
		assert.True(t, attacks.IsSet(board.B4))
		assert.True(t, attacks.IsSet(board.G4))
		assert.False(t, attacks.IsSet(board.A4), "blocked beyond B4")
	})

	t.Run("bishop magic matches occupancy", func(t *testing.T) {
		occ := board.BitMask(board.F6) | board.BitMask(board.B2)

		attacks := board.BishopAttacks(board.D4, occ)
		assert.True(t, attacks.IsSet(board.F6))
		assert.False(t, attacks.IsSet(board.G7), "blocked beyond F6")
		assert.True(t, attacks.IsSet(board.B2))
		assert.False(t, attacks.IsSet(board.A1), "blocked beyond B2")
	})

	t.Run("queen is rook union bishop", func(t *testing.T) {
		occ := board.EmptyBitboard
		assert.Equal(t, board.RookAttacks(board.D4, occ)|board.BishopAttacks(board.D4, occ), board.QueenAttacks(board.D4, occ))
	})

	t.Run("attackboard dispatch", func(t *testing.T) {
		occ := board.EmptyBitboard
		assert.Equal(t, board.KingAttackboard(board.D4), board.Attackboard(occ, board.D4, board.King))
		assert.Equal(t, board.KnightAttackboard(board.D4), board.Attackboard(occ, board.D4, board.Knight))
		assert.Equal(t, board.RookAttacks(board.D4, occ), board.Attackboard(occ, board.D4, board.Rook))
		assert.Equal(t, board.BishopAttacks(board.D4, occ), board.Attackboard(occ, board.D4, board.Bishop))
		assert.Equal(t, board.QueenAttacks(board.D4, occ), board.Attackboard(occ, board.D4, board.Queen))
	})
}
