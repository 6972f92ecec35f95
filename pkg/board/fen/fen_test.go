package fen_test

import (
	"testing"

	"github.com/herohde/corvid/pkg/board"
	"github.com/herohde/corvid/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	tests := []string{
		fen.Initial,
		"4k3/2pppp2/8/4P1K1/4PP2/3P4/8/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/5P2/PPPPP1PP/RNBQKBNR w KQkq - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"4k3/8/8/8/pP6/8/8/4K3 b - b3 0 1",
	}

	for _, tt := range tests {
		p, err := fen.Decode(tt, false)
		require.NoError(t, err)
		assert.Equal(t, tt, fen.Encode(p))
	}
}

func TestDecodeRejectsMalformedFEN(t *testing.T) {
	tests := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"4k3/8/8/8/8/8/8/4K3 w - - -1 1",
	}
	for _, tt := range tests {
		_, err := fen.Decode(tt, false)
		assert.Error(t, err, tt)
	}
}

func TestDecodeChess960ShredderCastling(t *testing.T) {
	// Chess960 start array with king on b-file, rooks on a and g files.
	pos, err := fen.Decode("rkbbnnrq/pppppppp/8/8/8/8/PPPPPPPP/RKBBNNRQ w GAga - 0 1", true)
	require.NoError(t, err)

	assert.Equal(t, board.FileG, pos.Rooks.KingSideRookFile(board.White))
	assert.Equal(t, board.FileA, pos.Rooks.QueenSideRookFile(board.White))
	assert.True(t, pos.Castle.IsAllowed(board.WhiteKingSide))
	assert.True(t, pos.Castle.IsAllowed(board.WhiteQueenSide))
	assert.True(t, pos.Castle.IsAllowed(board.BlackKingSide))
	assert.True(t, pos.Castle.IsAllowed(board.BlackQueenSide))
}

func TestEncodeShredderUsesRookFiles(t *testing.T) {
	pos, err := fen.Decode("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", false)
	require.NoError(t, err)

	assert.Equal(t, "r3k2r/8/8/8/8/8/8/R3K2R w HAha - 0 1", fen.EncodeShredder(pos))
}

func TestDecodeInfersRookOriginsForRandomizedBackRank(t *testing.T) {
	pos, err := fen.Decode("rkbbnnrq/pppppppp/8/8/8/8/PPPPPPPP/RKBBNNRQ w KQkq - 0 1", false)
	require.NoError(t, err)

	assert.Equal(t, board.FileG, pos.Rooks.KingSideRookFile(board.White))
	assert.Equal(t, board.FileA, pos.Rooks.QueenSideRookFile(board.White))
}
