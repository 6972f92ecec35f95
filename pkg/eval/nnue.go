package eval

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/herohde/corvid/pkg/board"
)

// NNUE piece codes, as used in the network input plane and the pieces/
// squares probe arrays: white king through white pawn are 1-6, black king
// through black pawn 7-12. Index 0 terminates the list.
const (
	nnueWKing uint8 = 1 + iota
	nnueWQueen
	nnueWRook
	nnueWBishop
	nnueWKnight
	nnueWPawn
	nnueBKing
	nnueBQueen
	nnueBRook
	nnueBBishop
	nnueBKnight
	nnueBPawn
)

var nnueCode = [board.NumColors][board.NumPieces]uint8{
	board.White: {
		board.King: nnueWKing, board.Queen: nnueWQueen, board.Rook: nnueWRook,
		board.Bishop: nnueWBishop, board.Knight: nnueWKnight, board.Pawn: nnueWPawn,
	},
	board.Black: {
		board.King: nnueBKing, board.Queen: nnueBQueen, board.Rook: nnueBRook,
		board.Bishop: nnueBBishop, board.Knight: nnueBKnight, board.Pawn: nnueBPawn,
	},
}

// nnueProbeLen is the capacity of the pieces/squares arrays: 32 men plus
// zero termination, rounded up.
const nnueProbeLen = 40

// nnueArrays flattens a position into the probe layout: both kings first
// (white at index 0, black at index 1), then every other piece, with a
// terminating zero.
func nnueArrays(pos *board.Position) (pieces, squares [nnueProbeLen]uint8) {
	pieces[0], squares[0] = nnueWKing, uint8(pos.King(board.White))
	pieces[1], squares[1] = nnueBKing, uint8(pos.King(board.Black))

	i := 2
	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		c, pt, ok := pos.PieceAt(sq)
		if !ok || pt == board.King {
			continue
		}
		pieces[i], squares[i] = nnueCode[c][pt], uint8(sq)
		i++
	}
	return pieces, squares
}

const (
	nnueMagic   = "CNUE"
	nnueVersion = 1

	// Quantization: hidden activations are clipped to [0;clipMax] and the
	// final sum is descaled to centipawns.
	nnueClipMax  = 127
	nnueOutScale = 16
	nnueFvScale  = 64
)

// Network is an NNUE evaluation network: a single dense feature
// transformer over 12x64 piece-square inputs per king perspective, a
// clipped-ReLU hidden layer, and a scalar output head.
type Network struct {
	hidden  int
	inputW  []int16 // [768*hidden]
	inputB  []int16 // [hidden]
	outputW []int16 // [2*hidden], side-to-move half first
	outputB int32
}

// LoadNetwork reads a network file. A missing or malformed file is
// reported as an error; callers are expected to fall back to classical
// evaluation.
func LoadNetwork(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var header struct {
		Magic   [4]byte
		Version uint32
		Hidden  uint32
	}
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("invalid network header: %w", err)
	}
	if string(header.Magic[:]) != nnueMagic || header.Version != nnueVersion {
		return nil, fmt.Errorf("unsupported network format: %q v%v", header.Magic, header.Version)
	}
	if header.Hidden == 0 || header.Hidden > 4096 {
		return nil, fmt.Errorf("unsupported network size: %v", header.Hidden)
	}

	n := &Network{
		hidden:  int(header.Hidden),
		inputW:  make([]int16, 768*int(header.Hidden)),
		inputB:  make([]int16, header.Hidden),
		outputW: make([]int16, 2*int(header.Hidden)),
	}
	for _, arr := range [][]int16{n.inputW, n.inputB, n.outputW} {
		if err := binary.Read(f, binary.LittleEndian, arr); err != nil {
			return nil, fmt.Errorf("truncated network file: %w", err)
		}
	}
	if err := binary.Read(f, binary.LittleEndian, &n.outputB); err != nil {
		return nil, fmt.Errorf("truncated network file: %w", err)
	}
	if _, err := f.Read(make([]byte, 1)); err != io.EOF {
		return nil, fmt.Errorf("trailing data in network file")
	}
	return n, nil
}

// Evaluate runs the forward pass and returns the score in centipawns from
// the given side's perspective. pieces/squares use the probe layout of
// nnueArrays.
func (n *Network) Evaluate(side board.Color, pieces, squares *[nnueProbeLen]uint8) int {
	acc := make([]int32, 2*n.hidden)

	for i := 0; i < nnueProbeLen && pieces[i] != 0; i++ {
		white := featureIndex(pieces[i], squares[i], board.White)
		black := featureIndex(pieces[i], squares[i], board.Black)
		for j := 0; j < n.hidden; j++ {
			acc[j] += int32(n.inputW[white*n.hidden+j])
			acc[n.hidden+j] += int32(n.inputW[black*n.hidden+j])
		}
	}
	for j := 0; j < n.hidden; j++ {
		acc[j] += int32(n.inputB[j])
		acc[n.hidden+j] += int32(n.inputB[j])
	}

	// Side to move's perspective half feeds the first half of the output
	// weights.
	us, them := 0, n.hidden
	if side == board.Black {
		us, them = n.hidden, 0
	}

	sum := n.outputB
	for j := 0; j < n.hidden; j++ {
		sum += clip(acc[us+j]) * int32(n.outputW[j])
		sum += clip(acc[them+j]) * int32(n.outputW[n.hidden+j])
	}
	return int(sum * nnueFvScale / nnueOutScale / nnueClipMax)
}

// featureIndex maps a piece code and square to the input plane index for
// the given perspective. The black perspective flips the board vertically
// and swaps piece colors.
func featureIndex(piece, sq uint8, perspective board.Color) int {
	p := int(piece) - 1
	s := int(sq)
	if perspective == board.Black {
		p = (p + 6) % 12
		s ^= 56
	}
	return p*64 + s
}

func clip(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > nnueClipMax {
		return nnueClipMax
	}
	return v
}
