package board

import "fmt"

// Score is a signed evaluation or search value in centipawns, positive
// favoring the side to move. Inf/-Inf stand in for "side to move delivers
// mate"/"side to move is mated"; unlike some engines this package does not carry a
// distance-to-mate adjustment on the sentinel itself.
type Score int32

const (
	MinScore Score = -30000
	MaxScore Score = 30000

	// Inf is the search sentinel for an unbounded score, used as the
	// initial alpha/beta window and as the mate score. It is kept well
	// clear of MaxScore so ordinary evaluations never alias with it.
	Inf Score = 32000
)

// Negate flips perspective, as every negamax recursion step requires.
func (s Score) Negate() Score {
	return -s
}

func (s Score) String() string {
	switch s {
	case Inf:
		return "+inf"
	case -Inf:
		return "-inf"
	default:
		return fmt.Sprintf("%.2f", float64(s)/100)
	}
}
