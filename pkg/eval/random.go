package eval

import (
	"math/rand"
)

// Random is a randomized noise generator used to weaken and humanize the
// engine at lower playing levels. The limit specifies how many centipawns
// to add or remove, uniformly in [-limit; limit]. The zero value always
// returns zero.
type Random struct {
	rand  *rand.Rand
	limit int
}

func NewRandom(limit int, seed int64) Random {
	return Random{
		limit: limit,
		rand:  rand.New(rand.NewSource(seed)),
	}
}

// Noise returns the next noise sample in centipawns.
func (n Random) Noise() int {
	if n.limit <= 0 || n.rand == nil {
		return 0
	}
	return n.rand.Intn(2*n.limit+1) - n.limit
}

// NoiseLimit returns the noise amplitude for a playing level in [0;100]:
// full strength is silent and every level below it adds 5cp of amplitude.
func NoiseLimit(level int) int {
	if level <= 0 || level >= 100 {
		return 0
	}
	return 5 * (100 - level)
}
