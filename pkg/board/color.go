package board

// Color represents the playing side/color: white or black. 1 bit.
type Color uint8

const (
	White Color = iota
	Black
)

const (
	ZeroColor Color = 0
	NumColors Color = 2
)

func (c Color) Opponent() Color {
	return c ^ 1
}

// Unit returns the signed unit for the color: +1 for White and -1 for Black.
// Used to convert a side-relative score into a white-relative one and back.
func (c Color) Unit() int {
	if c == White {
		return 1
	}
	return -1
}

func (c Color) String() string {
	if c == White {
		return "w"
	}
	return "b"
}
