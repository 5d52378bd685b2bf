package progress

// bar is a fixed number of cells rendered as Unicode Braille patterns, eight
// cells to a character.
type bar struct {
	data []uint8
}

func newBar(cells int) *bar {
	return &bar{
		data: make([]uint8, (cells+7)/8),
	}
}

func (b *bar) cells() int {
	return len(b.data) * 8
}

func (b *bar) set(idx int) {
	b.data[idx/8] |= 1 << uint(idx%8)
}

func (b *bar) get(idx int) bool {
	return (b.data[idx/8]>>uint(idx%8))&1 == 1
}

// fill sets the first n cells.
func (b *bar) fill(n int) {
	n = min(n, b.cells())
	for idx := 0; idx < n; idx++ {
		b.set(idx)
	}
}

// braillePattern returns the Braille character whose dots are the bits of mask.
func braillePattern(mask byte) rune {
	return rune(0x2800) + rune(mask)
}

func (b *bar) String() string {
	res := make([]rune, 0, len(b.data)+2)
	res = append(res, '[')
	for _, m := range b.data {
		res = append(res, braillePattern(m))
	}
	res = append(res, ']')
	return string(res)
}
