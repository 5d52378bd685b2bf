package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/macvmio/regusage/pkg/usage"
	"github.com/stretchr/testify/assert"
)

func TestBar_setGet(t *testing.T) {
	tests := []struct {
		setIdx   int
		getIdx   int
		expected bool
	}{
		{1, 1, true},
		{3, 3, true},
		{4, 3, false},
		{63, 63, true},
	}
	for _, tt := range tests {
		b := newBar(64)
		b.set(tt.setIdx)
		assert.Equal(t, tt.expected, b.get(tt.getIdx), "set %d, get %d", tt.setIdx, tt.getIdx)
	}
}

func TestBar_fill(t *testing.T) {
	b := newBar(16)
	b.fill(11)
	assert.Equal(t, []uint8{0xff, 0b00000111}, b.data)
	assert.Equal(t, "[⣿⠇]", b.String())

	b.fill(1000)
	assert.Equal(t, "[⣿⣿]", b.String())
}

func feed(updates ...usage.Progress) <-chan usage.Progress {
	ch := make(chan usage.Progress, len(updates))
	for _, u := range updates {
		ch <- u
	}
	close(ch)
	return ch
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	Print(&out, feed(
		usage.Progress{Repository: "a", Done: 1, Total: 2},
		usage.Progress{Repository: "b", Done: 2, Total: 2},
	))

	lines := strings.Split(out.String(), "\r")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "1/2")
	assert.Contains(t, lines[2], strings.Repeat("⣿", barCells/8)+"] 2/2\n")
}

func TestPrint_nothingToReport(t *testing.T) {
	var out bytes.Buffer
	Print(&out, feed())
	assert.Empty(t, out.String())
}

func TestLog(t *testing.T) {
	var out bytes.Buffer
	Log(&out, feed(usage.Progress{Repository: "team/app", Done: 1, Total: 3}))
	assert.Equal(t, "read repository team/app (1/3)\n", out.String())
}
