package zstd

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var magicHeader = []byte{0x28, 0xb5, 0x2f, 0xfd}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func decompress(t *testing.T, b []byte) []byte {
	zr, err := zstd.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer zr.Close()
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return out
}

// Test_WriteCloser verifies that WriteCloser compresses the input correctly.
func Test_WriteCloser(t *testing.T) {
	inputData := bytes.Repeat([]byte{0}, 327680)
	out := &closeRecorder{}

	wc, err := WriteCloser(out)
	require.NoError(t, err)
	_, err = wc.Write(inputData)
	require.NoError(t, err)
	require.NoError(t, wc.Close())

	assert.True(t, out.closed)
	assert.True(t, bytes.HasPrefix(out.Bytes(), magicHeader))
	assert.Less(t, out.Len(), len(inputData)/100)
	assert.Equal(t, inputData, decompress(t, out.Bytes()))
}

func Test_writeCloserLevel_roundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, level := range []int{1, 3, 9, 19} {
		data := make([]byte, 128*1024+rng.Intn(1024))
		_, err := rng.Read(data)
		require.NoError(t, err)
		// a range of zeroes so every level has something to squeeze
		copy(data[len(data)/4:], make([]byte, len(data)/8))

		out := &closeRecorder{}
		wc, err := writeCloserLevel(out, level)
		require.NoError(t, err)
		_, err = io.Copy(wc, bytes.NewReader(data))
		require.NoError(t, err)
		require.NoError(t, wc.Close())

		assert.Equal(t, data, decompress(t, out.Bytes()), "level %d", level)
	}
}
