package zstd

import (
	"bufio"
	"io"

	"github.com/klauspost/compress/zstd"
)

type writeCloser struct {
	zw    *zstd.Encoder
	bw    *bufio.Writer
	inner io.WriteCloser
}

// WriteCloser returns an io.WriteCloser that compresses everything written to
// it into w. Closing it flushes the zstd trailer and closes w.
// This uses zstd level 1 for the compression.
func WriteCloser(w io.WriteCloser) (io.WriteCloser, error) {
	return writeCloserLevel(w, 1)
}

func writeCloserLevel(w io.WriteCloser, level int) (io.WriteCloser, error) {
	// zstd.Encoder emits many tiny writes for highly compressible input.
	bw := bufio.NewWriterSize(w, 2<<16)
	zw, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, err
	}
	return &writeCloser{zw: zw, bw: bw, inner: w}, nil
}

func (wc *writeCloser) Write(p []byte) (int, error) {
	return wc.zw.Write(p)
}

func (wc *writeCloser) Close() error {
	if err := wc.zw.Close(); err != nil {
		wc.inner.Close()
		return err
	}
	if err := wc.bw.Flush(); err != nil {
		wc.inner.Close()
		return err
	}
	return wc.inner.Close()
}
