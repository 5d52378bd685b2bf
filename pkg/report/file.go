package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/macvmio/regusage/pkg/zstd"
)

// CompressedExt marks report files that are written zstd compressed.
const CompressedExt = ".zst"

// Create opens path for writing a report. Paths ending in CompressedExt are
// compressed on the fly.
func Create(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create directory for report '%v': %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create report file '%v': %w", path, err)
	}
	if !strings.HasSuffix(path, CompressedExt) {
		return f, nil
	}
	wc, err := zstd.WriteCloser(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("unable to compress report file '%v': %w", path, err)
	}
	return wc, nil
}

// FormatForPath guesses the output format from a file name, ignoring CompressedExt.
func FormatForPath(path string) (Format, bool) {
	switch filepath.Ext(strings.TrimSuffix(path, CompressedExt)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".txt":
		return FormatTable, true
	}
	return "", false
}
