package progress

import (
	"fmt"
	"io"

	"github.com/macvmio/regusage/pkg/usage"
)

const barCells = 320

// Print draws a progress bar of a usage build on w until updates is closed.
func Print(w io.Writer, updates <-chan usage.Progress) {
	b := newBar(barCells)
	last := -1
	for p := range updates {
		if p.Total == 0 {
			continue
		}
		current := barCells * p.Done / p.Total
		if current == last {
			continue
		}
		b.fill(current)
		fmt.Fprintf(w, "\rRepositories: %s %d/%d", b, p.Done, p.Total)
		last = current
	}
	if last >= 0 {
		fmt.Fprintln(w)
	}
}

// Log writes one line per finished repository, for output that is not a terminal.
func Log(w io.Writer, updates <-chan usage.Progress) {
	for p := range updates {
		fmt.Fprintf(w, "read repository %s (%d/%d)\n", p.Repository, p.Done, p.Total)
	}
}
