// Package progress wraps progress bars for long-running collection work.
// Bars render only when stderr is a terminal so piped and CI output stays
// clean.
package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Enabled reports whether bars should render at all.
func Enabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// New returns a bar over total items with a short description. When enabled
// is false the bar writes to io.Discard, so callers can drive it
// unconditionally.
func New(description string, total int, enabled bool) *progressbar.ProgressBar {
	out := io.Writer(os.Stderr)
	if !enabled {
		out = io.Discard
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
