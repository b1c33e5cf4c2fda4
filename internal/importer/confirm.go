package importer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/phxport/phxport/internal/errors"
)

// Confirmer asks the operator to confirm a checkpoint before the run
// continues.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// AutoConfirmer answers yes to everything; used for --yes runs.
type AutoConfirmer struct{}

// Confirm always approves.
func (AutoConfirmer) Confirm(string) (bool, error) {
	return true, nil
}

// TerminalConfirmer prompts on the terminal and reads a y/N answer. When
// stdin is not a terminal it fails with ErrNonInteractiveMode so scripted
// runs are forced to pass --yes explicitly.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer

	// IsTerminal overrides TTY detection in tests. Nil means real detection
	// on os.Stdin.
	IsTerminal func() bool
}

// NewTerminalConfirmer returns a confirmer bound to stdin/stderr.
func NewTerminalConfirmer() *TerminalConfirmer {
	return &TerminalConfirmer{In: os.Stdin, Out: os.Stderr}
}

// Confirm writes the prompt and reads one line. Only "y" and "yes"
// (case-insensitive) approve.
func (c *TerminalConfirmer) Confirm(prompt string) (bool, error) {
	isTerminal := c.IsTerminal
	if isTerminal == nil {
		isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}
	if !isTerminal() {
		return false, errors.Wrap(errors.ErrNonInteractiveMode, "confirmation required, re-run with --yes")
	}

	if _, err := fmt.Fprintf(c.Out, "%s [y/N]: ", prompt); err != nil {
		return false, errors.Wrap(err, "failed to write prompt")
	}

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && line == "" {
		return false, errors.Wrap(err, "failed to read confirmation")
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
