// Package main provides the entry point for the phxport CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/phxport/phxport/internal/cli"
	"github.com/phxport/phxport/internal/signal"
)

// Build information set via ldflags.
var (
	version = "" //nolint:gochecknoglobals // Set at build time
	commit  = "" //nolint:gochecknoglobals // Set at build time
	date    = "" //nolint:gochecknoglobals // Set at build time
)

func main() {
	handler := signal.NewHandler(context.Background())
	defer handler.Stop()

	info := cli.BuildInfo{Version: version, Commit: commit, Date: date}
	if err := cli.Execute(handler.Context(), info); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		handler.Stop()
		os.Exit(cli.ExitCodeForError(err))
	}
}
