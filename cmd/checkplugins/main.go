package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/consol-monitoring/checkplugins/pkg/commands"
)

// Build contains the current git commit id
// compile passing -ldflags "-X main.Build <build sha1>" to set the id.
var Build string

// Revision contains the minor version number (number of commits)
// compile passing -ldflags "-X main.Revision <commits>" to set the revsion number.
var Revision string

func main() {
	if Revision != "" {
		commands.Revision = Revision
	}
	if Build != "" {
		commands.Build = Build
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rc := commands.Execute(ctx, os.Args)
	cancel()

	os.Exit(rc)
}
