// jarchive: archive chat conversations in SQLite and page back through them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/jarchive/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		f := &cli.OutputFormatter{Format: "text", Writer: os.Stderr}
		_ = f.Error(cli.ErrorCode(err), err.Error(), nil)
		os.Exit(cli.GetExitCode(err))
	}
}
