package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/sideline/internal/control"
)

func main() {
	cfg, args, err := control.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if len(args) == 0 {
		control.ShowHelp(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := control.Run(ctx, cfg, args, os.Stdout); err != nil {
		os.Stderr.WriteString("sidelinectl: " + err.Error() + "\n")
		if errors.Is(err, control.ErrUsage) || errors.Is(err, control.ErrUnknownCommand) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
