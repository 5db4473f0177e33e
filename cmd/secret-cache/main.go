package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Checker-Finance/secret-cache/internal/command"
)

// Version is set via -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := command.Main(ctx, command.DefaultOptions(Version), os.Args)
	stop()
	os.Exit(code)
}
