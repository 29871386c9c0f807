package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/transformdiag/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.New()
	if err := cli.RootCmd(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(app.Err, "error:", err)
		stop()
		os.Exit(1)
	}
}
