// dualnet - dual-stack socket tool: bind, dial, probe and checksum.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dualnet/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "dualnet: %v\n", err)
		os.Exit(1)
	}
}
