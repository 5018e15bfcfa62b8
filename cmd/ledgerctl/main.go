package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mmynk/pocketledger/internal/cli"
	"github.com/mmynk/pocketledger/pkg/logging"
)

func main() {
	logging.Setup()

	cmd := cli.NewRootCommand(os.Stdout)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		os.Exit(1)
	}
}
