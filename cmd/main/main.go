package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/BartekS5/order-etl/internal/cli"
	"github.com/BartekS5/order-etl/pkg/etlerr"
)

func main() {
	// A missing .env is normal when the scheduler injects the environment.
	_ = godotenv.Load()

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(etlerr.ExitCode(err))
	}
}
