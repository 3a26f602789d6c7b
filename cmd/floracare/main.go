/*
Command floracare runs the diagnosis pipeline and its maintenance tasks
from a terminal, against the same database and model configuration as the
HTTP server.

Usage:

	floracare [command]

Available Commands:

	diagnose    Diagnose a leaf image
	ingest      Load reference documents into the knowledge store
	history     Show or clear a plant's diagnosis history
	plants      List tracked plants
	benchmark   Score the vision stage against a labelled image set
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "floracare",
		Short:         "Plant disease diagnosis from leaf photographs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newDiagnoseCmd())
	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newPlantsCmd())
	rootCmd.AddCommand(newBenchmarkCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
