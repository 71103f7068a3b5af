package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/voyager/internal/scan"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "voyager",
		Short:         "Voyager - explore the message history in a Discord data package",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug details to stderr")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(doctorCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError explains the failures a user can act on.
func printError(w io.Writer, err error) {
	switch {
	case errors.Is(err, scan.ErrInvalidInput):
		fmt.Fprintf(w, "Error: %v\n  Pass the Discord data package .zip or the folder it was extracted to.\n", err)
	case errors.Is(err, scan.ErrNotAPackage):
		fmt.Fprintf(w, "Error: %v\n  No messages/index.json or messages/c<id>/messages.csv was found.\n", err)
	default:
		fmt.Fprintln(w, "Error:", err)
	}
}
