package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/invoice-checker/internal/config"
)

// errReported is returned after the failure has already been printed.
var errReported = errors.New("comparison failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "invoicechecker: %v\n", err)
		}
		os.Exit(1)
	}
}

type rootOptions struct {
	url      string
	timeout  string
	logLevel string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	defaults, err := config.LoadClient()
	if err != nil {
		defaults = &config.ClientConfig{CompareURL: "http://localhost:8000", LogLevel: "info"}
	}

	cmd := &cobra.Command{
		Use:   "invoicechecker",
		Short: "Compare invoices against purchase orders",
		Long: `invoicechecker uploads up to three invoices and three purchase orders to the
comparison service and prints the result of each invoice/PO pair.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.url, "url", defaults.CompareURL, "Comparison service base URL (COMPARE_URL)")
	cmd.PersistentFlags().StringVar(&opts.timeout, "timeout", defaults.CompareTimeout.String(), "Request timeout, 0 for none (COMPARE_TIMEOUT)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "Log level written to stderr")

	cmd.AddCommand(
		newCompareCmd(opts),
		newModelsCmd(opts),
	)
	return cmd
}
