package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khoahotran/folio/internal/pingate"
)

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *pingate.Client {
	return pingate.NewClient(o.server, &http.Client{Timeout: o.timeout})
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "folio-admin",
		Short:         "Manage the portfolio profile from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("FOLIO_SERVER", "http://localhost:8080"), "folio API base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "timeout for a single API call")

	root.AddCommand(
		newUnlockCommand(opts),
		newDraftCommand(opts),
		newSubmitCommand(opts),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
