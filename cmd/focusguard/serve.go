package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API and dashboard",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default from config)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	applyStringFlag(cmd, "addr", &settings.Addr, serveAddr)

	env, err := newRuntimeEnv(context.Background())
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir := staticDir(); dir != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Serving static files from: %s\n", dir)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s\n", settings.Addr)

	return env.newServer(nil).ListenAndServe(ctx, settings.Addr)
}
