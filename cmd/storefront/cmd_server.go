package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hayatshop/storefront/config"
	"github.com/hayatshop/storefront/internal/server"
	"github.com/hayatshop/storefront/pkg/app"
	"github.com/hayatshop/storefront/pkg/logger"
)

// boot loads configuration with the command's flags and wires the app.
func boot(cmd *cobra.Command) (*app.Application, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return app.Boot(cmd.Context(), cfg)
}

func closeApp(a *app.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		logger.Warn("close backends", "error", err)
	}
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := boot(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		if err := a.Backends.Store.EnsureIndexes(cmd.Context()); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		return server.Start(cmd.Context(), ":"+a.Config.AppPort, a.Handler())
	},
}

var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List every registered route",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		// Routes do not depend on live backends.
		cfg.Store = "memory"
		a, err := app.Boot(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeApp(a)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, r := range a.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Method, r.Path, r.Name)
		}
		return w.Flush()
	},
}

var configPrintCmd = &cobra.Command{
	Use:   "config:print",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg.Print(os.Stdout)
		return nil
	},
}
