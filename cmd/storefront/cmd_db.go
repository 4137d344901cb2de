package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hayatshop/storefront/database/seeders"
)

var indexesCmd = &cobra.Command{
	Use:   "db:indexes",
	Short: "Create the collection indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := boot(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		if err := a.Backends.Store.EnsureIndexes(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ indexes ready")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "db:seed",
	Short: "Insert the demo catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := boot(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Seeding…")
		if err := seeders.RunAll(cmd.Context(), a.Backends.Store, out); err != nil {
			return err
		}
		a.Services.Catalog.Invalidate(cmd.Context())
		fmt.Fprintf(out, "✅ seeding complete (%d seeders)\n", len(seeders.Names()))
		return nil
	},
}
