// Command storefront runs the shop backend and its maintenance tasks.
//
//	storefront serve                 # start the HTTP API
//	storefront serve --store memory  # without MongoDB
//	storefront route:list
//	storefront db:indexes
//	storefront db:seed
//	storefront config:print
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Clothing storefront backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "config/app.yaml", "path to the YAML config file")
	flags.String("store", "mongo", "document store: mongo or memory")
	flags.String("port", "8080", "HTTP listen port")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(configPrintCmd)
}
