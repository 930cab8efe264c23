// Package cmd is the storefront command line: the HTTP server plus a few
// terminal views over the same store.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:          "storefront",
	Short:        "Customer storefront for the food-ordering backend",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file applied before reading the environment")
	rootCmd.AddCommand(serveCmd, menuCmd, ordersCmd)
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
