// Command erp is the example ERP backend: posts, categories and tags behind
// generated CRUD routes, with email and OAuth sign-in.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "erp",
		Short:         "ERP example backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newServeCmd(&envFile),
		newMigrateCmd(&envFile),
		newClientConfigCmd(&envFile),
	)
	return root
}
