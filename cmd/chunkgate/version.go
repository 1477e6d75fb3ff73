package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chunkgate/internal/structure"
	"chunkgate/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and parser information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		fmt.Fprintf(cmd.OutOrStdout(), "Parser: %s\n", structure.Detect().Name())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
