package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chunkgate/internal/gate"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Restore files left holding a candidate by an interrupted validation",
	Long: `A validation that is killed before it restores its file leaves the original
in the crash journal under .chunkgate/journal. recover writes every such
original back. Entries of validations that are still running are skipped.`,
	Args: cobra.NoArgs,
	RunE: runRecover,
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	restored, err := gate.Recover(e.root, e.logger)
	for _, p := range restored {
		fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", p)
	}
	if err != nil {
		return err
	}
	if len(restored) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to recover.")
	}
	return nil
}
