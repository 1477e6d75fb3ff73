package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chunkgate/internal/chunk"
)

var (
	chunkFormat string
	chunkPrompt int
	chunkIssue  string
)

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Show how a file is decomposed",
	Long: `Decompose a Java file and print the chunk plan.

Examples:
  chunkgate chunk src/main/java/org/example/Blog.java
  chunkgate chunk Blog.java --format yaml
  chunkgate chunk Blog.java --prompt 2 --issue "God Class"`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().StringVar(&chunkFormat, "format", "human", "Output format (json, yaml, human)")
	chunkCmd.Flags().IntVar(&chunkPrompt, "prompt", -1, "Print the rewrite input of chunk N instead of the plan")
	chunkCmd.Flags().StringVar(&chunkIssue, "issue", "", "Issue text to include with --prompt")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(chunkFormat)
	if err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	fc, err := chunkFile(cmd, e, args[0])
	if err != nil {
		return err
	}

	if chunkPrompt >= 0 {
		if chunkPrompt >= len(fc.Chunks) {
			return fmt.Errorf("chunk %d does not exist (file has %d chunks)", chunkPrompt, len(fc.Chunks))
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), fc.PromptText(fc.Chunks[chunkPrompt], chunkIssue))
		return err
	}
	return writeResponse(cmd.OutOrStdout(), fc, format)
}

func chunkFile(cmd *cobra.Command, e *env, path string) (*chunk.FileContext, error) {
	src, err := chunk.LoadSourceFile(path)
	if err != nil {
		return nil, err
	}
	return e.engine().Chunk(cmd.Context(), src)
}
