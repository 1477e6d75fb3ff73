package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chunkgate/internal/chunk"
	"chunkgate/internal/merge"
)

var (
	mergeRewrites string
	mergeOut      string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <file>",
	Short: "Merge rewritten chunks into a candidate file",
	Long: `Chunk a file, attach rewrites read from a directory and print the merged
candidate. The directory holds one file per rewritten chunk, named after the
chunk id (e.g. 0.java, 3.java). Chunks without a file keep their original
text.

Examples:
  chunkgate merge Blog.java --rewrites rewrites/
  chunkgate merge Blog.java --rewrites rewrites/ --out Blog.candidate.java`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeRewrites, "rewrites", "", "Directory of <chunk id>.java rewrites")
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "Write the candidate here instead of stdout")
	_ = mergeCmd.MarkFlagRequired("rewrites")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	fc, err := chunkFile(cmd, e, args[0])
	if err != nil {
		return err
	}
	if err := loadRewrites(fc, mergeRewrites); err != nil {
		return err
	}

	candidate, stats, err := merge.MergeWithStats(fc)
	if err != nil {
		return err
	}
	e.logger.Info("Chunks merged",
		"path", fc.Path,
		"rewritten", stats.ChunksRewritten,
		"lineDelta", stats.LineDelta)

	if mergeOut == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), candidate)
		return err
	}
	return os.WriteFile(mergeOut, []byte(candidate), 0644)
}

// loadRewrites attaches <dir>/<id>.java to chunk id. The final newline an
// editor adds is dropped for chunks whose text has none. Files naming a
// chunk that does not exist are an error.
func loadRewrites(fc *chunk.FileContext, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading rewrites: %w", err)
	}
	for _, de := range entries {
		stem, ok := strings.CutSuffix(de.Name(), ".java")
		if de.IsDir() || !ok {
			continue
		}
		id, err := strconv.Atoi(stem)
		if err != nil {
			continue
		}
		if id < 0 || id >= len(fc.Chunks) {
			return fmt.Errorf("rewrite %s names chunk %d, but the file has %d chunks", de.Name(), id, len(fc.Chunks))
		}
		data, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			return err
		}
		text := string(data)
		if c := fc.Chunks[id]; c.Kind != chunk.WholeFile && !strings.HasSuffix(c.Original, "\n") {
			text = strings.TrimSuffix(text, "\n")
		}
		if err := fc.Chunks[id].SetRewrite(text); err != nil {
			return err
		}
	}
	return nil
}
