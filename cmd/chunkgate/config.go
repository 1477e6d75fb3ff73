package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chunkgate/internal/config"
	"chunkgate/internal/paths"
)

var (
	configFormat string
	configFile   string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage chunkgate configuration",
	Long:  "View and check configuration stored in .chunkgate/config.{json,yaml,toml}",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, the config file and CHUNKGATE_*
environment overrides are applied.

Examples:
  chunkgate config show
  chunkgate config show --format toml`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report unknown keys and invalid values in the config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to .chunkgate/config.json",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (json, yaml, toml)")
	configCheckCmd.Flags().StringVar(&configFile, "file", "", "Config file to check (default: the one in .chunkgate)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	out, err := e.cfg.Render(configFormat)
	if err != nil {
		return err
	}
	if !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	root, err := rootDir()
	if err != nil {
		return err
	}
	path := configFile
	if path == "" {
		var ok bool
		if path, ok = config.FindConfigFile(paths.StateDir(root)); !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "No config file found; defaults apply.")
			return nil
		}
	}

	unknown, err := config.CheckFile(path)
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%s has unknown keys: %s", path, strings.Join(unknown, ", "))
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root, err := rootDir()
	if err != nil {
		return err
	}
	if path, ok := config.FindConfigFile(paths.StateDir(root)); ok {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.DefaultConfig().Save(root); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s/config.json\n", paths.StateDir(root))
	return nil
}

func rootDir() (string, error) {
	info, err := os.Stat(repoFlag)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("--repo %s is not a directory", repoFlag)
	}
	return absPath(repoFlag)
}
