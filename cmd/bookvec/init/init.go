// Package initcmder provides the init command for initializing a local
// .bookvec directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papyri/bookvec/pkg/config"
)

const (
	dirName = ".bookvec"
)

const initLongDesc string = `Initialize a new .bookvec/ directory in the current working directory.

Creates a local .bookvec/ directory that takes precedence over the default
~/.bookvec/ directory for configuration and other bookvec operations, and
writes a config.toml populated with default values.

This is useful for maintaining separate bookvec state per project or directory.

Examples:
  bookvec init`

const initShortDesc string = "Initialize a local .bookvec/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit()
		},
	}

	return cmd
}

func runInit() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .bookvec directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	fmt.Printf("Initialized .bookvec directory: %s\n", dir)
	return nil
}
