// Package initcmder provides the init command for initializing a local
// .clusterlens directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/pkg/cliui"
	"github.com/clusterlens/clusterlens/pkg/config"
	"github.com/clusterlens/clusterlens/pkg/dotdir"
)

const dirName = ".clusterlens"

type initCommander struct {
	preset string
	force  bool
}

const initLongDesc string = `Initialize a new .clusterlens/ directory in the current working directory.

Creates a local .clusterlens/ directory that takes precedence over the
default ~/.clusterlens/ directory, with a reference/ subdirectory for the
snapshot and labels artifacts and a config.toml holding default settings.

Use --preset to start from an embedding provider preset:
  ollama   Local Ollama with all-minilm (384 dimensions, default)
  gemini   Google Gemini gemini-embedding-001 (768 dimensions, reads GEMINI_API_KEY)

An existing config.toml is left untouched unless --force is given.

Examples:
  clusterlens init
  clusterlens init --preset gemini
  clusterlens init --preset ollama --force`

const initShortDesc string = "Initialize a local .clusterlens/ directory"

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Embedding preset ("+strings.Join(config.ValidPresetNames(), ", ")+")")
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing config.toml")

	return cmd
}

func (c *initCommander) run(w io.Writer) error {
	cfg := config.NewDefaultConfig()
	if c.preset != "" {
		var err error
		cfg, err = config.PresetConfig(c.preset)
		if err != nil {
			return err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	dir := filepath.Join(cwd, dirName)

	paths, err := dotdir.NewManager().Paths(dir)
	if err != nil {
		return fmt.Errorf("creating %s directory: %w", dirName, err)
	}

	cfger, err := config.NewConfiger(paths.Root)
	if err != nil {
		return err
	}

	_, statErr := os.Stat(cfger.GetTarget())
	switch {
	case statErr == nil && !c.force:
		fmt.Fprintf(w, "%s Already initialized: %s\n", cliui.WarnMark, cfger.GetTarget())
		return nil
	case statErr != nil && !errors.Is(statErr, os.ErrNotExist):
		return fmt.Errorf("checking config: %w", statErr)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s Initialized %s directory: %s\n", cliui.SuccessMark, dirName, paths.Root)
	fmt.Fprintf(w, "  %s %s (%s, %d dimensions)\n",
		cliui.KeyStyle.Render("Embedding:"),
		cliui.ValueStyle.Render(cfg.Embedding.Model),
		cfg.Embedding.Provider,
		cfg.Embedding.Dimensions,
	)
	return nil
}
