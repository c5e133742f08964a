package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/pkg/cliui"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file stored in
the .clusterlens/ directory. Numeric keys (classifier.k, classifier.min_words,
embedding.dimensions, qdrant.port, qdrant.hnsw_ef) must be non-negative
integers; classifier.search_mode must be exact, sqlitevec or qdrant.

Examples:
  clusterlens config set classifier.k 8
  clusterlens config set embedding.provider genai
  clusterlens config set api.allow_origins https://example.org`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}

func runSet(w io.Writer, key, value, configDir string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	cfger, err := openConfiger(w, configDir)
	if err != nil {
		return err
	}

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
