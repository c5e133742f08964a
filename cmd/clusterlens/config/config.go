// Package configcmder provides the config command for managing persistent
// clusterlens configuration stored in the .clusterlens/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/pkg/cliui"
	"github.com/clusterlens/clusterlens/pkg/config"
)

const configLongDesc string = `Manage persistent clusterlens configuration.

Configuration is stored as config.toml in the .clusterlens/ directory and
provides default values for command flags. CLI flags and CLUSTERLENS_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  reference.snapshot_path, reference.labels_path, reference.catalog_path,
  classifier.k, classifier.min_words, classifier.search_mode,
  embedding.provider, embedding.target, embedding.model,
  embedding.dimensions, embedding.api_key_env,
  api.listen, api.allow_origins, client.api_target,
  feedback.provider, feedback.target,
  events.provider, events.brokers, events.topic,
  qdrant.host, qdrant.port, qdrant.collection, qdrant.hnsw_ef

Use subcommands to get, set, or list configuration values:
  clusterlens config set <key> <value>    Set a configuration value
  clusterlens config get <key>            Get a configuration value
  clusterlens config list                 List all configuration values

Examples:
  clusterlens config set classifier.k 8
  clusterlens config set feedback.provider sqlite
  clusterlens config get embedding.model
  clusterlens config list`

const configShortDesc string = "Manage persistent clusterlens configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

// openConfiger loads the config directory and prints which file is in use.
func openConfiger(w io.Writer, configDir string) (*config.Configer, error) {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
	return cfger, nil
}
