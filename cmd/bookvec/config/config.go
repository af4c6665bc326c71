// Package configcmder provides the config command for managing persistent
// bookvec configuration stored in the .bookvec/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent bookvec configuration.

Configuration is stored as config.toml in the .bookvec/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  db.provider, db.target, db.wallet_path, db.precision_bits, db.dimensions,
  query.top_k, query.similarity_floor, query.approximate,
  embedding.provider, embedding.target, embedding.model,
  tracing.enabled, tracing.endpoint,
  events.enabled, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  bookvec config set <key> <value>    Set a configuration value
  bookvec config get <key>            Get a configuration value
  bookvec config list                 List all configuration values

Examples:
  bookvec config set db.provider oracle
  bookvec config set embedding.model nomic-embed-text
  bookvec config get db.provider
  bookvec config list`

const configShortDesc string = "Manage persistent bookvec configuration"

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
