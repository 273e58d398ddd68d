// Package configcmder provides the config command for managing persistent
// arenatapes configuration stored in the .arenatapes/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arenatapes/pkg/cliui"
	"github.com/papercomputeco/arenatapes/pkg/config"
)

const configLongDesc string = `Manage persistent arenatapes configuration.

Configuration is stored as config.toml in the .arenatapes/ directory and
provides default values for command flags. Environment variables
(ARENATAPES_LOG_PATH, ARENATAPES_SINKS_SQLITE_PATH, ...) override the file,
and CLI flags override both.

Keys use dotted notation matching the TOML section structure:
  log.path, log.tail, log.poll_interval,
  sinks.json_dir, sinks.sqlite_path, sinks.postgres_dsn,
  sinks.clickhouse_addr, sinks.clickhouse_database,
  sinks.clickhouse_username, sinks.clickhouse_password, sinks.rpc_target,
  stream.provider, stream.target, stream.topic,
  api.enabled, api.listen, diagnostics.max_errors

Use subcommands to get, set, or list configuration values:
  arenatapes config set <key> <value>    Set a configuration value
  arenatapes config get <key>            Get a configuration value
  arenatapes config list                 List all configuration values

Examples:
  arenatapes config set sinks.sqlite_path ~/.arenatapes/arenatapes.db
  arenatapes config set stream.provider nats
  arenatapes config get log.path
  arenatapes config list`

const configShortDesc string = "Manage persistent arenatapes configuration"

// secretKeys are masked by list.
var secretKeys = map[string]bool{
	"sinks.clickhouse_password": true,
	"sinks.postgres_dsn":        true,
}

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

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
