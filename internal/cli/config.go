package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/alnah/go-audiosplit/internal/config"
)

// validConfigKeys lists all supported configuration keys.
var validConfigKeys = []string{
	config.KeyChunkSize,
	config.KeyOutputDir,
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/audiosplit/config.yaml.
Settings can also be overridden via environment variables.

Supported settings:
  chunk-size    Default target chunk size in MB (env: AUDIOSPLIT_CHUNK_SIZE)
  output-dir    Default directory for transcript files (env: AUDIOSPLIT_OUTPUT_DIR)`,
		Example: `  audiosplit config set chunk-size 24
  audiosplit config get output-dir
  audiosplit config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Example: `  audiosplit config set chunk-size 24
  audiosplit config set output-dir ~/Documents/transcripts`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Example: `  audiosplit config get chunk-size`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Example: `  audiosplit config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// isValidConfigKey reports whether key is a supported configuration key.
func isValidConfigKey(key string) bool {
	return slices.Contains(validConfigKeys, key)
}

// runConfigSet stores a configuration value.
func runConfigSet(env *Env, key, value string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v)", key, validConfigKeys)
	}
	if key == config.KeyOutputDir {
		value = config.ExpandPath(value)
	}
	if err := config.Save(key, value); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet prints a configuration value to stdout.
func runConfigGet(env *Env, key string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v)", key, validConfigKeys)
	}
	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList prints all configuration values to stdout.
func runConfigList(env *Env) error {
	values, err := config.List()
	if err != nil {
		return err
	}

	for _, key := range validConfigKeys {
		value := values[key]
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(env.Stdout, "%s = %s\n", key, value)
	}
	return nil
}
