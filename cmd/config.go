package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"bitsight-connector/core/config"
	"bitsight-connector/core/status"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var forceInit bool

// configCmd is the parent command for the local config file.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the connector configuration",
	Long: `Manage ~/.bitsight/config.json (or the file given with --config).
Values in the file are overridden by .env, BITSIGHT_* environment variables and flags.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file holding the defaults",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := configStore()
		if err != nil {
			return err
		}
		if store.Exists() && !forceInit {
			pterm.Info.Printfln("Config file %s already exists (use --force to overwrite)", store.Path())
			exitCode = status.ExitSuccessAlreadyConfigured
			return nil
		}
		if err := store.Reset(); err != nil {
			return err
		}
		pterm.Success.Printfln("Wrote %s", store.Path())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		doc, err := config.Document(*a.cfg)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return status.Wrap(err, status.ConfigInvalid, "encode configuration")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := config.Validate(a.cfg); err != nil {
			return err
		}
		pterm.Success.Println("Configuration is valid")
		exitCode = status.ExitSuccessValidationOK
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store one value in the config file",
	Example: `  bitsight-connector config set api.key <key>
  bitsight-connector config set database.driver sqlite`,
	Args: exactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := configStore()
		if err != nil {
			return err
		}
		if err := store.Set(args[0], args[1]); err != nil {
			return err
		}
		shown := args[1]
		if isSecret(args[0]) {
			shown = "********"
		}
		pterm.Success.Printfln("%s = %s", args[0], shown)
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Overwrite the config file with the defaults",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := configStore()
		if err != nil {
			return err
		}
		if err := store.Reset(); err != nil {
			return err
		}
		pterm.Success.Printfln("Reset %s", store.Path())
		return nil
	},
}

var configClearKeysCmd = &cobra.Command{
	Use:   "clear-keys",
	Short: "Remove stored secrets from the config file",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := configStore()
		if err != nil {
			return err
		}
		removed, err := store.ClearKeys()
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			pterm.Info.Println("No secrets stored")
			exitCode = status.ExitSuccessNoChanges
			return nil
		}
		pterm.Success.Printfln("Removed %s", strings.Join(removed, ", "))
		return nil
	},
}

func configStore() (*config.Store, error) {
	path := resolveConfigPath()
	if path == "" {
		return nil, status.New(status.ConfigMissing, "no config file location: pass --config")
	}
	return config.NewStore(path), nil
}

func isSecret(key string) bool {
	for _, k := range []string{"key", "password", "secret"} {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd,
		configSetCmd, configResetCmd, configClearKeysCmd)
	RootCmd.AddCommand(configCmd)
}
