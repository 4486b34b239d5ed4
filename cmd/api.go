package cmd

import (
	"bitsight-connector/core/status"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// apiCmd is the parent command for vendor API checks.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Check access to the BitSight API",
}

var apiValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Issue one authenticated request and report the outcome",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		client, err := a.client()
		if err != nil {
			return err
		}
		if err := client.ValidateConnectivity(cmd.Context()); err != nil {
			return err
		}
		pterm.Success.Printfln("Connected to %s", client.BaseURL())
		exitCode = status.ExitSuccessValidationOK
		return nil
	},
}

func init() {
	apiCmd.AddCommand(apiValidateCmd)
	RootCmd.AddCommand(apiCmd)
}
