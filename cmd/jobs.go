package cmd

import (
	"strings"

	"bitsight-connector/core/status"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// jobsCmd is the parent command for the job registry.
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect the registered ingestion jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every job with its target table",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := pterm.TableData{{"Job", "Table", "Requires", "Removal", "Description"}}
		for _, def := range registry().Definitions() {
			scope := "-"
			if def.Scoped() {
				scope = flagList(def.Requires)
			}
			removal := "no"
			if def.Reconciled {
				removal = "yes"
			}
			rows = append(rows, []string{def.Name, def.Table.Name, scope, removal, def.Description})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return status.Wrap(err, status.InternalUnreachable, "render table")
		}
		pterm.Info.Println("Pass required params as flags to ingest, e.g. --company-guid")
		return nil
	},
}

// flagList renders param names as their ingest flags.
func flagList(params []string) string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = "--" + strings.ReplaceAll(p, "_", "-")
	}
	return strings.Join(out, " ")
}

func init() {
	jobsCmd.AddCommand(jobsListCmd)
	RootCmd.AddCommand(jobsCmd)
}
