package cmd

import (
	"fmt"
	"os"

	"bitsight-connector/core/database"
	"bitsight-connector/core/status"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var schemaPath string

// dbCmd is the parent command for database maintenance.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Initialize and inspect the target database",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the tables of every registered job",
	Long: `Creates any missing job table. With --schema-path the given SQL script is
executed instead, split into batches on lines holding only GO, in one transaction.`,
	Args: exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		db, closeDB, err := a.connect()
		if err != nil {
			return err
		}
		defer closeDB()

		if schemaPath != "" {
			script, err := os.ReadFile(schemaPath)
			if err != nil {
				return status.Wrapf(err, status.ConfigUnreadable, "read schema %s", schemaPath)
			}
			if dryRun {
				pterm.Info.Printfln("Dry run: %d batches in %s not applied",
					len(database.SplitBatches(string(script))), schemaPath)
				exitCode = status.ExitSuccessDryRunOK
				return nil
			}
			n, err := database.ApplySchema(ctx, db, string(script), a.log)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Applied %d batches from %s", n, schemaPath)
			return nil
		}

		tables := registry().Tables()
		if dryRun {
			for _, spec := range tables {
				ddl, err := database.CreateTableSQL(db, spec)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ddl+";")
			}
			exitCode = status.ExitSuccessDryRunOK
			return nil
		}

		created, err := database.EnsureTables(ctx, db, tables, a.log)
		if err != nil {
			return err
		}
		if len(created) == 0 {
			pterm.Info.Println("All tables already exist")
			exitCode = status.ExitSuccessNoChanges
			return nil
		}
		for _, name := range created {
			pterm.Success.Printfln("Created %s", name)
		}
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Verify that every job table has the expected columns",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		db, closeDB, err := a.connect()
		if err != nil {
			return err
		}
		defer closeDB()

		rows := pterm.TableData{{"Job", "Table", "Status"}}
		var first error
		for _, def := range registry().Definitions() {
			state := "ok"
			if err := database.VerifyTable(db, def.Table.Name, def.Table.RequiredColumns()); err != nil {
				code, _ := status.CodeOf(err)
				state = string(code)
				if first == nil {
					first = err
				}
			}
			rows = append(rows, []string{def.Name, def.Table.Name, state})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return status.Wrap(err, status.InternalUnreachable, "render table")
		}
		return first
	},
}

func init() {
	dbInitCmd.Flags().StringVar(&schemaPath, "schema-path", "", "SQL script to execute instead of the built-in tables")

	dbCmd.AddCommand(dbInitCmd, dbStatusCmd)
	RootCmd.AddCommand(dbCmd)
}
