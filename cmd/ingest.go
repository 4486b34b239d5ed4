package cmd

import (
	"strconv"

	"bitsight-connector/core/config"
	"bitsight-connector/core/job"
	"bitsight-connector/core/status"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	companyGUID string
	threatGUID  string
	entityGUID  string
	userGUID    string
	expectedMin int
	failFast    bool
	maxFailures int
	strict      bool
)

// ingestCmd runs one ingestion job.
var ingestCmd = &cobra.Command{
	Use:   "ingest <job>",
	Short: "Fetch one endpoint and reconcile it into its table",
	Long: `Fetches the full record set of a job once, writes every record in order and,
for reconciled tables, deactivates rows missing from a complete fetch.

The run is committed when it succeeded, or partially succeeded without --strict.
With --dry-run nothing is written; the reported delta shows what would change.`,
	Example: `  bitsight-connector ingest companies
  bitsight-connector ingest findings --company-guid <guid> --max-failures 10
  bitsight-connector ingest threats-evidence --threat-guid <guid> --entity-guid <guid>
  bitsight-connector ingest portfolio --dry-run`,
	Args: exactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	applyIngestFlags(cmd, &a.cfg.Ingest)
	if err := config.Validate(a.cfg); err != nil {
		return err
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	db, closeDB, err := a.connect()
	if err != nil {
		return err
	}
	defer closeDB()

	archive, err := a.archive()
	if err != nil {
		return err
	}

	opts := []job.RunnerOption{job.WithLogger(a.log)}
	if archive != nil {
		opts = append(opts, job.WithArchive(archive))
	}
	runner := job.NewRunner(db, client, registry(), opts...)

	report, err := runner.Run(ctx, job.RunOptions{
		Job:                args[0],
		Params:             ingestParams(),
		DryRun:             dryRun,
		Strict:             a.cfg.Ingest.Strict,
		FailFast:           a.cfg.Ingest.FailFast,
		MaxFailures:        a.cfg.Ingest.MaxFailures,
		ExpectedMinRecords: expectedMin,
		ShowProgress:       a.cfg.Ingest.ShowProgress && !noProgress && !jsonLogs,
	})
	if err != nil {
		return err
	}

	printReport(a.log, report)
	exitCode = report.Exit
	return nil
}

// ingestParams collects the path params given on the command line.
func ingestParams() job.Params {
	params := job.Params{}
	for name, val := range map[string]string{
		job.ParamCompanyGUID: companyGUID,
		job.ParamThreatGUID:  threatGUID,
		job.ParamEntityGUID:  entityGUID,
		job.ParamUserGUID:    userGUID,
	} {
		if val != "" {
			params[name] = val
		}
	}
	return params
}

// applyIngestFlags lets explicitly passed flags override the ingest section.
func applyIngestFlags(cmd *cobra.Command, cfg *config.IngestConfig) {
	flags := cmd.Flags()
	if flags.Changed("fail-fast") {
		cfg.FailFast = failFast
	}
	if flags.Changed("max-failures") {
		cfg.MaxFailures = maxFailures
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
}

func printReport(log *zap.Logger, report job.Report) {
	doc := report.Document()
	rows := pterm.TableData{
		{"Job", doc.Job},
		{"Run", doc.RunID},
		{"Status", doc.Status},
		{"Exit", strconv.Itoa(doc.ExitCode) + " " + doc.ExitName},
		{"Fetched", strconv.Itoa(doc.Fetched)},
		{"Written", strconv.Itoa(doc.Written)},
		{"Failed", strconv.Itoa(doc.Failed)},
		{"New / Updated / Unchanged / Removed", strconv.Itoa(doc.New) + " / " + strconv.Itoa(doc.Updated) +
			" / " + strconv.Itoa(doc.Unchanged) + " / " + strconv.Itoa(doc.Removed)},
		{"Committed", strconv.FormatBool(doc.Committed)},
	}
	if report.ArchivedAs != "" {
		rows = append(rows, []string{"Report", report.ArchivedAs})
	}
	if err := pterm.DefaultTable.WithData(rows).Render(); err != nil {
		log.Debug("Report table not rendered", zap.Error(err))
	}

	msg := doc.Message
	if msg == "" {
		msg = doc.Status
	}
	switch {
	case report.DryRun && report.Success():
		pterm.Info.Println("Dry run: no changes were written")
	case report.Success():
		pterm.Success.Println(msg)
	case report.Status == status.IngestionPartialWrite:
		pterm.Warning.Println(msg)
	default:
		pterm.Error.Println(msg)
	}
}

func init() {
	flags := ingestCmd.Flags()
	flags.StringVar(&companyGUID, "company-guid", "", "company GUID for company scoped jobs")
	flags.StringVar(&threatGUID, "threat-guid", "", "threat GUID for threats-impact and threats-evidence")
	flags.StringVar(&entityGUID, "entity-guid", "", "company GUID the threat evidence is for")
	flags.StringVar(&userGUID, "user-guid", "", "user GUID for user-details")
	flags.IntVar(&expectedMin, "expected-min", 0, "warn when fewer records are fetched")
	flags.BoolVar(&failFast, "fail-fast", false, "abort on the first failed record")
	flags.IntVar(&maxFailures, "max-failures", 0, "abort after this many failed records (0 disables)")
	flags.BoolVar(&strict, "strict", false, "roll back runs that only partially succeeded")

	RootCmd.AddCommand(ingestCmd)
}
