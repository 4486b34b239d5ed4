package job

import "time"

// Document is the archived JSON form of a report.
type Document struct {
	RunID      string    `json:"run_id"`
	Job        string    `json:"job"`
	Status     string    `json:"status"`
	ExitCode   int       `json:"exit_code"`
	ExitName   string    `json:"exit_name"`
	Fetched    int       `json:"fetched"`
	Written    int       `json:"written"`
	Failed     int       `json:"failed"`
	New        int       `json:"new"`
	Updated    int       `json:"updated"`
	Unchanged  int       `json:"unchanged"`
	Removed    int       `json:"removed"`
	DryRun     bool      `json:"dry_run"`
	Committed  bool      `json:"committed"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Message    string    `json:"message,omitempty"`
	Cause      string    `json:"cause,omitempty"`
}

// Document flattens the report for archival and JSON output.
func (r Report) Document() Document {
	return Document{
		RunID:      r.RunID,
		Job:        r.Job,
		Status:     string(r.Status),
		ExitCode:   r.Exit.Int(),
		ExitName:   r.Exit.String(),
		Fetched:    r.Fetched,
		Written:    r.Written,
		Failed:     r.Failed,
		New:        r.Delta.New,
		Updated:    r.Delta.Updated,
		Unchanged:  r.Delta.Unchanged,
		Removed:    r.Delta.Removed,
		DryRun:     r.DryRun,
		Committed:  r.Committed,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Message:    r.Message,
		Cause:      string(r.Cause),
	}
}
