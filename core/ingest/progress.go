package ingest

import (
	"os"

	"github.com/pterm/pterm"
)

// Progress receives one tick per handled record.
type Progress interface {
	Increment()
	Stop()
}

// ProgressFactory creates the indicator for a run of total records.
type ProgressFactory func(title string, total int) Progress

// NewProgressBar renders a pterm progress bar on stderr. If the bar cannot
// start, progress is silently dropped.
func NewProgressBar(title string, total int) Progress {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithWriter(os.Stderr).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return noProgress{}
	}
	return &ptermProgress{bar: bar}
}

type ptermProgress struct {
	bar *pterm.ProgressbarPrinter
}

func (p *ptermProgress) Increment() {
	p.bar.Increment()
}

func (p *ptermProgress) Stop() {
	_, _ = p.bar.Stop()
}

type noProgress struct{}

func (noProgress) Increment() {}
func (noProgress) Stop()      {}
