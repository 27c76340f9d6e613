//go:generate mockgen -source=spinner.go -destination=mocks/mock_spinner.go -package=mocks

package cli

import (
	"context"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// StatusRefreshRate is how often the spinner suffix is refreshed.
const StatusRefreshRate = 200 * time.Millisecond

// Spinner abstracts the terminal spinner so status updates can be tested
// without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(w io.Writer) Spinner {
	s := spinner.New(spinner.CharSets[11], StatusRefreshRate, spinner.WithWriter(w))
	return &realSpinner{s}
}

// RunStatus shows a spinner on w whose suffix is refreshed from source until
// ctx is done. It blocks and stops the spinner before returning.
func RunStatus(ctx context.Context, w io.Writer, source func() Status) {
	runStatus(ctx, newSpinner(w), StatusRefreshRate, source)
}

func runStatus(ctx context.Context, sp Spinner, every time.Duration, source func() Status) {
	sp.UpdateSuffix(" " + FormatStatus(source()))
	sp.Start()
	defer sp.Stop()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sp.UpdateSuffix(" " + FormatStatus(source()))
		}
	}
}
