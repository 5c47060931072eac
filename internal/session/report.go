package session

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"tabflow/internal/history"
)

// Report summarizes one run.
type Report struct {
	SessionID string
	RunID     string
	Input     string
	StartedAt time.Time
	Duration  time.Duration
	Jobs      []history.JobResult
}

// Print writes the per-job outcome as a table.
func (r *Report) Print(w io.Writer) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("job", "output", "rows", "cols", "status", "duration")
	for _, j := range r.Jobs {
		status := "written"
		if !j.Written {
			status = "skipped"
		}
		t.Row(j.Job, j.Output, strconv.Itoa(j.Rows), strconv.Itoa(j.Cols), status, j.Duration.Round(time.Millisecond).String())
	}
	_, err := fmt.Fprintf(w, "Run %s of session %s (%s) finished in %s\n%s\n",
		r.RunID, r.SessionID, r.Input, r.Duration.Round(time.Millisecond), t.String())
	return err
}
