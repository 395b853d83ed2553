package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/petal-labs/warehouse/core"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or 0 when unknown.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// tableOutput reports whether results go out as a table rather than JSON.
func (a *App) tableOutput() bool {
	return !a.jsonOutput && a.isTerminal(a.stdout)
}

func writeRecordTable(w io.Writer, recs []core.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSDK METHOD\tOUTCOME\tLATENCY\tREQUEST ID\tRECORD ID")
	for _, r := range recs {
		reqID := "-"
		if r.RequestID != nil {
			reqID = *r.RequestID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Time.Local().Format(time.DateTime),
			r.SDKMethod,
			r.Outcome,
			r.Latency.Round(time.Millisecond),
			reqID,
			r.ID,
		)
	}
	return tw.Flush()
}

func writeRecordDetail(w io.Writer, r core.Record, width int) error {
	fmt.Fprintf(w, "Record:     %s\n", r.ID)
	fmt.Fprintf(w, "Time:       %s\n", r.Time.Local().Format(time.RFC3339Nano))
	fmt.Fprintf(w, "SDK method: %s\n", r.SDKMethod)
	fmt.Fprintf(w, "Outcome:    %s\n", r.Outcome)
	fmt.Fprintf(w, "Latency:    %s\n", r.Latency)
	if r.RequestID != nil {
		fmt.Fprintf(w, "Request ID: %s\n", *r.RequestID)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", r.Error)
	}
	fmt.Fprintf(w, "Request:    %s\n", clip(compactJSON(r.Request), width))
	if r.Outcome == core.OutcomeSuccess {
		fmt.Fprintf(w, "Response:   %s\n", clip(compactJSON(r.Response), width))
	}
	return nil
}

// clip shortens s to fit a line of width columns after the field label.
func clip(s string, width int) string {
	const label = 12
	if width <= label+3 || len(s) <= width-label {
		return s
	}
	return s[:width-label-3] + "..."
}

func compactJSON(v any) string {
	var sb strings.Builder
	if err := writeJSONCompact(&sb, v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(sb.String())
}
