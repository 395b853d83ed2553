package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/warehouse/collector"
	"github.com/petal-labs/warehouse/core"
)

// DefaultCollectorURL is queried when no collector is configured.
const DefaultCollectorURL = "http://localhost:8088"

const queryTimeout = 15 * time.Second

func (a *App) newRecordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records [record-id]",
		Short: "List or show recorded calls",
		Long: `List recorded calls stored by a collector, newest first, or show one
record in full when a record id is given.

Output is a table on a terminal and JSON otherwise; --json forces JSON.`,
		Example: `  warehouse records --method openai.chat.completions.create --limit 20
  warehouse records --outcome error
  warehouse records 0b6f3c5e-9d0a-4a8e-bb8e-0f1d2a3b4c5d`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runRecords,
	}
	a.addCollectorFlag(cmd)
	cmd.Flags().StringVar(&a.recordsMethod, "method", "", "only records with this sdk_method")
	cmd.Flags().StringVar(&a.recordsOut, "outcome", "", "only records with this outcome (success, streaming, error)")
	cmd.Flags().IntVar(&a.recordsLimit, "limit", collector.DefaultLimit, "maximum number of records")
	return cmd
}

func (a *App) newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-method call statistics",
		Args:  cobra.NoArgs,
		RunE:  a.runStats,
	}
	a.addCollectorFlag(cmd)
	return cmd
}

func (a *App) addCollectorFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.collectorURL, "collector", "", "collector base URL (default derived from sink.url, then "+DefaultCollectorURL+")")
}

func (a *App) runRecords(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		var rec core.Record
		if err := a.getJSON(cmd.Context(), "/v1/records/"+url.PathEscape(args[0]), nil, &rec); err != nil {
			return a.queryFailed(err)
		}
		if !a.tableOutput() {
			return writeJSON(a.stdout, rec)
		}
		return writeRecordDetail(a.stdout, rec, terminalWidth(a.stdout))
	}

	switch core.Outcome(a.recordsOut) {
	case "", core.OutcomeSuccess, core.OutcomeStreaming, core.OutcomeError:
	default:
		err := fmt.Errorf("%w: unknown outcome %q", core.ErrInvalidConfig, a.recordsOut)
		a.reportError(a.stderr, "validation_error", err)
		return exitWithCode(ExitValidation, err)
	}
	if a.recordsLimit < 0 {
		err := fmt.Errorf("%w: limit must not be negative", core.ErrInvalidConfig)
		a.reportError(a.stderr, "validation_error", err)
		return exitWithCode(ExitValidation, err)
	}

	q := url.Values{}
	if a.recordsMethod != "" {
		q.Set("sdk_method", a.recordsMethod)
	}
	if a.recordsOut != "" {
		q.Set("outcome", a.recordsOut)
	}
	q.Set("limit", strconv.Itoa(a.recordsLimit))

	var page struct {
		Records []core.Record `json:"records"`
		Count   int           `json:"count"`
	}
	if err := a.getJSON(cmd.Context(), "/v1/records", q, &page); err != nil {
		return a.queryFailed(err)
	}
	if !a.tableOutput() {
		return writeJSON(a.stdout, page.Records)
	}
	if len(page.Records) == 0 {
		fmt.Fprintln(a.stdout, "No records.")
		return nil
	}
	return writeRecordTable(a.stdout, page.Records)
}

func (a *App) runStats(cmd *cobra.Command, args []string) error {
	var st collector.Stats
	if err := a.getJSON(cmd.Context(), "/v1/stats", nil, &st); err != nil {
		return a.queryFailed(err)
	}
	if !a.tableOutput() {
		return writeJSON(a.stdout, st)
	}

	fmt.Fprintf(a.stdout, "Total records: %d\n\n", st.Total)
	methods := make([]string, 0, len(st.ByMethod))
	for m := range st.ByMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SDK METHOD\tCALLS\tMEAN\tMAX")
	for _, m := range methods {
		l := st.Latency[m]
		fmt.Fprintf(tw, "%s\t%d\t%.3fs\t%.3fs\n", m, st.ByMethod[m], l.MeanS, l.MaxS)
	}
	return tw.Flush()
}

// collectorBase resolves the collector URL from the flag or the config.
func (a *App) collectorBase() string {
	if a.collectorURL != "" {
		return strings.TrimRight(a.collectorURL, "/")
	}
	if u := a.cfg.Sink.URL; u != "" {
		return strings.TrimSuffix(strings.TrimRight(u, "/"), "/v1/records")
	}
	return DefaultCollectorURL
}

// collectorKey returns the bearer token for the collector API.
func (a *App) collectorKey() core.Secret {
	if !a.cfg.Collector.APIKey.IsEmpty() {
		return a.cfg.Collector.APIKey
	}
	return a.cfg.Sink.APIKey
}

// queryError describes a failed collector API request.
type queryError struct {
	URL    string
	Status int
	Err    error
}

func (e *queryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("collector %s: %v (status=%d)", e.URL, e.Err, e.Status)
	}
	return fmt.Sprintf("collector %s: %v", e.URL, e.Err)
}

func (e *queryError) Unwrap() error {
	return e.Err
}

func (a *App) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	target := a.collectorBase() + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if key := a.collectorKey(); !key.IsEmpty() {
		req.Header.Set("Authorization", "Bearer "+key.Expose())
	}

	a.logger.Debug("querying collector", "url", target)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &queryError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, collector.MaxBodyBytes))
	if err != nil {
		return &queryError{URL: target, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &queryError{URL: target, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	return json.Unmarshal(body, out)
}

func (a *App) queryFailed(err error) error {
	var qe *queryError
	if errors.As(err, &qe) && qe.Status == http.StatusNotFound {
		a.reportError(a.stderr, "not_found", err)
		return exitWithCode(ExitValidation, err)
	}
	a.reportError(a.stderr, "network_error", err)
	return exitWithCode(ExitNetwork, err)
}
