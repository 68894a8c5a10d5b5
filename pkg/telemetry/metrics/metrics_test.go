package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"mediarc-hq/mediarc/pkg/engine"
)

func TestRecordRun(t *testing.T) {
	c := NewCollector()
	report := &engine.RunReport{
		Ended: time.Unix(1700000000, 0),
		Stats: map[string]*engine.ActionStats{
			"copy":   {Succeeded: 4, Failed: 1},
			"delete": {Succeeded: 2},
			"prune":  {Succeeded: 1},
		},
		BytesCopied:     400,
		BytesFreed:      200,
		BytesPruned:     50,
		SourceSizeAfter: 1000,
		BudgetMet:       true,
	}

	c.RecordRun(report)

	if got := testutil.ToFloat64(c.runsTotal.WithLabelValues("partial")); got != 1 {
		t.Errorf("runs_total{partial} = %v, want 1 (one copy failed)", got)
	}
	if got := testutil.ToFloat64(c.actionsTotal.WithLabelValues("copy", "success")); got != 4 {
		t.Errorf("actions_total{copy,success} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(c.actionsTotal.WithLabelValues("copy", "failure")); got != 1 {
		t.Errorf("actions_total{copy,failure} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.bytesTotal.WithLabelValues("copy")); got != 400 {
		t.Errorf("bytes_total{copy} = %v, want 400", got)
	}
	if got := testutil.ToFloat64(c.bytesTotal.WithLabelValues("prune")); got != 50 {
		t.Errorf("bytes_total{prune} = %v, want 50", got)
	}
	if got := testutil.ToFloat64(c.sourceSize); got != 1000 {
		t.Errorf("source_size_bytes = %v, want 1000", got)
	}
	if got := testutil.ToFloat64(c.budgetMet); got != 1 {
		t.Errorf("budget_met = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.lastRunTime); got != 1700000000 {
		t.Errorf("last_run_timestamp_seconds = %v", got)
	}
}

func TestRecordRun_CleanSuccess(t *testing.T) {
	c := NewCollector()
	c.RecordRun(&engine.RunReport{
		Stats:     map[string]*engine.ActionStats{"copy": {Succeeded: 1}},
		BudgetMet: false,
		Shortfall: 512,
	})

	if got := testutil.ToFloat64(c.runsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("runs_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.budgetMet); got != 0 {
		t.Errorf("budget_met = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.lastShortfall); got != 512 {
		t.Errorf("budget_shortfall_bytes = %v, want 512", got)
	}
}

func TestHandler(t *testing.T) {
	c := NewCollector()
	c.RecordRun(&engine.RunReport{
		Stats:     map[string]*engine.ActionStats{"copy": {Succeeded: 1}},
		BudgetMet: true,
	})

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)

	for _, want := range []string{"mediarc_runs_total", "mediarc_budget_met 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
