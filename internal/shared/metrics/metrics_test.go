package metrics

import (
	"strings"
	"testing"
)

func TestNowMillisAdvances(t *testing.T) {
	before := NowMillis()
	if before <= 0 {
		t.Fatalf("expected positive timestamp, got %f", before)
	}
	after := NowMillis()
	if after < before {
		t.Fatalf("clock went backwards: %f then %f", before, after)
	}
}

func TestRenderIncludesRunDuration(t *testing.T) {
	start := NowMillis()
	ObserveIngestRunDurationMs(NowMillis() - start)

	out := Render()
	if !strings.Contains(out, "ingest_run_duration_ms_count") {
		t.Fatalf("expected run duration histogram in output:\n%s", out)
	}
}
