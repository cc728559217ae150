package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	ingestRunsStartedTotal   atomic.Uint64
	ingestRunsCompletedTotal atomic.Uint64
	ingestRunsFailedTotal    atomic.Uint64
	papersStoredTotal        atomic.Uint64
	messagesFailedTotal      atomic.Uint64

	ingestRunDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncIngestRunStarted increments the started counter.
func IncIngestRunStarted() {
	ingestRunsStartedTotal.Add(1)
}

// IncIngestRunCompleted increments the completed counter.
func IncIngestRunCompleted() {
	ingestRunsCompletedTotal.Add(1)
}

// IncIngestRunFailed increments the failed counter.
func IncIngestRunFailed() {
	ingestRunsFailedTotal.Add(1)
}

// IncPapersStored adds n to the stored-papers counter.
func IncPapersStored(n int) {
	if n > 0 {
		papersStoredTotal.Add(uint64(n))
	}
}

// IncMessagesFailed adds n to the failed-messages counter.
func IncMessagesFailed(n int) {
	if n > 0 {
		messagesFailedTotal.Add(uint64(n))
	}
}

// ObserveIngestRunDurationMs records an ingestion run duration in milliseconds.
func ObserveIngestRunDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	ingestRunDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "ingest_runs_started_total", "Total ingestion runs started", ingestRunsStartedTotal.Load())
	writeCounter(&buf, "ingest_runs_completed_total", "Total ingestion runs completed", ingestRunsCompletedTotal.Load())
	writeCounter(&buf, "ingest_runs_failed_total", "Total ingestion runs failed", ingestRunsFailedTotal.Load())
	writeCounter(&buf, "papers_stored_total", "Total papers stored from ingestion", papersStoredTotal.Load())
	writeCounter(&buf, "messages_failed_total", "Total messages that failed during ingestion", messagesFailedTotal.Load())
	writeHistogram(&buf, "ingest_run_duration_ms", "Ingestion run duration in milliseconds", ingestRunDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
