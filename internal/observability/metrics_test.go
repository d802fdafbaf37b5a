package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/tickets", "POST", "VALIDATION_FAILED")

	snap := m.Snapshot()
	key := "/api/tickets|GET|200"
	if snap.Requests[key] != 2 {
		t.Errorf("Requests[%s] = %d, want 2", key, snap.Requests[key])
	}
	if snap.AvgMillis[key] != 20 {
		t.Errorf("AvgMillis[%s] = %d, want 20", key, snap.AvgMillis[key])
	}
	if snap.Errors["/api/tickets|POST|VALIDATION_FAILED"] != 1 {
		t.Errorf("Errors = %v", snap.Errors)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	if got := m.Snapshot(); len(got.Requests) != 0 {
		t.Errorf("Snapshot() = %v", got)
	}
}
