package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/tickets", "GET", 200, 5*time.Millisecond)
	m.RecordRequest("/api/tickets", "GET", 200, 7*time.Millisecond)
	m.RecordError("/api/tickets/1", "PUT", "VALIDATION_FAILED")

	assert.Equal(t, int64(2), m.requestCount["/api/tickets|GET|200"])
	assert.Equal(t, int64(1), m.errorCount["/api/tickets/1|PUT|VALIDATION_FAILED"])
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/health", "GET", 200, time.Millisecond)
		m.RecordError("/health", "GET", "INTERNAL_ERROR")
	})
}
