package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordProbe(t *testing.T) {
	before := testutil.ToFloat64(ProbesTotal.WithLabelValues("redis", "healthy"))
	RecordProbe("redis", "healthy", 12.5)
	after := testutil.ToFloat64(ProbesTotal.WithLabelValues("redis", "healthy"))

	assert.Equal(t, before+1, after)
}

func TestRecordSkippedCheck(t *testing.T) {
	before := testutil.ToFloat64(SkippedChecksTotal.WithLabelValues("redis"))
	RecordSkippedCheck("redis")
	after := testutil.ToFloat64(SkippedChecksTotal.WithLabelValues("redis"))

	assert.Equal(t, before+1, after)
}

func TestSetCircuitBrokenSchedule(t *testing.T) {
	SetCircuitBrokenSchedule("supabase", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(CircuitBrokenSchedule.WithLabelValues("supabase")))

	SetCircuitBrokenSchedule("supabase", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(CircuitBrokenSchedule.WithLabelValues("supabase")))
}
