package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordTransition("validator_creation_issued")
	m.RecordTransition("validator_creation_issued")
	m.RecordSubmitted("stakeEth")
	m.RecordOperateRun("completed")
	m.RecordError("validator_registered", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("validator_creation_issued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submitted.WithLabelValues("stakeEth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operateRuns.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("validator_registered")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.errorCount))

	m.RecordCleared("completed")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cleared.WithLabelValues("completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.errorCount))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordTransition("deposit_confirmed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pspawner_transitions_total{state="deposit_confirmed"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
