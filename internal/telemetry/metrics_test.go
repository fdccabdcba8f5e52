package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun_IncrementsOutcome(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues("succeeded"))
	ObserveRun("succeeded", 2*time.Second)
	after := testutil.ToFloat64(runsTotal.WithLabelValues("succeeded"))
	assert.Equal(t, before+1, after)
}

func TestObserveProbe_SetsGauge(t *testing.T) {
	ObserveProbe(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(backendReachable))

	ObserveProbe(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(backendReachable))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	ObserveStageTransition("research")
	ObserveRemoteRequest("ok", 100*time.Millisecond)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "insightflow_stage_transitions_total")
	assert.Contains(t, string(body), "insightflow_remote_requests_total")
}
