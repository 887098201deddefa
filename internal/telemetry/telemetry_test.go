package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveModelCall("propose", time.Second, nil)
	m.ObserveModelCall("propose", time.Second, errors.New("quota"))
	m.ObserveModelCall("recall", 10*time.Millisecond, nil)
	m.Proposal()
	m.Proposal()
	m.Verdict("pass")
	m.Verdict("fail")
	m.Verdict("fail")
	m.Resource("memory")
	m.Run("new", "completed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelCalls.WithLabelValues("propose", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelCalls.WithLabelValues("propose", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.proposals))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.verdicts.WithLabelValues("fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resources.WithLabelValues("memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("new", "completed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.modelLatency))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveModelCall("x", time.Second, nil)
		m.Proposal()
		m.Verdict("pass")
		m.Resource("fetch")
		m.Run("new", "failed")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Proposal()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "solvy_solver_proposals_total 1"), "exposition should include the proposal counter")
}
