package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstruments(t *testing.T) {
	m := New("superadmin")

	m.ObserveRemote("quiz", "createSession", "ok", 20*time.Millisecond)
	m.ObserveRemote("quiz", "createSession", "rejected", time.Second)
	m.SessionCreated("quiz")
	m.SessionEnded("quiz", "remote")
	m.InboundUpdate()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemoteRequests.WithLabelValues("quiz", "createSession", "rejected")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RemoteLatency))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsCreated.WithLabelValues("quiz")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsEnded.WithLabelValues("quiz", "remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InboundUpdates))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRemote("quiz", "createSession", "ok", time.Millisecond)
		m.SessionCreated("quiz")
		m.SessionEnded("quiz", "admin")
		m.InboundUpdate()
	})
}

func TestHandler(t *testing.T) {
	m := New("superadmin")
	m.SessionCreated("quiz")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `superadmin_sessions_created_total{game="quiz"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
