package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-session-server/internal/metrics"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCounters(t *testing.T) {
	m := metrics.New()
	m.ObserveLogin("success")
	m.ObserveLogin("success")
	m.ObserveLogin("bad_password")
	m.ObserveResolution("rotated")
	m.ObserveRevocation()

	body := scrape(t, m)
	require.Contains(t, body, `session_server_logins_total{outcome="success"} 2`)
	require.Contains(t, body, `session_server_logins_total{outcome="bad_password"} 1`)
	require.Contains(t, body, `session_server_session_resolutions_total{outcome="rotated"} 1`)
	require.Contains(t, body, `session_server_session_revocations_total 1`)
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.ObserveResolution("revoked_refresh")

	h := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	body := scrape(t, m)
	require.Contains(t, body, `session_server_session_resolutions_total{outcome="revoked_refresh"} 1`)
	require.Contains(t, body, `session_server_http_requests_total{code="418",method="get"} 1`)
}
