package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Saved(t *testing.T) {
	m := NewMonitor()
	m.Saved(12)
	m.Saved(13)

	s := m.GetStatus()
	assert.Equal(t, 13, s.Records)
	assert.Equal(t, "healthy", s.Status)
	assert.Equal(t, "not started", s.LastReportStatus)
}

func TestMonitor_UpdateReportStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
		wantReport string
	}{
		{"success", nil, "healthy", "success"},
		{"failure", fmt.Errorf("store unreachable"), "degraded", "error: store unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor()
			m.UpdateReportStatus(tt.err)

			s := m.GetStatus()
			assert.Equal(t, tt.wantStatus, s.Status)
			assert.Equal(t, tt.wantReport, s.LastReportStatus)
			assert.NotEmpty(t, s.LastReportTime, "report time should be set")
		})
	}
}

func TestHandler_Health(t *testing.T) {
	m := NewMonitor()
	m.SetRecords(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var s Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
	assert.Equal(t, 4, s.Records)
	assert.Equal(t, "healthy", s.Status)
}

func TestHandler_Metrics(t *testing.T) {
	m := NewMonitor()
	m.Saved(7)
	m.UpdateReportStatus(nil)

	h := m.Handler()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	for _, want := range []string{
		"desk_records 7",
		"desk_saves_total 1",
		`desk_reports_total{result="success"} 1`,
		`desk_http_requests_total{path="/health",status="200"} 1`,
	} {
		assert.Contains(t, string(body), want)
	}
}

func TestHandler_UnknownPath(t *testing.T) {
	m := NewMonitor()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartServer_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := StartServer(ctx, NewMonitor(), "0")
	cancel()

	assert.NoError(t, <-done, "server should shut down cleanly")
}
