package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gobd/internal/obd"
	"gobd/internal/obd/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, h http.Handler, method, path string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func newLiveServer(t *testing.T) (*Server, *mock.Connector) {
	t.Helper()
	conn := mock.New()
	require.NoError(t, conn.Connect())
	return NewServer(conn, obd.NewReader(conn), obd.NewWriter(conn), false), conn
}

func TestDemoStatus(t *testing.T) {
	s := NewServer(nil, nil, nil, true)
	rec, body := doJSON(t, s.Handler(), "GET", "/api/status", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, "DEMO", body["port"])
	assert.Equal(t, "demo", body["mode"])
}

func TestDemoSensors(t *testing.T) {
	s := NewServer(nil, nil, nil, true)
	rec, body := doJSON(t, s.Handler(), "GET", "/api/sensors", "")

	require.Equal(t, http.StatusOK, rec.Code)
	sensors, ok := body["sensors"].(map[string]any)
	require.True(t, ok)

	rpm, ok := sensors["RPM"].(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, rpm["value"])
	assert.Equal(t, "rpm", rpm["unit"])
}

func TestDemoDTCAndClear(t *testing.T) {
	s := NewServer(nil, nil, nil, true)

	_, body := doJSON(t, s.Handler(), "GET", "/api/dtc", "")
	codes, ok := body["codes"].([]any)
	require.True(t, ok)
	assert.Empty(t, codes)

	_, body = doJSON(t, s.Handler(), "POST", "/api/dtc/clear", "")
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["demo"])
}

func TestCommandValidation(t *testing.T) {
	s := NewServer(nil, nil, nil, true)

	rec, body := doJSON(t, s.Handler(), "POST", "/api/command", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no command provided", body["error"])

	rec, body = doJSON(t, s.Handler(), "POST", "/api/command", `{"command":"AT RV"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["response"], "DEMO>")
}

func TestLiveStatus(t *testing.T) {
	s, _ := newLiveServer(t)
	_, body := doJSON(t, s.Handler(), "GET", "/api/status", "")

	assert.Equal(t, true, body["connected"])
	assert.Equal(t, "MOCK", body["port"])
	assert.Equal(t, "live", body["mode"])
}

func TestLiveSensors(t *testing.T) {
	s, _ := newLiveServer(t)
	rec, body := doJSON(t, s.Handler(), "GET", "/api/sensors", "")

	require.Equal(t, http.StatusOK, rec.Code)
	sensors, ok := body["sensors"].(map[string]any)
	require.True(t, ok)

	rpm, ok := sensors["RPM"].(map[string]any)
	require.True(t, ok)
	require.NotNil(t, rpm["value"])
	assert.Greater(t, rpm["value"].(float64), 0.0)

	// The simulator never answers this one; it must come back as an error
	// entry, not be dropped.
	maf, ok := sensors["MAF"].(map[string]any)
	require.True(t, ok)
	assert.Nil(t, maf["value"])
	assert.Equal(t, "no data", maf["error"])
}

func TestLiveDTC(t *testing.T) {
	s, conn := newLiveServer(t)
	conn.StoredDTCs = []string{"0143"}

	_, body := doJSON(t, s.Handler(), "GET", "/api/dtc", "")
	codes, ok := body["codes"].([]any)
	require.True(t, ok)
	require.Len(t, codes, 1)

	entry := codes[0].(map[string]any)
	assert.Equal(t, "P0143", entry["code"])
	assert.NotEmpty(t, entry["description"])
}

func TestLiveDTCClear(t *testing.T) {
	s, conn := newLiveServer(t)

	_, body := doJSON(t, s.Handler(), "POST", "/api/dtc/clear", "")
	assert.Equal(t, true, body["success"])
	assert.Contains(t, conn.Sent(), "04")
}

func TestLiveCommand(t *testing.T) {
	s, _ := newLiveServer(t)

	_, body := doJSON(t, s.Handler(), "POST", "/api/command", `{"command":"AT RV"}`)
	assert.Contains(t, body["response"], "12.8V")
}

func TestExportCSV(t *testing.T) {
	s := NewServer(nil, nil, nil, true)
	req := httptest.NewRequest("GET", "/api/export", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,"))
	assert.Contains(t, lines[0], "RPM")
}

func TestStreamPushesEvents(t *testing.T) {
	s := NewServer(nil, nil, nil, true)
	s.StreamInterval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest("GET", "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	events := strings.Count(rec.Body.String(), "data: ")
	assert.GreaterOrEqual(t, events, 2)

	// Each event carries a full sensors payload.
	first := strings.TrimPrefix(strings.SplitN(rec.Body.String(), "\n", 2)[0], "data: ")
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(first), &payload))
	assert.Contains(t, payload, "sensors")
	assert.Contains(t, payload, "status")
	assert.Contains(t, payload, "timestamp")
}
