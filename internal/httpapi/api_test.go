// internal/httpapi/api_test.go
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/status"
)

type fakeStatus struct {
	snap status.Snapshot
	err  error
}

func (f fakeStatus) Snapshot() status.Snapshot { return f.snap }
func (f fakeStatus) LastError() error          { return f.err }

type fakeFrames []reader.Frame

func (f fakeFrames) Recent() []reader.Frame { return f }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatus(t *testing.T) {
	h := NewRouter(fakeStatus{
		snap: status.Snapshot{Lifecycle: status.LifecycleRunning, Health: status.HealthError, Wakes: 3},
		err:  errors.New("reader: transport: unplugged"),
	}, nil, Version{})

	rec := get(t, h, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "running", body["lifecycle_name"])
	require.Equal(t, "error", body["health_name"])
	require.Equal(t, float64(3), body["wakes"])
	require.Equal(t, "reader: transport: unplugged", body["last_error"])
}

func TestVersion(t *testing.T) {
	h := NewRouter(fakeStatus{}, nil, Version{Version: "1.2.3", BuildDate: "today"})
	var v Version
	require.NoError(t, json.Unmarshal(get(t, h, "/version").Body.Bytes(), &v))
	require.Equal(t, "1.2.3", v.Version)
}

func TestFramesRecent(t *testing.T) {
	h := NewRouter(fakeStatus{}, fakeFrames{{Text: "a"}, {Text: "b"}}, Version{})
	var fs []reader.Frame
	require.NoError(t, json.Unmarshal(get(t, h, "/frames/recent").Body.Bytes(), &fs))
	require.Len(t, fs, 2)
	require.Equal(t, "b", fs[1].Text)

	h = NewRouter(fakeStatus{}, nil, Version{})
	require.JSONEq(t, "[]", get(t, h, "/frames/recent").Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewRouter(fakeStatus{}, nil, Version{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
