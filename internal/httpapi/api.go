// internal/httpapi/api.go
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/ulp-supervisor/internal/reader"
	"github.com/tamzrod/ulp-supervisor/internal/status"
)

// StatusSource provides the current supervisor snapshot.
type StatusSource interface {
	Snapshot() status.Snapshot
	LastError() error
}

// FrameSource provides recently received frames, oldest first.
type FrameSource interface {
	Recent() []reader.Frame
}

// Version is reported by GET /version.
type Version struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
}

type statusReport struct {
	status.Snapshot
	LifecycleName string `json:"lifecycle_name"`
	HealthName    string `json:"health_name"`
	LastError     string `json:"last_error,omitempty"`
}

type api struct {
	st     StatusSource
	frames FrameSource
	ver    Version
}

// NewRouter wires the read-only introspection endpoints.
func NewRouter(st StatusSource, frames FrameSource, ver Version) *mux.Router {
	a := &api{st: st, frames: frames, ver: ver}

	r := mux.NewRouter()
	r.HandleFunc("/status", a.getStatus).Methods("GET")
	r.HandleFunc("/version", a.getVersion).Methods("GET")
	r.HandleFunc("/frames/recent", a.getFrames).Methods("GET")
	return r
}

func (a *api) getStatus(w http.ResponseWriter, r *http.Request) {
	s := a.st.Snapshot()
	rep := statusReport{
		Snapshot:      s,
		LifecycleName: status.LifecycleName(s.Lifecycle),
		HealthName:    status.HealthName(s.Health),
	}
	if err := a.st.LastError(); err != nil {
		rep.LastError = err.Error()
	}
	writeJSON(w, rep)
}

func (a *api) getVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.ver)
}

func (a *api) getFrames(w http.ResponseWriter, r *http.Request) {
	if a.frames == nil {
		writeJSON(w, []reader.Frame{})
		return
	}
	writeJSON(w, a.frames.Recent())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	if err := e.Encode(v); err != nil {
		log.WithError(err).Debug("http: encode response")
	}
}
