package health

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// VersionInfo contains build information served on the version endpoint.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// LivenessHandler serves the liveness probe. It always returns 200.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readOnly(w, r) {
			return
		}
		writeReport(w, r, http.StatusOK, c.Liveness(r.Context()))
	}
}

// ReadinessHandler serves the readiness probe. It returns 503 while draining
// or when any check fails.
//
//	{
//	    "status": "ready",
//	    "sessions": 3,
//	    "checks": {
//	        "tls_certificate": {"status": "ok", "duration_ms": 0.21},
//	        "upstream_config": {"status": "ok", "duration_ms": 0}
//	    },
//	    "timestamp": "2026-01-10T10:30:00Z"
//	}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readOnly(w, r) {
			return
		}
		report := c.Readiness(r.Context())
		status := http.StatusOK
		if !report.Ready() {
			status = http.StatusServiceUnavailable
		}
		writeReport(w, r, status, report)
	}
}

// VersionHandler serves build information.
func VersionHandler(version, commit, buildTime string) http.HandlerFunc {
	info := VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !readOnly(w, r) {
			return
		}
		writeReport(w, r, http.StatusOK, info)
	}
}

// Paths holds the mount points of the probe endpoints.
type Paths struct {
	Liveness  string
	Readiness string
	Version   string
}

// Register mounts the probe endpoints on mux. Empty paths are skipped.
func (c *Checker) Register(mux *http.ServeMux, paths Paths, version, commit, buildTime string) {
	if paths.Liveness != "" {
		mux.Handle(paths.Liveness, c.LivenessHandler())
	}
	if paths.Readiness != "" {
		mux.Handle(paths.Readiness, c.ReadinessHandler())
	}
	if paths.Version != "" {
		mux.Handle(paths.Version, VersionHandler(version, commit, buildTime))
	}
}

func readOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeReport(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(body)
	}
}
