package httpapi

import (
    "net/http"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

// readyz reports 503 while the storage probe fails.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
    if s.ready != nil {
        if err := s.ready(r.Context()); err != nil {
            s.log.Warn("not ready", "err", err)
            writeErr(w, http.StatusServiceUnavailable, "storage unavailable", "not_ready")
            return
        }
    }
    w.WriteHeader(http.StatusOK)
}
