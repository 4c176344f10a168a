/* routes.go
 * Registers the http routes and wraps them with request logging and metrics
 */

package web

import (
	"net/http"
	"time"

	"bootcamp-grader/logger"
)

// Handler returns the server's routes wrapped in its middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.health)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /stages/{stage}/grade", s.grade)
	mux.HandleFunc("POST /stages/{stage}/pending", s.uploadPending)
	mux.HandleFunc("POST /stages/{stage}/pending/run", s.runPending)
	mux.HandleFunc("POST /stages/{stage}/passed/regrade", s.regradePassed)
	mux.HandleFunc("POST /stages/{stage}/promote", s.promote)
	mux.HandleFunc("GET /stages/{stage}/{bucket}", s.list)
	mux.HandleFunc("DELETE /stages/{stage}/{bucket}", s.deleteAll)
	mux.HandleFunc("DELETE /stages/{stage}/{bucket}/{email}", s.deleteOne)

	mux.HandleFunc("POST /tools/diff", s.diff)

	mux.HandleFunc("POST /mentions", s.uploadMentions)
	mux.HandleFunc("POST /mentions/count", s.countMentions)
	mux.HandleFunc("GET /mentions/counts", s.mentionCounts)
	mux.HandleFunc("DELETE /mentions", s.deleteMentions)

	mux.HandleFunc("POST /general", s.uploadGeneral)
	mux.HandleFunc("DELETE /general", s.deleteGeneral)
	mux.HandleFunc("GET /general/unmentioned", s.unmentioned)

	return logger.Middleware(s.log, s.instrument(mux))
}

// instrument records every request against the route pattern it matched
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		s.metrics.ObserveHTTPRequest(r.Method, pattern, rec.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
