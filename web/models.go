/* models.go
 * Contains the configuration, server and response types of the http surface
 */

package web

import (
	"go.uber.org/zap"

	"bootcamp-grader/api/api"
	"bootcamp-grader/api/metrics"
	"bootcamp-grader/api/shared"
)

// Config holds the configuration for the web server
type Config struct {
	Addr    string
	API     *api.API
	Metrics *metrics.Recorder
	Logger  *zap.Logger
}

// Server is the HTTP server exposing grading and stage record operations
type Server struct {
	api     *api.API
	metrics *metrics.Recorder
	log     *zap.Logger
}

// NewServer creates a Server from cfg
func NewServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{api: cfg.API, metrics: cfg.Metrics, log: log}
}

type errorResponse struct {
	Error string `json:"error"`
}

type gradeResponse struct {
	*api.GradeRun
	Errors []string `json:"errors"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type promoteRequest struct {
	Emails []string `json:"emails"`
}

type submissionsRequest struct {
	Submissions []shared.Submission `json:"submissions"`
}

type diffResponse struct {
	CSV string `json:"csv"`
}
