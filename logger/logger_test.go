/* logger_test.go
 * Contains unit tests for logger.go
 */

package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bootcamp-grader/config"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.Config
		level zapcore.Level
	}{
		{"development debug", config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: "debug", Format: "console"}}, zapcore.DebugLevel},
		{"production warn", config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "warn", Format: "json"}}, zapcore.WarnLevel},
		{"bad level falls back to info", config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "loud"}}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(&tt.cfg)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.level-1))
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Middleware(zap.New(core), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "http_request", entry.Message)
	assert.Equal(t, "/healthz", entry.ContextMap()["path"])
	assert.Equal(t, int64(http.StatusTeapot), entry.ContextMap()["status"])
}
