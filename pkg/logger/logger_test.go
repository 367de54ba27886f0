package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/grading-admin-api/pkg/config"
)

func TestRedactPath(t *testing.T) {
	assert.Equal(t, "/api/v1/export/[redacted]", redactPath("/api/v1/export/abc.def"))
	assert.Equal(t, "/api/v1/export/", redactPath("/api/v1/export/"))
	assert.Equal(t, "/api/v1/grading/pending", redactPath("/api/v1/grading/pending"))
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/api/v1/export/:token", func(c *gin.Context) {
		c.Header("X-Cache", "MISS")
		c.Status(http.StatusForbidden)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/export/secret-token", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/api/v1/export/[redacted]", fields["path"])
	assert.Equal(t, "MISS", fields["cache"])
	assert.EqualValues(t, http.StatusForbidden, fields["status"])
}

func TestNewFallsBackToInfoLevel(t *testing.T) {
	l, err := New(&config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "loud"}})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}
