package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func accessLogEntry(t *testing.T, recorded *observer.ObservedLogs) *observer.LoggedEntry {
	t.Helper()
	logs := recorded.All()
	for i := range logs {
		if logs[i].Message == "request completed" {
			return &logs[i]
		}
	}
	t.Fatal("no access log entry recorded")
	return nil
}

func serveWith(middlewares []gin.HandlerFunc, method, target string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.Use(middlewares...)
	engine.Handle(method, "/widgets", handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestGinMiddlewareAccessLog(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	w := serveWith([]gin.HandlerFunc{GinMiddleware(zap.New(core))}, http.MethodGet, "/widgets?q=widgets", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	require.Equal(t, http.StatusOK, w.Code)

	entry := accessLogEntry(t, recorded)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/widgets", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.Equal(t, "q=widgets", fields["query"])
	assert.Contains(t, fields, "latency")
	assert.Contains(t, fields, "client_ip")
}

func TestGinMiddlewareCarriesRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	setID := func(c *gin.Context) {
		c.Set(ginKeyRequestID, "req-123")
		c.Next()
	}
	serveWith([]gin.HandlerFunc{setID, GinMiddleware(zap.New(core))}, http.MethodGet, "/widgets", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	entry := accessLogEntry(t, recorded)
	assert.Equal(t, "req-123", entry.ContextMap()["request_id"])
}

func TestGinMiddlewareLevels(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected zapcore.Level
	}{
		{"2xx logs info", http.StatusOK, zapcore.InfoLevel},
		{"4xx logs warn", http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{"5xx logs error", http.StatusBadGateway, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.InfoLevel)
			serveWith([]gin.HandlerFunc{GinMiddleware(zap.New(core))}, http.MethodGet, "/widgets", func(c *gin.Context) {
				c.Status(tt.status)
			})
			assert.Equal(t, tt.expected, accessLogEntry(t, recorded).Level)
		})
	}
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)

	var w *httptest.ResponseRecorder
	assert.NotPanics(t, func() {
		w = serveWith([]gin.HandlerFunc{Recovery(zap.New(core))}, http.MethodGet, "/widgets", func(c *gin.Context) {
			panic("boom")
		})
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Equal(t, "panic recovered", logs[0].Message)
}

func TestGetGinLogger(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)

	var fromContext *zap.Logger
	serveWith([]gin.HandlerFunc{GinMiddleware(zap.New(core))}, http.MethodGet, "/widgets", func(c *gin.Context) {
		fromContext = GetGinLogger(c)
		c.Status(http.StatusOK)
	})
	assert.NotNil(t, fromContext)

	t.Run("without middleware returns a usable no-op", func(t *testing.T) {
		var bare *zap.Logger
		serveWith(nil, http.MethodGet, "/widgets", func(c *gin.Context) {
			bare = GetGinLogger(c)
			c.Status(http.StatusOK)
		})
		require.NotNil(t, bare)
		assert.NotPanics(t, func() { bare.Info("noop") })
	})
}
