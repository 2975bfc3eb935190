package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMiddleware_PropagatesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(42))
		c.Locals("traceID", "trace-abc")
		return c.Next()
	})
	app.Use(ContextMiddleware())

	var (
		gotRequestID string
		gotUserID    uint
		gotTraceID   string
	)
	app.Get("/", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		gotRequestID, _ = ctx.Value(RequestIDKey).(string)
		gotUserID, _ = ctx.Value(UserIDKey).(uint)
		gotTraceID, _ = ctx.Value(TraceIDKey).(string)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), gotRequestID)
	assert.Equal(t, uint(42), gotUserID)
	assert.Equal(t, "trace-abc", gotTraceID)
}

func TestStructuredLogger_PassesErrorsThrough(t *testing.T) {
	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		level     string
		logDebug  bool
		logInfo   bool
		expectsJS bool
	}{
		{name: "development text at info", env: "development", logInfo: true},
		{name: "test quiet", env: "test"},
		{name: "production json", env: "production", logInfo: true, expectsJS: true},
		{name: "explicit debug", env: "test", level: "debug", logDebug: true, logInfo: true},
		{name: "bad level keeps default", env: "development", level: "loud", logInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.env, tt.level, &buf)
			ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")

			logger.DebugContext(ctx, "debug line")
			logger.InfoContext(ctx, "info line")

			out := buf.String()
			assert.Equal(t, tt.logDebug, strings.Contains(out, "debug line"))
			assert.Equal(t, tt.logInfo, strings.Contains(out, "info line"))
			if tt.logInfo {
				assert.Contains(t, out, "req-1")
				assert.Equal(t, tt.expectsJS, strings.HasPrefix(out, "{"))
			}
		})
	}
}
