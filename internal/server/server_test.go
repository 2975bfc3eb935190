package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health/live", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/health/ready", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "healthy", payload.Status)
	assert.Equal(t, "healthy", payload.Checks["database"])
	assert.Equal(t, "healthy", payload.Checks["redis"])
}

func TestReadiness_DegradedWithoutRedis(t *testing.T) {
	env := newTestEnv(t)
	env.mr.Close()

	resp := env.get(t, "/health/ready", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "degraded", payload.Status)
}

func TestClearCache(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin")
	require.NoError(t, env.db.Model(admin).Update("is_admin", true).Error)
	reader := env.createUser(t, "reader")
	author := env.createUser(t, "auth")
	posts := env.createPosts(t, author, nil, 1)

	first := readBody(t, env.get(t, "/", ""))
	require.Contains(t, first, posts[0].Text)
	require.NoError(t, env.db.Unscoped().Delete(posts[0]).Error)

	tests := []struct {
		name   string
		cookie string
		status int
	}{
		{name: "anonymous", cookie: "", status: http.StatusUnauthorized},
		{name: "regular user", cookie: env.sessionCookie(t, reader), status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.postForm(t, "/admin/cache/clear/", tt.cookie, nil)
			assert.Equal(t, tt.status, resp.StatusCode)

			var errResp models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.NotEmpty(t, errResp.Error)
		})
	}
	assert.Equal(t, first, readBody(t, env.get(t, "/", "")), "failed clears leave the cache alone")

	resp := env.postForm(t, "/admin/cache/clear/", env.sessionCookie(t, admin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.True(t, payload["cleared"])

	assert.NotContains(t, readBody(t, env.get(t, "/", "")), posts[0].Text)
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"/create/":             "/create/",
		"/posts/1/edit/?x=1":   "/posts/1/edit/?x=1",
		"":                     "/",
		"//evil.example.com":   "/",
		"/\\evil.example.com":  "/",
		"http://evil.example/": "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeNext(in), in)
	}
}

func TestLinebreaks(t *testing.T) {
	assert.Equal(t, "a<br>&lt;b&gt;", string(linebreaks("a\r\n<b>")))
}
