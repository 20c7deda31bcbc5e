package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studenteats/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	r.GET("/", handlers...)
	return r
}

func serve(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	tok, err := utils.GenerateAccessToken("user-1", "a@umass.edu", testSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		header string
		status int
		body   string
	}{
		{"anonymous", testSecret, "", http.StatusOK, `{"user_id":""}`},
		{"valid token", testSecret, "Bearer " + tok, http.StatusOK, `{"user_id":"user-1"}`},
		{"not bearer", testSecret, "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", testSecret, "Bearer nope", http.StatusUnauthorized, ""},
		{"wrong secret", "another-secret-that-is-long-enough-too", "Bearer " + tok, http.StatusUnauthorized, ""},
		{"no secret configured", "", "Bearer " + tok, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newEngine(Authenticate(tt.secret)), tt.header)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	tok, err := utils.GenerateAccessToken("user-1", "", testSecret, time.Hour)
	require.NoError(t, err)
	r := newEngine(Authenticate(testSecret), RequireUser())

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusOK, serve(r, "Bearer "+tok).Code)
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	probe := func(c *gin.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()
	}

	serve(newEngine(Timeout(time.Minute), probe), "")
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	serve(newEngine(Timeout(0), probe), "")
	assert.False(t, hasDeadline)
}
