package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-slack/internal/config"
	"go-todo-slack/internal/repositories"
	"go-todo-slack/internal/routes"
	"go-todo-slack/testutil"
)

func TestRequestIDMiddleware_Generates(t *testing.T) {
	env := testutil.SetupMemoryRouter(t)

	resp := env.Do(t, http.MethodGet, "/todos", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	_, err := uuid.Parse(resp.Header().Get(routes.RequestIDHeader))
	assert.NoError(t, err)
}

func TestRequestIDMiddleware_PropagatesClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(routes.RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, routes.RequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(routes.RequestIDHeader, "req-123")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, "req-123", resp.Header().Get(routes.RequestIDHeader))
	assert.Equal(t, "req-123", resp.Body.String())
}

func TestSetupRouter_CORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := routes.Dependencies{TodoRepo: repositories.NewMemoryTodoRepository(), Backend: "memory"}

	for name, tc := range map[string]struct {
		origins []string
		origin  string
		allowed string
	}{
		"wildcard":        {[]string{"*"}, "http://localhost:3000", "*"},
		"listed origin":   {[]string{"http://localhost:3000"}, "http://localhost:3000", "http://localhost:3000"},
		"unlisted origin": {[]string{"http://localhost:3000"}, "http://evil.example", ""},
	} {
		t.Run(name, func(t *testing.T) {
			r := routes.SetupRouter(config.Config{CORSAllowOrigins: tc.origins}, deps)

			// httptest の Host は example.com なので、それ以外のオリジンから送る
			req := httptest.NewRequest(http.MethodOptions, "/todos", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			assert.Equal(t, tc.allowed, resp.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSetupRouter_NilNotifiersAndGenerator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := routes.SetupRouter(config.Config{}, routes.Dependencies{TodoRepo: repositories.NewMemoryTodoRepository()})

	req := httptest.NewRequest(http.MethodPost, "/todos/summary", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
