package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/miniblog/internal/logger"
)

type pingController struct {
	registered bool
}

func (p *pingController) Register(group *ControllerGroup) {
	p.registered = true
	group.GET("/ping", func(c *Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	group.POST("/fail", func(c *Context) {
		c.SendError(ErrUnauthorized.New("nope"))
	})
}

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	return New(logger.NewNop())
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestServer_BasePath(t *testing.T) {
	tests := []struct {
		basePath string
		path     string
	}{
		{"/api", "/api/ping"},
		{"api/", "/api/ping"},
		{"", "/ping"},
		{"/", "/ping"},
	}

	for _, tt := range tests {
		t.Run(tt.basePath, func(t *testing.T) {
			s := newTestServer()
			s.SetBasePath(tt.basePath)
			controller := &pingController{}
			s.RegisterController("", controller)

			assert.True(t, controller.registered)
			w := serve(s, http.MethodGet, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
		})
	}
}

func TestServer_NoRoute(t *testing.T) {
	s := newTestServer()
	w := serve(s, http.MethodGet, "/missing")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error_code":"NOT_FOUND","message":"Route not found"}`, w.Body.String())
}

func TestServer_SendError(t *testing.T) {
	s := newTestServer()
	s.RegisterController("/x", &pingController{})

	w := serve(s, http.MethodPost, "/x/fail")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error_code":"UNAUTHORIZED","message":"nope"}`, w.Body.String())
}

func TestServer_GroupMiddleware(t *testing.T) {
	s := newTestServer()
	s.SetBasePath("/api")
	group := s.Group("/posts", func(c *gin.Context) {
		c.Header("X-Group", "yes")
		c.Next()
	})
	nested := group.Group("/nested")
	nested.GET("", func(c *Context) { c.Status(http.StatusNoContent) }, func(c *gin.Context) {
		c.Header("X-Route", "yes")
		c.Next()
	})
	assert.Equal(t, "/api/posts/nested", nested.BasePath())

	w := serve(s, http.MethodGet, "/api/posts/nested")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "yes", w.Header().Get("X-Group"))
	assert.Equal(t, "yes", w.Header().Get("X-Route"))
}

func TestServer_CORS(t *testing.T) {
	tests := []struct {
		name          string
		origins       []string
		requestOrigin string
		expectAllowed string
	}{
		{"wildcard", []string{"*"}, "http://any.test", "*"},
		{"default", nil, "http://any.test", "*"},
		{"explicit", []string{"http://localhost:3000"}, "http://localhost:3000", "http://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer().CORS(tt.origins)
			s.Engine().GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodOptions, "/test", nil)
			req.Header.Set("Origin", tt.requestOrigin)
			req.Header.Set("Access-Control-Request-Method", "GET")
			s.Engine().ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.expectAllowed, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestServer_CustomCORSRejectsUnknownOrigin(t *testing.T) {
	s := newTestServer().CustomCORS([]string{"http://localhost:3000"}, []string{"GET"}, []string{"Content-Type"}, time.Hour)
	s.Engine().GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://evil.test")
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApiError(t *testing.T) {
	err := ErrNotFound.New("Post not found or access denied")
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, "NOT_FOUND: Post not found or access denied", err.Error())

	withFields := ErrValidation.WithErrors(FieldError{Field: "title", Message: "is required"})
	assert.Len(t, withFields.Errors, 1)
	assert.Empty(t, ErrValidation.Errors, "base error is not mutated")

	body, marshalErr := json.Marshal(withFields)
	require.NoError(t, marshalErr)
	assert.JSONEq(t, `{"error_code":"VALIDATION_ERROR","message":"Validation failed","errors":[{"field":"title","message":"is required"}]}`, string(body))
}
