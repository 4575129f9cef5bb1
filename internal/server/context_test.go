package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/miniblog/internal/logger"
	"github.com/klass-lk/miniblog/internal/model"
)

type testRequest struct {
	Title  *string `json:"title" binding:"omitempty,min=1,max=10"`
	Name   string  `json:"name" binding:"required,max=5"`
	Slug   string  `json:"slug" binding:"omitempty,slug"`
	Status string  `json:"status" binding:"omitempty,oneof=draft published"`
}

func (r *testRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		r.Title = &trimmed
	}
}

func newTestContext(method, target, body string) (*Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	RegisterValidations()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	return NewContext(c, logger.NewNop()), w
}

func TestContext_GetAuthContext(t *testing.T) {
	ctx, _ := newTestContext(http.MethodGet, "/", "")
	_, err := ctx.GetAuthContext()
	var apiErr ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	ctx.Set(UserIDKey, "123")
	ctx.Set(RoleKey, "author")
	auth, err := ctx.GetAuthContext()
	require.NoError(t, err)
	assert.Equal(t, AuthContext{UserID: "123", Role: "author"}, auth)
}

func TestContext_GetRequest(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []FieldError
	}{
		{
			name: "valid and normalized",
			body: `{"name":"  bob  ","title":" hi "}`,
		},
		{
			name:       "missing required",
			body:       `{}`,
			wantFields: []FieldError{{Field: "name", Message: "is required"}},
		},
		{
			name:       "blank after trim",
			body:       `{"name":"   "}`,
			wantFields: []FieldError{{Field: "name", Message: "is required"}},
		},
		{
			name:       "present but empty pointer",
			body:       `{"name":"bob","title":"   "}`,
			wantFields: []FieldError{{Field: "title", Message: "must be at least 1 characters"}},
		},
		{
			name:       "too long",
			body:       `{"name":"roberta"}`,
			wantFields: []FieldError{{Field: "name", Message: "must be at most 5 characters"}},
		},
		{
			name:       "bad slug and status",
			body:       `{"name":"bob","slug":"Not A Slug","status":"archived"}`,
			wantFields: []FieldError{{Field: "slug", Message: "must contain only lowercase letters, digits and single hyphens"}, {Field: "status", Message: "must be one of: draft, published"}},
		},
		{
			name:       "wrong type",
			body:       `{"name":42}`,
			wantFields: []FieldError{{Field: "name", Message: "must be a string"}},
		},
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantFields: []FieldError{{Field: "body", Message: "must be a valid JSON object"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(http.MethodPost, "/", tt.body)
			var req testRequest
			err := ctx.GetRequest(&req)

			if tt.wantFields == nil {
				require.NoError(t, err)
				assert.Equal(t, "bob", req.Name)
				require.NotNil(t, req.Title)
				assert.Equal(t, "hi", *req.Title)
				return
			}

			var apiErr ApiError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "VALIDATION_ERROR", apiErr.ErrorCode)
			assert.Equal(t, tt.wantFields, apiErr.Errors)
		})
	}
}

func TestContext_GetPageRequest(t *testing.T) {
	tests := []struct {
		query    string
		expected model.PageRequest
		invalid  []string
	}{
		{"", model.PageRequest{Page: 1, Size: 10}, nil},
		{"?page=3&limit=6", model.PageRequest{Page: 3, Size: 6}, nil},
		{"?limit=100", model.PageRequest{Page: 1, Size: 100}, nil},
		{"?page=0", model.PageRequest{}, []string{"page"}},
		{"?page=abc", model.PageRequest{}, []string{"page"}},
		{"?limit=0", model.PageRequest{}, []string{"limit"}},
		{"?limit=101", model.PageRequest{}, []string{"limit"}},
		{"?page=-1&limit=x", model.PageRequest{}, []string{"page", "limit"}},
		{"?page=922337203685477580&limit=10", model.PageRequest{Page: 922337203685477580, Size: 10}, nil},
		{"?page=922337203685477581&limit=10", model.PageRequest{}, []string{"page"}},
		{"?page=9223372036854775807&limit=10", model.PageRequest{}, []string{"page"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ctx, _ := newTestContext(http.MethodGet, "/posts"+tt.query, "")
			req, err := ctx.GetPageRequest()
			if tt.invalid == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, req)
				return
			}
			var apiErr ApiError
			require.ErrorAs(t, err, &apiErr)
			var fields []string
			for _, f := range apiErr.Errors {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tt.invalid, fields)
		})
	}
}

func TestContext_SendError(t *testing.T) {
	ctx, w := newTestContext(http.MethodGet, "/", "")
	ctx.SendError(errors.New("database exploded"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error_code":"INTERNAL_ERROR","message":"Internal server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "exploded")
}
