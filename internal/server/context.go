package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/klass-lk/miniblog/internal/logger"
	"github.com/klass-lk/miniblog/internal/model"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

type AuthContext struct {
	UserID string
	Role   string
}

// Normalizer is implemented by request bodies that clean their fields, for
// example trimming whitespace, before validation.
type Normalizer interface {
	Normalize()
}

type Context struct {
	*gin.Context
	log *logger.Logger
}

func NewContext(c *gin.Context, log *logger.Logger) *Context {
	return &Context{
		Context: c,
		log:     log,
	}
}

func (c *Context) GetAuthContext() (AuthContext, error) {
	userID, ok := c.Get(UserIDKey)
	if !ok {
		return AuthContext{}, ErrUnauthorized.New("Access token required")
	}
	role, _ := c.Get(RoleKey)
	roleName, _ := role.(string)
	return AuthContext{
		UserID: userID.(string),
		Role:   roleName,
	}, nil
}

// GetRequest decodes the JSON body into request, normalizes it and runs the
// binding tags.
func (c *Context) GetRequest(request interface{}) error {
	if c.Request.Body == nil {
		return NewValidationError(errors.New("empty body"))
	}
	if err := json.NewDecoder(c.Request.Body).Decode(request); err != nil {
		return NewValidationError(err)
	}
	if n, ok := request.(Normalizer); ok {
		n.Normalize()
	}
	if err := binding.Validator.ValidateStruct(request); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// GetPageRequest reads page and limit from the query string.
func (c *Context) GetPageRequest() (model.PageRequest, error) {
	var fields []FieldError

	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(model.DefaultPage)))
	if err != nil || page < 1 {
		fields = append(fields, FieldError{Field: "page", Message: "must be a positive integer"})
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(model.DefaultPageSize)))
	if err != nil || limit < 1 || limit > model.MaxPageSize {
		fields = append(fields, FieldError{Field: "limit", Message: "must be an integer between 1 and " + strconv.Itoa(model.MaxPageSize)})
	}

	if len(fields) == 0 && page > model.MaxPage(limit) {
		fields = append(fields, FieldError{Field: "page", Message: "must be at most " + strconv.Itoa(model.MaxPage(limit))})
	}

	if len(fields) > 0 {
		return model.PageRequest{}, ErrValidation.WithErrors(fields...)
	}
	return model.PageRequest{Page: page, Size: limit}, nil
}

// SendError writes err as an ApiError envelope. Anything that is not an
// ApiError is logged and reported as an internal error.
func (c *Context) SendError(err error) {
	var apiErr ApiError
	if !errors.As(err, &apiErr) {
		c.log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		apiErr = ErrInternal
	}
	status := apiErr.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, apiErr)
}
