package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/klass-lk/miniblog/internal/server"
	"github.com/klass-lk/miniblog/internal/service"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,username"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"max=100"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
}

// LoginRequest accepts either the username or the email in Username.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Normalize lowercases email identifiers, matching how Register stores them.
func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	if strings.Contains(r.Username, "@") {
		r.Username = strings.ToLower(r.Username)
	}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthController struct {
	auth        *service.AuthService
	requireAuth gin.HandlerFunc
}

func NewAuthController(auth *service.AuthService, requireAuth gin.HandlerFunc) *AuthController {
	return &AuthController{
		auth:        auth,
		requireAuth: requireAuth,
	}
}

func (c *AuthController) Register(group *server.ControllerGroup) {
	group.POST("/register", c.SignUp)
	group.POST("/login", c.Login)
	group.POST("/refresh", c.Refresh)
	group.GET("/me", c.Me, c.requireAuth)
}

func (c *AuthController) SignUp(ctx *server.Context) {
	var request RegisterRequest
	if err := ctx.GetRequest(&request); err != nil {
		ctx.SendError(err)
		return
	}
	session, err := c.auth.Register(ctx.Request.Context(), service.RegisterInput{
		Username: request.Username,
		Email:    request.Email,
		Password: request.Password,
		FullName: request.FullName,
	})
	if err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message":       "User created successfully",
		"user":          session.User,
		"token":         session.Token,
		"refresh_token": session.RefreshToken,
	})
}

func (c *AuthController) Login(ctx *server.Context) {
	var request LoginRequest
	if err := ctx.GetRequest(&request); err != nil {
		ctx.SendError(err)
		return
	}
	session, err := c.auth.Login(ctx.Request.Context(), request.Username, request.Password)
	if err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":       "Login successful",
		"user":          session.User,
		"token":         session.Token,
		"refresh_token": session.RefreshToken,
	})
}

func (c *AuthController) Refresh(ctx *server.Context) {
	var request RefreshRequest
	if err := ctx.GetRequest(&request); err != nil {
		ctx.SendError(err)
		return
	}
	tokens, err := c.auth.Refresh(ctx.Request.Context(), strings.TrimSpace(request.RefreshToken))
	if err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusOK, tokens)
}

func (c *AuthController) Me(ctx *server.Context) {
	authCtx, err := ctx.GetAuthContext()
	if err != nil {
		ctx.SendError(err)
		return
	}
	user, err := c.auth.Me(ctx.Request.Context(), authCtx.UserID)
	if err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user})
}
