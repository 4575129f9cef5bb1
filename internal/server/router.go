package server

import (
	"github.com/gin-gonic/gin"

	"github.com/klass-lk/miniblog/internal/logger"
)

type HandlerFunc func(*Context)

type Controller interface {
	Register(group *ControllerGroup)
}

type ControllerGroup struct {
	group *gin.RouterGroup
	log   *logger.Logger
}

func (s *Server) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{
		group: s.engine.Group(s.basePath+path, middleware...),
		log:   s.log,
	}
}

func (s *Server) RegisterController(path string, controller Controller, middleware ...gin.HandlerFunc) {
	controller.Register(s.Group(path, middleware...))
}

func (g *ControllerGroup) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{
		group: g.group.Group(path, middleware...),
		log:   g.log,
	}
}

func (g *ControllerGroup) GET(path string, handler HandlerFunc, middleware ...gin.HandlerFunc) {
	g.group.GET(path, g.handlers(handler, middleware)...)
}

func (g *ControllerGroup) POST(path string, handler HandlerFunc, middleware ...gin.HandlerFunc) {
	g.group.POST(path, g.handlers(handler, middleware)...)
}

func (g *ControllerGroup) PUT(path string, handler HandlerFunc, middleware ...gin.HandlerFunc) {
	g.group.PUT(path, g.handlers(handler, middleware)...)
}

func (g *ControllerGroup) DELETE(path string, handler HandlerFunc, middleware ...gin.HandlerFunc) {
	g.group.DELETE(path, g.handlers(handler, middleware)...)
}

func (g *ControllerGroup) BasePath() string {
	return g.group.BasePath()
}

func (g *ControllerGroup) handlers(handler HandlerFunc, middleware []gin.HandlerFunc) []gin.HandlerFunc {
	handlers := append([]gin.HandlerFunc{}, middleware...)
	return append(handlers, func(c *gin.Context) {
		handler(NewContext(c, g.log))
	})
}
