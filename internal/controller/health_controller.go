package controller

import (
	"net/http"

	"github.com/klass-lk/miniblog/internal/server"
)

type HealthController struct{}

func NewHealthController() *HealthController {
	return &HealthController{}
}

func (c *HealthController) Register(group *server.ControllerGroup) {
	group.GET("", c.Health)
}

func (c *HealthController) Health(ctx *server.Context) {
	ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
