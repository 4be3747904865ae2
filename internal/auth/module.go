// Package auth wires the staff authentication module.
package auth

import (
	"leadintake_backend/internal/auth/handler"
	"leadintake_backend/internal/auth/repository"
	"leadintake_backend/internal/auth/service"
	"leadintake_backend/internal/http"
	"leadintake_backend/platform/config"
	"leadintake_backend/platform/db"
	"leadintake_backend/platform/logger"
	"leadintake_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool db.Pool, cfg config.AuthServiceConfig, validate *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)

	return &Module{
		handler: handler.New(svc, validate, log),
		service: svc,
	}
}

func (m *Module) Name() string { return "auth" }

// Service exposes the auth service so the composition root can seed the
// admin account.
func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	group := ctx.V1.Group("/auth")
	group.Use(ctx.AuthRateLimiter.RateLimit())
	{
		group.POST("/sign-in", m.handler.SignIn)
		group.POST("/refresh", m.handler.Refresh)
		group.POST("/sign-out", m.handler.SignOut)
	}
}
