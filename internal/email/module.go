package email

import (
	"leadintake_backend/internal/http"
	"leadintake_backend/platform/logger"
	"leadintake_backend/platform/validator"
)

type Module struct {
	handler *Handler
}

func NewModule(sender Sender, leads LeadEmailReader, validate *validator.Validator, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(sender, leads, validate, log)}
}

func (m *Module) Name() string { return "email" }

func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	group := ctx.Protected.Group("/email")
	{
		group.POST("/send", m.handler.Send)
		group.POST("/send-custom/:leadId", m.handler.SendCustom)
	}
}
