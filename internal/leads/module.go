// Package leads wires the lead intake domain module: repository, AI scoring,
// lifecycle service, and HTTP handlers.
package leads

import (
	"leadintake_backend/internal/events"
	"leadintake_backend/internal/http"
	"leadintake_backend/internal/leads/handler"
	"leadintake_backend/internal/leads/repository"
	"leadintake_backend/internal/leads/service"
	"leadintake_backend/platform/db"
	"leadintake_backend/platform/logger"
	"leadintake_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	files   *handler.FilesHandler
	service *service.Service
}

type Config struct {
	Pool        db.Pool
	Scorer      service.Scorer
	Blobs       service.BlobStore
	EventBus    events.Bus
	Logger      *logger.Logger
	Validator   *validator.Validator
	MaxFileSize int64
}

func NewModule(cfg Config) *Module {
	repo := repository.New(cfg.Pool)
	svc := service.New(repo, cfg.Scorer, cfg.Blobs, cfg.EventBus, cfg.Logger)

	return &Module{
		handler: handler.New(svc, cfg.Validator, cfg.Logger),
		files:   handler.NewFilesHandler(svc, cfg.MaxFileSize),
		service: svc,
	}
}

func (m *Module) Name() string { return "leads" }

// Service exposes the lifecycle service for other modules and CLIs.
func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	// Intake form submission is the one public write.
	ctx.V1.POST("/leads", m.handler.Create)

	leads := ctx.Protected.Group("/leads")
	{
		leads.GET("", m.handler.List)
		leads.GET("/export", m.handler.Export)
		leads.GET("/:id", m.handler.Get)
		leads.PATCH("/:id/status", m.handler.UpdateStatus)
		leads.DELETE("/:id", m.handler.Delete)
		leads.POST("/:id/analyze", m.handler.Analyze)

		leads.POST("/:id/files", m.files.Upload)
		leads.GET("/:id/files", m.files.List)
		leads.DELETE("/:id/files/:fileId", m.files.Delete)
		leads.GET("/:id/files/:fileId/download", m.files.DownloadURL)
	}
}
