package email

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadintake_backend/platform/httpkit"
	"leadintake_backend/platform/logger"
	"leadintake_backend/platform/validator"
)

// LeadEmailReader resolves a lead's email address for custom sends.
type LeadEmailReader interface {
	LeadEmail(ctx context.Context, id uuid.UUID) (string, error)
}

type Handler struct {
	sender   Sender
	leads    LeadEmailReader
	validate *validator.Validator
	log      *logger.Logger
}

func NewHandler(sender Sender, leads LeadEmailReader, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{sender: sender, leads: leads, validate: validate, log: log}
}

type SendRequest struct {
	To         string            `json:"to" validate:"required,email"`
	TemplateID string            `json:"templateId" validate:"required"`
	Variables  map[string]string `json:"variables"`
}

type SendCustomRequest struct {
	Subject string `json:"subject" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// Send delivers a templated email.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if err := h.sender.SendTemplate(c.Request.Context(), req.To, req.TemplateID, req.Variables); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			httpkit.Error(c, http.StatusBadRequest, "unknown template id", nil)
			return
		}
		h.log.EmailError(req.To, req.TemplateID, err)
		httpkit.Error(c, http.StatusInternalServerError, "failed to send email", nil)
		return
	}

	httpkit.OK(c, gin.H{"sent": true})
}

// SendCustom delivers a free-form email to a lead's address.
func (h *Handler) SendCustom(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	var req SendCustomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	to, err := h.leads.LeadEmail(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	if err := h.sender.SendCustom(c.Request.Context(), to, req.Subject, req.Content); err != nil {
		h.log.EmailError(to, "custom", err)
		httpkit.Error(c, http.StatusInternalServerError, "failed to send email", nil)
		return
	}

	httpkit.OK(c, gin.H{"sent": true})
}
