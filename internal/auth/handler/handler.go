// Package handler exposes the auth HTTP endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadintake_backend/internal/auth/service"
	"leadintake_backend/internal/auth/transport"
	"leadintake_backend/platform/httpkit"
	"leadintake_backend/platform/logger"
	"leadintake_backend/platform/validator"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
	log      *logger.Logger
}

func New(svc *service.Service, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, validate: validate, log: log}
}

func (h *Handler) SignIn(c *gin.Context) {
	var req transport.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	access, refresh, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.log.AuthEvent("sign_in", req.Email, false, err.Error())
		httpkit.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	h.log.AuthEvent("sign_in", req.Email, true, "")
	httpkit.OK(c, transport.TokenResponse{AccessToken: access, RefreshToken: refresh})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req transport.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	access, refresh, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		status := http.StatusUnauthorized
		message := "invalid refresh token"
		if errors.Is(err, service.ErrTokenExpired) {
			message = "refresh token expired"
		}
		httpkit.Error(c, status, message, nil)
		return
	}

	httpkit.OK(c, transport.TokenResponse{AccessToken: access, RefreshToken: refresh})
}

func (h *Handler) SignOut(c *gin.Context) {
	var req transport.SignOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := h.svc.SignOut(c.Request.Context(), req.RefreshToken); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "sign out failed", nil)
		return
	}

	httpkit.OK(c, gin.H{"message": "signed out"})
}
