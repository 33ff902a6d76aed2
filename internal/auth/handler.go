package auth

import (
	"net/http"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/httpx"
	"github.com/ayush/blog-platform/internal/logging"
	"github.com/ayush/blog-platform/internal/models"
)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc *Service
	log logging.Logger
}

func NewHandler(svc *Service, log logging.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register creates a new user and returns {token, user}.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	resp, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.writeCredentialError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Login authenticates a user and returns {token, user}.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.writeCredentialError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Profile returns the authenticated user with its blogs expanded.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, _ := FromContext(r.Context())

	profile, err := h.svc.Profile(r.Context(), claims)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": profile})
}

// writeCredentialError answers 400 for every client-side failure of
// register and login: missing fields, duplicate email, unknown email and
// wrong password.
func (h *Handler) writeCredentialError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperror.TypeOf(err) {
	case apperror.Validation, apperror.Conflict, apperror.NotFound, apperror.Auth:
		httpx.WriteErrorStatus(w, r, h.log, http.StatusBadRequest, err)
	default:
		httpx.WriteError(w, r, h.log, err)
	}
}
