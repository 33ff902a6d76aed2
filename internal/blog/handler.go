package blog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/auth"
	"github.com/ayush/blog-platform/internal/httpx"
	"github.com/ayush/blog-platform/internal/logging"
	"github.com/ayush/blog-platform/internal/models"
)

// MaxCoverBytes bounds cover image uploads.
const MaxCoverBytes = 5 << 20

// Handler holds blog HTTP handlers.
type Handler struct {
	svc *Service
	log logging.Logger
}

func NewHandler(svc *Service, log logging.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Mount registers the blog routes on r. Writes go through requireAuth.
func (h *Handler) Mount(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{slug}", h.Get)
	r.Post("/{slug}/like", h.Like)
	r.Delete("/{slug}/like", h.Unlike)
	r.Post("/{slug}/view", h.View)
	r.Get("/{slug}/cover", h.GetCover)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", h.Create)
		r.Put("/{slug}/cover", h.PutCover)
		r.Delete("/{slug}/cover", h.DeleteCover)
	})
}

// List returns one page of the filtered feed.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		page = 1
	}

	listing, err := h.svc.List(r.Context(), q.Get("q"), q.Get("category"), page)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, listing)
}

// Create publishes a blog for the authenticated user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	if claims == nil {
		httpx.WriteError(w, r, h.log, apperror.NewAuth("Not authenticated", nil))
		return
	}

	var req models.CreateBlogRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	created, err := h.svc.Create(r.Context(), claims.UserID, req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"blog": created})
}

// Get returns a blog with its related posts.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.writeEngagement(w, r, h.svc.Like)
}

func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.writeEngagement(w, r, h.svc.Unlike)
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	h.writeEngagement(w, r, h.svc.View)
}

func (h *Handler) writeEngagement(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*models.Engagement, error)) {
	e, err := op(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

// PutCover stores the raw request body as the blog's cover image.
func (h *Handler) PutCover(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	if claims == nil {
		httpx.WriteError(w, r, h.log, apperror.NewAuth("Not authenticated", nil))
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxCoverBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteErrorStatus(w, r, h.log, http.StatusRequestEntityTooLarge,
				apperror.NewValidation("Cover image is too large"))
			return
		}
		httpx.WriteError(w, r, h.log, apperror.New(apperror.Validation, "Invalid request body", err))
		return
	}

	if err := h.svc.PutCover(r.Context(), chi.URLParam(r, "slug"), claims.UserID, r.Header.Get("Content-Type"), data); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCover removes the blog's cover image.
func (h *Handler) DeleteCover(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	if claims == nil {
		httpx.WriteError(w, r, h.log, apperror.NewAuth("Not authenticated", nil))
		return
	}

	if err := h.svc.RemoveCover(r.Context(), chi.URLParam(r, "slug"), claims.UserID); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCover streams the blog's cover image.
func (h *Handler) GetCover(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.svc.GetCover(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
