package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/game-store/internal/platform/api"
	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/service"
)

type GenreService interface {
	ListGenres(ctx context.Context) ([]service.GenreView, error)
	GetGenre(ctx context.Context, ref string) (service.GenreView, error)
	CreateGenre(ctx context.Context, in service.GenreInput) (domain.Genre, error)
	UpdateGenre(ctx context.Context, ref string, in service.GenreInput) (domain.Genre, error)
	DeleteGenre(ctx context.Context, ref string) error
}

type PublisherService interface {
	ListPublishers(ctx context.Context) ([]service.PublisherView, error)
	CreatePublisher(ctx context.Context, in service.PublisherInput) (domain.Publisher, error)
	UpdatePublisher(ctx context.Context, ref string, in service.PublisherInput) (domain.Publisher, error)
	DeletePublisher(ctx context.Context, ref string) error
}

type PlatformService interface {
	ListPlatforms(ctx context.Context) ([]domain.Platform, error)
	CreatePlatform(ctx context.Context, in service.PlatformInput) (domain.Platform, error)
	DeletePlatform(ctx context.Context, ref string) error
}

// ListGenres handles GET /v1/genres
func ListGenres(gs GenreService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := gs.ListGenres(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// GetGenre handles GET /v1/genres/{id}
func GetGenre(gs GenreService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := gs.GetGenre(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, g)
	}
}

// CreateGenre handles POST /v1/genres
func CreateGenre(gs GenreService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.GenreInput
		if !decode(w, r, &in) {
			return
		}
		g, err := gs.CreateGenre(r.Context(), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, g)
	}
}

// UpdateGenre handles PUT /v1/genres/{id}
func UpdateGenre(gs GenreService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.GenreInput
		if !decode(w, r, &in) {
			return
		}
		g, err := gs.UpdateGenre(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, g)
	}
}

// DeleteGenre handles DELETE /v1/genres/{id}
func DeleteGenre(gs GenreService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := gs.DeleteGenre(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListPublishers handles GET /v1/publishers
func ListPublishers(ps PublisherService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := ps.ListPublishers(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// CreatePublisher handles POST /v1/publishers
func CreatePublisher(ps PublisherService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.PublisherInput
		if !decode(w, r, &in) {
			return
		}
		p, err := ps.CreatePublisher(r.Context(), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, p)
	}
}

// UpdatePublisher handles PUT /v1/publishers/{id}
func UpdatePublisher(ps PublisherService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.PublisherInput
		if !decode(w, r, &in) {
			return
		}
		p, err := ps.UpdatePublisher(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, p)
	}
}

// DeletePublisher handles DELETE /v1/publishers/{id}
func DeletePublisher(ps PublisherService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ps.DeletePublisher(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListPlatforms handles GET /v1/platforms
func ListPlatforms(ps PlatformService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := ps.ListPlatforms(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// CreatePlatform handles POST /v1/platforms
func CreatePlatform(ps PlatformService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.PlatformInput
		if !decode(w, r, &in) {
			return
		}
		p, err := ps.CreatePlatform(r.Context(), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, p)
	}
}

// DeletePlatform handles DELETE /v1/platforms/{id}
func DeletePlatform(ps PlatformService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ps.DeletePlatform(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
