package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/game-store/internal/platform/api"
	"github.com/example/game-store/internal/platform/auth"
	"github.com/example/game-store/internal/platform/httpserver"
	"github.com/example/game-store/services/catalog/internal/domain"
	"github.com/example/game-store/services/catalog/internal/query"
	"github.com/example/game-store/services/catalog/internal/service"
)

type Lister interface {
	List(ctx context.Context, req query.Request) (query.Page, error)
}

type GameService interface {
	GetGame(ctx context.Context, key string) (domain.CatalogItem, error)
	CreateGame(ctx context.Context, in service.GameInput) (domain.CatalogItem, error)
	UpdateGame(ctx context.Context, ref string, in service.GameInput) (domain.CatalogItem, error)
	DeleteGame(ctx context.Context, ref string) error
}

// ListGames handles GET /v1/games
func ListGames(l Lister, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := query.ParseValues(r.URL.Query())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		if req.IncludeDeleted && !auth.HasRole(r.Context(), auth.RoleAdmin, auth.RoleManager) {
			api.Forbidden(w, "FORBIDDEN", "includeDeleted requires a catalog role", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		page, err := l.List(r.Context(), req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}

// GameOptions handles GET /v1/games/options
func GameOptions() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, query.ListOptions())
	}
}

// GetGame handles GET /v1/games/{ref}
func GetGame(gs GameService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := gs.GetGame(r.Context(), chi.URLParam(r, "ref"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, item)
	}
}

// CreateGame handles POST /v1/games
func CreateGame(gs GameService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.GameInput
		if !decode(w, r, &in) {
			return
		}
		item, err := gs.CreateGame(r.Context(), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, item)
	}
}

// UpdateGame handles PUT /v1/games/{ref}
func UpdateGame(gs GameService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.GameInput
		if !decode(w, r, &in) {
			return
		}
		item, err := gs.UpdateGame(r.Context(), chi.URLParam(r, "ref"), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, item)
	}
}

// DeleteGame handles DELETE /v1/games/{ref}
func DeleteGame(gs GameService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := gs.DeleteGame(r.Context(), chi.URLParam(r, "ref")); err != nil {
			writeError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
