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
)

type CartService interface {
	AddToCart(ctx context.Context, customerID, ref string, quantity int) (domain.Order, error)
	OpenOrder(ctx context.Context, customerID string) (domain.Order, error)
}

type addToCartRequest struct {
	Quantity int `json:"quantity"`
}

// AddToCart handles POST /v1/cart/{ref}. An empty body adds one unit.
func AddToCart(cs CartService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		req := addToCartRequest{Quantity: 1}
		if r.ContentLength != 0 && !decode(w, r, &req) {
			return
		}
		order, err := cs.AddToCart(r.Context(), userID, chi.URLParam(r, "ref"), req.Quantity)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, order)
	}
}

// GetCart handles GET /v1/cart
func GetCart(cs CartService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		order, err := cs.OpenOrder(r.Context(), userID)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, order)
	}
}
