package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/game-store/internal/platform/api"
	"github.com/example/game-store/internal/platform/httpserver"
	"github.com/example/game-store/services/catalog/internal/domain"
)

// writeError answers with the coded catalog error if err carries one, and
// with a logged 500 otherwise.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	reqID := httpserver.RequestIDFromContext(r.Context())
	if e, ok := domain.AsError(err); ok {
		api.WriteError(w, e.Code.HTTPStatus(), string(e.Code), e.Message, reqID, e.Details)
		return
	}
	log.Error("catalog request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", reqID),
		zap.Error(err))
	api.Internal(w, reqID)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
		return false
	}
	return true
}
