package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/superadmin/internal/apperr"
	"github.com/playperu/superadmin/internal/games"
	"github.com/playperu/superadmin/internal/gateway"
)

// writeServiceError maps a domain error to a status code and message.
// Unexpected errors are logged and hidden from the caller.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, games.ErrUnsupportedOperation):
		writeError(w, http.StatusBadRequest, "operation not supported by this game")
	case errors.Is(err, apperr.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, apperr.ErrForbidden):
		writeError(w, http.StatusForbidden, "incorrect password")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case gateway.IsRemote(err):
		msg := gateway.Message(err)
		if msg == "" {
			msg = "failed to process remote game request"
		}
		writeError(w, http.StatusInternalServerError, msg)
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
