package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/superadmin/internal/lifecycle"
)

// CreateSessionRequest is the request body for POST /sessions/create.
type CreateSessionRequest = lifecycle.CreateParams

// EditSessionRequest is the request body for POST /sessions/edit.
type EditSessionRequest = lifecycle.EditParams

// EndSessionRequest is the request body for POST /sessions/end.
type EndSessionRequest struct {
	SessionID string `json:"sessionId"`
	Password  string `json:"password"`
}

// CustomGameRequest is the request body for POST /sessions/custom-game-request.
type CustomGameRequest = lifecycle.ForwardParams

// InboundUpdateRequest is pushed by game servers to POST /sessions/update.
type InboundUpdateRequest = lifecycle.UpdateParams

func handleCreateSession(logger *slog.Logger, svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess, err := svc.Create(r.Context(), req)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeData(w, http.StatusCreated, "session created", sess)
	}
}

func handleListSessions(logger *slog.Logger, svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := intParam(q.Get("page"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be a number")
			return
		}
		limit, err := intParam(q.Get("limit"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a number")
			return
		}

		res, err := svc.List(r.Context(), lifecycle.ListParams{
			Status: q.Get("status"),
			Query:  q.Get("q"),
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeData(w, http.StatusOK, "", res)
	}
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func handleSessionStats(logger *slog.Logger, svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeData(w, http.StatusOK, "", stats)
	}
}

func handleGetSession(logger *slog.Logger, svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.Get(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeData(w, http.StatusOK, "", sess)
	}
}

func handleEditSession(logger *slog.Logger, svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EditSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess, err := svc.Edit(r.Context(), req)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeData(w, http.StatusOK, "session updated", sess)
	}
}

func handleEndSession(logger *slog.Logger, svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EndSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess, err := svc.End(r.Context(), lifecycle.EndParams{
			SessionID: req.SessionID,
			AdminID:   adminFrom(r).AdminID,
			Password:  req.Password,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeData(w, http.StatusOK, "session ended", sess)
	}
}

// handleCustomGameRequest relays the remote reply with the remote status.
func handleCustomGameRequest(logger *slog.Logger, svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CustomGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.Forward(r.Context(), req)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, resp.StatusCode, Envelope{Status: "success", Data: resp.Body})
	}
}

// handleInboundUpdate takes pushes from game servers. It sits outside
// admin auth.
func handleInboundUpdate(logger *slog.Logger, svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InboundUpdateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess, err := svc.InboundUpdate(r.Context(), req)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeData(w, http.StatusOK, "session updated", sess)
	}
}
