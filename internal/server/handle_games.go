package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/superadmin/internal/games"
)

// RegisterGameRequest is the request body for POST /games/create.
type RegisterGameRequest struct {
	GameID    string            `json:"gameId"`
	Name      string            `json:"name"`
	ServerURL string            `json:"serverUrl"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

// GameSummary is a game as listed to the dashboard. The server URL stays
// on the backend.
type GameSummary struct {
	ID         string    `json:"id"`
	GameID     string    `json:"gameId"`
	Name       string    `json:"name"`
	Operations []string  `json:"operations"`
	CreatedAt  time.Time `json:"createdAt"`
}

func gameSummary(g games.Game) GameSummary {
	ops := []string{}
	for _, op := range games.Operations() {
		if g.Supports(op) {
			ops = append(ops, string(op))
		}
	}
	return GameSummary{ID: g.ID, GameID: g.GameID, Name: g.Name, Operations: ops, CreatedAt: g.CreatedAt}
}

func handleRegisterGame(logger *slog.Logger, registry *games.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		game, err := registry.Register(r.Context(), games.RegisterParams{
			GameID:    req.GameID,
			Name:      req.Name,
			ServerURL: req.ServerURL,
			Endpoints: req.Endpoints,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		logger.Info("game registered", "game", game.GameID)
		writeData(w, http.StatusCreated, "game registered", game)
	}
}

func handleListGames(logger *slog.Logger, registry *games.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := registry.List(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		out := make([]GameSummary, 0, len(list))
		for _, g := range list {
			out = append(out, gameSummary(g))
		}
		writeData(w, http.StatusOK, "", out)
	}
}
