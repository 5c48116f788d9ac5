package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/superadmin/internal/games"
	"github.com/playperu/superadmin/internal/handler/health"
	"github.com/playperu/superadmin/internal/lifecycle"
	"github.com/playperu/superadmin/internal/sessions"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message"`
}

// The envelopes below exist for the document; handlers write Envelope.

type AdminEnvelope struct {
	Status  string        `json:"status" example:"success"`
	Message string        `json:"message,omitempty"`
	Data    AdminResponse `json:"data"`
}

type GameEnvelope struct {
	Status  string     `json:"status" example:"success"`
	Message string     `json:"message,omitempty"`
	Data    games.Game `json:"data"`
}

type GameListEnvelope struct {
	Status string        `json:"status" example:"success"`
	Data   []GameSummary `json:"data"`
}

type SessionEnvelope struct {
	Status  string           `json:"status" example:"success"`
	Message string           `json:"message,omitempty"`
	Data    sessions.Session `json:"data"`
}

type SessionListEnvelope struct {
	Status string               `json:"status" example:"success"`
	Data   lifecycle.ListResult `json:"data"`
}

type StatsEnvelope struct {
	Status string         `json:"status" example:"success"`
	Data   sessions.Stats `json:"data"`
}

type RemoteEnvelope struct {
	Status string `json:"status" example:"success"`
	Data   any    `json:"data"`
}

type listSessionsQuery struct {
	Status string `query:"status" enum:"live,ended" required:"true"`
	Q      string `query:"q" description:"Case-insensitive search over session, admin and game names"`
	Page   int    `query:"page" minimum:"1"`
	Limit  int    `query:"limit" minimum:"1" maximum:"100"`
}

type sessionPath struct {
	SessionID string `path:"sessionId"`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               map[int]any
	contentType                        string
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Super Admin API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Control plane for sessions hosted by remote game servers.")

	authed := "Requires admin_session cookie."
	ops := []operation{
		{
			method: http.MethodGet, path: "/healthz", summary: "Health check",
			description: "Returns the health status of backend dependencies.",
			resp:        map[int]any{http.StatusOK: health.Report{}, http.StatusServiceUnavailable: health.Report{}},
		},
		{
			method: http.MethodPost, path: "/auth/login", summary: "Admin login",
			description: "Authenticate with email and password. Sets admin_session cookie.",
			req:         LoginRequest{},
			resp:        map[int]any{http.StatusOK: AdminEnvelope{}, http.StatusUnauthorized: ErrorResponse{}},
		},
		{
			method: http.MethodPost, path: "/auth/logout", summary: "Admin logout",
			description: "Clears admin session and cookie.",
			resp:        map[int]any{http.StatusOK: Envelope{}},
		},
		{
			method: http.MethodGet, path: "/auth/fetch", summary: "Current admin",
			description: "Returns the currently authenticated admin. " + authed,
			resp:        map[int]any{http.StatusOK: AdminEnvelope{}, http.StatusUnauthorized: ErrorResponse{}},
		},
		{
			method: http.MethodPost, path: "/auth/create-admin", summary: "Create admin",
			description: "Adds another administrator. " + authed,
			req:         CreateAdminRequest{},
			resp: map[int]any{
				http.StatusCreated: AdminEnvelope{}, http.StatusBadRequest: ErrorResponse{},
				http.StatusConflict: ErrorResponse{}, http.StatusUnauthorized: ErrorResponse{},
			},
		},
		{
			method: http.MethodPost, path: "/games/create", summary: "Register game",
			description: "Registers a remote game server and its operation paths. " + authed,
			req:         RegisterGameRequest{},
			resp: map[int]any{
				http.StatusCreated: GameEnvelope{}, http.StatusBadRequest: ErrorResponse{},
				http.StatusConflict: ErrorResponse{}, http.StatusUnauthorized: ErrorResponse{},
			},
		},
		{
			method: http.MethodGet, path: "/games/fetch-all", summary: "List games",
			description: "Returns registered games without their server URLs. " + authed,
			resp:        map[int]any{http.StatusOK: GameListEnvelope{}, http.StatusUnauthorized: ErrorResponse{}},
		},
		{
			method: http.MethodPost, path: "/sessions/create", summary: "Create session",
			description: "Creates a session on the game's server and records it as LIVE. " + authed,
			req:         CreateSessionRequest{},
			resp: map[int]any{
				http.StatusCreated: SessionEnvelope{}, http.StatusBadRequest: ErrorResponse{},
				http.StatusNotFound: ErrorResponse{}, http.StatusInternalServerError: ErrorResponse{},
			},
		},
		{
			method: http.MethodGet, path: "/sessions", summary: "List sessions",
			description: "Sessions in one status, newest first. " + authed,
			req:         listSessionsQuery{},
			resp:        map[int]any{http.StatusOK: SessionListEnvelope{}, http.StatusBadRequest: ErrorResponse{}},
		},
		{
			method: http.MethodGet, path: "/sessions/stats", summary: "Session stats",
			description: "Live and ended counts and active players. " + authed,
			resp:        map[int]any{http.StatusOK: StatsEnvelope{}},
		},
		{
			method: http.MethodGet, path: "/sessions/events", summary: "SSE event stream",
			description: "Server-Sent Events for session.created, session.updated and session.ended. " + authed,
			resp:        map[int]any{http.StatusOK: nil},
			contentType: "text/event-stream",
		},
		{
			method: http.MethodGet, path: "/sessions/{sessionId}", summary: "Get session",
			description: "Returns one session with its game. " + authed,
			req:         sessionPath{},
			resp:        map[int]any{http.StatusOK: SessionEnvelope{}, http.StatusNotFound: ErrorResponse{}},
		},
		{
			method: http.MethodPost, path: "/sessions/edit", summary: "Edit session",
			description: "Renames a session or changes its admin name or pin. Mirrored to the game first when it supports updateSession. " + authed,
			req:         EditSessionRequest{},
			resp: map[int]any{
				http.StatusOK: SessionEnvelope{}, http.StatusBadRequest: ErrorResponse{},
				http.StatusNotFound: ErrorResponse{}, http.StatusInternalServerError: ErrorResponse{},
			},
		},
		{
			method: http.MethodPost, path: "/sessions/end", summary: "End session",
			description: "Ends a session after checking the caller's password. " + authed,
			req:         EndSessionRequest{},
			resp: map[int]any{
				http.StatusOK: SessionEnvelope{}, http.StatusForbidden: ErrorResponse{},
				http.StatusNotFound: ErrorResponse{},
			},
		},
		{
			method: http.MethodPost, path: "/sessions/custom-game-request", summary: "Custom game request",
			description: "Forwards a request to the game's server and relays its status and body. " + authed,
			req:         CustomGameRequest{},
			resp: map[int]any{
				http.StatusOK: RemoteEnvelope{}, http.StatusBadRequest: ErrorResponse{},
				http.StatusInternalServerError: ErrorResponse{},
			},
		},
		{
			method: http.MethodPost, path: "/sessions/update", summary: "Inbound session update",
			description: "Called by game servers to push player counts or completion. No admin cookie.",
			req:         InboundUpdateRequest{},
			resp: map[int]any{
				http.StatusOK: SessionEnvelope{}, http.StatusBadRequest: ErrorResponse{},
				http.StatusNotFound: ErrorResponse{}, http.StatusConflict: ErrorResponse{},
			},
		},
	}

	for _, op := range ops {
		oc, _ := r.NewOperationContext(op.method, op.path)
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for status, body := range op.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(status)}
			if op.contentType != "" {
				opts = append(opts, openapi.WithContentType(op.contentType))
			}
			oc.AddRespStructure(body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
