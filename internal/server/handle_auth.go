package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/superadmin/internal/auth"
)

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminResponse describes the authenticated admin.
type AdminResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func adminResponse(a auth.Admin) AdminResponse {
	return AdminResponse{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt}
}

type cookieOptions struct {
	secure bool
	ttl    time.Duration
}

func handleLogin(logger *slog.Logger, admins *auth.Admins, store auth.SessionStore, opts cookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		admin, err := admins.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		token, err := store.Create(r.Context(), auth.Identity{AdminID: admin.ID, Email: admin.Email})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     adminCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(opts.ttl / time.Second),
			HttpOnly: true,
			Secure:   opts.secure,
			SameSite: http.SameSiteLaxMode,
		})

		logger.Info("admin logged in", "admin_id", admin.ID)
		writeData(w, http.StatusOK, "logged in", adminResponse(admin))
	}
}

func handleLogout(logger *slog.Logger, store auth.SessionStore, opts cookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(adminCookieName)
		if err == nil && cookie.Value != "" {
			if err := store.Delete(r.Context(), cookie.Value); err != nil {
				logger.Warn("deleting admin session", "error", err)
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     adminCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   opts.secure,
			SameSite: http.SameSiteLaxMode,
		})

		writeData(w, http.StatusOK, "logged out", nil)
	}
}

func handleFetchAdmin(logger *slog.Logger, admins *auth.Admins) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, err := admins.Get(r.Context(), adminFrom(r).AdminID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeData(w, http.StatusOK, "", adminResponse(admin))
	}
}

// CreateAdminRequest is the request body for POST /auth/create-admin.
type CreateAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func handleCreateAdmin(logger *slog.Logger, admins *auth.Admins) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAdminRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		admin, err := admins.Create(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		logger.Info("admin created", "admin_id", admin.ID, "by", adminFrom(r).AdminID)
		writeData(w, http.StatusCreated, "admin created", adminResponse(admin))
	}
}
