package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tahmid/screenroom/internal/auth"
	"github.com/tahmid/screenroom/internal/service"
)

// AuthHandler manages registration, login, and session lifecycle.
//
// The session is a JWT in an HttpOnly cookie: JavaScript cannot read it,
// and SameSite=Lax keeps it off cross-site POSTs. Logout just deletes the
// cookie; the token itself stays valid until expiry, which is the usual
// stateless-session trade-off.
type AuthHandler struct {
	auth       *service.AuthService
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewAuthHandler creates an AuthHandler. sessionTTL controls the cookie
// lifetime and must match the token TTL the AuthService issues.
func NewAuthHandler(authSvc *service.AuthService, sessionTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:       authSvc,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// HandleRegister creates an account from the registration form.
//
// HTTP: POST /register (username, email, password)
//
// Success sends the user to the login form. A duplicate username/email or
// a validation failure sends them back to the registration form with the
// notice and their username/email refilled — never the password.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}

	username := formValue(r, "username")
	email := formValue(r, "email")
	password := r.PostFormValue("password") // secret, not sanitized

	if _, err := h.auth.Register(r.Context(), username, email, password); err != nil {
		if formRecoverable(err) {
			redirectWithFlash(w, r, "/register", err, map[string]string{
				"username": username,
				"email":    email,
			})
			return
		}
		h.logger.Error("registration failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleRegisterForm serves the registration form state: any pending
// flash notice from a failed attempt. A visitor who already has a valid
// session gets bounced to their screenplays instead.
//
// HTTP: GET /register
func (h *AuthHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/screenplays", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flash": popFlash(w, r),
	})
}

// HandleLoginForm serves the login form state: the pending flash notice
// and the next target to carry through the POST. Already signed in means
// there is nothing to do here; go straight to next.
//
// HTTP: GET /login?next=/screenplays/abc
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"), "/screenplays")
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flash": popFlash(w, r),
		"next":  next,
	})
}

// HandleLogin authenticates the form credentials and issues the session
// cookie.
//
// HTTP: POST /login (username, password, next)
//
// A failed login redirects back to /login with a flash notice and the
// username refilled. The notice is identical whether the username was
// unknown or the password wrong; the service guarantees that.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}

	username := formValue(r, "username")
	password := r.PostFormValue("password")
	next := safeNext(r.PostFormValue("next"), "/screenplays")

	result, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		if formRecoverable(err) {
			target := "/login"
			if next != "/screenplays" {
				target += "?next=" + url.QueryEscape(next)
			}
			redirectWithFlash(w, r, target, err, map[string]string{
				"username": username,
			})
			return
		}
		h.logger.Error("login failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable behind HTTPS
	})

	http.Redirect(w, r, next, http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /logout
//
// POST, not GET: logout changes state, and GET links get prefetched.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleMe returns the logged-in user's profile.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "not logged in",
		})
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
