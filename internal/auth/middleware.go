package auth

import (
	"context"
	"net/http"
	"net/url"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session
// token. Handlers that set or clear the session use the same name.
const SessionCookie = "session"

// contextKey is an unexported type for context keys in this package.
// Using a package-private type means no other package can read or shadow
// the userID value we store in the request context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces authentication on protected routes.
//
// It reads the session token from the cookie, validates it, and stores the
// userID in the request context. An anonymous or invalid-token request is
// redirected to the login page with the originally requested path preserved
// in ?next=, so the user lands back where they were heading after logging in.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				loginURL := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, loginURL, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the user identity if a valid session is present but
// never blocks the request. Used on the login and register pages, which need
// to know whether the visitor is already signed in (and bounce them home if
// so) without demanding a session.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil && userID != "" {
				ctx := context.WithValue(r.Context(), userIDKey, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) for an anonymous request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads the session cookie and validates the token it holds.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie — not an error, just an anonymous visitor
		return "", err
	}

	return tokens.Validate(cookie.Value)
}
