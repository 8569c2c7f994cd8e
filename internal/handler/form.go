package handler

// Form boundary utilities. Mutating routes take form-encoded bodies; this
// file is the only place that touches r.Form. Each handler decodes the body
// into a typed payload here, so the rest of the stack never sees a raw
// form value.
//
// Every string field passes through a bluemonday strict policy, which
// strips all HTML. Screenplay text is prose, not markup; anything that
// looks like a tag in a slugline is an injection attempt, not content.
// Passwords are exempt: they are never rendered anywhere, and rewriting
// them would lock users out of their own accounts.

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tahmid/screenroom/internal/apperror"
	"github.com/tahmid/screenroom/internal/service"
)

// maxFormBytes caps the form body. Scene content tops out at 200KB, so
// 1MB leaves headroom without letting a client stream gigabytes at us.
const maxFormBytes = 1 << 20

// strict strips every HTML tag. Shared; bluemonday policies are safe for
// concurrent use.
var strict = bluemonday.StrictPolicy()

// sanitize cleans one form value: HTML stripped, whitespace trimmed.
func sanitize(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// parseForm bounds and decodes a form-encoded request body.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return apperror.ValidationFailed("body", "request body is not a valid form")
	}
	return nil
}

// formValue returns the sanitized form field.
func formValue(r *http.Request, name string) string {
	return sanitize(r.PostFormValue(name))
}

// screenplayInput decodes the screenplay form fields into the typed
// service input. Field names match the store columns one for one.
func screenplayInput(r *http.Request) service.ScreenplayInput {
	return service.ScreenplayInput{
		Title:            formValue(r, "title"),
		Logline:          formValue(r, "logline"),
		DramaticQuestion: formValue(r, "dramatic_question"),
		Genre1:           formValue(r, "genre1"),
		Genre2:           formValue(r, "genre2"),
		Genre3:           formValue(r, "genre3"),
		NarrativeType:    formValue(r, "narrative_type"),
		Description:      formValue(r, "description"),
	}
}

// sceneInput decodes the scene form fields.
func sceneInput(r *http.Request) service.SceneInput {
	return service.SceneInput{
		Slugline:    formValue(r, "slugline"),
		Content:     formValue(r, "content"),
		Description: formValue(r, "description"),
		PlotSection: formValue(r, "plot_section"),
	}
}

// flashCookie carries a one-shot notice across the redirect back to the
// originating form.
const flashCookie = "flash"

// Flash is the notice a failed form submission leaves behind: what went
// wrong, which field caused it, and the non-secret values the user had
// entered so the form can refill itself. Passwords are never included.
type Flash struct {
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
}

// setFlash stores the notice in a short-lived cookie. The JSON is
// base64-encoded because cookie values cannot carry quotes or spaces.
func setFlash(w http.ResponseWriter, f Flash) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the notice. Returns nil when there is none or
// the cookie is malformed; a broken flash is not worth an error page.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:   flashCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}

// formRecoverable reports whether the error should send the user back to
// the form with a notice instead of an error page. Not-found, forbidden,
// and internal errors are not recoverable by retyping.
func formRecoverable(err error) bool {
	return errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrDuplicateIdentity) ||
		errors.Is(err, apperror.ErrInvalidCredentials)
}

// redirectWithFlash sends the user back to the originating form carrying
// the error notice and their entered values.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, target string, err error, values map[string]string) {
	f := Flash{Message: "something went wrong", Values: values}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		f.Message = appErr.Message
		f.Field = appErr.Field
	}
	setFlash(w, f)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// safeNext validates a post-login redirect target taken from the request.
// Only site-local paths pass; anything that could leave the origin
// ("https://evil", "//evil", header-splitting junk) falls back to the
// default so the login flow cannot be used as an open redirect.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return fallback
	}
	return next
}
