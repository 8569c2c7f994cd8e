package handler

import (
	"log/slog"
	"net/http"

	"github.com/tahmid/screenroom/internal/auth"
	"github.com/tahmid/screenroom/internal/service"
)

// ScreenplayHandler manages CRUD for screenplays. Reads return JSON;
// mutations take form bodies and redirect, so a plain HTML frontend can
// drive the whole thing with forms and fetch calls.
//
// Every route here sits behind RequireAuth, so the user ID is always in
// the context. Ownership is NOT checked here — the service gate does
// that, and a non-owner gets a 403 regardless of how the route was hit.
type ScreenplayHandler struct {
	screenplays *service.ScreenplayService
	logger      *slog.Logger
}

// NewScreenplayHandler creates a ScreenplayHandler.
func NewScreenplayHandler(screenplays *service.ScreenplayService, logger *slog.Logger) *ScreenplayHandler {
	return &ScreenplayHandler{screenplays: screenplays, logger: logger}
}

// actor pulls the authenticated user ID from the request context. Behind
// RequireAuth it is always present; the empty fallback lets the service
// return a proper unauthenticated error if wiring ever breaks.
func actor(r *http.Request) string {
	userID, _ := auth.UserIDFromContext(r.Context())
	return userID
}

// HandleList returns the actor's screenplays, newest first.
//
// HTTP: GET /screenplays
func (h *ScreenplayHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	screenplays, err := h.screenplays.ListOwn(r.Context(), actor(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"screenplays": screenplays,
		"flash":       popFlash(w, r),
	})
}

// HandleCreate creates a screenplay from the form body and redirects to
// its detail page.
//
// HTTP: POST /screenplays
// FORM: title, logline, dramatic_question, genre1..genre3,
// narrative_type, description
func (h *ScreenplayHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}

	in := screenplayInput(r)
	sp, err := h.screenplays.Create(r.Context(), actor(r), in)
	if err != nil {
		if formRecoverable(err) {
			redirectWithFlash(w, r, "/screenplays", err, screenplayValues(in))
			return
		}
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/screenplays/"+sp.ID, http.StatusSeeOther)
}

// HandleGet returns one screenplay the actor owns.
//
// HTTP: GET /screenplays/{id}
func (h *ScreenplayHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sp, err := h.screenplays.Get(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"screenplay": sp,
		"flash":      popFlash(w, r),
	})
}

// HandleUpdate overwrites the editable fields and redirects back to the
// detail page. Validation failures flash back to the same page.
//
// HTTP: POST /screenplays/{id}
func (h *ScreenplayHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")
	in := screenplayInput(r)
	if _, err := h.screenplays.Update(r.Context(), actor(r), id, in); err != nil {
		if formRecoverable(err) {
			redirectWithFlash(w, r, "/screenplays/"+id, err, screenplayValues(in))
			return
		}
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/screenplays/"+id, http.StatusSeeOther)
}

// HandleDelete removes a screenplay and every scene in it.
//
// HTTP: POST /screenplays/{id}/delete
func (h *ScreenplayHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.screenplays.Delete(r.Context(), actor(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, "/screenplays", http.StatusSeeOther)
}

// screenplayValues flattens the input for the flash cookie so a failed
// form can refill itself.
func screenplayValues(in service.ScreenplayInput) map[string]string {
	return map[string]string{
		"title":             in.Title,
		"logline":           in.Logline,
		"dramatic_question": in.DramaticQuestion,
		"genre1":            in.Genre1,
		"genre2":            in.Genre2,
		"genre3":            in.Genre3,
		"narrative_type":    in.NarrativeType,
		"description":       in.Description,
	}
}
