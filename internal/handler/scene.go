package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tahmid/screenroom/internal/apperror"
	"github.com/tahmid/screenroom/internal/service"
)

// SceneHandler manages scenes within a screenplay. Creation and listing
// are nested under the parent screenplay; everything else addresses the
// scene directly. Position changes go through the dedicated move route —
// a plain update can never renumber anything.
type SceneHandler struct {
	scenes *service.SceneService
	logger *slog.Logger
}

// NewSceneHandler creates a SceneHandler.
func NewSceneHandler(scenes *service.SceneService, logger *slog.Logger) *SceneHandler {
	return &SceneHandler{scenes: scenes, logger: logger}
}

// HandleList returns a screenplay's scenes in playing order.
//
// HTTP: GET /screenplays/{id}/scenes
func (h *SceneHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	scenes, err := h.scenes.List(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenes": scenes,
		"flash":  popFlash(w, r),
	})
}

// HandleCreate appends a scene to the screenplay and redirects to the
// new scene's detail page. The sequence number is assigned server-side;
// nothing in the form can choose a position.
//
// HTTP: POST /screenplays/{id}/scenes
// FORM: slugline, content, description, plot_section
func (h *SceneHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}

	screenplayID := r.PathValue("id")
	in := sceneInput(r)
	scene, err := h.scenes.Create(r.Context(), actor(r), screenplayID, in)
	if err != nil {
		if formRecoverable(err) {
			redirectWithFlash(w, r, "/screenplays/"+screenplayID+"/scenes", err, sceneValues(in))
			return
		}
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/scenes/"+scene.ID, http.StatusSeeOther)
}

// HandleGet returns one scene.
//
// HTTP: GET /scenes/{id}
func (h *SceneHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scenes.Get(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scene": scene,
		"flash": popFlash(w, r),
	})
}

// HandleUpdate rewrites the scene's content fields and redirects back to
// its detail page. The scene keeps its position.
//
// HTTP: POST /scenes/{id}
func (h *SceneHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")
	in := sceneInput(r)
	if _, err := h.scenes.Update(r.Context(), actor(r), id, in); err != nil {
		if formRecoverable(err) {
			redirectWithFlash(w, r, "/scenes/"+id, err, sceneValues(in))
			return
		}
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/scenes/"+id, http.StatusSeeOther)
}

// HandleDelete removes a scene and redirects to the parent screenplay's
// scene list, which the engine has already renumbered.
//
// HTTP: POST /scenes/{id}/delete
func (h *SceneHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	// Fetch first: we need the parent to redirect to, and the ownership
	// check happens here too.
	scene, err := h.scenes.Get(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.scenes.Delete(r.Context(), actor(r), scene.ID); err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/screenplays/"+scene.ScreenplayID+"/scenes", http.StatusSeeOther)
}

// HandleMove places a scene at a new 1-based position.
//
// HTTP: POST /scenes/{id}/move
// FORM: position
func (h *SceneHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")
	position, err := strconv.Atoi(r.PostFormValue("position"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("position", "position must be a positive integer"))
		return
	}

	scene, err := h.scenes.Move(r.Context(), actor(r), id, position)
	if err != nil {
		if formRecoverable(err) {
			redirectWithFlash(w, r, "/scenes/"+id, err, nil)
			return
		}
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/screenplays/"+scene.ScreenplayID+"/scenes", http.StatusSeeOther)
}

func sceneValues(in service.SceneInput) map[string]string {
	return map[string]string{
		"slugline":     in.Slugline,
		"content":      in.Content,
		"description":  in.Description,
		"plot_section": in.PlotSection,
	}
}
