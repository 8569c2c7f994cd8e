// Package service contains the business logic layer: validation, ownership
// enforcement, and orchestration between the HTTP handlers above and the
// repositories below. Services accept plain values plus an explicit actor
// ID — never an *http.Request — so the rules they enforce hold no matter
// which transport calls them.
package service

import (
	"context"

	"github.com/tahmid/screenroom/internal/apperror"
	"github.com/tahmid/screenroom/internal/model"
	"github.com/tahmid/screenroom/internal/repository"
)

// Gate is the single place ownership is decided. Both the screenplay and
// scene services route every read and mutation through it, so no operation
// can forget the check or roll its own variant.
//
// Scene ownership is transitive: a scene belongs to whoever owns its parent
// screenplay, so authorizing a scene reduces to authorizing the parent.
type Gate struct {
	screenplays repository.ScreenplayRepository
}

// NewGate creates a Gate over the screenplay repository.
func NewGate(screenplays repository.ScreenplayRepository) *Gate {
	return &Gate{screenplays: screenplays}
}

// AuthorizeScreenplay fetches the screenplay and verifies the actor owns it.
//
// Returns the screenplay on success so callers don't fetch twice. Errors:
// ErrUnauthenticated for an empty actor, ErrNotFound for an unknown id, and
// ErrForbidden when the screenplay belongs to someone else. An attacker
// probing other users' ids gets a 403, not a silent redirect — the resource
// existing is not a secret worth lying about once the id is known, but the
// content is.
func (g *Gate) AuthorizeScreenplay(ctx context.Context, actorID, screenplayID string) (*model.Screenplay, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated()
	}

	sp, err := g.screenplays.GetByID(ctx, screenplayID)
	if err != nil {
		return nil, err
	}

	if sp.UserID != actorID {
		return nil, apperror.Forbidden("you do not own this screenplay")
	}

	return sp, nil
}

// AuthorizeScene verifies the actor owns the screenplay a scene belongs to.
// The scene is fetched by the caller; this checks the parent.
func (g *Gate) AuthorizeScene(ctx context.Context, actorID string, scene *model.Scene) error {
	_, err := g.AuthorizeScreenplay(ctx, actorID, scene.ScreenplayID)
	return err
}
