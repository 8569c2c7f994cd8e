// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation today;
// swapping in Postgres would mean implementing these three interfaces and
// changing one line of wiring.
package repository

import (
	"context"

	"github.com/tahmid/screenroom/internal/model"
)

// UserRepository stores writer accounts.
type UserRepository interface {
	// Create inserts a new user. Returns apperror.ErrDuplicateIdentity if
	// the username or email is already taken.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByUsername returns apperror.ErrNotFound for an unknown username;
	// the auth service translates that into the uniform credentials error.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// ScreenplayRepository stores screenplay records.
type ScreenplayRepository interface {
	Create(ctx context.Context, sp *model.Screenplay) error
	GetByID(ctx context.Context, id string) (*model.Screenplay, error)
	// ListByOwner returns the owner's screenplays, most recently created first.
	ListByOwner(ctx context.Context, userID string) ([]model.Screenplay, error)
	Update(ctx context.Context, sp *model.Screenplay) error
	// Delete removes the screenplay and every scene under it.
	Delete(ctx context.Context, id string) error
}

// SceneRepository stores scenes and owns their ordering.
//
// Sequence numbers within one screenplay are unique and dense (1..n).
// Create assigns max+1, Delete closes the gap it leaves, and Move shifts
// the affected range. All three run in a single transaction, and a unique
// index on (screenplay_id, scene_sequence) backstops any race.
type SceneRepository interface {
	// Create inserts the scene at the end of its screenplay, assigning
	// Sequence and Index and bumping the screenplay's scene count.
	Create(ctx context.Context, scene *model.Scene) error
	GetByID(ctx context.Context, id string) (*model.Scene, error)
	// ListByScreenplay returns scenes in ascending sequence order.
	ListByScreenplay(ctx context.Context, screenplayID string) ([]model.Scene, error)
	// Update rewrites content fields only; Sequence and Index are immutable
	// through this operation.
	Update(ctx context.Context, scene *model.Scene) error
	// Delete removes the scene and renumbers the scenes after it so the
	// sequence stays gap-free.
	Delete(ctx context.Context, id string) error
	// Move places the scene at the given 1-based position, shifting the
	// scenes in between. Positions outside 1..n are clamped.
	Move(ctx context.Context, id string, position int) error
}
