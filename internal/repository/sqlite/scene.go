package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/tahmid/screenroom/internal/apperror"
	"github.com/tahmid/screenroom/internal/model"
	"github.com/tahmid/screenroom/internal/repository"
)

// SceneRepo implements repository.SceneRepository over the shared
// connection. It is also the ordering engine: every operation that touches
// a scene's position runs in one transaction that leaves the screenplay's
// sequence numbers unique, dense, and starting at 1, and keeps the
// screenplay's total_scenes in step.
type SceneRepo struct {
	db *DB
}

// Scenes returns the scene repository view of this database.
func (db *DB) Scenes() *SceneRepo {
	return &SceneRepo{db: db}
}

// compile-time check that *SceneRepo implements the interface
var _ repository.SceneRepository = (*SceneRepo)(nil)

const sceneColumns = `id, screenplay_id, scene_index, scene_sequence,
	slugline, content, description, plot_section, created_at, updated_at`

// Create appends the scene to its screenplay.
//
// The sequence is read-then-write (max+1), which is only safe because the
// read and the insert share a transaction and the UNIQUE
// (screenplay_id, scene_sequence) index fails the loser if two creations
// race anyway. The caller never supplies a sequence.
func (r *SceneRepo) Create(ctx context.Context, scene *model.Scene) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		// Confirm the parent exists inside the transaction; a typo'd
		// screenplay ID should be a not-found, not an FK failure.
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM screenplays WHERE id = ?`, scene.ScreenplayID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: checking screenplay %s: %w", scene.ScreenplayID, err)
		}
		if exists == 0 {
			return apperror.NotFound("screenplay", scene.ScreenplayID)
		}

		// Next sequence = max + 1; the first scene of an empty screenplay
		// gets 1.
		var next int
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(scene_sequence), 0) + 1
			 FROM scenes WHERE screenplay_id = ?`,
			scene.ScreenplayID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("sqlite: computing next sequence: %w", err)
		}

		now := time.Now()
		scene.ID = xid.New().String()
		scene.Sequence = next
		scene.Index = next
		scene.CreatedAt = now
		scene.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			`INSERT INTO scenes
			 (id, screenplay_id, scene_index, scene_sequence, slugline,
			  content, description, plot_section, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			scene.ID,
			scene.ScreenplayID,
			scene.Index,
			scene.Sequence,
			scene.Slugline,
			scene.Content,
			scene.Description,
			scene.PlotSection,
			scene.CreatedAt,
			scene.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting scene %q: %w", scene.Slugline, err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE screenplays SET total_scenes = total_scenes + 1, updated_at = ?
			 WHERE id = ?`,
			now, scene.ScreenplayID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: bumping scene count: %w", err)
		}

		return nil
	})
}

// GetByID retrieves a single scene.
func (r *SceneRepo) GetByID(ctx context.Context, id string) (*model.Scene, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+sceneColumns+` FROM scenes WHERE id = ?`, id)

	scene, err := scanScene(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("scene", id)
		}
		return nil, fmt.Errorf("sqlite: getting scene %s: %w", id, err)
	}

	return scene, nil
}

// ListByScreenplay returns a screenplay's scenes in ascending sequence order.
func (r *SceneRepo) ListByScreenplay(ctx context.Context, screenplayID string) ([]model.Scene, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+sceneColumns+`
		 FROM scenes
		 WHERE screenplay_id = ?
		 ORDER BY scene_sequence ASC`,
		screenplayID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing scenes for screenplay %s: %w", screenplayID, err)
	}
	defer rows.Close()

	scenes := []model.Scene{}
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning scene row: %w", err)
		}
		scenes = append(scenes, *scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating scenes: %w", err)
	}

	return scenes, nil
}

// Update rewrites a scene's content fields. scene_sequence and scene_index
// are deliberately absent from the SET list — position changes only happen
// through Move.
func (r *SceneRepo) Update(ctx context.Context, scene *model.Scene) error {
	scene.UpdatedAt = time.Now()

	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE scenes
		 SET slugline = ?, content = ?, description = ?, plot_section = ?, updated_at = ?
		 WHERE id = ?`,
		scene.Slugline,
		scene.Content,
		scene.Description,
		scene.PlotSection,
		scene.UpdatedAt,
		scene.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating scene %s: %w", scene.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("scene", scene.ID)
	}

	return nil
}

// Delete removes a scene and closes the gap: every scene after it moves
// down one position, so the sequence stays dense. Deleting the last scene
// shifts nothing.
func (r *SceneRepo) Delete(ctx context.Context, id string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		var screenplayID string
		var seq int
		err := tx.QueryRowContext(ctx,
			`SELECT screenplay_id, scene_sequence FROM scenes WHERE id = ?`, id,
		).Scan(&screenplayID, &seq)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperror.NotFound("scene", id)
			}
			return fmt.Errorf("sqlite: looking up scene %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM scenes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting scene %s: %w", id, err)
		}

		if err := shiftSequences(ctx, tx, screenplayID, seq+1, maxSequence, -1); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE screenplays SET total_scenes = total_scenes - 1, updated_at = ?
			 WHERE id = ?`,
			time.Now(), screenplayID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: dropping scene count: %w", err)
		}

		return nil
	})
}

// Move places the scene at the given 1-based position. Everything between
// the old and new positions shifts by one in the opposite direction; the
// rest of the screenplay is untouched. Positions outside 1..n are clamped.
func (r *SceneRepo) Move(ctx context.Context, id string, position int) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		var screenplayID string
		var from int
		err := tx.QueryRowContext(ctx,
			`SELECT screenplay_id, scene_sequence FROM scenes WHERE id = ?`, id,
		).Scan(&screenplayID, &from)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperror.NotFound("scene", id)
			}
			return fmt.Errorf("sqlite: looking up scene %s: %w", id, err)
		}

		var count int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM scenes WHERE screenplay_id = ?`, screenplayID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("sqlite: counting scenes: %w", err)
		}

		to := position
		if to < 1 {
			to = 1
		}
		if to > count {
			to = count
		}
		if to == from {
			return nil
		}

		// Park the moving scene at sequence 0 — outside the live 1..n range
		// and outside the negative range shiftSequences works in — so the
		// shift below can never collide with it on the unique index.
		if _, err := tx.ExecContext(ctx,
			`UPDATE scenes SET scene_sequence = 0, scene_index = 0 WHERE id = ?`,
			id); err != nil {
			return fmt.Errorf("sqlite: parking scene %s: %w", id, err)
		}

		if to > from {
			// Moving later: the scenes between old+1 and target step back one.
			err = shiftSequences(ctx, tx, screenplayID, from+1, to, -1)
		} else {
			// Moving earlier: the scenes between target and old-1 step forward one.
			err = shiftSequences(ctx, tx, screenplayID, to, from-1, +1)
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE scenes SET scene_sequence = ?, scene_index = ?, updated_at = ? WHERE id = ?`,
			to, to, time.Now(), id)
		if err != nil {
			return fmt.Errorf("sqlite: placing scene %s at %d: %w", id, to, err)
		}

		return nil
	})
}

// maxSequence is an open upper bound for shiftSequences. Screenplays hold
// hundreds of scenes at most, so any large constant is safely past the end.
const maxSequence = 1 << 30

// shiftSequences adds delta to scene_sequence (and scene_index) for every
// scene of the screenplay whose sequence lies in [lo, hi].
//
// TWO-PHASE UPDATE:
// A single UPDATE ... SET scene_sequence = scene_sequence - 1 can trip the
// UNIQUE (screenplay_id, scene_sequence) index mid-statement, because SQLite
// checks the constraint row by row and makes no promise about row order
// (scene 3 becoming 2 collides if scene 2 hasn't moved yet). Negating the
// range first moves it into sequence numbers that can't collide with live
// rows, then the second pass writes the final values.
func shiftSequences(ctx context.Context, tx *sql.Tx, screenplayID string, lo, hi, delta int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE scenes SET scene_sequence = -scene_sequence
		 WHERE screenplay_id = ? AND scene_sequence BETWEEN ? AND ?`,
		screenplayID, lo, hi,
	)
	if err != nil {
		return fmt.Errorf("sqlite: shifting sequences (phase 1): %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE scenes
		 SET scene_sequence = -scene_sequence + ?, scene_index = -scene_sequence + ?
		 WHERE screenplay_id = ? AND scene_sequence < 0`,
		delta, delta,
		screenplayID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: shifting sequences (phase 2): %w", err)
	}

	return nil
}

func scanScene(s scanner) (*model.Scene, error) {
	var sc model.Scene
	err := s.Scan(
		&sc.ID,
		&sc.ScreenplayID,
		&sc.Index,
		&sc.Sequence,
		&sc.Slugline,
		&sc.Content,
		&sc.Description,
		&sc.PlotSection,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}
