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

// ScreenplayRepo implements repository.ScreenplayRepository over the shared
// connection.
type ScreenplayRepo struct {
	db *DB
}

// Screenplays returns the screenplay repository view of this database.
func (db *DB) Screenplays() *ScreenplayRepo {
	return &ScreenplayRepo{db: db}
}

// compile-time check that *ScreenplayRepo implements the interface
var _ repository.ScreenplayRepository = (*ScreenplayRepo)(nil)

const screenplayColumns = `id, user_id, title, logline, dramatic_question,
	genre1, genre2, genre3, narrative_type, description, total_scenes,
	created_at, updated_at`

// Create inserts a new screenplay with a zero scene count.
func (r *ScreenplayRepo) Create(ctx context.Context, sp *model.Screenplay) error {
	now := time.Now()
	sp.ID = xid.New().String()
	sp.TotalScenes = 0
	sp.CreatedAt = now
	sp.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO screenplays
		 (id, user_id, title, logline, dramatic_question, genre1, genre2, genre3,
		  narrative_type, description, total_scenes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID,
		sp.UserID,
		sp.Title,
		sp.Logline,
		sp.DramaticQuestion,
		sp.Genre1,
		sp.Genre2,
		sp.Genre3,
		sp.NarrativeType,
		sp.Description,
		sp.TotalScenes,
		sp.CreatedAt,
		sp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting screenplay %q: %w", sp.Title, err)
	}

	return nil
}

// GetByID retrieves a single screenplay.
func (r *ScreenplayRepo) GetByID(ctx context.Context, id string) (*model.Screenplay, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+screenplayColumns+` FROM screenplays WHERE id = ?`, id)

	sp, err := scanScreenplay(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("screenplay", id)
		}
		return nil, fmt.Errorf("sqlite: getting screenplay %s: %w", id, err)
	}

	return sp, nil
}

// ListByOwner returns the owner's screenplays, newest first. The id
// tie-break keeps the order stable when two rows share a timestamp
// (xid values are themselves time-ordered).
func (r *ScreenplayRepo) ListByOwner(ctx context.Context, userID string) ([]model.Screenplay, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+screenplayColumns+`
		 FROM screenplays
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing screenplays for user %s: %w", userID, err)
	}
	defer rows.Close()

	screenplays := []model.Screenplay{}
	for rows.Next() {
		sp, err := scanScreenplay(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning screenplay row: %w", err)
		}
		screenplays = append(screenplays, *sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating screenplays: %w", err)
	}

	return screenplays, nil
}

// Update overwrites the editable fields. total_scenes is NOT touched here —
// only the scene ordering operations maintain it.
func (r *ScreenplayRepo) Update(ctx context.Context, sp *model.Screenplay) error {
	sp.UpdatedAt = time.Now()

	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE screenplays
		 SET title = ?, logline = ?, dramatic_question = ?, genre1 = ?,
		     genre2 = ?, genre3 = ?, narrative_type = ?, description = ?,
		     updated_at = ?
		 WHERE id = ?`,
		sp.Title,
		sp.Logline,
		sp.DramaticQuestion,
		sp.Genre1,
		sp.Genre2,
		sp.Genre3,
		sp.NarrativeType,
		sp.Description,
		sp.UpdatedAt,
		sp.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating screenplay %s: %w", sp.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("screenplay", sp.ID)
	}

	return nil
}

// Delete removes a screenplay. The scenes table declares ON DELETE CASCADE
// and foreign_keys is ON, so every child scene goes with it in the same
// statement — no orphaned rows.
func (r *ScreenplayRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM screenplays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting screenplay %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("screenplay", id)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanScreenplay(s scanner) (*model.Screenplay, error) {
	var sp model.Screenplay
	err := s.Scan(
		&sp.ID,
		&sp.UserID,
		&sp.Title,
		&sp.Logline,
		&sp.DramaticQuestion,
		&sp.Genre1,
		&sp.Genre2,
		&sp.Genre3,
		&sp.NarrativeType,
		&sp.Description,
		&sp.TotalScenes,
		&sp.CreatedAt,
		&sp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}
