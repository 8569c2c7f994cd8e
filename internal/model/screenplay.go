package model

import "time"

// Screenplay is a writing project owned by exactly one user.
//
// Only Title is required. The three genre slots mirror the classic
// "primary / secondary / tertiary genre" breakdown taught in screenwriting
// courses, so they are separate columns rather than a joined tag table.
//
// TotalScenes is denormalized: it is kept in sync transactionally by the
// scene repository every time a scene is created or deleted, so list views
// never need a COUNT(*) per row.
type Screenplay struct {
	ID               string    `json:"id"               db:"id"`
	UserID           string    `json:"userId"           db:"user_id"`
	Title            string    `json:"title"            db:"title"`
	Logline          string    `json:"logline"          db:"logline"`
	DramaticQuestion string    `json:"dramaticQuestion" db:"dramatic_question"`
	Genre1           string    `json:"genre1"           db:"genre1"`
	Genre2           string    `json:"genre2"           db:"genre2"`
	Genre3           string    `json:"genre3"           db:"genre3"`
	NarrativeType    string    `json:"narrativeType"    db:"narrative_type"`
	Description      string    `json:"description"      db:"description"`
	TotalScenes      int       `json:"totalScenes"      db:"total_scenes"`
	CreatedAt        time.Time `json:"createdAt"        db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt"        db:"updated_at"`
}
