package model

import "time"

// Scene is an ordered unit of content within a screenplay.
//
// Sequence is the dense ordering key: within one screenplay, sequences are
// unique and run 1..n with no gaps. The scene repository owns sequence
// assignment — callers never pick a sequence themselves, and Update leaves
// it untouched. Index mirrors Sequence (the position the scene occupies in
// the narrative) and is maintained alongside it.
type Scene struct {
	ID           string    `json:"id"           db:"id"`
	ScreenplayID string    `json:"screenplayId" db:"screenplay_id"`
	Index        int       `json:"index"        db:"scene_index"`
	Sequence     int       `json:"sequence"     db:"scene_sequence"`
	Slugline     string    `json:"slugline"     db:"slugline"`
	Content      string    `json:"content"      db:"content"`
	Description  string    `json:"description"  db:"description"`
	PlotSection  string    `json:"plotSection"  db:"plot_section"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}
