package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableSnapshot is a persisted copy of the whole timetable state.
type TimetableSnapshot struct {
	ID        string         `db:"id" json:"id"`
	Version   int            `db:"version" json:"version"`
	Payload   types.JSONText `db:"payload" json:"payload"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// SnapshotPayload is the JSON document stored in a snapshot.
type SnapshotPayload struct {
	Layout     Layout       `json:"layout"`
	Subjects   []Subject    `json:"subjects"`
	Teachers   []Teacher    `json:"teachers"`
	Rooms      []Room       `json:"rooms"`
	Lessons    []Lesson     `json:"lessons"`
	Cells      [][][]string `json:"cells"`
	Placements []Placement  `json:"placements"`
}
