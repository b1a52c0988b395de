package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// PlacementRequest asks for a manual placement. The two flags answer the overridable
// conflicts: replacing occupied cells and ignoring teacher availability.
type PlacementRequest struct {
	LessonID         string `json:"lessonId" validate:"required"`
	Day              *int   `json:"day" validate:"required,min=0"`
	Period           *int   `json:"period" validate:"required,min=0"`
	ReplaceOccupied  bool   `json:"replaceOccupied"`
	ForceUnavailable bool   `json:"forceUnavailable"`
}

// EvaluateRequest asks whether a lesson could be dropped at a cell.
type EvaluateRequest struct {
	LessonID string `json:"lessonId" validate:"required"`
	Day      *int   `json:"day" validate:"required,min=0"`
	Period   *int   `json:"period" validate:"required,min=0"`
	Relaxed  bool   `json:"relaxed"`
}

// EvaluateResponse is the evaluator's verdict.
type EvaluateResponse struct {
	Legal      bool                   `json:"legal"`
	Penalty    float64                `json:"penalty"`
	Violations []models.Violation     `json:"violations"`
	Kinds      []models.ViolationKind `json:"kinds"`
}

// AutoScheduleRequest optionally overrides the shuffle seed.
type AutoScheduleRequest struct {
	Seed *int64 `json:"seed"`
}

// PassSummary mirrors one solver pass.
type PassSummary struct {
	Name      string `json:"name"`
	Succeeded bool   `json:"succeeded"`
	TimedOut  bool   `json:"timedOut"`
	ElapsedMS int64  `json:"elapsedMs"`
}

// AutoScheduleResponse summarises a full re-solve.
type AutoScheduleResponse struct {
	Placed          int           `json:"placed"`
	UnplacedCount   int           `json:"unplacedCount"`
	Tokens          int           `json:"tokens"`
	Capacity        int           `json:"capacity"`
	CellDemand      int           `json:"cellDemand"`
	CapacityWarning bool          `json:"capacityWarning"`
	Phase           string        `json:"phase"`
	Passes          []PassSummary `json:"passes"`
}

// GridResponse is the read model of the timetable.
type GridResponse struct {
	Revision   uint64             `json:"revision"`
	Layout     models.Layout      `json:"layout"`
	Cells      [][][]string       `json:"cells"`
	Placements []models.Placement `json:"placements"`
}

// RemainingResponse lists residual demand per lesson.
type RemainingResponse struct {
	Remaining map[string]int `json:"remaining"`
	Total     int            `json:"total"`
}

// SnapshotResponse describes a stored snapshot.
type SnapshotResponse struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	Dropped   []string  `json:"dropped,omitempty"`
}
