package models

import (
	"fmt"
	"strings"
)

// ViolationKind names a hard constraint breach.
type ViolationKind string

const (
	ViolationCellOccupied        ViolationKind = "CELL_OCCUPIED"
	ViolationPeriodTypeMismatch  ViolationKind = "PERIOD_TYPE_MISMATCH"
	ViolationTeacherUnavailable  ViolationKind = "TEACHER_UNAVAILABLE"
	ViolationTeacherDoubleBooked ViolationKind = "TEACHER_DOUBLE_BOOKED"
	ViolationRoomDoubleBooked    ViolationKind = "ROOM_DOUBLE_BOOKED"
	ViolationUnknownCohort       ViolationKind = "UNKNOWN_COHORT"
	ViolationUnknownSubject      ViolationKind = "UNKNOWN_SUBJECT"
	ViolationUnknownTeacher      ViolationKind = "UNKNOWN_TEACHER"
	ViolationOutOfRange          ViolationKind = "OUT_OF_RANGE"
)

// Violation describes one hard breach and the resource involved.
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	Cohort   string        `json:"cohort,omitempty"`
	Day      string        `json:"day,omitempty"`
	Period   int           `json:"period"`
	Resource string        `json:"resource,omitempty"`
	// PlacementID points at the conflicting placement when there is one.
	PlacementID string `json:"placement_id,omitempty"`
	Message     string `json:"message"`
}

// Evaluation is the outcome of checking one candidate placement.
type Evaluation struct {
	Violations []Violation `json:"violations"`
	Penalty    float64     `json:"penalty"`
}

// Legal reports whether no hard constraint is breached.
func (e Evaluation) Legal() bool {
	return len(e.Violations) == 0
}

// Has reports whether a violation of the given kind was found.
func (e Evaluation) Has(kind ViolationKind) bool {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

// First returns the first violation of a kind.
func (e Evaluation) First(kind ViolationKind) (Violation, bool) {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return v, true
		}
	}
	return Violation{}, false
}

// Kinds returns the distinct kinds in detection order.
func (e Evaluation) Kinds() []ViolationKind {
	seen := make(map[ViolationKind]struct{}, len(e.Violations))
	kinds := make([]ViolationKind, 0, len(e.Violations))
	for _, v := range e.Violations {
		if _, ok := seen[v.Kind]; ok {
			continue
		}
		seen[v.Kind] = struct{}{}
		kinds = append(kinds, v.Kind)
	}
	return kinds
}

// Except returns the violations whose kind is not listed.
func (e Evaluation) Except(kinds ...ViolationKind) []Violation {
	skip := make(map[ViolationKind]struct{}, len(kinds))
	for _, kind := range kinds {
		skip[kind] = struct{}{}
	}
	rest := make([]Violation, 0, len(e.Violations))
	for _, v := range e.Violations {
		if _, ok := skip[v.Kind]; !ok {
			rest = append(rest, v)
		}
	}
	return rest
}

// OverrideScenario names a hard violation the caller may choose to override.
type OverrideScenario string

const (
	// OverrideReplaceOccupied asks whether existing placements may be removed.
	OverrideReplaceOccupied OverrideScenario = "REPLACE_OCCUPIED"
	// OverrideTeacherUnavailable asks whether to place despite the teacher's availability.
	OverrideTeacherUnavailable OverrideScenario = "TEACHER_UNAVAILABLE"
)

// PlacementError is returned when a manual placement is refused.
type PlacementError struct {
	Kind       ViolationKind `json:"kind"`
	Cohort     string        `json:"cohort,omitempty"`
	Day        string        `json:"day,omitempty"`
	Period     int           `json:"period"`
	Resource   string        `json:"resource,omitempty"`
	Details    string        `json:"details"`
	Violations []Violation   `json:"violations,omitempty"`
}

// NewPlacementError builds an error from the leading violation, keeping the full list.
func NewPlacementError(lead Violation, all []Violation) *PlacementError {
	return &PlacementError{
		Kind:       lead.Kind,
		Cohort:     lead.Cohort,
		Day:        lead.Day,
		Period:     lead.Period,
		Resource:   lead.Resource,
		Details:    lead.Message,
		Violations: all,
	}
}

// Error implements the error interface.
func (e *PlacementError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := []string{string(e.Kind)}
	if e.Cohort != "" {
		parts = append(parts, "cohort "+e.Cohort)
	}
	if e.Day != "" {
		parts = append(parts, fmt.Sprintf("%s %s", e.Day, PeriodLabel(e.Period)))
	}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	msg := strings.Join(parts, ", ")
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// Detail exposes the structured fields for API responses.
func (e *PlacementError) Detail() map[string]interface{} {
	detail := map[string]interface{}{
		"kind":    e.Kind,
		"period":  e.Period,
		"details": e.Details,
	}
	if e.Cohort != "" {
		detail["cohort"] = e.Cohort
	}
	if e.Day != "" {
		detail["day"] = e.Day
	}
	if e.Resource != "" {
		detail["resource"] = e.Resource
	}
	if len(e.Violations) > 0 {
		detail["violations"] = e.Violations
	}
	return detail
}
