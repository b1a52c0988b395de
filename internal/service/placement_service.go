package service

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// PlacementTarget is the state a manual edit works on.
type PlacementTarget interface {
	Catalog
	Lesson(id string) (models.Lesson, bool)
	Grid() *models.Grid
}

// ConfirmFunc answers an overridable conflict. It is asked at most once per scenario.
type ConfirmFunc func(scenario models.OverrideScenario, conflicts []models.Violation) bool

// PlaceOptions carries the caller's confirmation channel. A nil Confirm declines everything.
type PlaceOptions struct {
	Confirm ConfirmFunc
}

// AllowOverrides answers each scenario with a fixed decision.
func AllowOverrides(replaceOccupied, forceUnavailable bool) PlaceOptions {
	return PlaceOptions{Confirm: func(scenario models.OverrideScenario, _ []models.Violation) bool {
		switch scenario {
		case models.OverrideReplaceOccupied:
			return replaceOccupied
		case models.OverrideTeacherUnavailable:
			return forceUnavailable
		default:
			return false
		}
	}}
}

func (o PlaceOptions) confirm(scenario models.OverrideScenario, conflicts []models.Violation) bool {
	if o.Confirm == nil {
		return false
	}
	return o.Confirm(scenario, conflicts)
}

// PlacementService validates and commits manual edits to the grid.
type PlacementService struct {
	newID  func() string
	logger *zap.Logger
}

// NewPlacementService creates a placement service.
func NewPlacementService(logger *zap.Logger) *PlacementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementService{newID: uuid.NewString, logger: logger}
}

// Place writes one session of a lesson into every cohort row it targets at (day, period).
// Existing occupants are only removed, as whole placements, after the caller confirms.
func (s *PlacementService) Place(target PlacementTarget, lessonID string, day, period int, opts PlaceOptions) (*models.Placement, error) {
	lesson, ok := target.Lesson(lessonID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	grid := target.Grid()

	occupants, occupied := targetOccupants(grid, lesson, day, period)
	ignore := make([]string, 0, len(occupants))
	for _, p := range occupants {
		ignore = append(ignore, p.ID)
	}

	eval := Evaluate(target, lesson, day, period, grid, StrictSoft(), ignore...)
	if blocking := eval.Except(models.ViolationTeacherUnavailable); len(blocking) > 0 {
		return nil, rejectPlacement(blocking[0], eval.Violations)
	}

	if len(occupied) > 0 && !opts.confirm(models.OverrideReplaceOccupied, occupied) {
		return nil, rejectPlacement(occupied[0], occupied)
	}
	if v, ok := eval.First(models.ViolationTeacherUnavailable); ok {
		if !opts.confirm(models.OverrideTeacherUnavailable, []models.Violation{v}) {
			return nil, rejectPlacement(v, eval.Violations)
		}
	}

	for _, p := range occupants {
		grid.Remove(p.ID)
	}
	placement := models.NewPlacement(s.newID(), lesson, day, period)
	if err := grid.Place(placement); err != nil {
		for _, p := range occupants {
			_ = grid.Place(p)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write placement")
	}

	s.logger.Debug("lesson placed",
		zap.String("lesson_id", lesson.ID),
		zap.String("placement_id", placement.ID),
		zap.Int("day", day),
		zap.Int("period", period),
		zap.Int("replaced", len(occupants)),
	)
	return placement, nil
}

// Unplace clears every cell of a placement.
func (s *PlacementService) Unplace(target PlacementTarget, placementID string) (*models.Placement, error) {
	removed, ok := target.Grid().Remove(placementID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
	}
	s.logger.Debug("placement removed", zap.String("placement_id", placementID), zap.Strings("cohorts", removed.Cohorts))
	return removed, nil
}

// targetOccupants returns the distinct placements sitting in the lesson's target cells and a
// CELL_OCCUPIED violation per occupied cell.
func targetOccupants(grid *models.Grid, lesson models.Lesson, day, period int) ([]*models.Placement, []models.Violation) {
	if !grid.InBounds(day, period) {
		return nil, nil
	}
	var (
		occupants  []*models.Placement
		violations []models.Violation
	)
	seen := make(map[string]struct{})
	for _, cohort := range lesson.Cohorts {
		p := grid.Cell(cohort, day, period)
		if p == nil {
			continue
		}
		violations = append(violations, models.Violation{
			Kind:        models.ViolationCellOccupied,
			Cohort:      cohort,
			Day:         grid.DayName(day),
			Period:      period,
			PlacementID: p.ID,
			Message:     "cell already holds a lesson",
		})
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		occupants = append(occupants, p)
	}
	return occupants, violations
}

func rejectPlacement(lead models.Violation, all []models.Violation) error {
	pe := models.NewPlacementError(lead, all)
	return appErrors.Wrap(pe, appErrors.ErrPlacementRejected.Code, appErrors.ErrPlacementRejected.Status, "placement rejected: "+string(pe.Kind))
}
