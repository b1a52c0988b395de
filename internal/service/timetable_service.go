package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type revisionedStore interface {
	timetableStore
	ViewRevision(fn func(*repository.TimetableState, uint64) error) error
	UpdateAt(revision uint64, fn func(*repository.TimetableState) error) error
	Revision() uint64
}

type snapshotRepository interface {
	Save(ctx context.Context, payload models.SnapshotPayload) (*models.TimetableSnapshot, error)
	Latest(ctx context.Context) (*models.TimetableSnapshot, error)
}

// TimetableService is the entry point for grid reads, manual edits, auto-scheduling and
// snapshot persistence. Every call runs against the store under its lock.
type TimetableService struct {
	store     revisionedStore
	placement *PlacementService
	scheduler *AutoScheduler
	exports   *ExportService
	snapshots snapshotRepository
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// TimetableServiceOption configures optional collaborators.
type TimetableServiceOption func(*TimetableService)

// WithSnapshots enables snapshot persistence.
func WithSnapshots(repo snapshotRepository) TimetableServiceOption {
	return func(s *TimetableService) {
		s.snapshots = repo
	}
}

// WithExports enables file exports.
func WithExports(exports *ExportService) TimetableServiceOption {
	return func(s *TimetableService) {
		s.exports = exports
	}
}

// WithMetrics records solver and placement metrics.
func WithMetrics(metrics *MetricsService) TimetableServiceOption {
	return func(s *TimetableService) {
		s.metrics = metrics
	}
}

// NewTimetableService wires the facade.
func NewTimetableService(store revisionedStore, placement *PlacementService, scheduler *AutoScheduler, logger *zap.Logger, opts ...TimetableServiceOption) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if placement == nil {
		placement = NewPlacementService(logger)
	}
	if scheduler == nil {
		scheduler = NewAutoScheduler(DefaultStrategy(config.SchedulerConfig{}), WithSchedulerLogger(logger))
	}
	svc := &TimetableService{store: store, placement: placement, scheduler: scheduler, validator: validator.New(), logger: logger}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.exports == nil {
		svc.exports = NewExportService(nil, ExportConfig{}, logger, nil, nil)
	}
	return svc
}

// Grid returns the current grid.
func (s *TimetableService) Grid() (*dto.GridResponse, error) {
	var resp dto.GridResponse
	err := s.store.ViewRevision(func(st *repository.TimetableState, revision uint64) error {
		grid := st.Grid()
		resp.Revision = revision
		resp.Layout = st.Layout()
		resp.Cells = grid.CellIDs()
		resp.Placements = make([]models.Placement, 0, grid.Len())
		for _, p := range grid.Placements() {
			resp.Placements = append(resp.Placements, *p.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Remaining reports the residual demand of every lesson.
func (s *TimetableService) Remaining() (*dto.RemainingResponse, error) {
	var resp dto.RemainingResponse
	err := s.store.View(func(st *repository.TimetableState) error {
		lessons := st.Lessons()
		resp.Remaining = Remaining(lessons, st.Grid())
		for _, left := range resp.Remaining {
			resp.Total += left
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Evaluate reports every violation and the soft penalty of dropping a lesson at a cell.
func (s *TimetableService) Evaluate(req dto.EvaluateRequest) (*dto.EvaluateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid evaluate payload")
	}
	soft := StrictSoft()
	if req.Relaxed {
		soft = RelaxedSoft()
	}
	var resp dto.EvaluateResponse
	err := s.store.View(func(st *repository.TimetableState) error {
		lesson, ok := st.Lesson(req.LessonID)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		eval := Evaluate(st, lesson, *req.Day, *req.Period, st.Grid(), soft)
		resp = dto.EvaluateResponse{
			Legal:      eval.Legal(),
			Penalty:    eval.Penalty,
			Violations: eval.Violations,
			Kinds:      eval.Kinds(),
		}
		if resp.Violations == nil {
			resp.Violations = []models.Violation{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Place performs a manual placement. The request flags answer the two overridable scenarios.
func (s *TimetableService) Place(req dto.PlacementRequest) (*models.Placement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid placement payload")
	}
	var placed *models.Placement
	err := s.store.Update(func(st *repository.TimetableState) error {
		var err error
		placed, err = s.placement.Place(st, req.LessonID, *req.Day, *req.Period, AllowOverrides(req.ReplaceOccupied, req.ForceUnavailable))
		return err
	})
	s.metrics.ObservePlacement(err)
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// Unplace removes a placement from every cell it occupies.
func (s *TimetableService) Unplace(placementID string) (*models.Placement, error) {
	var removed *models.Placement
	err := s.store.Update(func(st *repository.TimetableState) error {
		var err error
		removed, err = s.placement.Unplace(st, placementID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Reset clears the grid, keeping the catalog and lessons.
func (s *TimetableService) Reset() error {
	return s.store.Update(func(st *repository.TimetableState) error {
		st.Grid().Reset()
		return nil
	})
}

// AutoSchedule re-solves the whole grid. The search runs without holding the store lock and
// is discarded if the timetable changed meanwhile.
func (s *TimetableService) AutoSchedule(req dto.AutoScheduleRequest) (*dto.AutoScheduleResponse, error) {
	var (
		revision uint64
		catalog  *catalogSnapshot
		lessons  []models.Lesson
		layout   models.Layout
	)
	err := s.store.ViewRevision(func(st *repository.TimetableState, rev uint64) error {
		revision = rev
		catalog = snapshotCatalog(st)
		lessons = st.Lessons()
		layout = st.Layout()
		return nil
	})
	if err != nil {
		return nil, err
	}

	scheduler := s.scheduler
	if req.Seed != nil {
		scheduler = NewAutoScheduler(s.scheduler.Strategy(), WithSeed(*req.Seed), WithSchedulerLogger(s.logger))
	}
	start := time.Now()
	result := scheduler.AutoSchedule(catalog, lessons, layout)
	s.metrics.ObserveSolve(result, time.Since(start))

	err = s.store.UpdateAt(revision, func(st *repository.TimetableState) error {
		st.ReplaceGrid(result.Grid)
		return nil
	})
	if errors.Is(err, repository.ErrStaleRevision) {
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "timetable changed during auto-schedule, retry")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("auto-schedule applied",
		zap.String("phase", result.Phase),
		zap.Int("placed", result.Grid.Len()),
		zap.Int("unplaced", result.UnplacedCount),
		zap.Bool("capacity_warning", result.CapacityWarning),
	)
	return toAutoScheduleResponse(result), nil
}

func toAutoScheduleResponse(result SolveResult) *dto.AutoScheduleResponse {
	resp := &dto.AutoScheduleResponse{
		Placed:          result.Grid.Len(),
		UnplacedCount:   result.UnplacedCount,
		Tokens:          result.Tokens,
		Capacity:        result.Capacity,
		CellDemand:      result.CellDemand,
		CapacityWarning: result.CapacityWarning,
		Phase:           result.Phase,
		Passes:          make([]dto.PassSummary, 0, len(result.Passes)),
	}
	for _, pass := range result.Passes {
		resp.Passes = append(resp.Passes, dto.PassSummary{
			Name:      pass.Name,
			Succeeded: pass.Succeeded,
			TimedOut:  pass.TimedOut,
			ElapsedMS: pass.Elapsed.Milliseconds(),
		})
	}
	return resp
}

// Export renders the timetable, reusing a cached file for an unchanged grid.
func (s *TimetableService) Export(ctx context.Context, format ExportFormat) (*ExportDocument, error) {
	return s.exports.Export(ctx, format, func(render func(uint64, ExportSource) error) error {
		return s.store.ViewRevision(func(st *repository.TimetableState, revision uint64) error {
			return render(revision, st)
		})
	})
}

// SaveSnapshot persists the whole state as a new snapshot version.
func (s *TimetableService) SaveSnapshot(ctx context.Context) (*dto.SnapshotResponse, error) {
	if s.snapshots == nil {
		return nil, appErrors.ErrPersistenceOffline
	}
	var payload models.SnapshotPayload
	if err := s.store.View(func(st *repository.TimetableState) error {
		payload = st.Export()
		return nil
	}); err != nil {
		return nil, err
	}

	start := time.Now()
	snapshot, err := s.snapshots.Save(ctx, payload)
	s.metrics.ObserveSnapshot("save", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save snapshot")
	}
	s.logger.Info("snapshot saved", zap.String("snapshot_id", snapshot.ID), zap.Int("version", snapshot.Version))
	return &dto.SnapshotResponse{ID: snapshot.ID, Version: snapshot.Version, CreatedAt: snapshot.CreatedAt}, nil
}

// RestoreLatest replaces the state with the newest snapshot. Placements that no longer agree
// with the stored cells are dropped and reported.
func (s *TimetableService) RestoreLatest(ctx context.Context) (*dto.SnapshotResponse, error) {
	if s.snapshots == nil {
		return nil, appErrors.ErrPersistenceOffline
	}
	start := time.Now()
	snapshot, err := s.snapshots.Latest(ctx)
	s.metrics.ObserveSnapshot("restore", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no snapshot stored")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load snapshot")
	}
	payload, err := repository.Decode(snapshot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "snapshot payload is corrupt")
	}

	var dropped []string
	err = s.store.Update(func(st *repository.TimetableState) error {
		var err error
		dropped, err = st.Import(payload)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "snapshot layout is invalid")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		s.logger.Warn("snapshot placements dropped on restore", zap.Strings("placement_ids", dropped))
	}
	return &dto.SnapshotResponse{ID: snapshot.ID, Version: snapshot.Version, CreatedAt: snapshot.CreatedAt, Dropped: dropped}, nil
}

// catalogSnapshot is a detached copy of the subjects and teachers a solve reads.
type catalogSnapshot struct {
	subjects map[string]models.Subject
	teachers map[string]models.Teacher
}

func snapshotCatalog(st *repository.TimetableState) *catalogSnapshot {
	c := &catalogSnapshot{subjects: map[string]models.Subject{}, teachers: map[string]models.Teacher{}}
	for _, subject := range st.Subjects() {
		c.subjects[subject.ID] = subject
	}
	for _, teacher := range st.Teachers() {
		c.teachers[teacher.ID] = teacher
	}
	return c
}

func (c *catalogSnapshot) Subject(id string) (models.Subject, bool) {
	subject, ok := c.subjects[id]
	return subject, ok
}

func (c *catalogSnapshot) Teacher(id string) (models.Teacher, bool) {
	teacher, ok := c.teachers[id]
	return teacher, ok
}
