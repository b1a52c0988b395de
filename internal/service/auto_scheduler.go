package service

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

const (
	// PhaseGreedy names the fallback when no search pass completes.
	PhaseGreedy = "greedy"

	PassStrict       = "strict"
	PassRelaxed      = "relaxed"
	PassRelaxedFinal = "relaxed-final"
)

// SolvePass is one rung of the relaxation ladder.
type SolvePass struct {
	Name   string          `json:"name" yaml:"name"`
	Soft   SoftConstraints `json:"soft" yaml:"soft"`
	Budget time.Duration   `json:"budget" yaml:"budget"`
}

// Strategy is the ordered list of passes tried before the greedy fallback.
type Strategy []SolvePass

// DefaultStrategy returns strict, relaxed and relaxed-final passes with the configured budgets.
func DefaultStrategy(cfg config.SchedulerConfig) Strategy {
	strict, relaxed, final := cfg.StrictBudget, cfg.RelaxedBudget, cfg.FinalBudget
	if strict <= 0 {
		strict = 2 * time.Second
	}
	if relaxed <= 0 {
		relaxed = 2 * time.Second
	}
	if final <= 0 {
		final = time.Second
	}
	return Strategy{
		{Name: PassStrict, Soft: StrictSoft(), Budget: strict},
		{Name: PassRelaxed, Soft: RelaxedSoft(), Budget: relaxed},
		{Name: PassRelaxedFinal, Soft: RelaxedSoft(), Budget: final},
	}
}

// TotalBudget sums the pass budgets.
func (s Strategy) TotalBudget() time.Duration {
	var total time.Duration
	for _, pass := range s {
		total += pass.Budget
	}
	return total
}

// PassOutcome records how one pass ended.
type PassOutcome struct {
	Name      string        `json:"name"`
	Succeeded bool          `json:"succeeded"`
	TimedOut  bool          `json:"timed_out"`
	Elapsed   time.Duration `json:"elapsed"`
}

// SolveResult is the outcome of a full re-solve.
type SolveResult struct {
	Grid            *models.Grid  `json:"-"`
	UnplacedCount   int           `json:"unplaced_count"`
	Tokens          int           `json:"tokens"`
	Capacity        int           `json:"capacity"`
	CellDemand      int           `json:"cell_demand"`
	CapacityWarning bool          `json:"capacity_warning"`
	Phase           string        `json:"phase"`
	Passes          []PassOutcome `json:"passes"`
}

// AutoSchedulerOption configures the scheduler.
type AutoSchedulerOption func(*AutoScheduler)

// WithClock overrides the wall clock used for pass deadlines.
func WithClock(now func() time.Time) AutoSchedulerOption {
	return func(s *AutoScheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSeed makes token shuffling reproducible.
func WithSeed(seed int64) AutoSchedulerOption {
	return func(s *AutoScheduler) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithPlacementIDs overrides placement id generation.
func WithPlacementIDs(newID func() string) AutoSchedulerOption {
	return func(s *AutoScheduler) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithSchedulerLogger attaches a logger.
func WithSchedulerLogger(logger *zap.Logger) AutoSchedulerOption {
	return func(s *AutoScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// AutoScheduler fills an empty grid from the lesson list using MRV backtracking passes and a
// greedy fallback.
type AutoScheduler struct {
	strategy Strategy
	now      func() time.Time
	newID    func() string
	logger   *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAutoScheduler creates a scheduler running the given strategy.
func NewAutoScheduler(strategy Strategy, opts ...AutoSchedulerOption) *AutoScheduler {
	s := &AutoScheduler{
		strategy: append(Strategy(nil), strategy...),
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   zap.NewNop(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy returns the configured passes.
func (s *AutoScheduler) Strategy() Strategy {
	return append(Strategy(nil), s.strategy...)
}

type lessonGroup struct {
	lesson  models.Lesson
	pending int
}

type option struct {
	day     int
	period  int
	penalty float64
}

// AutoSchedule solves from scratch. It never fails: whatever cannot be placed is reported
// through UnplacedCount.
func (s *AutoScheduler) AutoSchedule(catalog Catalog, lessons []models.Lesson, layout models.Layout) SolveResult {
	tokens := expandTokens(lessons)
	s.shuffle(tokens)

	result := SolveResult{
		Tokens:   len(tokens),
		Capacity: layout.Capacity(),
	}
	for _, lesson := range lessons {
		if lesson.Count > 0 {
			result.CellDemand += lesson.Count * len(lesson.Cohorts)
		}
	}
	if result.CellDemand > result.Capacity || result.Tokens > result.Capacity {
		result.CapacityWarning = true
		s.logger.Warn("timetable demand exceeds grid capacity",
			zap.Int("tokens", result.Tokens),
			zap.Int("cell_demand", result.CellDemand),
			zap.Int("capacity", result.Capacity),
		)
	}

	for _, pass := range s.strategy {
		start := s.now()
		search := &passSearch{
			catalog:  catalog,
			grid:     models.NewGrid(layout),
			soft:     pass.Soft,
			groups:   groupTokens(tokens),
			deadline: start.Add(pass.Budget),
			now:      s.now,
			newID:    s.newID,
		}
		for _, g := range search.groups {
			search.remaining += g.pending
		}
		ok := search.solve()
		outcome := PassOutcome{Name: pass.Name, Succeeded: ok, TimedOut: search.timedOut, Elapsed: s.now().Sub(start)}
		result.Passes = append(result.Passes, outcome)
		s.logger.Info("solver pass finished",
			zap.String("pass", pass.Name),
			zap.Bool("succeeded", ok),
			zap.Bool("timed_out", search.timedOut),
			zap.Duration("elapsed", outcome.Elapsed),
		)
		if ok {
			result.Grid = search.grid
			result.Phase = pass.Name
			break
		}
	}

	if result.Grid == nil {
		start := s.now()
		result.Grid = s.greedy(catalog, tokens, layout)
		result.Phase = PhaseGreedy
		result.Passes = append(result.Passes, PassOutcome{Name: PhaseGreedy, Succeeded: true, Elapsed: s.now().Sub(start)})
	}

	result.UnplacedCount = TotalRemaining(lessons, result.Grid)
	return result
}

func (s *AutoScheduler) shuffle(tokens []models.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(tokens), func(i, j int) {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	})
}

// greedy commits each token to its cheapest legal column, in order, with soft terms off.
func (s *AutoScheduler) greedy(catalog Catalog, tokens []models.Lesson, layout models.Layout) *models.Grid {
	grid := models.NewGrid(layout)
	soft := RelaxedSoft()
	for _, lesson := range tokens {
		options := legalOptions(catalog, lesson, grid, nil)
		if len(options) == 0 {
			continue
		}
		best := options[0]
		best.penalty = Penalty(lesson, best.day, best.period, grid, soft)
		for _, opt := range options[1:] {
			opt.penalty = Penalty(lesson, opt.day, opt.period, grid, soft)
			if opt.penalty < best.penalty {
				best = opt
			}
		}
		_ = grid.Place(models.NewPlacement(s.newID(), lesson, best.day, best.period))
	}
	return grid
}

func expandTokens(lessons []models.Lesson) []models.Lesson {
	var tokens []models.Lesson
	for _, lesson := range lessons {
		for i := 0; i < lesson.Count; i++ {
			tokens = append(tokens, lesson)
		}
	}
	return tokens
}

// groupTokens collapses interchangeable tokens per lesson, keeping first-seen order.
func groupTokens(tokens []models.Lesson) []*lessonGroup {
	byID := make(map[string]*lessonGroup)
	var groups []*lessonGroup
	for _, lesson := range tokens {
		g, ok := byID[lesson.ID]
		if !ok {
			g = &lessonGroup{lesson: lesson}
			byID[lesson.ID] = g
			groups = append(groups, g)
		}
		g.pending++
	}
	return groups
}

// legalOptions lists every column where the lesson is legal. A non-nil expired stops early.
func legalOptions(catalog Catalog, lesson models.Lesson, grid *models.Grid, expired func() bool) []option {
	var options []option
	for day := 0; day < grid.Days(); day++ {
		for period := 0; period < grid.Slots(); period++ {
			if Legal(catalog, lesson, day, period, grid) {
				options = append(options, option{day: day, period: period})
			}
		}
		if expired != nil && expired() {
			return options
		}
	}
	return options
}

type passSearch struct {
	catalog   Catalog
	grid      *models.Grid
	soft      SoftConstraints
	groups    []*lessonGroup
	remaining int
	deadline  time.Time
	now       func() time.Time
	newID     func() string
	timedOut  bool
}

func (p *passSearch) expired() bool {
	if p.timedOut {
		return true
	}
	if p.now().After(p.deadline) {
		p.timedOut = true
	}
	return p.timedOut
}

func (p *passSearch) solve() bool {
	if p.expired() {
		return false
	}
	if p.remaining == 0 {
		return true
	}

	group, options := p.mostConstrained()
	if group == nil {
		return false
	}
	for i := range options {
		options[i].penalty = Penalty(group.lesson, options[i].day, options[i].period, p.grid, p.soft)
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].penalty < options[j].penalty })

	for _, opt := range options {
		if p.expired() {
			return false
		}
		placement := models.NewPlacement(p.newID(), group.lesson, opt.day, opt.period)
		if err := p.grid.Place(placement); err != nil {
			continue
		}
		group.pending--
		p.remaining--
		if p.solve() {
			return true
		}
		p.grid.Remove(placement.ID)
		group.pending++
		p.remaining++
		if p.timedOut {
			return false
		}
	}
	return false
}

// mostConstrained picks the pending lesson with the fewest legal columns. It returns nil when
// any pending lesson has none, or when the deadline passes.
func (p *passSearch) mostConstrained() (*lessonGroup, []option) {
	var (
		best        *lessonGroup
		bestOptions []option
	)
	for _, g := range p.groups {
		if g.pending == 0 {
			continue
		}
		options := legalOptions(p.catalog, g.lesson, p.grid, p.expired)
		if p.timedOut {
			return nil, nil
		}
		if len(options) == 0 {
			return nil, nil
		}
		if best == nil || len(options) < len(bestOptions) {
			best, bestOptions = g, options
		}
	}
	return best, bestOptions
}
