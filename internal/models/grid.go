package models

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrOutOfBounds is returned when a placement addresses a column or cohort outside the layout.
	ErrOutOfBounds = errors.New("placement outside grid")
	// ErrCellOccupied is returned when a target cell already holds a placement.
	ErrCellOccupied = errors.New("cell occupied")
	// ErrResourceBooked is returned when the teacher or room is already used in the column.
	ErrResourceBooked = errors.New("resource already booked")
	// ErrDuplicatePlacement is returned when the placement id is already on the grid.
	ErrDuplicatePlacement = errors.New("duplicate placement id")
)

type column struct {
	day    int
	period int
}

// Grid is the cohort × day × slot matrix. Every occupied cell points at a shared *Placement,
// and a per-column index tracks which teacher and room each placement holds.
type Grid struct {
	layout     Layout
	rows       map[string]int
	cells      [][][]*Placement
	placements map[string]*Placement
	teachers   map[column]map[string]string
	rooms      map[column]map[string]string
}

// NewGrid builds an empty grid for the layout.
func NewGrid(layout Layout) *Grid {
	g := &Grid{layout: layout.Clone()}
	g.init()
	return g
}

func (g *Grid) init() {
	slots := g.layout.Slots()
	g.rows = make(map[string]int, len(g.layout.Cohorts))
	g.cells = make([][][]*Placement, len(g.layout.Cohorts))
	for r, cohort := range g.layout.Cohorts {
		g.rows[cohort] = r
		g.cells[r] = make([][]*Placement, len(g.layout.Days))
		for d := range g.layout.Days {
			g.cells[r][d] = make([]*Placement, slots)
		}
	}
	g.placements = make(map[string]*Placement)
	g.teachers = make(map[column]map[string]string)
	g.rooms = make(map[column]map[string]string)
}

// Layout returns a copy of the grid's layout.
func (g *Grid) Layout() Layout {
	return g.layout.Clone()
}

// Days returns the number of days.
func (g *Grid) Days() int {
	return len(g.layout.Days)
}

// Slots returns the number of slots per day including the form slot.
func (g *Grid) Slots() int {
	return g.layout.Slots()
}

// DayName returns the configured name of a day index.
func (g *Grid) DayName(day int) string {
	return g.layout.DayName(day)
}

// InBounds reports whether (day, period) is a column of the grid.
func (g *Grid) InBounds(day, period int) bool {
	return g.layout.InBounds(day, period)
}

// Row returns the row index of a cohort.
func (g *Grid) Row(cohort string) (int, bool) {
	r, ok := g.rows[cohort]
	return r, ok
}

// At returns the placement in a cell addressed by row index, or nil.
func (g *Grid) At(row, day, period int) *Placement {
	if row < 0 || row >= len(g.cells) || !g.layout.InBounds(day, period) {
		return nil
	}
	return g.cells[row][day][period]
}

// Cell returns the placement in a cell addressed by cohort label, or nil.
func (g *Grid) Cell(cohort string, day, period int) *Placement {
	r, ok := g.rows[cohort]
	if !ok {
		return nil
	}
	return g.At(r, day, period)
}

// Placement looks up a placement by id.
func (g *Grid) Placement(id string) (*Placement, bool) {
	p, ok := g.placements[id]
	return p, ok
}

// Len returns the number of distinct placements.
func (g *Grid) Len() int {
	return len(g.placements)
}

// Placements returns every distinct placement ordered by day, period and first row.
func (g *Grid) Placements() []*Placement {
	out := make([]*Placement, 0, len(g.placements))
	for _, p := range g.placements {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		ra, rb := g.firstRow(a), g.firstRow(b)
		if ra != rb {
			return ra < rb
		}
		return a.ID < b.ID
	})
	return out
}

func (g *Grid) firstRow(p *Placement) int {
	first := len(g.layout.Cohorts)
	for _, cohort := range p.Cohorts {
		if r, ok := g.rows[cohort]; ok && r < first {
			first = r
		}
	}
	return first
}

// TeacherAt returns the placement id holding a teacher in a column.
func (g *Grid) TeacherAt(day, period int, teacherID string) (string, bool) {
	return lookup(g.teachers, column{day, period}, teacherID)
}

// RoomAt returns the placement id holding a room in a column.
func (g *Grid) RoomAt(day, period int, roomID string) (string, bool) {
	return lookup(g.rooms, column{day, period}, roomID)
}

func lookup(index map[column]map[string]string, col column, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	byKey, ok := index[col]
	if !ok {
		return "", false
	}
	id, ok := byKey[key]
	return id, ok
}

// Check reports why a placement could not be written as-is.
func (g *Grid) Check(p *Placement) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: missing placement id", ErrOutOfBounds)
	}
	if _, exists := g.placements[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlacement, p.ID)
	}
	if len(p.Cohorts) == 0 || !g.layout.InBounds(p.Day, p.Period) {
		return fmt.Errorf("%w: day %d period %d", ErrOutOfBounds, p.Day, p.Period)
	}
	for _, cohort := range p.Cohorts {
		r, ok := g.rows[cohort]
		if !ok {
			return fmt.Errorf("%w: cohort %s", ErrOutOfBounds, cohort)
		}
		if occupant := g.cells[r][p.Day][p.Period]; occupant != nil {
			return fmt.Errorf("%w: %s held by %s", ErrCellOccupied, cohort, occupant.ID)
		}
	}
	col := column{p.Day, p.Period}
	if id, ok := lookup(g.teachers, col, p.TeacherID); ok {
		return fmt.Errorf("%w: teacher %s held by %s", ErrResourceBooked, p.TeacherID, id)
	}
	if id, ok := lookup(g.rooms, col, p.RoomID); ok {
		return fmt.Errorf("%w: room %s held by %s", ErrResourceBooked, p.RoomID, id)
	}
	return nil
}

// Place writes a placement into every cohort row it lists. The grid is untouched on error.
func (g *Grid) Place(p *Placement) error {
	if err := g.Check(p); err != nil {
		return err
	}
	for _, cohort := range p.Cohorts {
		g.cells[g.rows[cohort]][p.Day][p.Period] = p
	}
	g.placements[p.ID] = p
	col := column{p.Day, p.Period}
	index(g.teachers, col, p.TeacherID, p.ID)
	index(g.rooms, col, p.RoomID, p.ID)
	return nil
}

func index(idx map[column]map[string]string, col column, key, id string) {
	if key == "" {
		return
	}
	byKey, ok := idx[col]
	if !ok {
		byKey = make(map[string]string)
		idx[col] = byKey
	}
	byKey[key] = id
}

func unindex(idx map[column]map[string]string, col column, key, id string) {
	byKey, ok := idx[col]
	if !ok || key == "" {
		return
	}
	if byKey[key] == id {
		delete(byKey, key)
	}
	if len(byKey) == 0 {
		delete(idx, col)
	}
}

// Remove clears every cell of a placement.
func (g *Grid) Remove(id string) (*Placement, bool) {
	p, ok := g.placements[id]
	if !ok {
		return nil, false
	}
	for _, cohort := range p.Cohorts {
		r := g.rows[cohort]
		if g.cells[r][p.Day][p.Period] == p {
			g.cells[r][p.Day][p.Period] = nil
		}
	}
	delete(g.placements, id)
	col := column{p.Day, p.Period}
	unindex(g.teachers, col, p.TeacherID, id)
	unindex(g.rooms, col, p.RoomID, id)
	return p, true
}

// RemoveWhere removes every placement matching the predicate and returns them.
func (g *Grid) RemoveWhere(match func(*Placement) bool) []*Placement {
	var removed []*Placement
	for _, p := range g.Placements() {
		if match(p) {
			g.Remove(p.ID)
			removed = append(removed, p)
		}
	}
	return removed
}

// Reset empties the grid keeping its layout.
func (g *Grid) Reset() {
	g.init()
}

// Reshape moves the grid onto a new layout. Placements whose cohorts, day and period all
// still exist are kept; the rest are dropped whole and returned.
func (g *Grid) Reshape(layout Layout) []*Placement {
	existing := g.Placements()
	g.layout = layout.Clone()
	g.init()

	var dropped []*Placement
	for _, p := range existing {
		if err := g.Place(p); err != nil {
			dropped = append(dropped, p)
		}
	}
	return dropped
}

// Clone returns a deep copy sharing no placements with the original.
func (g *Grid) Clone() *Grid {
	clone := NewGrid(g.layout)
	for _, p := range g.Placements() {
		_ = clone.Place(p.Clone())
	}
	return clone
}

// CellIDs renders the grid as [cohort][day][slot] placement ids, empty string for free cells.
func (g *Grid) CellIDs() [][][]string {
	out := make([][][]string, len(g.cells))
	for r := range g.cells {
		out[r] = make([][]string, len(g.cells[r]))
		for d := range g.cells[r] {
			out[r][d] = make([]string, len(g.cells[r][d]))
			for s, p := range g.cells[r][d] {
				if p != nil {
					out[r][d][s] = p.ID
				}
			}
		}
	}
	return out
}

// NormalizeCells pads or truncates a stored cell matrix to the given dimensions.
func NormalizeCells(cells [][][]string, cohorts, days, slots int) [][][]string {
	out := make([][][]string, cohorts)
	for r := 0; r < cohorts; r++ {
		out[r] = make([][]string, days)
		for d := 0; d < days; d++ {
			out[r][d] = make([]string, slots)
			if r >= len(cells) || d >= len(cells[r]) {
				continue
			}
			copy(out[r][d], cells[r][d])
		}
	}
	return out
}

// RestoreGrid rebuilds a grid from stored cells and placements. A placement is kept only
// when every cell it claims carries its id and it fits the layout; the ids of the rest
// are returned.
func RestoreGrid(layout Layout, cells [][][]string, placements []Placement) (*Grid, []string) {
	g := NewGrid(layout)
	normalized := NormalizeCells(cells, len(layout.Cohorts), len(layout.Days), layout.Slots())

	var dropped []string
	for i := range placements {
		p := placements[i].Clone()
		if !cellsAgree(g, normalized, p) {
			dropped = append(dropped, p.ID)
			continue
		}
		if err := g.Place(p); err != nil {
			dropped = append(dropped, p.ID)
		}
	}
	return g, dropped
}

func cellsAgree(g *Grid, cells [][][]string, p *Placement) bool {
	if len(p.Cohorts) == 0 || !g.layout.InBounds(p.Day, p.Period) {
		return false
	}
	for _, cohort := range p.Cohorts {
		r, ok := g.rows[cohort]
		if !ok || cells[r][p.Day][p.Period] != p.ID {
			return false
		}
	}
	return true
}
