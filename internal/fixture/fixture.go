// Package fixture loads timetable problems from YAML files for the offline solver.
package fixture

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Fixture is a complete scheduling problem.
type Fixture struct {
	Layout   models.Layout    `yaml:"layout"`
	Subjects []models.Subject `yaml:"subjects"`
	Teachers []models.Teacher `yaml:"teachers"`
	Rooms    []models.Room    `yaml:"rooms"`
	Lessons  []models.Lesson  `yaml:"lessons"`
}

// Parse decodes and validates a fixture.
func Parse(data []byte) (*Fixture, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("fixture: payload is empty")
	}
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("fixture: decode: %w", err)
	}
	f.normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads a fixture file. Validation problems come back as a multierr group, one error
// per problem.
func Load(path string) (*Fixture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	f, err := Parse(content)
	if err != nil {
		// Prefix each problem so callers can still split the group with multierr.Errors.
		var errs error
		for _, e := range multierr.Errors(err) {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, e))
		}
		return nil, errs
	}
	return f, nil
}

func (f *Fixture) normalize() {
	for i := range f.Subjects {
		if f.Subjects[i].Category == "" {
			f.Subjects[i].Category = models.SubjectCategoryStandard
		}
	}
	for i := range f.Teachers {
		f.Teachers[i].Availability = models.NormalizeAvailability(f.Teachers[i].Availability, f.Layout.Days, f.Layout.Slots())
	}
}

// Validate reports every problem in the fixture at once.
func (f *Fixture) Validate() error {
	v := validator.New()
	var errs error
	if err := v.Struct(f.Layout); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("layout: %w", err))
	} else if err := f.Layout.Check(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("layout: %w", err))
	}

	subjects := make(map[string]struct{}, len(f.Subjects))
	for i, s := range f.Subjects {
		errs = multierr.Append(errs, entity(v, "subject", i, s.ID, s, subjects))
	}
	teachers := make(map[string]struct{}, len(f.Teachers))
	for i, t := range f.Teachers {
		errs = multierr.Append(errs, entity(v, "teacher", i, t.ID, t, teachers))
	}
	rooms := make(map[string]struct{}, len(f.Rooms))
	for i, r := range f.Rooms {
		errs = multierr.Append(errs, entity(v, "room", i, r.ID, r, rooms))
	}

	lessons := make(map[string]struct{}, len(f.Lessons))
	for i, l := range f.Lessons {
		errs = multierr.Append(errs, entity(v, "lesson", i, l.ID, l, lessons))
		if _, ok := subjects[l.SubjectID]; !ok && l.SubjectID != "" {
			errs = multierr.Append(errs, fmt.Errorf("lesson %s: unknown subject %q", l.ID, l.SubjectID))
		}
		if _, ok := teachers[l.TeacherID]; !ok && l.TeacherID != "" {
			errs = multierr.Append(errs, fmt.Errorf("lesson %s: unknown teacher %q", l.ID, l.TeacherID))
		}
		if _, ok := rooms[l.RoomID]; !ok && l.RoomID != "" {
			errs = multierr.Append(errs, fmt.Errorf("lesson %s: unknown room %q", l.ID, l.RoomID))
		}
		var unknown []string
		for _, cohort := range l.Cohorts {
			if f.Layout.CohortIndex(cohort) < 0 {
				unknown = append(unknown, cohort)
			}
		}
		if len(unknown) > 0 {
			errs = multierr.Append(errs, fmt.Errorf("lesson %s: unknown cohorts %s", l.ID, strings.Join(unknown, ", ")))
		}
	}
	return errs
}

func entity(v *validator.Validate, kind string, index int, id string, value interface{}, seen map[string]struct{}) error {
	var errs error
	if id == "" {
		errs = multierr.Append(errs, fmt.Errorf("%s #%d: id is required", kind, index+1))
	} else if _, dup := seen[id]; dup {
		errs = multierr.Append(errs, fmt.Errorf("%s %s: duplicate id", kind, id))
	} else {
		seen[id] = struct{}{}
	}
	if err := v.Struct(value); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%s %s: %w", kind, id, err))
	}
	return errs
}

// Subject implements the solver catalog.
func (f *Fixture) Subject(id string) (models.Subject, bool) {
	for _, s := range f.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return models.Subject{}, false
}

// Teacher implements the solver catalog.
func (f *Fixture) Teacher(id string) (models.Teacher, bool) {
	for _, t := range f.Teachers {
		if t.ID == id {
			return t, true
		}
	}
	return models.Teacher{}, false
}

// Room looks up a room by id.
func (f *Fixture) Room(id string) (models.Room, bool) {
	for _, r := range f.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return models.Room{}, false
}
