package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const validFixture = `
layout:
  days: [Mon, Tue]
  periods: 3
  cohorts: [Y7, Y8]
subjects:
  - id: form
    name: Form Time
    category: FORM
  - id: maths
    name: Mathematics
    default_count: 3
teachers:
  - id: t1
    name: Ada Lovelace
    code: ALE
    availability:
      Mon: [true, false]
rooms:
  - id: r1
    name: G-101
lessons:
  - id: maths-y7y8
    cohorts: [Y7, Y8]
    subject_id: maths
    teacher_id: t1
    room_id: r1
    count: 2
`

func TestParseValidFixture(t *testing.T) {
	f, err := Parse([]byte(validFixture))
	require.NoError(t, err)

	assert.Equal(t, 4, f.Layout.Slots())
	subject, ok := f.Subject("maths")
	require.True(t, ok)
	assert.Equal(t, models.SubjectCategoryStandard, subject.Category)

	teacher, ok := f.Teacher("t1")
	require.True(t, ok)
	assert.False(t, teacher.AvailableAt("Mon", 1))
	assert.True(t, teacher.AvailableAt("Mon", 3))
	assert.True(t, teacher.AvailableAt("Tue", 1))

	_, ok = f.Room("r1")
	assert.True(t, ok)
}

func TestParseAggregatesErrors(t *testing.T) {
	_, err := Parse([]byte(`
layout:
  days: [Mon]
  periods: 2
  cohorts: [Y7]
subjects:
  - id: maths
    name: Mathematics
  - id: maths
    name: Again
lessons:
  - id: l1
    cohorts: [Y7, Y12]
    subject_id: history
    teacher_id: ghost
    count: 1
`))
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 4)
	assert.Contains(t, err.Error(), "duplicate id")
	assert.Contains(t, err.Error(), `unknown subject "history"`)
	assert.Contains(t, err.Error(), `unknown teacher "ghost"`)
	assert.Contains(t, err.Error(), "unknown cohorts Y12")
}

func TestParseRejectsUnknownFieldsAndEmpty(t *testing.T) {
	_, err := Parse([]byte("layout:\n  days: [Mon]\n  periods: 1\n  cohorts: [Y7]\nteachers_typo: []\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("   \n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "week.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validFixture), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Lessons, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadKeepsProblemsSeparate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	body := "layout:\n  days: [Mon]\n  periods: 1\n  cohorts: [Y7]\nlessons:\n" +
		"  - id: a\n    cohorts: [Y9]\n    subject_id: x\n    count: 1\n" +
		"  - id: b\n    cohorts: [Y7]\n    subject_id: y\n    count: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	for _, e := range errs {
		assert.Contains(t, e.Error(), path)
	}
}
