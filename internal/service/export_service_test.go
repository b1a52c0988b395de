package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type memoryCache struct {
	items map[string][]byte
	gets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.gets++
	payload, ok := m.items[key]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return payload, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.items[key] = value
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func exportState(t *testing.T) *repository.TimetableState {
	t.Helper()
	state := repository.NewTimetableState(models.Layout{Days: []string{"Mon", "Tue"}, Periods: 2, Cohorts: []string{"Y7", "Y8"}})
	state.PutSubject(models.Subject{ID: "maths", Name: "Mathematics"})
	state.PutTeacher(models.Teacher{ID: "t1", Name: "Ada Lovelace", Code: "ALE"})
	state.PutRoom(models.Room{ID: "r1", Name: "G-101"})
	lesson := models.Lesson{ID: "l1", Cohorts: []string{"Y7", "Y8"}, SubjectID: "maths", TeacherID: "t1", RoomID: "r1", Count: 1}
	state.PutLesson(lesson)
	require.NoError(t, state.Grid().Place(models.NewPlacement("p1", lesson, 1, 2)))
	return state
}

func TestTimetableDatasetRowPerCohort(t *testing.T) {
	data := TimetableDataset(exportState(t))

	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"l1", "t1", "Ada Lovelace", "maths", "Mathematics", "G-101", "Y7", "Tue", "P2", "Y7 + Y8"}, data.Rows[0])
	assert.Equal(t, "Y8", data.Rows[1][6])
}

func TestTimetableSheetsOnePerCohort(t *testing.T) {
	sheets := TimetableSheets(exportState(t))

	require.Len(t, sheets, 2)
	assert.Equal(t, []string{"Form", "P1", "P2"}, sheets[0].Rows)
	assert.Equal(t, "Mathematics\nALE\nG-101\nY7+Y8", sheets[0].Cells[2][1])
	assert.Empty(t, sheets[0].Cells[0][0])
}

func TestExportCachesPerRevision(t *testing.T) {
	cacheRepo := newMemoryCache()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewExportService(cache, ExportConfig{}, nil, nil, nil)
	state := exportState(t)

	revision := uint64(3)
	view := func(fn func(uint64, ExportSource) error) error {
		return fn(revision, state)
	}

	first, err := svc.Export(context.Background(), ExportFormatCSV, view)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "text/csv", first.ContentType)
	assert.True(t, strings.HasPrefix(string(first.Payload), "Lesson ID,"))

	second, err := svc.Export(context.Background(), ExportFormatCSV, view)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Payload, second.Payload)

	revision = 4
	third, err := svc.Export(context.Background(), ExportFormatCSV, view)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Len(t, cacheRepo.items, 2)

	require.NoError(t, svc.Purge(context.Background()))
	assert.Empty(t, cacheRepo.items)
}

func TestExportPDFWithoutCache(t *testing.T) {
	svc := NewExportService(NewCacheService(nil, nil, 0, nil, false), ExportConfig{}, nil, nil, nil)
	state := exportState(t)

	doc, err := svc.Export(context.Background(), ExportFormatPDF, func(fn func(uint64, ExportSource) error) error { return fn(1, state) })
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, strings.HasSuffix(doc.Filename, ".pdf"))
	assert.True(t, strings.HasPrefix(string(doc.Payload), "%PDF"))
}

func TestParseExportFormat(t *testing.T) {
	format, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatCSV, format)

	format, err = ParseExportFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatPDF, format)

	_, err = ParseExportFormat("xlsx")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
