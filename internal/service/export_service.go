package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ParseExportFormat accepts csv or pdf, defaulting to csv.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// ExportSource is the read-only state an export is built from.
type ExportSource interface {
	Layout() models.Layout
	Grid() *models.Grid
	Subject(id string) (models.Subject, bool)
	Teacher(id string) (models.Teacher, bool)
	Room(id string) (models.Room, bool)
}

// ExportDocument is a rendered export ready to stream.
type ExportDocument struct {
	Filename    string
	ContentType string
	Payload     []byte
	Cached      bool
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	RenderGrid(title string, sheets []export.GridSheet) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	CacheTTL time.Duration
}

// ExportService renders the timetable as CSV rows or a PDF with one page per cohort. Rendered
// files are cached per grid revision.
type ExportService struct {
	cache    *CacheService
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	cfg      ExportConfig
	instance string
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(cache *CacheService, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		cache:    cache,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		cfg:      cfg,
		instance: uuid.NewString(),
		now:      time.Now,
	}
}

// exportKeyPrefix scopes cached exports to this process, since revisions restart at zero.
func (s *ExportService) exportKeyPrefix() string {
	return "timetable:export:" + s.instance + ":"
}

func (s *ExportService) cacheKey(revision uint64, format ExportFormat) string {
	return fmt.Sprintf("%s%d:%s", s.exportKeyPrefix(), revision, format)
}

// Export renders the source, reusing a cached file for the same revision and format. view
// must call its argument under a read lock so the revision and the rendered state agree.
func (s *ExportService) Export(ctx context.Context, format ExportFormat, view func(func(uint64, ExportSource) error) error) (*ExportDocument, error) {
	doc := &ExportDocument{
		Filename:    fmt.Sprintf("timetable-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: contentType(format),
	}
	var key string
	err := view(func(revision uint64, src ExportSource) error {
		key = s.cacheKey(revision, format)
		if payload, ok := s.cache.Get(ctx, key); ok {
			doc.Payload = payload
			doc.Cached = true
			return nil
		}
		var err error
		switch format {
		case ExportFormatPDF:
			doc.Payload, err = s.pdf.RenderGrid("Timetable", TimetableSheets(src))
		default:
			doc.Payload, err = s.csv.Render(TimetableDataset(src))
		}
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	if doc.Cached {
		return doc, nil
	}

	if err := s.cache.Set(ctx, key, doc.Payload, s.cfg.CacheTTL); err == nil && s.cache.Enabled() {
		s.logger.Debug("export cached", zap.String("key", key), zap.Int("bytes", len(doc.Payload)))
	}
	return doc, nil
}

// Purge drops every cached export written by this process.
func (s *ExportService) Purge(ctx context.Context) error {
	return s.cache.Invalidate(ctx, s.exportKeyPrefix()+"*")
}

func contentType(format ExportFormat) string {
	if format == ExportFormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

var exportHeaders = []string{
	"Lesson ID", "Teacher ID", "Teacher", "Subject ID", "Subject",
	"Room", "Cohort", "Day", "Period", "Merged Cohorts",
}

// TimetableDataset flattens the grid to one row per placement and cohort, ordered by day,
// period and cohort.
func TimetableDataset(src ExportSource) export.Dataset {
	grid := src.Grid()
	layout := src.Layout()
	data := export.Dataset{Headers: exportHeaders}
	for day := 0; day < len(layout.Days); day++ {
		for period := 0; period < layout.Slots(); period++ {
			for _, cohort := range layout.Cohorts {
				p := grid.Cell(cohort, day, period)
				if p == nil {
					continue
				}
				subject, _ := src.Subject(p.SubjectID)
				teacher, _ := src.Teacher(p.TeacherID)
				room, _ := src.Room(p.RoomID)
				merged := ""
				if p.Merged() {
					merged = strings.Join(p.Cohorts, " + ")
				}
				data.Rows = append(data.Rows, []string{
					p.LessonID, p.TeacherID, teacher.Name, p.SubjectID, subject.Name,
					room.Name, cohort, layout.DayName(day), models.PeriodLabel(period), merged,
				})
			}
		}
	}
	return data
}

// TimetableSheets lays the grid out as one sheet per cohort.
func TimetableSheets(src ExportSource) []export.GridSheet {
	grid := src.Grid()
	layout := src.Layout()
	rows := make([]string, layout.Slots())
	for period := range rows {
		rows[period] = models.PeriodLabel(period)
	}

	sheets := make([]export.GridSheet, 0, len(layout.Cohorts))
	for _, cohort := range layout.Cohorts {
		sheet := export.GridSheet{Title: cohort, Columns: layout.Days, Rows: rows}
		sheet.Cells = make([][]string, layout.Slots())
		for period := range sheet.Cells {
			sheet.Cells[period] = make([]string, len(layout.Days))
			for day := range sheet.Cells[period] {
				if p := grid.Cell(cohort, day, period); p != nil {
					sheet.Cells[period][day] = cellLabel(src, p)
				}
			}
		}
		sheets = append(sheets, sheet)
	}
	return sheets
}

func cellLabel(src ExportSource, p *models.Placement) string {
	parts := []string{}
	if subject, ok := src.Subject(p.SubjectID); ok {
		parts = append(parts, subject.Name)
	}
	if teacher, ok := src.Teacher(p.TeacherID); ok {
		label := teacher.Code
		if label == "" {
			label = teacher.Name
		}
		parts = append(parts, label)
	}
	if room, ok := src.Room(p.RoomID); ok {
		parts = append(parts, room.Name)
	}
	if p.Merged() {
		parts = append(parts, strings.Join(p.Cohorts, "+"))
	}
	return strings.Join(parts, "\n")
}
