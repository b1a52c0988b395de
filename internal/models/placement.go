package models

// Placement is one realised session of a lesson. A merged placement occupies the same
// (day, period) in every cohort row it lists and is only ever written or cleared as a whole.
type Placement struct {
	ID        string   `json:"placement_id" yaml:"placement_id"`
	LessonID  string   `json:"lesson_id" yaml:"lesson_id"`
	SubjectID string   `json:"subject_id" yaml:"subject_id"`
	TeacherID string   `json:"teacher_id,omitempty" yaml:"teacher_id"`
	RoomID    string   `json:"room_id,omitempty" yaml:"room_id"`
	Cohorts   []string `json:"cohorts" yaml:"cohorts"`
	Day       int      `json:"day" yaml:"day"`
	Period    int      `json:"period" yaml:"period"`
}

// NewPlacement builds a placement for a lesson at a column.
func NewPlacement(id string, lesson Lesson, day, period int) *Placement {
	return &Placement{
		ID:        id,
		LessonID:  lesson.ID,
		SubjectID: lesson.SubjectID,
		TeacherID: lesson.TeacherID,
		RoomID:    lesson.RoomID,
		Cohorts:   append([]string(nil), lesson.Cohorts...),
		Day:       day,
		Period:    period,
	}
}

// Merged reports whether the placement spans several cohort rows.
func (p *Placement) Merged() bool {
	return len(p.Cohorts) > 1
}

// Clone returns a detached copy.
func (p *Placement) Clone() *Placement {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Cohorts = append([]string(nil), p.Cohorts...)
	return &clone
}
