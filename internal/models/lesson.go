package models

const (
	// MinLessonCount and MaxLessonCount bound the weekly sessions of a lesson.
	MinLessonCount = 1
	MaxLessonCount = 50
)

// Lesson is a recurring teaching requirement: Count joint sessions per week for every cohort listed.
type Lesson struct {
	ID        string   `json:"id" yaml:"id"`
	Cohorts   []string `json:"cohorts" yaml:"cohorts" validate:"required,min=1,unique,dive,required"`
	SubjectID string   `json:"subject_id" yaml:"subject_id" validate:"required"`
	TeacherID string   `json:"teacher_id,omitempty" yaml:"teacher_id"`
	RoomID    string   `json:"room_id,omitempty" yaml:"room_id"`
	Count     int      `json:"count" yaml:"count" validate:"min=1,max=50"`
}

// Merged reports whether the lesson spans several cohorts.
func (l Lesson) Merged() bool {
	return len(l.Cohorts) > 1
}

// SameAs reports whether two lessons describe the same requirement regardless of id and count.
func (l Lesson) SameAs(other Lesson) bool {
	if l.SubjectID != other.SubjectID || l.TeacherID != other.TeacherID || l.RoomID != other.RoomID {
		return false
	}
	if len(l.Cohorts) != len(other.Cohorts) {
		return false
	}
	seen := make(map[string]struct{}, len(l.Cohorts))
	for _, cohort := range l.Cohorts {
		seen[cohort] = struct{}{}
	}
	for _, cohort := range other.Cohorts {
		if _, ok := seen[cohort]; !ok {
			return false
		}
	}
	return true
}

// ClampCount keeps a weekly count within the supported range.
func ClampCount(count int) int {
	if count < MinLessonCount {
		return MinLessonCount
	}
	if count > MaxLessonCount {
		return MaxLessonCount
	}
	return count
}
