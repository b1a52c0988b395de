package models

// SubjectCategory distinguishes form/registration subjects from taught lessons.
type SubjectCategory string

const (
	// SubjectCategoryForm may only occupy slot 0.
	SubjectCategoryForm SubjectCategory = "FORM"
	// SubjectCategoryStandard may only occupy slots 1..periods.
	SubjectCategoryStandard SubjectCategory = "STANDARD"
)

// Subject represents a taught subject.
type Subject struct {
	ID               string          `json:"id" yaml:"id"`
	Name             string          `json:"name" yaml:"name" validate:"required"`
	Color            string          `json:"color,omitempty" yaml:"color"`
	DefaultCount     int             `json:"default_count" yaml:"default_count" validate:"min=0,max=50"`
	MergeableCohorts []string        `json:"mergeable_cohorts,omitempty" yaml:"mergeable_cohorts"`
	Category         SubjectCategory `json:"category" yaml:"category" validate:"omitempty,oneof=FORM STANDARD"`
}

// IsForm reports whether the subject is confined to the form slot.
func (s Subject) IsForm() bool {
	return s.Category == SubjectCategoryForm
}

// AllowsMerge reports whether every cohort may share one session of this subject.
// An empty mergeable list leaves merging unrestricted.
func (s Subject) AllowsMerge(cohorts []string) bool {
	if len(s.MergeableCohorts) == 0 {
		return true
	}
	allowed := make(map[string]struct{}, len(s.MergeableCohorts))
	for _, cohort := range s.MergeableCohorts {
		allowed[cohort] = struct{}{}
	}
	for _, cohort := range cohorts {
		if _, ok := allowed[cohort]; !ok {
			return false
		}
	}
	return true
}
