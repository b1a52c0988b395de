package models

// Teacher represents an instructor and the slots they can teach in.
type Teacher struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name" validate:"required"`
	Code         string            `json:"code" yaml:"code"`
	Availability map[string][]bool `json:"availability" yaml:"availability"`
	SubjectIDs   []string          `json:"subject_ids,omitempty" yaml:"subject_ids"`
}

// AvailableAt reports whether the teacher may teach in the given day/slot.
// Missing days or short rows count as unavailable.
func (t Teacher) AvailableAt(day string, slot int) bool {
	row, ok := t.Availability[day]
	if !ok || slot < 0 || slot >= len(row) {
		return false
	}
	return row[slot]
}

// FullAvailability builds an availability map with every slot open.
func FullAvailability(days []string, slots int) map[string][]bool {
	availability := make(map[string][]bool, len(days))
	for _, day := range days {
		row := make([]bool, slots)
		for i := range row {
			row[i] = true
		}
		availability[day] = row
	}
	return availability
}

// NormalizeAvailability pads or truncates rows to the layout, adding open rows for new days.
func NormalizeAvailability(availability map[string][]bool, days []string, slots int) map[string][]bool {
	normalized := make(map[string][]bool, len(days))
	for _, day := range days {
		row, ok := availability[day]
		fresh := make([]bool, slots)
		for i := range fresh {
			if ok && i < len(row) {
				fresh[i] = row[i]
			} else {
				fresh[i] = true
			}
		}
		normalized[day] = fresh
	}
	return normalized
}
