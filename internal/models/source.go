// ABOUTME: Source is a citation record shown next to an answer
// ABOUTME: Link is null when neither a lesson nor a course link is known
package models

// Source attributes an answer fragment to a retrieved chunk or course
type Source struct {
	Label string  `json:"label"`
	Link  *string `json:"link"`
}

// NewSource builds a Source, leaving Link nil for an empty link
func NewSource(label, link string) Source {
	s := Source{Label: label}
	if link != "" {
		s.Link = &link
	}
	return s
}

// LinkOrEmpty returns the link or an empty string
func (s Source) LinkOrEmpty() string {
	if s.Link == nil {
		return ""
	}
	return *s.Link
}
