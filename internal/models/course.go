// ABOUTME: Course and Lesson represent one ingested course document
// ABOUTME: Title is the identity key shared by the catalog and content indexes
package models

import (
	"errors"
	"strings"
)

// Lesson is a numbered section of a course
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Course is the parsed header and lesson list of a course document
type Course struct {
	Title      string   `json:"title"`
	CourseLink string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Validate checks the course identity and lesson numbering
func (c *Course) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("course title cannot be empty")
	}
	seen := make(map[int]struct{}, len(c.Lessons))
	for _, l := range c.Lessons {
		if l.Number < 0 {
			return errors.New("lesson number cannot be negative")
		}
		if _, dup := seen[l.Number]; dup {
			return errors.New("duplicate lesson number")
		}
		seen[l.Number] = struct{}{}
	}
	return nil
}

// Lesson returns the lesson with the given number
func (c *Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// LessonCount returns the number of lessons in the course
func (c *Course) LessonCount() int {
	return len(c.Lessons)
}
