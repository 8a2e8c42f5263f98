// ABOUTME: Tests for course, chunk, exchange and source models
// ABOUTME: Verifies validation, id formatting and history trimming
package models

import (
	"strings"
	"testing"
)

func TestCourse_Validate(t *testing.T) {
	tests := []struct {
		name    string
		course  Course
		wantErr string
	}{
		{
			name:   "valid course",
			course: Course{Title: "Intro to Testing", Lessons: []Lesson{{Number: 0, Title: "Basics"}, {Number: 2, Title: "Mocks"}}},
		},
		{
			name:    "empty title",
			course:  Course{Title: "  "},
			wantErr: "course title cannot be empty",
		},
		{
			name:    "duplicate lesson number",
			course:  Course{Title: "X", Lessons: []Lesson{{Number: 1}, {Number: 1}}},
			wantErr: "duplicate lesson number",
		},
		{
			name:    "negative lesson number",
			course:  Course{Title: "X", Lessons: []Lesson{{Number: -1}}},
			wantErr: "lesson number cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.course.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCourse_Lesson(t *testing.T) {
	c := Course{Title: "X", Lessons: []Lesson{{Number: 3, Title: "Three", Link: "https://x/3"}}}

	l, ok := c.Lesson(3)
	if !ok {
		t.Fatal("Lesson(3) not found")
	}
	if l.Link != "https://x/3" {
		t.Errorf("Link = %q, want https://x/3", l.Link)
	}
	if _, ok := c.Lesson(4); ok {
		t.Error("Lesson(4) should not exist")
	}
	if c.LessonCount() != 1 {
		t.Errorf("LessonCount() = %d, want 1", c.LessonCount())
	}
}

func TestChunkID(t *testing.T) {
	chunk := CourseChunk{CourseTitle: "Intro to Testing", ChunkIndex: 7}
	if got := chunk.ID(); got != "Intro to Testing_7" {
		t.Errorf("ID() = %q, want %q", got, "Intro to Testing_7")
	}
}

func TestNewTurn(t *testing.T) {
	turn, err := NewTurn("What is Go?", "A language.")
	if err != nil {
		t.Fatalf("NewTurn() error = %v", err)
	}
	if len(turn) != 2 {
		t.Fatalf("len(turn) = %d, want 2", len(turn))
	}
	if turn[0].Role != RoleUser || turn[1].Role != RoleAssistant {
		t.Errorf("roles = %s,%s, want user,assistant", turn[0].Role, turn[1].Role)
	}

	if _, err := NewTurn("   \t", "x"); err == nil {
		t.Error("NewTurn() with blank user message should fail")
	}
}

func TestTrimTurns(t *testing.T) {
	var history []Exchange
	for i := 0; i < 4; i++ {
		turn, _ := NewTurn(strings.Repeat("q", i+1), strings.Repeat("a", i+1))
		history = append(history, turn...)
	}

	tests := []struct {
		name      string
		maxTurns  int
		wantLen   int
		wantFirst string
	}{
		{"keep two turns", 2, 4, "qqq"},
		{"keep more than present", 10, 8, "q"},
		{"disabled", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimTurns(history, tt.maxTurns)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].Content != tt.wantFirst {
				t.Errorf("first = %q, want %q", got[0].Content, tt.wantFirst)
			}
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	if !RoleUser.IsValid() || !RoleAssistant.IsValid() {
		t.Error("user and assistant should be valid")
	}
	if Role("system").IsValid() {
		t.Error("system should not be a valid history role")
	}
}

func TestNewSource(t *testing.T) {
	s := NewSource("Intro - Lesson 1", "")
	if s.Link != nil {
		t.Errorf("Link = %v, want nil", *s.Link)
	}
	s = NewSource("Intro", "https://example.com")
	if s.LinkOrEmpty() != "https://example.com" {
		t.Errorf("LinkOrEmpty() = %q", s.LinkOrEmpty())
	}
}

func TestSearchResults_States(t *testing.T) {
	empty := SearchResults{}
	if !empty.IsEmpty() || empty.Failed() {
		t.Error("zero value should be empty without error")
	}
	failed := NewSearchError("boom")
	if !failed.IsEmpty() || !failed.Failed() {
		t.Error("error results should be empty and failed")
	}
}
