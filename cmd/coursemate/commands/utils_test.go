// ABOUTME: Tests for shared utility functions used by CLI commands
// ABOUTME: Verifies truncate, whitespace collapsing, validation and source output

package commands

import (
	"bytes"
	"testing"

	"github.com/harper/coursemate/internal/models"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"very short maxLen", "hello", 2, "he"},
		{"maxLen equals 3", "hello", 3, "hel"},
		{"empty string", "", 5, ""},
		{"multibyte runes", "héllo wörld", 8, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"one two", "one two"},
		{"  lead\n\ntrail  ", "lead trail"},
		{"a\tb\r\nc", "a b c"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := collapseWhitespace(tt.input); got != tt.want {
			t.Errorf("collapseWhitespace(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidatePositiveInt(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{1, false},
		{10, false},
		{0, true},
		{-1, true},
	}

	for _, tt := range tests {
		err := validatePositiveInt(tt.n, "limit")
		if (err != nil) != tt.wantErr {
			t.Errorf("validatePositiveInt(%d) error = %v, wantErr %v", tt.n, err, tt.wantErr)
		}
	}
}

func TestWriteSources(t *testing.T) {
	var out bytes.Buffer
	writeSources(&out, []models.Source{
		models.NewSource("Intro to Testing - Lesson 0", "https://example.com/testing/0"),
		models.NewSource("Intro to Testing", ""),
	})

	want := "\nSources:\n  1. Intro to Testing - Lesson 0 <https://example.com/testing/0>\n  2. Intro to Testing\n"
	if out.String() != want {
		t.Errorf("writeSources() = %q, want %q", out.String(), want)
	}

	out.Reset()
	writeSources(&out, nil)
	if out.Len() != 0 {
		t.Errorf("expected no output for empty sources, got %q", out.String())
	}
}
