// ABOUTME: Export of the indexed catalog for backup and review
// ABOUTME: Supports YAML and Markdown export formats
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportData represents the complete exportable catalog
type ExportData struct {
	Version    string         `yaml:"version" json:"version"`
	ExportedAt string         `yaml:"exported_at" json:"exported_at"`
	Tool       string         `yaml:"tool" json:"tool"`
	Courses    []ExportCourse `yaml:"courses" json:"courses"`
}

// ExportCourse represents one course for export
type ExportCourse struct {
	Title      string         `yaml:"title" json:"title"`
	CourseLink string         `yaml:"course_link,omitempty" json:"course_link,omitempty"`
	Instructor string         `yaml:"instructor,omitempty" json:"instructor,omitempty"`
	Chunks     int            `yaml:"chunks" json:"chunks"`
	Lessons    []ExportLesson `yaml:"lessons" json:"lessons"`
}

// ExportLesson represents a lesson for export
type ExportLesson struct {
	Number int    `yaml:"number" json:"number"`
	Title  string `yaml:"title" json:"title"`
	Link   string `yaml:"link,omitempty" json:"link,omitempty"`
}

// Export collects every course with its lessons and chunk count
func (s *VectorStore) Export(ctx context.Context) (*ExportData, error) {
	titles, err := s.CourseTitles(ctx)
	if err != nil {
		return nil, err
	}

	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "coursemate",
		Courses:    make([]ExportCourse, 0, len(titles)),
	}

	for _, title := range titles {
		course, err := s.Course(ctx, title)
		if err != nil {
			return nil, err
		}
		chunks, err := s.content.Count(ctx, title)
		if err != nil {
			return nil, fmt.Errorf("failed to count chunks of %q: %w", title, err)
		}

		exportCourse := ExportCourse{
			Title:      course.Title,
			CourseLink: course.CourseLink,
			Instructor: course.Instructor,
			Chunks:     chunks,
			Lessons:    make([]ExportLesson, 0, len(course.Lessons)),
		}
		for _, l := range course.Lessons {
			exportCourse.Lessons = append(exportCourse.Lessons, ExportLesson{Number: l.Number, Title: l.Title, Link: l.Link})
		}
		data.Courses = append(data.Courses, exportCourse)
	}

	return data, nil
}

// WriteYAML encodes data as YAML
func WriteYAML(w io.Writer, data *ExportData) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// WriteMarkdown renders data as a Markdown document
func WriteMarkdown(w io.Writer, data *ExportData) error {
	_, _ = fmt.Fprintf(w, "# Course Catalog Export\n\n")
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)

	if len(data.Courses) == 0 {
		_, err := fmt.Fprintln(w, "No courses indexed.")
		return err
	}

	for _, course := range data.Courses {
		_, _ = fmt.Fprintf(w, "## %s\n\n", course.Title)
		if course.CourseLink != "" {
			_, _ = fmt.Fprintf(w, "- **Link:** %s\n", course.CourseLink)
		}
		if course.Instructor != "" {
			_, _ = fmt.Fprintf(w, "- **Instructor:** %s\n", course.Instructor)
		}
		_, _ = fmt.Fprintf(w, "- **Chunks:** %d\n\n", course.Chunks)

		if len(course.Lessons) > 0 {
			_, _ = fmt.Fprintln(w, "| Lesson | Title | Link |")
			_, _ = fmt.Fprintln(w, "|--------|-------|------|")
			for _, l := range course.Lessons {
				_, _ = fmt.Fprintf(w, "| %d | %s | %s |\n", l.Number, l.Title, l.Link)
			}
			_, _ = fmt.Fprintln(w)
		}
	}

	_, err := fmt.Fprintln(w, "---")
	return err
}
