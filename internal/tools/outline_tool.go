// ABOUTME: get_course_outline returns a course's title, link, instructor and lesson list
// ABOUTME: The course name is resolved with the same acceptance policy as search
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/coursemate/internal/llm"
	"github.com/harper/coursemate/internal/models"
)

// OutlineToolName is the name the model calls the outline tool by
const OutlineToolName = "get_course_outline"

// OutlineParams are the decoded arguments of get_course_outline
type OutlineParams struct {
	CourseName string `json:"course_name"`
}

// CourseOutlineTool describes the structure of one course
type CourseOutlineTool struct {
	index CourseIndex
}

// NewCourseOutlineTool creates the outline tool over an index
func NewCourseOutlineTool(index CourseIndex) *CourseOutlineTool {
	return &CourseOutlineTool{index: index}
}

func (t *CourseOutlineTool) tool() {}

// Definition returns the schema offered to the model
func (t *CourseOutlineTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        OutlineToolName,
		Description: "Get a course outline: title, course link, instructor and the numbered list of lessons",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			"required": []string{"course_name"},
		},
	}
}

// Execute decodes the arguments and runs Outline
func (t *CourseOutlineTool) Execute(ctx context.Context, arguments string) (Result, error) {
	var params OutlineParams
	if err := decodeArguments(OutlineToolName, arguments, &params); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(params.CourseName) == "" {
		return Result{}, fmt.Errorf("invalid arguments for %s: course_name is required", OutlineToolName)
	}
	return t.Outline(ctx, params), nil
}

// Outline resolves the course and formats its lessons
func (t *CourseOutlineTool) Outline(ctx context.Context, params OutlineParams) Result {
	course, err := t.index.CourseOutline(ctx, params.CourseName)
	if errors.Is(err, models.ErrCourseNotFound) {
		return Result{Text: fmt.Sprintf("No course found matching '%s'", params.CourseName)}
	}
	if err != nil {
		return Result{Text: fmt.Sprintf("Outline error: %v", err)}
	}

	return Result{
		Text:    FormatOutline(course),
		Sources: []models.Source{models.NewSource(course.Title, course.CourseLink)},
	}
}

// FormatOutline renders a course as the outline text the model receives
func FormatOutline(course *models.Course) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course Title: %s\n", course.Title)
	if course.CourseLink != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.CourseLink)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Course Instructor: %s\n", course.Instructor)
	}
	fmt.Fprintf(&b, "\nLessons (%d total):\n", len(course.Lessons))
	for _, l := range course.Lessons {
		fmt.Fprintf(&b, "Lesson %d: %s\n", l.Number, l.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}
