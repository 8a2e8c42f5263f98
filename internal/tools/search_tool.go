// ABOUTME: search_course_content runs a filtered semantic search over course chunks
// ABOUTME: Results are labelled blocks; every block yields a source with the best known link
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/coursemate/internal/llm"
	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/storage"
)

// SearchToolName is the name the model calls the search tool by
const SearchToolName = "search_course_content"

// SearchParams are the decoded arguments of search_course_content
type SearchParams struct {
	Query        string `json:"query"`
	CourseName   string `json:"course_name,omitempty"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
}

// Validate checks the arguments the model sent
func (p SearchParams) Validate() error {
	if strings.TrimSpace(p.Query) == "" {
		return errors.New("query is required")
	}
	if p.LessonNumber != nil && *p.LessonNumber < 0 {
		return fmt.Errorf("lesson_number must not be negative, got %d", *p.LessonNumber)
	}
	return nil
}

// CourseSearchTool searches course content
type CourseSearchTool struct {
	index CourseIndex
}

// NewCourseSearchTool creates the search tool over an index
func NewCourseSearchTool(index CourseIndex) *CourseSearchTool {
	return &CourseSearchTool{index: index}
}

func (t *CourseSearchTool) tool() {}

// Definition returns the schema offered to the model
func (t *CourseSearchTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Execute decodes the arguments and runs Search
func (t *CourseSearchTool) Execute(ctx context.Context, arguments string) (Result, error) {
	var params SearchParams
	if err := decodeArguments(SearchToolName, arguments, &params); err != nil {
		return Result{}, err
	}
	if err := params.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid arguments for %s: %w", SearchToolName, err)
	}
	return t.Search(ctx, params), nil
}

// Search runs the query and formats the hits for the model
func (t *CourseSearchTool) Search(ctx context.Context, params SearchParams) Result {
	results := t.index.Search(ctx, storage.SearchQuery{
		Query:        params.Query,
		CourseName:   params.CourseName,
		LessonNumber: params.LessonNumber,
	})
	if results.Failed() {
		return Result{Text: results.Error}
	}
	if results.IsEmpty() {
		return Result{Text: emptyMessage(params)}
	}

	courses := make(map[string]*models.Course)
	blocks := make([]string, 0, len(results.Hits))
	sources := make([]models.Source, 0, len(results.Hits))
	for _, hit := range results.Hits {
		label := hitLabel(hit.Metadata)
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, hit.Document))
		sources = append(sources, models.NewSource(label, t.hitLink(ctx, courses, hit.Metadata)))
	}

	return Result{Text: strings.Join(blocks, "\n\n"), Sources: sources}
}

func emptyMessage(params SearchParams) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if params.CourseName != "" {
		fmt.Fprintf(&b, " in course '%s'", params.CourseName)
	}
	if params.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *params.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

func hitLabel(meta models.ChunkMetadata) string {
	if meta.LessonNumber == nil {
		return meta.CourseTitle
	}
	return fmt.Sprintf("%s - Lesson %d", meta.CourseTitle, *meta.LessonNumber)
}

// hitLink prefers the lesson link and falls back to the course link
func (t *CourseSearchTool) hitLink(ctx context.Context, cache map[string]*models.Course, meta models.ChunkMetadata) string {
	course, seen := cache[meta.CourseTitle]
	if !seen {
		course, _ = t.index.Course(ctx, meta.CourseTitle)
		cache[meta.CourseTitle] = course
	}
	if course == nil {
		return ""
	}
	if meta.LessonNumber != nil {
		if lesson, ok := course.Lesson(*meta.LessonNumber); ok && lesson.Link != "" {
			return lesson.Link
		}
	}
	return course.CourseLink
}
