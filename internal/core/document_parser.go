// ABOUTME: DocumentParser turns a course text file into a Course and its chunks
// ABOUTME: Reads the Course Title/Link/Instructor header, then Lesson N: markers with optional Lesson Link
package core

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/harper/coursemate/internal/models"
)

var (
	courseTitlePattern      = regexp.MustCompile(`(?i)^course\s+title:\s*(.*)$`)
	courseLinkPattern       = regexp.MustCompile(`(?i)^course\s+link:\s*(.*)$`)
	courseInstructorPattern = regexp.MustCompile(`(?i)^course\s+instructor:\s*(.*)$`)
	lessonPattern           = regexp.MustCompile(`(?i)^lesson\s+(\d+)\s*:\s*(.*)$`)
	lessonLinkPattern       = regexp.MustCompile(`(?i)^lesson\s+link:\s*(.*)$`)
)

// DocumentParser parses course documents
type DocumentParser struct {
	chunker *ChunkEngine
}

// NewDocumentParser creates a parser that chunks lesson bodies with chunker
func NewDocumentParser(chunker *ChunkEngine) *DocumentParser {
	return &DocumentParser{chunker: chunker}
}

// ParseFile reads and parses the course document at path
func (p *DocumentParser) ParseFile(path string) (*models.Course, []models.CourseChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading course document: %w", err)
	}
	course, chunks, err := p.Parse(string(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return course, chunks, nil
}

// Parse builds the Course and its chunks. chunk_index runs 0..N-1 across the
// whole course in document order; text before the first lesson is chunked
// without a lesson number.
func (p *DocumentParser) Parse(raw string) (*models.Course, []models.CourseChunk, error) {
	lines := splitLines(raw)

	course, next, err := parseHeader(lines)
	if err != nil {
		return nil, nil, err
	}

	type section struct {
		lesson *int
		body   []string
	}

	preamble := &section{}
	sections := []*section{preamble}
	current := preamble

	for i := next; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		m := lessonPattern.FindStringSubmatch(line)
		if m == nil {
			current.body = append(current.body, lines[i])
			continue
		}

		number, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: bad lesson number %q", models.ErrMalformedDocument, m[1])
		}
		lesson := models.Lesson{Number: number, Title: strings.TrimSpace(m[2])}

		if j := nextNonBlank(lines, i+1); j < len(lines) {
			if lm := lessonLinkPattern.FindStringSubmatch(strings.TrimSpace(lines[j])); lm != nil {
				lesson.Link = strings.TrimSpace(lm[1])
				i = j
			}
		}

		course.Lessons = append(course.Lessons, lesson)
		current = &section{lesson: models.IntPtr(number)}
		sections = append(sections, current)
	}

	if err := course.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrMalformedDocument, err)
	}

	var chunks []models.CourseChunk
	for _, s := range sections {
		for _, text := range p.chunker.Chunk(strings.Join(s.body, "\n"), course.Title, s.lesson) {
			chunks = append(chunks, models.CourseChunk{
				Content:      text,
				CourseTitle:  course.Title,
				LessonNumber: s.lesson,
				ChunkIndex:   len(chunks),
			})
		}
	}

	return course, chunks, nil
}

// ReadCourseTitle reads only as far as the Course Title line of the file at path
func ReadCourseTitle(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening course document: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" {
			continue
		}
		return titleFromLine(line)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading course document: %w", err)
	}
	return "", fmt.Errorf("%w: empty document", models.ErrMalformedDocument)
}

// parseHeader reads the header block and returns the index of the first body line
func parseHeader(lines []string) (*models.Course, int, error) {
	i := nextNonBlank(lines, 0)
	if i >= len(lines) {
		return nil, 0, fmt.Errorf("%w: empty document", models.ErrMalformedDocument)
	}

	title, err := titleFromLine(strings.TrimSpace(lines[i]))
	if err != nil {
		return nil, 0, err
	}
	course := &models.Course{Title: title}

	for i = i + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if m := courseLinkPattern.FindStringSubmatch(line); m != nil {
			course.CourseLink = strings.TrimSpace(m[1])
			continue
		}
		if m := courseInstructorPattern.FindStringSubmatch(line); m != nil {
			course.Instructor = strings.TrimSpace(m[1])
			continue
		}
		break
	}

	return course, i, nil
}

func titleFromLine(line string) (string, error) {
	m := courseTitlePattern.FindStringSubmatch(line)
	if m == nil {
		return "", fmt.Errorf("%w: first line must be \"Course Title: <title>\"", models.ErrMalformedDocument)
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return "", fmt.Errorf("%w: course title is empty", models.ErrMalformedDocument)
	}
	return title, nil
}

func splitLines(raw string) []string {
	raw = strings.TrimPrefix(raw, "\uFEFF")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.Split(raw, "\n")
}

func nextNonBlank(lines []string, from int) int {
	for from < len(lines) && strings.TrimSpace(lines[from]) == "" {
		from++
	}
	return from
}
