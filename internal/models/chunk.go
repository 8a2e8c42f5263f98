// ABOUTME: CourseChunk is a bounded fragment of course text stored for retrieval
// ABOUTME: Row identity in the content index is "<course title>_<chunk index>"
package models

import "fmt"

// CourseChunk is one sentence-aligned piece of a course
type CourseChunk struct {
	Content      string `json:"content"`
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	ChunkIndex   int    `json:"chunk_index"`
}

// ID returns the stable content-index row id for the chunk
func (c CourseChunk) ID() string {
	return ChunkID(c.CourseTitle, c.ChunkIndex)
}

// ChunkID builds a content-index row id
func ChunkID(courseTitle string, chunkIndex int) string {
	return fmt.Sprintf("%s_%d", courseTitle, chunkIndex)
}

// IntPtr returns a pointer to n, for optional lesson numbers
func IntPtr(n int) *int {
	return &n
}
