// ABOUTME: SearchResults is the transient value returned by content search
// ABOUTME: An error string marks a retrieval failure, distinct from an empty result
package models

// ChunkMetadata is the metadata stored with each content-index row
type ChunkMetadata struct {
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	ChunkIndex   int    `json:"chunk_index"`
}

// SearchHit is one (document, metadata, distance) triple
type SearchHit struct {
	Document string        `json:"document"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// SearchResults holds ordered hits, nearest first
type SearchResults struct {
	Hits  []SearchHit `json:"hits"`
	Error string      `json:"error,omitempty"`
}

// NewSearchError returns empty results carrying an error message
func NewSearchError(msg string) SearchResults {
	return SearchResults{Error: msg}
}

// IsEmpty reports whether there are no hits
func (r SearchResults) IsEmpty() bool {
	return len(r.Hits) == 0
}

// Failed reports whether the search carried an error
func (r SearchResults) Failed() bool {
	return r.Error != ""
}
