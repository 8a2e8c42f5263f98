// ABOUTME: Sentinel errors shared across ingestion, retrieval and orchestration
// ABOUTME: Callers match them with errors.Is after wrapping
package models

import "errors"

var (
	ErrMalformedDocument = errors.New("malformed course document")
	ErrIndexWrite        = errors.New("index write failed")
	ErrRetrieval         = errors.New("retrieval failed")
	ErrCourseNotFound    = errors.New("course not found")
	ErrUnknownTool       = errors.New("unknown tool")
	ErrDuplicateTool     = errors.New("tool already registered")
	ErrLLMTransport      = errors.New("llm transport failure")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrEmptyQuery        = errors.New("query cannot be empty")
)
