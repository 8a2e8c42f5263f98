// ABOUTME: System wires parser, vector store, orchestrator and history into the public operations
// ABOUTME: Ingest documents and folders, answer queries per session, and report catalog analytics
package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harper/coursemate/internal/core"
	"github.com/harper/coursemate/internal/history"
	"github.com/harper/coursemate/internal/metrics"
	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/storage"
	"github.com/harper/coursemate/internal/tools"
)

// Deps are the collaborators of a System
type Deps struct {
	Store        *storage.VectorStore
	Parser       *core.DocumentParser
	Orchestrator *core.Orchestrator
	History      history.Store
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// System is safe for concurrent use. Queries on the same session run one at a time.
type System struct {
	store        *storage.VectorStore
	parser       *core.DocumentParser
	orchestrator *core.Orchestrator
	history      history.Store
	logger       *zap.Logger
	metrics      *metrics.Metrics

	locksMu      sync.Mutex
	sessionLocks map[string]*sessionLock
}

// sessionLock serialises queries on one session; refs counts holders and waiters
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// QueryResult is the answer to one query
type QueryResult struct {
	Answer    string          `json:"answer"`
	Sources   []models.Source `json:"sources"`
	SessionID string          `json:"session_id"`
}

// Analytics summarises the catalog
type Analytics struct {
	CourseCount  int      `json:"course_count"`
	CourseTitles []string `json:"course_titles"`
}

// FileFailure records a document that could not be ingested
type FileFailure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// FolderReport summarises a folder ingestion
type FolderReport struct {
	CoursesAdded int           `json:"courses_added"`
	ChunksAdded  int           `json:"chunks_added"`
	Skipped      []string      `json:"skipped"`
	Failures     []FileFailure `json:"failures"`
}

// New creates a System. Without an Orchestrator the System can ingest and
// report but Query fails.
func New(deps Deps) (*System, error) {
	if deps.Store == nil || deps.Parser == nil {
		return nil, fmt.Errorf("%w: store and parser are required", models.ErrInvalidConfig)
	}
	hist := deps.History
	if hist == nil {
		mem, err := history.NewMemoryStore(history.DefaultMaxTurns)
		if err != nil {
			return nil, err
		}
		hist = mem
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &System{
		store:        deps.Store,
		parser:       deps.Parser,
		orchestrator: deps.Orchestrator,
		history:      hist,
		logger:       logger,
		metrics:      deps.Metrics,
	}, nil
}

// Store returns the underlying vector store
func (s *System) Store() *storage.VectorStore { return s.store }

// AddCourseDocument parses one file and writes the course and its chunks atomically
func (s *System) AddCourseDocument(ctx context.Context, path string) (*models.Course, int, error) {
	course, chunks, err := s.parser.ParseFile(path)
	if err != nil {
		s.metrics.ObserveIngest(0, err)
		return nil, 0, err
	}
	if err := s.store.AddCourseContent(ctx, course, chunks); err != nil {
		s.metrics.ObserveIngest(0, err)
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	s.metrics.ObserveIngest(len(chunks), nil)
	s.logger.Info("ingested course",
		zap.String("course", course.Title),
		zap.Int("lessons", len(course.Lessons)),
		zap.Int("chunks", len(chunks)))
	return course, len(chunks), nil
}

// AddCourseFolder ingests every .txt file in dir whose course title is not already stored.
// A bad file is recorded in the report and the rest of the folder continues.
func (s *System) AddCourseFolder(ctx context.Context, dir string, clearExisting bool) (*FolderReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", dir, err)
	}

	if clearExisting {
		if err := s.store.Clear(ctx); err != nil {
			return nil, err
		}
		s.logger.Info("cleared existing course data")
	}

	existing, err := s.store.CourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, title := range existing {
		known[title] = true
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	report := &FolderReport{Skipped: []string{}, Failures: []FileFailure{}}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		title, err := core.ReadCourseTitle(path)
		if err != nil {
			report.Failures = append(report.Failures, FileFailure{Path: path, Err: err.Error()})
			s.metrics.ObserveIngest(0, err)
			s.logger.Warn("skipping unreadable course document", zap.String("path", path), zap.Error(err))
			continue
		}
		if known[title] {
			report.Skipped = append(report.Skipped, title)
			s.logger.Debug("course already indexed", zap.String("course", title))
			continue
		}

		course, chunks, err := s.AddCourseDocument(ctx, path)
		if err != nil {
			report.Failures = append(report.Failures, FileFailure{Path: path, Err: err.Error()})
			s.logger.Warn("failed to ingest course document", zap.String("path", path), zap.Error(err))
			continue
		}
		known[course.Title] = true
		report.CoursesAdded++
		report.ChunksAdded += chunks
	}

	return report, nil
}

// Query answers text within a session. An empty sessionID starts a new session.
func (s *System) Query(ctx context.Context, text, sessionID string) (result *QueryResult, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveQuery(started, err) }()

	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptyQuery
	}
	if s.orchestrator == nil {
		return nil, fmt.Errorf("%w: no chat model configured", models.ErrInvalidConfig)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	past, err := s.history.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// each query gets its own registry so sources never leak between sessions
	registry := tools.NewCourseRegistry(s.store)
	resp, err := s.orchestrator.Respond(ctx, text, past, registry)
	if err != nil {
		return nil, err
	}

	if err := s.history.Append(ctx, sessionID, text, resp.Answer); err != nil {
		s.logger.Warn("failed to record history", zap.String("session_id", sessionID), zap.Error(err))
	}

	sources := resp.Sources
	if sources == nil {
		sources = []models.Source{}
	}
	s.logger.Debug("answered query",
		zap.String("session_id", sessionID),
		zap.Int("rounds", resp.Rounds),
		zap.Int("sources", len(sources)))

	return &QueryResult{Answer: resp.Answer, Sources: sources, SessionID: sessionID}, nil
}

// CourseAnalytics returns the course count and titles
func (s *System) CourseAnalytics(ctx context.Context) (*Analytics, error) {
	titles, err := s.store.CourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	return &Analytics{CourseCount: len(titles), CourseTitles: titles}, nil
}

func (s *System) lockSession(sessionID string) func() {
	s.locksMu.Lock()
	if s.sessionLocks == nil {
		s.sessionLocks = make(map[string]*sessionLock)
	}
	l, ok := s.sessionLocks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.sessionLocks[sessionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.sessionLocks, sessionID)
		}
		s.locksMu.Unlock()
	}
}
