// ABOUTME: VectorStore maintains the catalog and content indexes over one embedding function
// ABOUTME: A course and its chunks are written in one SQLite transaction; search never returns an error
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/harper/coursemate/internal/llm"
	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/storage/sqlite"
)

// DefaultMaxResults is the default cap on content search results
const DefaultMaxResults = 5

// Options configures a VectorStore
type Options struct {
	MaxResults  int
	MatchPolicy MatchPolicy
	Logger      *zap.Logger
}

// SearchQuery is a content search request. Limit nil uses the store's cap.
type SearchQuery struct {
	Query        string
	CourseName   string
	LessonNumber *int
	Limit        *int
}

// VectorStore is the dual index store
type VectorStore struct {
	db         *sqlite.DB
	catalog    *sqlite.CatalogStore
	content    *sqlite.ContentStore
	embedder   llm.Embedder
	maxResults int
	policy     MatchPolicy
	logger     *zap.Logger
}

// NewVectorStore creates a VectorStore. A non-positive MaxResults is rejected.
func NewVectorStore(db *sqlite.DB, embedder llm.Embedder, opts Options) (*VectorStore, error) {
	if opts.MaxResults <= 0 {
		return nil, fmt.Errorf("%w: max results must be positive, got %d", models.ErrInvalidConfig, opts.MaxResults)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", models.ErrInvalidConfig)
	}
	policy := opts.MatchPolicy
	if policy == nil {
		policy = DistanceThreshold{MaxDistance: DefaultMaxCourseDistance}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &VectorStore{
		db:         db,
		catalog:    sqlite.NewCatalogStore(db),
		content:    sqlite.NewContentStore(db),
		embedder:   embedder,
		maxResults: opts.MaxResults,
		policy:     policy,
		logger:     logger,
	}, nil
}

// MaxResults returns the default result cap
func (s *VectorStore) MaxResults() int { return s.maxResults }

// AddCourse upserts the catalog row for a course
func (s *VectorStore) AddCourse(ctx context.Context, course *models.Course) error {
	row, err := s.catalogRow(ctx, course)
	if err != nil {
		return err
	}
	if err := s.catalog.Upsert(ctx, nil, row); err != nil {
		return fmt.Errorf("%w: catalog row for %q: %v", models.ErrIndexWrite, course.Title, err)
	}
	return nil
}

// AddChunks upserts content rows. Their course must already be in the catalog.
func (s *VectorStore) AddChunks(ctx context.Context, chunks []models.CourseChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows, err := s.contentRows(ctx, chunks)
	if err != nil {
		return err
	}
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return s.content.Upsert(ctx, tx, rows)
	})
	if err != nil {
		return fmt.Errorf("%w: content rows: %v", models.ErrIndexWrite, err)
	}
	return nil
}

// AddCourseContent replaces a course and all of its chunks atomically.
// Readers see either the previous state or the complete new one.
func (s *VectorStore) AddCourseContent(ctx context.Context, course *models.Course, chunks []models.CourseChunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: course %q has no content", models.ErrIndexWrite, course.Title)
	}
	for _, c := range chunks {
		if c.CourseTitle != course.Title {
			return fmt.Errorf("%w: chunk %d belongs to %q, not %q", models.ErrIndexWrite, c.ChunkIndex, c.CourseTitle, course.Title)
		}
	}

	catalogRow, err := s.catalogRow(ctx, course)
	if err != nil {
		return err
	}
	contentRows, err := s.contentRows(ctx, chunks)
	if err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.content.DeleteByCourse(ctx, tx, course.Title); err != nil {
			return fmt.Errorf("clearing previous chunks: %w", err)
		}
		if err := s.catalog.Upsert(ctx, tx, catalogRow); err != nil {
			return fmt.Errorf("writing catalog row: %w", err)
		}
		if err := s.content.Upsert(ctx, tx, contentRows); err != nil {
			return fmt.Errorf("writing content rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: course %q: %v", models.ErrIndexWrite, course.Title, err)
	}

	s.logger.Debug("indexed course", zap.String("course", course.Title), zap.Int("chunks", len(chunks)))
	return nil
}

func (s *VectorStore) catalogRow(ctx context.Context, course *models.Course) (sqlite.CatalogRow, error) {
	lessons := course.Lessons
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	lessonsJSON, err := json.Marshal(lessons)
	if err != nil {
		return sqlite.CatalogRow{}, fmt.Errorf("%w: encoding lessons: %v", models.ErrIndexWrite, err)
	}
	vecs, err := s.embedder.Embed(ctx, []string{course.Title})
	if err != nil {
		return sqlite.CatalogRow{}, fmt.Errorf("%w: embedding course title: %v", models.ErrIndexWrite, err)
	}
	return sqlite.CatalogRow{
		Title:       course.Title,
		Instructor:  course.Instructor,
		CourseLink:  course.CourseLink,
		LessonCount: len(course.Lessons),
		LessonsJSON: string(lessonsJSON),
		Embedding:   vecs[0],
	}, nil
}

func (s *VectorStore) contentRows(ctx context.Context, chunks []models.CourseChunk) ([]sqlite.ContentRow, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding chunks: %v", models.ErrIndexWrite, err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", models.ErrIndexWrite, len(vecs), len(chunks))
	}

	rows := make([]sqlite.ContentRow, len(chunks))
	for i, c := range chunks {
		rows[i] = sqlite.ContentRow{
			ID:           c.ID(),
			CourseTitle:  c.CourseTitle,
			LessonNumber: c.LessonNumber,
			ChunkIndex:   c.ChunkIndex,
			Document:     c.Content,
			Embedding:    vecs[i],
		}
	}
	return rows, nil
}

// Search finds the chunks nearest to the query, optionally filtered by course and lesson.
// Failures come back as SearchResults with Error set.
func (s *VectorStore) Search(ctx context.Context, q SearchQuery) models.SearchResults {
	limit := s.maxResults
	if q.Limit != nil {
		limit = *q.Limit
	}
	if limit <= 0 {
		return models.NewSearchError(fmt.Sprintf("Search error: result limit must be positive, got %d", limit))
	}

	filter := sqlite.ContentFilter{LessonNumber: q.LessonNumber}
	if q.CourseName != "" {
		title, err := s.ResolveCourseName(ctx, q.CourseName)
		if errors.Is(err, models.ErrCourseNotFound) {
			return models.NewSearchError(fmt.Sprintf("No course found matching '%s'", q.CourseName))
		}
		if err != nil {
			return models.NewSearchError(fmt.Sprintf("Search error: %v", err))
		}
		filter.CourseTitle = title
	}

	vecs, err := s.embedder.Embed(ctx, []string{q.Query})
	if err != nil {
		return models.NewSearchError(fmt.Sprintf("Search error: embedding query: %v", err))
	}

	rows, err := s.content.Find(ctx, filter)
	if err != nil {
		return models.NewSearchError(fmt.Sprintf("Search error: %v", err))
	}

	hits := make([]models.SearchHit, len(rows))
	for i, r := range rows {
		hits[i] = models.SearchHit{
			Document: r.Document,
			Metadata: models.ChunkMetadata{
				CourseTitle:  r.CourseTitle,
				LessonNumber: r.LessonNumber,
				ChunkIndex:   r.ChunkIndex,
			},
			Distance: sqlite.CosineDistance(vecs[0], r.Embedding),
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	s.logger.Debug("content search",
		zap.String("query", q.Query),
		zap.String("course", filter.CourseTitle),
		zap.Int("hits", len(hits)))

	return models.SearchResults{Hits: hits}
}

// ResolveCourseName maps a possibly partial course name to a stored title.
// An exact case-insensitive match wins, then a substring that names exactly one
// course; otherwise the match policy decides.
func (s *VectorStore) ResolveCourseName(ctx context.Context, name string) (string, error) {
	if exact, err := s.catalog.FindTitleFold(ctx, name); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrRetrieval, err)
	} else if exact != "" {
		return exact, nil
	}

	if fragment := strings.TrimSpace(name); fragment != "" {
		titles, err := s.catalog.FindTitlesContaining(ctx, fragment, 2)
		if err != nil {
			return "", fmt.Errorf("%w: %v", models.ErrRetrieval, err)
		}
		if len(titles) == 1 {
			return titles[0], nil
		}
	}

	candidates, err := s.catalog.Candidates(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrRetrieval, err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %q", models.ErrCourseNotFound, name)
	}

	vecs, err := s.embedder.Embed(ctx, []string{name})
	if err != nil {
		return "", fmt.Errorf("%w: embedding course name: %v", models.ErrRetrieval, err)
	}

	ranked := make([]Candidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = Candidate{Title: c.Title, Distance: sqlite.CosineDistance(vecs[0], c.Embedding)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Distance < ranked[j].Distance })

	title, ok := s.policy.Accept(ranked)
	if !ok {
		s.logger.Debug("course name rejected",
			zap.String("name", name),
			zap.String("nearest", ranked[0].Title),
			zap.Float64("distance", ranked[0].Distance),
			zap.String("policy", s.policy.Name()))
		return "", fmt.Errorf("%w: %q", models.ErrCourseNotFound, name)
	}
	return title, nil
}

// Course returns the stored course with an exact title, or ErrCourseNotFound
func (s *VectorStore) Course(ctx context.Context, title string) (*models.Course, error) {
	row, err := s.catalog.Get(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRetrieval, err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %q", models.ErrCourseNotFound, title)
	}

	course := &models.Course{Title: row.Title, CourseLink: row.CourseLink, Instructor: row.Instructor}
	if err := json.Unmarshal([]byte(row.LessonsJSON), &course.Lessons); err != nil {
		return nil, fmt.Errorf("%w: decoding lessons of %q: %v", models.ErrRetrieval, title, err)
	}
	return course, nil
}

// CourseOutline resolves a possibly partial name and returns the course
func (s *VectorStore) CourseOutline(ctx context.Context, name string) (*models.Course, error) {
	title, err := s.ResolveCourseName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Course(ctx, title)
}

// CourseCount returns the number of courses in the catalog
func (s *VectorStore) CourseCount(ctx context.Context) (int, error) {
	n, err := s.catalog.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrRetrieval, err)
	}
	return n, nil
}

// CourseTitles returns every course title
func (s *VectorStore) CourseTitles(ctx context.Context) ([]string, error) {
	titles, err := s.catalog.Titles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRetrieval, err)
	}
	return titles, nil
}

// LessonMetadata returns the lessons of a course
func (s *VectorStore) LessonMetadata(ctx context.Context, title string) ([]models.Lesson, error) {
	course, err := s.Course(ctx, title)
	if err != nil {
		return nil, err
	}
	return course.Lessons, nil
}

// CourseLink returns a course's link, "" when unknown
func (s *VectorStore) CourseLink(ctx context.Context, title string) (string, error) {
	course, err := s.Course(ctx, title)
	if err != nil {
		return "", err
	}
	return course.CourseLink, nil
}

// LessonLink returns a lesson's link, "" when unknown
func (s *VectorStore) LessonLink(ctx context.Context, title string, lessonNumber int) (string, error) {
	course, err := s.Course(ctx, title)
	if err != nil {
		return "", err
	}
	lesson, ok := course.Lesson(lessonNumber)
	if !ok {
		return "", nil
	}
	return lesson.Link, nil
}

// DeleteCourse removes a course and all of its chunks in one transaction
func (s *VectorStore) DeleteCourse(ctx context.Context, title string) error {
	var deleted bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = s.catalog.Delete(ctx, tx, title)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: deleting %q: %v", models.ErrIndexWrite, title, err)
	}
	if !deleted {
		return fmt.Errorf("%w: %q", models.ErrCourseNotFound, title)
	}
	return nil
}

// Clear wipes both indexes
func (s *VectorStore) Clear(ctx context.Context) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return s.catalog.DeleteAll(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("%w: clearing indexes: %v", models.ErrIndexWrite, err)
	}
	return nil
}
