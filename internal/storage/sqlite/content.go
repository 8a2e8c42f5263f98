// ABOUTME: Content index storage: one row per chunk with lesson metadata
// ABOUTME: Supports equality filters on course title and lesson number
package sqlite

import (
	"context"
	"database/sql"
	"strings"
)

// ContentRow is one chunk in the content index
type ContentRow struct {
	ID           string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
	Document     string
	Embedding    []float32
}

// ContentFilter narrows a content query; zero fields are ignored
type ContentFilter struct {
	CourseTitle  string
	LessonNumber *int
}

// ContentStore handles chunk persistence
type ContentStore struct {
	db *DB
}

// NewContentStore creates a new ContentStore
func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

// Upsert writes rows using q, which may be a transaction
func (s *ContentStore) Upsert(ctx context.Context, q Querier, rows []ContentRow) error {
	if q == nil {
		q = s.db.conn
	}
	for _, r := range rows {
		var lesson sql.NullInt64
		if r.LessonNumber != nil {
			lesson = sql.NullInt64{Int64: int64(*r.LessonNumber), Valid: true}
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO course_content (id, course_title, lesson_number, chunk_index, document, embedding)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				lesson_number = excluded.lesson_number,
				document = excluded.document,
				embedding = excluded.embedding
		`, r.ID, r.CourseTitle, lesson, r.ChunkIndex, r.Document, vectorToBlob(r.Embedding))
		if err != nil {
			return err
		}
	}
	return nil
}

// Find returns all rows matching the filter, ordered by course and chunk index
func (s *ContentStore) Find(ctx context.Context, filter ContentFilter) ([]ContentRow, error) {
	var (
		where []string
		args  []any
	)
	if filter.CourseTitle != "" {
		where = append(where, "course_title = ?")
		args = append(args, filter.CourseTitle)
	}
	if filter.LessonNumber != nil {
		where = append(where, "lesson_number = ?")
		args = append(args, *filter.LessonNumber)
	}

	query := `SELECT id, course_title, lesson_number, chunk_index, document, embedding FROM course_content`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY course_title, chunk_index"

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ContentRow
	for rows.Next() {
		var (
			r      ContentRow
			lesson sql.NullInt64
			blob   []byte
		)
		if err := rows.Scan(&r.ID, &r.CourseTitle, &lesson, &r.ChunkIndex, &r.Document, &blob); err != nil {
			return nil, err
		}
		if lesson.Valid {
			n := int(lesson.Int64)
			r.LessonNumber = &n
		}
		r.Embedding = blobToVector(blob)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of chunks stored for a course
func (s *ContentStore) Count(ctx context.Context, courseTitle string) (int, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM course_content WHERE course_title = ?`, courseTitle).Scan(&n)
	return n, err
}

// DeleteByCourse removes every chunk of a course
func (s *ContentStore) DeleteByCourse(ctx context.Context, q Querier, courseTitle string) error {
	if q == nil {
		q = s.db.conn
	}
	_, err := q.ExecContext(ctx, `DELETE FROM course_content WHERE course_title = ?`, courseTitle)
	return err
}
