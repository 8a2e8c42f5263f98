// ABOUTME: Catalog index storage: one row per course embedded on its title
// ABOUTME: Upserts update in place so dependent content rows are never cascaded away
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// CatalogRow is one course in the catalog index
type CatalogRow struct {
	Title       string
	Instructor  string
	CourseLink  string
	LessonCount int
	LessonsJSON string
	Embedding   []float32
}

// CatalogCandidate is a title with its embedding, used for name resolution
type CatalogCandidate struct {
	Title     string
	Embedding []float32
}

// CatalogStore handles catalog persistence
type CatalogStore struct {
	db *DB
}

// NewCatalogStore creates a new CatalogStore
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// Upsert inserts or updates a catalog row using q, which may be a transaction
func (s *CatalogStore) Upsert(ctx context.Context, q Querier, row CatalogRow) error {
	if q == nil {
		q = s.db.conn
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO course_catalog (title, document, instructor, course_link, lesson_count, lessons_json, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			document = excluded.document,
			instructor = excluded.instructor,
			course_link = excluded.course_link,
			lesson_count = excluded.lesson_count,
			lessons_json = excluded.lessons_json,
			embedding = excluded.embedding,
			updated_at = CURRENT_TIMESTAMP
	`, row.Title, row.Title, row.Instructor, row.CourseLink, row.LessonCount, row.LessonsJSON, vectorToBlob(row.Embedding))
	return err
}

// Get returns the catalog row for an exact title, or nil if absent
func (s *CatalogStore) Get(ctx context.Context, title string) (*CatalogRow, error) {
	var (
		row        CatalogRow
		instructor sql.NullString
		link       sql.NullString
		blob       []byte
	)
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT title, instructor, course_link, lesson_count, lessons_json, embedding
		FROM course_catalog WHERE title = ?
	`, title).Scan(&row.Title, &instructor, &link, &row.LessonCount, &row.LessonsJSON, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row.Instructor = instructor.String
	row.CourseLink = link.String
	row.Embedding = blobToVector(blob)
	return &row, nil
}

// FindTitleFold returns the stored title equal to title ignoring case, or ""
func (s *CatalogStore) FindTitleFold(ctx context.Context, title string) (string, error) {
	var stored string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT title FROM course_catalog WHERE title = ? COLLATE NOCASE ORDER BY title LIMIT 1`, title,
	).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return stored, err
}

// FindTitlesContaining returns up to limit titles containing fragment, ignoring ASCII case
func (s *CatalogStore) FindTitlesContaining(ctx context.Context, fragment string, limit int) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT title FROM course_catalog WHERE title LIKE '%' || ? || '%' ESCAPE '\' ORDER BY title LIMIT ?`,
		likeEscaper.Replace(fragment), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Candidates returns every title with its embedding
func (s *CatalogStore) Candidates(ctx context.Context) ([]CatalogCandidate, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT title, embedding FROM course_catalog ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []CatalogCandidate
	for rows.Next() {
		var (
			c    CatalogCandidate
			blob []byte
		)
		if err := rows.Scan(&c.Title, &blob); err != nil {
			return nil, err
		}
		c.Embedding = blobToVector(blob)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of courses
func (s *CatalogStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM course_catalog`).Scan(&n)
	return n, err
}

// Titles returns all course titles in alphabetical order
func (s *CatalogStore) Titles(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT title FROM course_catalog ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	titles := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// Delete removes a course row; content rows go with it through the foreign key
func (s *CatalogStore) Delete(ctx context.Context, q Querier, title string) (bool, error) {
	if q == nil {
		q = s.db.conn
	}
	res, err := q.ExecContext(ctx, `DELETE FROM course_catalog WHERE title = ?`, title)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteAll removes every course
func (s *CatalogStore) DeleteAll(ctx context.Context, q Querier) error {
	if q == nil {
		q = s.db.conn
	}
	_, err := q.ExecContext(ctx, `DELETE FROM course_catalog`)
	return err
}
