// ABOUTME: SQLite database schema for course indexes and session history
// ABOUTME: Content rows cascade-delete with their catalog row
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Catalog index: one row per course, embedded on the title
CREATE TABLE IF NOT EXISTS course_catalog (
    title TEXT PRIMARY KEY,
    document TEXT NOT NULL,
    instructor TEXT,
    course_link TEXT,
    lesson_count INTEGER NOT NULL DEFAULT 0,
    lessons_json TEXT NOT NULL DEFAULT '[]',
    embedding BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Content index: one row per chunk, id = "<course title>_<chunk index>"
CREATE TABLE IF NOT EXISTS course_content (
    id TEXT PRIMARY KEY,
    course_title TEXT NOT NULL REFERENCES course_catalog(title) ON DELETE CASCADE,
    lesson_number INTEGER,
    chunk_index INTEGER NOT NULL,
    document TEXT NOT NULL,
    embedding BLOB NOT NULL,
    UNIQUE (course_title, chunk_index)
);

-- Session history (optional durable backend)
CREATE TABLE IF NOT EXISTS session_exchanges (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_content_course_lesson ON course_content(course_title, lesson_number);
CREATE INDEX IF NOT EXISTS idx_exchanges_session ON session_exchanges(session_id, id);
`
