// ABOUTME: End-to-end tests for the data commands against a temporary database
// ABOUTME: Uses the hash embedder so no network or API key is needed

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/coursemate/internal/rag"
	"github.com/harper/coursemate/internal/storage"
)

const testingCourse = `Course Title: Intro to Testing
Course Link: https://example.com/testing
Course Instructor: Ada Lovelace

Lesson 0: Why Test
Lesson Link: https://example.com/testing/0
Automated tests catch regressions early. They document how code is meant to behave.

Lesson 1: Table Tests
Lesson Link: https://example.com/testing/1
Table driven tests list inputs and expected outputs. Each row runs as a subtest.
`

const vectorsCourse = `Course Title: Vector Search Basics
Course Link: https://example.com/vectors

Lesson 1: Embeddings
Embeddings map text to points in a vector space. Nearby points have similar meaning.
`

// setupEnv points configuration at a fresh database and the hash embedder
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("COURSEMATE_EMBEDDING_PROVIDER", "hash")
	t.Setenv("COURSEMATE_HISTORY_BACKEND", "memory")
	t.Setenv("COURSEMATE_DB_PATH", filepath.Join(dir, "data", "coursemate.db"))

	docs := filepath.Join(dir, "docs")
	if err := os.MkdirAll(docs, 0755); err != nil {
		t.Fatalf("failed to create docs dir: %v", err)
	}
	files := map[string]string{
		"course1_script.txt": testingCourse,
		"course2_script.txt": vectorsCourse,
		"notes.md":           "not a course",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(docs, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return docs
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestAndCourses(t *testing.T) {
	docs := setupEnv(t)

	out, err := run(t, "--format", "json", "ingest", docs)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	var report rag.FolderReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if report.CoursesAdded != 2 || report.ChunksAdded == 0 || len(report.Failures) != 0 {
		t.Errorf("unexpected report: %+v", report)
	}

	// a second run skips both courses
	out, err = run(t, "ingest", docs)
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if !strings.Contains(out, "Added 0 course(s)") || !strings.Contains(out, "skipped (already indexed): Intro to Testing") {
		t.Errorf("unexpected second ingest output:\n%s", out)
	}

	out, err = run(t, "--format", "json", "courses")
	if err != nil {
		t.Fatalf("courses failed: %v", err)
	}
	var analytics rag.Analytics
	if err := json.Unmarshal([]byte(out), &analytics); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if analytics.CourseCount != 2 || analytics.CourseTitles[0] != "Intro to Testing" {
		t.Errorf("unexpected analytics: %+v", analytics)
	}
}

func TestIngestSingleFileWithClear(t *testing.T) {
	docs := setupEnv(t)

	if _, err := run(t, "ingest", docs); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	out, err := run(t, "ingest", "--clear", filepath.Join(docs, "course2_script.txt"))
	if err != nil {
		t.Fatalf("single ingest failed: %v", err)
	}
	if !strings.Contains(out, `Indexed "Vector Search Basics": 1 lessons`) {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = run(t, "--quiet", "courses")
	if err != nil {
		t.Fatalf("courses failed: %v", err)
	}
	if strings.TrimSpace(out) != "Vector Search Basics" {
		t.Errorf("expected only the re-ingested course, got %q", out)
	}
}

func TestSearchAndOutline(t *testing.T) {
	docs := setupEnv(t)
	if _, err := run(t, "ingest", docs); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	out, err := run(t, "--format", "json", "search", "--course", "intro to testing", "--lesson", "1", "subtest rows")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	var results struct {
		Hits []struct {
			Metadata struct {
				CourseTitle  string `json:"course_title"`
				LessonNumber *int   `json:"lesson_number"`
			} `json:"metadata"`
		} `json:"hits"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(results.Hits) == 0 {
		t.Fatal("expected hits")
	}
	for _, h := range results.Hits {
		if h.Metadata.CourseTitle != "Intro to Testing" || h.Metadata.LessonNumber == nil || *h.Metadata.LessonNumber != 1 {
			t.Errorf("hit outside the filter: %+v", h.Metadata)
		}
	}

	if _, err := run(t, "search", "--limit", "0", "anything"); err == nil {
		t.Error("expected an error for --limit 0")
	}

	out, err = run(t, "outline", "Intro to Testing")
	if err != nil {
		t.Fatalf("outline failed: %v", err)
	}
	for _, want := range []string{
		"Course Title: Intro to Testing",
		"Course Instructor: Ada Lovelace",
		"Lessons (2 total):",
		"Lesson 1: Table Tests",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("outline missing %q:\n%s", want, out)
		}
	}
}

func TestQueryNeedsAPIKey(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "query", "what is lesson 0 about?")
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("expected a missing key error, got %v", err)
	}
}

func TestMCPServerTools(t *testing.T) {
	setupEnv(t)

	a, err := openApp(appOptions{})
	if err != nil {
		t.Fatalf("openApp failed: %v", err)
	}
	defer func() { _ = a.Close() }()

	if a.store.MaxResults() != storage.DefaultMaxResults {
		t.Errorf("MaxResults = %d, want %d", a.store.MaxResults(), storage.DefaultMaxResults)
	}

	server := newMCPServer(a)
	registered := server.ListTools()
	for _, name := range []string{"search_course_content", "get_course_outline", "list_courses", "ask_courses"} {
		if _, ok := registered[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestEvalRejectsBadScenarios(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "scenarios.json")
	if err := os.WriteFile(path, []byte(`[{"id": "x", "questions": []}]`), 0644); err != nil {
		t.Fatalf("failed to write scenarios: %v", err)
	}

	if _, err := run(t, "eval", path); err == nil || !strings.Contains(err.Error(), "no questions") {
		t.Errorf("expected a scenario validation error, got %v", err)
	}
}

func TestExportMarkdown(t *testing.T) {
	docs := setupEnv(t)
	if _, err := run(t, "ingest", docs); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	out, err := run(t, "export", "--as", "markdown")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "## Intro to Testing") || !strings.Contains(out, "| 1 | Table Tests | https://example.com/testing/1 |") {
		t.Errorf("unexpected export:\n%s", out)
	}

	if _, err := run(t, "export", "--as", "csv"); err == nil {
		t.Error("expected an error for an unknown export format")
	}
}
