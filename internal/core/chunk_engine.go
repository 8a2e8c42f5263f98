// ABOUTME: ChunkEngine splits lesson text into overlapping sentence-aligned chunks
// ABOUTME: Sentence boundaries skip known abbreviations; the first chunk carries a course/lesson header
package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harper/coursemate/internal/models"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters
	DefaultChunkSize = 800
	// DefaultChunkOverlap is the number of trailing characters carried into the next chunk
	DefaultChunkOverlap = 100
)

// DefaultAbbreviations are words whose trailing period never ends a sentence
var DefaultAbbreviations = []string{
	"dr", "mr", "mrs", "ms", "prof", "sr", "jr", "st", "vs", "etc",
	"e.g", "i.e", "inc", "ltd", "co", "fig", "no", "approx", "dept",
}

// ChunkEngine handles sentence-aware chunking
type ChunkEngine struct {
	maxSize       int
	overlap       int
	abbreviations map[string]struct{}
}

// NewChunkEngine creates a ChunkEngine. With no abbreviations given, DefaultAbbreviations are used.
func NewChunkEngine(maxSize, overlap int, abbreviations ...string) (*ChunkEngine, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidConfig, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", models.ErrInvalidConfig, maxSize, overlap)
	}
	if len(abbreviations) == 0 {
		abbreviations = DefaultAbbreviations
	}
	abbrevs := make(map[string]struct{}, len(abbreviations))
	for _, a := range abbreviations {
		abbrevs[strings.ToLower(strings.TrimSuffix(a, "."))] = struct{}{}
	}
	return &ChunkEngine{maxSize: maxSize, overlap: overlap, abbreviations: abbrevs}, nil
}

// MaxSize returns the configured maximum chunk size
func (ce *ChunkEngine) MaxSize() int { return ce.maxSize }

// Overlap returns the configured overlap
func (ce *ChunkEngine) Overlap() int { return ce.overlap }

// ContextHeader returns the prefix placed on the first chunk of a lesson
func ContextHeader(courseTitle string, lessonNumber *int) string {
	if lessonNumber == nil {
		return fmt.Sprintf("Course %s content: ", courseTitle)
	}
	return fmt.Sprintf("Course %s Lesson %d content: ", courseTitle, *lessonNumber)
}

// Chunk splits text into chunks of at most MaxSize characters. The first chunk is
// prefixed with ContextHeader and the header counts toward its size. A single
// sentence longer than MaxSize becomes its own chunk.
func (ce *ChunkEngine) Chunk(text, courseTitle string, lessonNumber *int) []string {
	sentences := ce.SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	header := ContextHeader(courseTitle, lessonNumber)
	limit := ce.maxSize - runeLen(header)

	var (
		chunks      []string
		current     string
		hasSentence bool
	)

	for _, sentence := range sentences {
		size := runeLen(sentence)

		if hasSentence {
			if runeLen(current)+1+size <= limit {
				current += " " + sentence
				continue
			}
			chunks = append(chunks, current)
			current = tail(current, ce.overlap)
			hasSentence = false
			limit = ce.maxSize
		}

		// current is empty or holds only the overlap seed
		switch {
		case current == "":
			current = sentence
		case runeLen(current)+1+size <= limit:
			current += " " + sentence
		case size >= limit:
			current = sentence
		default:
			if seed := tail(current, limit-size-1); seed != "" {
				current = seed + " " + sentence
			} else {
				current = sentence
			}
		}
		hasSentence = true
	}

	if hasSentence {
		chunks = append(chunks, current)
	}
	chunks[0] = header + chunks[0]

	return chunks
}

// SplitSentences splits text on ., ! and ? followed by whitespace, ignoring
// periods that end a known abbreviation. Whitespace is collapsed first.
func (ce *ChunkEngine) SplitSentences(text string) []string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) == 0 {
		return nil
	}

	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		end := i + 1
		for end < len(runes) && isClosingPunct(runes[end]) {
			end++
		}
		if end < len(runes) && runes[end] != ' ' {
			continue
		}
		if r == '.' && ce.endsWithAbbreviation(runes[start:i]) {
			continue
		}

		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			sentences = append(sentences, s)
		}
		start = end
		i = end - 1
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// endsWithAbbreviation reports whether the last word of text is a known abbreviation
func (ce *ChunkEngine) endsWithAbbreviation(text []rune) bool {
	j := len(text)
	for j > 0 && text[j-1] != ' ' {
		j--
	}
	word := strings.TrimLeft(string(text[j:]), "(\"'“‘[")
	if word == "" {
		return false
	}
	_, ok := ce.abbreviations[strings.ToLower(word)]
	return ok
}

func isClosingPunct(r rune) bool {
	switch r {
	case '.', '!', '?', '"', '\'', ')', ']', '”', '’':
		return true
	}
	return false
}

// tail returns the last n characters of s
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
