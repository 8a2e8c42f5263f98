// ABOUTME: HashEmbedder is an offline embedder based on hashed word features
// ABOUTME: Deterministic and network-free; used for local runs and tests
package llm

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultHashDimension is the vector size used when none is configured
const DefaultHashDimension = 384

var hashTokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

var hashStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "how": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "this": {}, "to": {}, "what": {}, "with": {},
}

// HashEmbedder maps each non-stopword token to a bucket and L2-normalises the counts
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a HashEmbedder; a non-positive dimension selects DefaultHashDimension
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Dimension returns the vector size
func (e *HashEmbedder) Dimension() int { return e.dimension }

// Embed returns one vector per text. Texts with no tokens map to the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, tok := range hashTokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := hashStopwords[tok]; stop {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
