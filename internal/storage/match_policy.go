// ABOUTME: Acceptance policies for resolving a user-typed course name to a stored title
// ABOUTME: Candidates arrive nearest first; a policy may reject all of them
package storage

import (
	"fmt"

	"github.com/harper/coursemate/internal/models"
)

const (
	// DefaultMaxCourseDistance is the largest cosine distance accepted as a course match
	DefaultMaxCourseDistance = 0.6
	// DefaultMinCourseGap is the distance margin the gap policy requires over the runner-up
	DefaultMinCourseGap = 0.05
)

// Candidate is a catalog title and its cosine distance to the requested name
type Candidate struct {
	Title    string
	Distance float64
}

// MatchPolicy decides which candidate, if any, a course name resolves to
type MatchPolicy interface {
	Accept(candidates []Candidate) (string, bool)
	Name() string
}

// DistanceThreshold accepts the nearest candidate when it is within MaxDistance
type DistanceThreshold struct {
	MaxDistance float64
}

func (p DistanceThreshold) Accept(candidates []Candidate) (string, bool) {
	if len(candidates) == 0 || candidates[0].Distance > p.MaxDistance {
		return "", false
	}
	return candidates[0].Title, true
}

func (p DistanceThreshold) Name() string { return "threshold" }

// ConfidenceGap also requires the runner-up to be at least MinGap farther away
type ConfidenceGap struct {
	MaxDistance float64
	MinGap      float64
}

func (p ConfidenceGap) Accept(candidates []Candidate) (string, bool) {
	title, ok := DistanceThreshold{MaxDistance: p.MaxDistance}.Accept(candidates)
	if !ok {
		return "", false
	}
	if len(candidates) > 1 && candidates[1].Distance-candidates[0].Distance < p.MinGap {
		return "", false
	}
	return title, true
}

func (p ConfidenceGap) Name() string { return "gap" }

// AcceptNearest always takes the nearest candidate
type AcceptNearest struct{}

func (AcceptNearest) Accept(candidates []Candidate) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0].Title, true
}

func (AcceptNearest) Name() string { return "nearest" }

// NewMatchPolicy builds a policy by name: threshold, gap or nearest
func NewMatchPolicy(name string, maxDistance, minGap float64) (MatchPolicy, error) {
	if maxDistance < 0 || maxDistance > 2 {
		return nil, fmt.Errorf("%w: course match distance must be in [0, 2], got %g", models.ErrInvalidConfig, maxDistance)
	}
	switch name {
	case "", "threshold":
		return DistanceThreshold{MaxDistance: maxDistance}, nil
	case "gap":
		if minGap < 0 {
			return nil, fmt.Errorf("%w: course match gap must not be negative, got %g", models.ErrInvalidConfig, minGap)
		}
		return ConfidenceGap{MaxDistance: maxDistance, MinGap: minGap}, nil
	case "nearest":
		return AcceptNearest{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown course match policy %q", models.ErrInvalidConfig, name)
	}
}
