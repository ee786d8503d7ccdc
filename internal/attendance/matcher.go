package attendance

import (
	"context"
	"fmt"

	"github.com/classtrack/classtrack/internal/store"
)

// Match is an accepted roster match.
type Match struct {
	Student  *store.Student
	Distance float64
}

// Matcher finds the nearest enrolled student for a probe encoding. The
// default strategy is a lazy linear scan over the full roster; an optional
// in-memory index (see RosterIndex) can replace the scan without changing
// observable results.
type Matcher struct {
	roster    store.StudentReader
	threshold float64
	index     *RosterIndex // nil means linear scan
}

// NewMatcher creates a matcher over the given roster. Distances greater than
// or equal to threshold are rejected as NoFaceMatch.
func NewMatcher(roster store.StudentReader, threshold float64) *Matcher {
	return &Matcher{roster: roster, threshold: threshold}
}

// UseIndex attaches a roster index for nearest-neighbor lookups. Passing nil
// reverts to the linear scan.
func (m *Matcher) UseIndex(idx *RosterIndex) {
	m.index = idx
}

// Threshold returns the acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match scans the roster for the student nearest to the probe. Students
// without a stored encoding are skipped. The first-encountered minimum wins
// ties, which keeps results deterministic under stable scan order. Returns
// NoFaceMatchError when the minimum distance is not strictly below the
// threshold, or when no candidate carries an encoding.
func (m *Matcher) Match(ctx context.Context, probe []float32) (*Match, error) {
	if len(probe) == 0 {
		return nil, &MalformedEncodingError{}
	}

	if m.index != nil {
		return m.matchIndexed(probe)
	}
	return m.matchScan(ctx, probe)
}

func (m *Matcher) matchScan(ctx context.Context, probe []float32) (*Match, error) {
	var (
		best       *store.Student
		bestDist   float64
		candidates int
	)

	for student, err := range m.roster.Students(ctx, store.StudentFilter{}) {
		if err != nil {
			return nil, fmt.Errorf("scanning roster: %w", err)
		}
		if !student.HasEncoding() {
			continue
		}

		dist, err := Distance(probe, student.FaceEncoding)
		if err != nil {
			return nil, fmt.Errorf("comparing against %s: %w", student.StudentID, err)
		}

		candidates++
		if best == nil || dist < bestDist {
			best = student
			bestDist = dist
		}
	}

	if best == nil || bestDist >= m.threshold {
		return nil, &NoFaceMatchError{BestDistance: bestDist, Candidates: candidates}
	}
	return &Match{Student: best, Distance: bestDist}, nil
}

// matchIndexed queries the roster index and re-verifies the exact distance so
// results stay within floating-point tolerance of the linear scan.
func (m *Matcher) matchIndexed(probe []float32) (*Match, error) {
	student, err := m.index.Nearest(probe)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &NoFaceMatchError{Candidates: 0}
	}

	dist, err := Distance(probe, student.FaceEncoding)
	if err != nil {
		return nil, err
	}
	if dist >= m.threshold {
		return nil, &NoFaceMatchError{BestDistance: dist, Candidates: m.index.Len()}
	}
	return &Match{Student: student, Distance: dist}, nil
}
