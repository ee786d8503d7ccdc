package attendance

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/classtrack/classtrack/internal/store"
	"github.com/classtrack/classtrack/internal/store/mock"
)

func rosterWith(t *testing.T, students ...*store.Student) *mock.Store {
	t.Helper()
	m := mock.NewStore()
	for _, s := range students {
		if err := m.InsertStudent(context.Background(), s); err != nil {
			t.Fatalf("failed to seed student %s: %v", s.StudentID, err)
		}
	}
	return m
}

func TestMatcherMatch(t *testing.T) {
	students := []*store.Student{
		{StudentID: "S1", Name: "Alice", Course: "BCA", Year: "3", FaceEncoding: []float32{0.62}},
		{StudentID: "S2", Name: "Bob", Course: "BCA", Year: "3", FaceEncoding: []float32{0.41}},
		{StudentID: "S3", Name: "Cara", Course: "BCA", Year: "3"}, // no encoding
	}

	tests := []struct {
		name         string
		probe        []float32
		threshold    float64
		wantStudent  string
		wantDistance float64
		wantNoMatch  bool
	}{
		{
			name:         "nearest student below threshold wins",
			probe:        []float32{0},
			threshold:    0.5,
			wantStudent:  "S2",
			wantDistance: 0.41,
		},
		{
			name:        "best distance at threshold is rejected",
			probe:       []float32{0},
			threshold:   0.41,
			wantNoMatch: true,
		},
		{
			name:        "all candidates beyond threshold",
			probe:       []float32{0},
			threshold:   0.1,
			wantNoMatch: true,
		},
		{
			name:         "exact encoding matches at distance zero",
			probe:        []float32{0.62},
			threshold:    0.5,
			wantStudent:  "S1",
			wantDistance: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher := NewMatcher(rosterWith(t, students...), tt.threshold)

			match, err := matcher.Match(context.Background(), tt.probe)
			if tt.wantNoMatch {
				if err == nil {
					t.Fatalf("Match() = %+v, want NoFaceMatchError", match)
				}
				if !IsNoFaceMatch(err) {
					t.Errorf("Match() error = %v, want NoFaceMatchError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Match() unexpected error: %v", err)
			}
			if match.Student.StudentID != tt.wantStudent {
				t.Errorf("Match() student = %s, want %s", match.Student.StudentID, tt.wantStudent)
			}
			if math.Abs(match.Distance-tt.wantDistance) > 0.0001 {
				t.Errorf("Match() distance = %v, want %v", match.Distance, tt.wantDistance)
			}
		})
	}
}

func TestMatcherSkipsStudentsWithoutEncoding(t *testing.T) {
	roster := rosterWith(t,
		&store.Student{StudentID: "S1", Name: "Alice", Course: "BCA"},
		&store.Student{StudentID: "S2", Name: "Bob", Course: "BCA"},
	)
	matcher := NewMatcher(roster, 0.5)

	_, err := matcher.Match(context.Background(), []float32{0})
	if !IsNoFaceMatch(err) {
		t.Fatalf("Match() error = %v, want NoFaceMatchError", err)
	}
	var noMatch *NoFaceMatchError
	errors.As(err, &noMatch)
	if noMatch.Candidates != 0 {
		t.Errorf("Candidates = %d, want 0", noMatch.Candidates)
	}
}

func TestMatcherTieFirstMinimumWins(t *testing.T) {
	// S1 and S2 are equidistant from the probe; the scan visits students in
	// student_id order, so S1 must win deterministically.
	roster := rosterWith(t,
		&store.Student{StudentID: "S1", Name: "Alice", Course: "BCA", FaceEncoding: []float32{0.3}},
		&store.Student{StudentID: "S2", Name: "Bob", Course: "BCA", FaceEncoding: []float32{-0.3}},
	)
	matcher := NewMatcher(roster, 0.5)

	match, err := matcher.Match(context.Background(), []float32{0})
	if err != nil {
		t.Fatalf("Match() unexpected error: %v", err)
	}
	if match.Student.StudentID != "S1" {
		t.Errorf("Match() student = %s, want S1", match.Student.StudentID)
	}
}

func TestMatcherEmptyProbe(t *testing.T) {
	matcher := NewMatcher(rosterWith(t), 0.5)

	_, err := matcher.Match(context.Background(), nil)
	if !IsMalformedEncoding(err) {
		t.Errorf("Match(nil) error = %v, want MalformedEncodingError", err)
	}
}

func TestMatcherRosterError(t *testing.T) {
	roster := mock.NewStore()
	roster.StudentsError = errors.New("connection reset")
	matcher := NewMatcher(roster, 0.5)

	_, err := matcher.Match(context.Background(), []float32{0})
	if err == nil {
		t.Fatal("Match() expected error, got nil")
	}
	if IsNoFaceMatch(err) || IsMalformedEncoding(err) {
		t.Errorf("Match() error = %v, want plain store error", err)
	}
}
