package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/classtrack/classtrack/internal/store"
)

// ExamResolver finds the exam scheduled for a course on a reference date.
type ExamResolver struct {
	exams store.ExamReader
	now   func() time.Time
}

// NewExamResolver creates a resolver. The now function supplies the local
// clock; pass nil for time.Now.
func NewExamResolver(exams store.ExamReader, now func() time.Time) *ExamResolver {
	if now == nil {
		now = time.Now
	}
	return &ExamResolver{exams: exams, now: now}
}

// dayBounds returns the [start, end) span of the local calendar day of t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// ResolveToday looks up the exam scheduled today for the course. The store
// returns the earliest inserted exam when several exist for the same day;
// exactly one per course per day is assumed. Returns NoExamScheduledError
// when no exam falls within the day.
func (r *ExamResolver) ResolveToday(ctx context.Context, courseID string) (*store.Exam, error) {
	now := r.now()
	from, to := dayBounds(now)

	exam, err := r.exams.FindExam(ctx, courseID, from, to)
	if err != nil {
		return nil, fmt.Errorf("looking up exam for %s: %w", courseID, err)
	}
	if exam == nil {
		return nil, &NoExamScheduledError{Course: courseID, Date: now.Format(store.DateLayout)}
	}
	return exam, nil
}
