package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/classtrack/classtrack/internal/store"
)

// ExamRepository provides PostgreSQL-backed exam schedule storage.
type ExamRepository struct {
	pool *Pool
}

// NewExamRepository creates a new PostgreSQL exam repository.
func NewExamRepository(pool *Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// FindExam returns the exam for the course whose exam_date falls within
// [from, to), or nil if none. Ordering by id makes the earliest inserted exam
// win deterministically if the one-exam-per-course-per-day assumption is
// violated.
func (r *ExamRepository) FindExam(ctx context.Context, courseID string, from, to time.Time) (*store.Exam, error) {
	var e store.Exam
	err := r.pool.QueryRow(ctx, `
		SELECT id, course_id, exam_name, exam_date
		FROM exams
		WHERE course_id = $1 AND exam_date >= $2 AND exam_date < $3
		ORDER BY id
		LIMIT 1
	`, courseID, from, to).Scan(&e.ID, &e.CourseID, &e.ExamName, &e.ExamDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query exam: %w", err)
	}
	return &e, nil
}

// InsertExam schedules an exam. Returns store.ErrDuplicateExam when the
// course already has an exam on that day.
func (r *ExamRepository) InsertExam(ctx context.Context, e *store.Exam) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO exams (course_id, exam_name, exam_date, exam_day)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (course_id, exam_day) DO NOTHING
		RETURNING id
	`, e.CourseID, e.ExamName, e.ExamDate, e.Date()).Scan(&e.ID)
	if err == sql.ErrNoRows {
		return store.ErrDuplicateExam
	}
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}
	return nil
}
