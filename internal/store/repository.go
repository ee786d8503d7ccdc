// Package store defines the persistence model and the repository interfaces
// consumed by the attendance engine. Concrete backends live in the postgres
// and mariadb subpackages; mock provides an in-memory implementation for
// tests.
package store

import (
	"context"
	"errors"
	"iter"
	"time"
)

// ErrDuplicateStudent is returned by InsertStudent when the student_id is
// already registered.
var ErrDuplicateStudent = errors.New("student ID already registered")

// ErrDuplicateExam is returned by InsertExam when an exam already exists for
// the same course and day.
var ErrDuplicateExam = errors.New("exam already scheduled for course and day")

// StudentReader provides read-only access to the roster.
type StudentReader interface {
	// GetStudent retrieves a student by ID, returns nil if not found.
	GetStudent(ctx context.Context, studentID string) (*Student, error)
	// Students returns a lazy cursor over students matching the filter.
	// The roster is not assumed to fit in memory; backends stream rows.
	// Iteration stops at the first error, which is yielded with a nil student.
	Students(ctx context.Context, f StudentFilter) iter.Seq2[*Student, error]
	// CountStudents returns the number of registered students.
	CountStudents(ctx context.Context) (int, error)
}

// StudentWriter provides write access to the roster.
type StudentWriter interface {
	StudentReader

	// InsertStudent registers a new student. Returns ErrDuplicateStudent when
	// the student_id is taken.
	InsertStudent(ctx context.Context, s *Student) error
	// UpdateFaceEncoding replaces the stored face encoding for a student.
	UpdateFaceEncoding(ctx context.Context, studentID string, encoding []float32) error
	// AppendAttendance pushes a record onto the student's denormalized
	// attendance projection. Best-effort; the ledger stays authoritative.
	AppendAttendance(ctx context.Context, studentID string, rec AttendanceRecord) error
}

// ExamReader resolves scheduled exams.
type ExamReader interface {
	// FindExam returns the exam for the course whose exam_date falls within
	// [from, to), or nil if none is scheduled. When several match, the
	// earliest inserted exam is returned.
	FindExam(ctx context.Context, courseID string, from, to time.Time) (*Exam, error)
}

// ExamWriter schedules exams.
type ExamWriter interface {
	ExamReader

	// InsertExam schedules an exam. Returns ErrDuplicateExam when the course
	// already has an exam on that day.
	InsertExam(ctx context.Context, e *Exam) error
}

// AttendanceReader provides read access to the attendance ledger.
type AttendanceReader interface {
	// FindRecord returns the first record matching student/exam/date and,
	// when f.Status is set, that status. Returns nil if no record exists.
	FindRecord(ctx context.Context, f RecordFilter) (*AttendanceRecord, error)
	// Records returns all ledger rows matching the filter.
	Records(ctx context.Context, f RecordFilter) ([]AttendanceRecord, error)
}

// AttendanceWriter appends to the attendance ledger.
type AttendanceWriter interface {
	AttendanceReader

	// InsertRecord appends a record to the ledger, keyed by the identity
	// (student_id, exam_name, exam_date). A collision is ignored, with one
	// exception: a Present record takes over an existing Absent row, so a
	// student swept absent earlier is promoted when they scan themselves.
	// Reports false when the ledger was left unchanged.
	InsertRecord(ctx context.Context, rec *AttendanceRecord) (bool, error)
}
