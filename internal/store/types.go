package store

import (
	"time"
)

// DateLayout is the canonical layout for ledger date strings.
// The exam's own calendar date keys the idempotence check, the unique
// constraint and the daily summary queries.
const DateLayout = "2006-01-02"

// Status is the attendance outcome recorded in the ledger.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Student is a registered roster entry. FaceEncoding is empty until a face
// has been captured for the student; such students are never matching
// candidates. Attendance is a denormalized projection of the ledger and may
// drift - the ledger is authoritative for all reads.
type Student struct {
	StudentID    string             `json:"student_id"`
	Name         string             `json:"name"`
	Course       string             `json:"course"`
	Year         string             `json:"year"`
	FaceEncoding []float32          `json:"face_encoding,omitempty"`
	Attendance   []AttendanceRecord `json:"attendance,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// HasEncoding reports whether the student can take part in face matching.
func (s *Student) HasEncoding() bool {
	return len(s.FaceEncoding) > 0
}

// Exam is a scheduled exam for a course. ID reflects insertion order; when
// the store holds more than one exam for the same course and day (a
// configuration error), the earliest inserted one wins deterministically.
type Exam struct {
	ID       int64     `json:"id"`
	CourseID string    `json:"course_id"`
	ExamName string    `json:"exam_name"`
	ExamDate time.Time `json:"exam_date"`
}

// Date returns the canonical ledger date string for the exam.
func (e *Exam) Date() string {
	return e.ExamDate.Format(DateLayout)
}

// AttendanceRecord is a single immutable ledger entry. At most one record
// exists per (student_id, exam_name, exam_date), enforced by a store-level
// unique constraint with insert-or-ignore semantics.
type AttendanceRecord struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	Course    string    `json:"course"`
	Year      string    `json:"year"`
	ExamName  string    `json:"exam_name"`
	ExamDate  string    `json:"exam_date"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StudentFilter narrows roster queries. Zero value matches everyone.
type StudentFilter struct {
	Course string
}

// RecordFilter narrows ledger queries. Zero value matches everything.
type RecordFilter struct {
	StudentID string
	ExamName  string
	ExamDate  string
	Status    Status
	Course    string
	Year      string
}

// Summary aggregates one day of ledger rows.
type Summary struct {
	TotalStudents int `json:"total_students"`
	PresentToday  int `json:"present_today"`
	AbsentToday   int `json:"absent_today"`
}
