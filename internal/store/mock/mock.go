// Package mock provides an in-memory implementation of the store interfaces
// for testing.
package mock

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/classtrack/classtrack/internal/store"
)

// Store is an in-memory store implementing StudentWriter, ExamWriter and
// AttendanceWriter. A single mutex serializes all access, which also gives
// the ledger insert the identity-collision semantics the reconciler relies on.
type Store struct {
	mu       sync.Mutex
	students map[string]*store.Student
	exams    []*store.Exam
	records  []store.AttendanceRecord
	nextExam int64

	// Error injection
	StudentsError   error
	GetStudentError error
	FindExamError   error
	FindRecordError error
	InsertError     error
	AppendError     error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		students: make(map[string]*store.Student),
		nextExam: 1,
	}
}

// GetStudent retrieves a student by ID, returns nil if not found.
func (m *Store) GetStudent(ctx context.Context, studentID string) (*store.Student, error) {
	if m.GetStudentError != nil {
		return nil, m.GetStudentError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[studentID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

// Students returns students matching the filter in student_id order.
func (m *Store) Students(ctx context.Context, f store.StudentFilter) iter.Seq2[*store.Student, error] {
	return func(yield func(*store.Student, error) bool) {
		if m.StudentsError != nil {
			yield(nil, m.StudentsError)
			return
		}

		m.mu.Lock()
		ids := make([]string, 0, len(m.students))
		for id, s := range m.students {
			if f.Course != "" && s.Course != f.Course {
				continue
			}
			ids = append(ids, id)
		}
		sort.Strings(ids)
		snapshot := make([]*store.Student, 0, len(ids))
		for _, id := range ids {
			copied := *m.students[id]
			snapshot = append(snapshot, &copied)
		}
		m.mu.Unlock()

		for _, s := range snapshot {
			if !yield(s, nil) {
				return
			}
		}
	}
}

// CountStudents returns the number of registered students.
func (m *Store) CountStudents(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.students), nil
}

// InsertStudent registers a new student.
func (m *Store) InsertStudent(ctx context.Context, s *store.Student) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.students[s.StudentID]; exists {
		return store.ErrDuplicateStudent
	}
	copied := *s
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	m.students[s.StudentID] = &copied
	return nil
}

// UpdateFaceEncoding replaces a student's stored encoding.
func (m *Store) UpdateFaceEncoding(ctx context.Context, studentID string, encoding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[studentID]
	if !ok {
		return fmt.Errorf("student %s not found", studentID)
	}
	s.FaceEncoding = append([]float32(nil), encoding...)
	return nil
}

// AppendAttendance pushes a record onto the student's projection.
func (m *Store) AppendAttendance(ctx context.Context, studentID string, rec store.AttendanceRecord) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.students[studentID]; ok {
		s.Attendance = append(s.Attendance, rec)
	}
	return nil
}

// InsertExam schedules an exam.
func (m *Store) InsertExam(ctx context.Context, e *store.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.exams {
		if existing.CourseID == e.CourseID && existing.Date() == e.Date() {
			return store.ErrDuplicateExam
		}
	}
	copied := *e
	copied.ID = m.nextExam
	m.nextExam++
	m.exams = append(m.exams, &copied)
	e.ID = copied.ID
	return nil
}

// FindExam returns the earliest inserted exam for the course within [from, to).
func (m *Store) FindExam(ctx context.Context, courseID string, from, to time.Time) (*store.Exam, error) {
	if m.FindExamError != nil {
		return nil, m.FindExamError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.exams {
		if e.CourseID != courseID {
			continue
		}
		if e.ExamDate.Before(from) || !e.ExamDate.Before(to) {
			continue
		}
		copied := *e
		return &copied, nil
	}
	return nil, nil
}

func matches(rec *store.AttendanceRecord, f store.RecordFilter) bool {
	if f.StudentID != "" && rec.StudentID != f.StudentID {
		return false
	}
	if f.ExamName != "" && rec.ExamName != f.ExamName {
		return false
	}
	if f.ExamDate != "" && rec.ExamDate != f.ExamDate {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.Course != "" && rec.Course != f.Course {
		return false
	}
	if f.Year != "" && rec.Year != f.Year {
		return false
	}
	return true
}

// FindRecord returns the first ledger row matching the filter, or nil.
func (m *Store) FindRecord(ctx context.Context, f store.RecordFilter) (*store.AttendanceRecord, error) {
	if m.FindRecordError != nil {
		return nil, m.FindRecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if matches(&m.records[i], f) {
			copied := m.records[i]
			return &copied, nil
		}
	}
	return nil, nil
}

// Records returns all ledger rows matching the filter.
func (m *Store) Records(ctx context.Context, f store.RecordFilter) ([]store.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.AttendanceRecord
	for i := range m.records {
		if matches(&m.records[i], f) {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

// InsertRecord appends a record. An identity collision on (student_id,
// exam_name, exam_date) is ignored, except that a Present record takes over
// an existing Absent row.
func (m *Store) InsertRecord(ctx context.Context, rec *store.AttendanceRecord) (bool, error) {
	if m.InsertError != nil {
		return false, m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].StudentID == rec.StudentID &&
			m.records[i].ExamName == rec.ExamName &&
			m.records[i].ExamDate == rec.ExamDate {
			if m.records[i].Status == store.StatusAbsent && rec.Status == store.StatusPresent {
				m.records[i] = *rec
				return true, nil
			}
			return false, nil
		}
	}
	m.records = append(m.records, *rec)
	return true, nil
}
