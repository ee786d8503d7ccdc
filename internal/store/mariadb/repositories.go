package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/classtrack/classtrack/internal/store"
)

// StudentRepository provides MariaDB-backed roster storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new MariaDB student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = "student_id, name, course, year, face_encoding, attendance, created_at"

func scanStudent(row interface{ Scan(...any) error }) (*store.Student, error) {
	var (
		s          store.Student
		encoding   sql.NullString
		projection sql.NullString
	)
	if err := row.Scan(&s.StudentID, &s.Name, &s.Course, &s.Year, &encoding, &projection, &s.CreatedAt); err != nil {
		return nil, err
	}
	if encoding.Valid && encoding.String != "" {
		if err := json.Unmarshal([]byte(encoding.String), &s.FaceEncoding); err != nil {
			return nil, fmt.Errorf("decode face encoding: %w", err)
		}
	}
	if projection.Valid && projection.String != "" {
		if err := json.Unmarshal([]byte(projection.String), &s.Attendance); err != nil {
			return nil, fmt.Errorf("decode attendance projection: %w", err)
		}
	}
	return &s, nil
}

func encodingValue(encoding []float32) (any, error) {
	if len(encoding) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(encoding)
	if err != nil {
		return nil, fmt.Errorf("encode face encoding: %w", err)
	}
	return string(payload), nil
}

// GetStudent retrieves a student by ID, returns nil if not found.
func (r *StudentRepository) GetStudent(ctx context.Context, studentID string) (*store.Student, error) {
	row := r.pool.db.QueryRowContext(ctx,
		"SELECT "+studentColumns+" FROM students WHERE student_id = ?", studentID)

	s, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	return s, nil
}

// Students streams students matching the filter in stable student_id order.
func (r *StudentRepository) Students(ctx context.Context, f store.StudentFilter) iter.Seq2[*store.Student, error] {
	return func(yield func(*store.Student, error) bool) {
		query := "SELECT " + studentColumns + " FROM students"
		var args []any
		if f.Course != "" {
			query += " WHERE course = ?"
			args = append(args, f.Course)
		}
		query += " ORDER BY student_id"

		rows, err := r.pool.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("query students: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			s, err := scanStudent(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scan student: %w", err))
				return
			}
			if !yield(s, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate students: %w", err))
		}
	}
}

// CountStudents returns the number of registered students.
func (r *StudentRepository) CountStudents(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// InsertStudent registers a new student. Returns store.ErrDuplicateStudent
// when the student_id is taken.
func (r *StudentRepository) InsertStudent(ctx context.Context, s *store.Student) error {
	encoding, err := encodingValue(s.FaceEncoding)
	if err != nil {
		return err
	}

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT IGNORE INTO students (student_id, name, course, year, face_encoding, attendance)
		VALUES (?, ?, ?, ?, ?, '[]')
	`, s.StudentID, s.Name, s.Course, s.Year, encoding)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert student rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrDuplicateStudent
	}
	return nil
}

// UpdateFaceEncoding replaces the stored face encoding for a student.
func (r *StudentRepository) UpdateFaceEncoding(ctx context.Context, studentID string, encoding []float32) error {
	value, err := encodingValue(encoding)
	if err != nil {
		return err
	}

	result, err := r.pool.db.ExecContext(ctx,
		"UPDATE students SET face_encoding = ? WHERE student_id = ?", value, studentID)
	if err != nil {
		return fmt.Errorf("update face encoding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update face encoding rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("student %s not found", studentID)
	}
	return nil
}

// AppendAttendance pushes a record onto the student's attendance projection.
func (r *StudentRepository) AppendAttendance(ctx context.Context, studentID string, rec store.AttendanceRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode attendance record: %w", err)
	}

	_, err = r.pool.db.ExecContext(ctx, `
		UPDATE students
		SET attendance = JSON_ARRAY_APPEND(COALESCE(attendance, '[]'), '$', CAST(? AS JSON))
		WHERE student_id = ?
	`, string(payload), studentID)
	if err != nil {
		return fmt.Errorf("append attendance projection: %w", err)
	}
	return nil
}

// ExamRepository provides MariaDB-backed exam schedule storage.
type ExamRepository struct {
	pool *Pool
}

// NewExamRepository creates a new MariaDB exam repository.
func NewExamRepository(pool *Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// FindExam returns the exam for the course whose exam_date falls within
// [from, to), or nil if none. The earliest inserted exam wins.
func (r *ExamRepository) FindExam(ctx context.Context, courseID string, from, to time.Time) (*store.Exam, error) {
	var e store.Exam
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id, course_id, exam_name, exam_date
		FROM exams
		WHERE course_id = ? AND exam_date >= ? AND exam_date < ?
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
	result, err := r.pool.db.ExecContext(ctx, `
		INSERT IGNORE INTO exams (course_id, exam_name, exam_date, exam_day)
		VALUES (?, ?, ?, ?)
	`, e.CourseID, e.ExamName, e.ExamDate, e.Date())
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert exam rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrDuplicateExam
	}

	id, err := result.LastInsertId()
	if err == nil {
		e.ID = id
	}
	return nil
}

// AttendanceRepository provides MariaDB-backed ledger storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new MariaDB attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const recordColumns = "id, student_id, name, course, year, exam_name, exam_date, status, ts"

func scanRecord(row interface{ Scan(...any) error }) (*store.AttendanceRecord, error) {
	var rec store.AttendanceRecord
	if err := row.Scan(&rec.ID, &rec.StudentID, &rec.Name, &rec.Course, &rec.Year,
		&rec.ExamName, &rec.ExamDate, &rec.Status, &rec.Timestamp); err != nil {
		return nil, err
	}
	return &rec, nil
}

func whereClause(f store.RecordFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, value any) {
		conds = append(conds, column+" = ?")
		args = append(args, value)
	}

	if f.StudentID != "" {
		add("student_id", f.StudentID)
	}
	if f.ExamName != "" {
		add("exam_name", f.ExamName)
	}
	if f.ExamDate != "" {
		add("exam_date", f.ExamDate)
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}
	if f.Course != "" {
		add("course", f.Course)
	}
	if f.Year != "" {
		add("year", f.Year)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// FindRecord returns the first ledger row matching the filter, or nil.
func (r *AttendanceRepository) FindRecord(ctx context.Context, f store.RecordFilter) (*store.AttendanceRecord, error) {
	where, args := whereClause(f)
	row := r.pool.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM attendance"+where+" ORDER BY ts LIMIT 1", args...)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query attendance record: %w", err)
	}
	return rec, nil
}

// Records returns all ledger rows matching the filter in capture order.
func (r *AttendanceRepository) Records(ctx context.Context, f store.RecordFilter) ([]store.AttendanceRecord, error) {
	where, args := whereClause(f)
	rows, err := r.pool.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM attendance"+where+" ORDER BY ts, student_id", args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance records: %w", err)
	}
	defer rows.Close()

	var records []store.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// InsertRecord appends a record to the ledger. On an identity collision
// ((student_id, exam_name, exam_date) already recorded) the insert is
// ignored, except that a Present record takes over an existing Absent row.
// The IF assignments must keep status last so the earlier ones still see
// the stored value.
func (r *AttendanceRepository) InsertRecord(ctx context.Context, rec *store.AttendanceRecord) (bool, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO attendance (id, student_id, name, course, year, exam_name, exam_date, status, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			id = IF(status = 'Absent' AND VALUES(status) = 'Present', VALUES(id), id),
			ts = IF(status = 'Absent' AND VALUES(status) = 'Present', VALUES(ts), ts),
			status = IF(status = 'Absent' AND VALUES(status) = 'Present', VALUES(status), status)
	`, rec.ID, rec.StudentID, rec.Name, rec.Course, rec.Year,
		rec.ExamName, rec.ExamDate, string(rec.Status), rec.Timestamp)
	if err != nil {
		return false, fmt.Errorf("insert attendance record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert attendance rows affected: %w", err)
	}
	return affected > 0, nil
}
