package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/pgvector/pgvector-go"

	"github.com/classtrack/classtrack/internal/store"
)

// StudentRepository provides PostgreSQL-backed roster storage. Face encodings
// live in a pgvector column; the attendance projection is a JSONB array.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = "student_id, name, course, year, face_encoding, attendance, created_at"

// scanStudent scans one student row. Works for both sql.Row and sql.Rows.
func scanStudent(row interface{ Scan(...any) error }) (*store.Student, error) {
	var (
		s          store.Student
		encoding   sql.Null[pgvector.Vector]
		projection []byte
	)
	if err := row.Scan(&s.StudentID, &s.Name, &s.Course, &s.Year, &encoding, &projection, &s.CreatedAt); err != nil {
		return nil, err
	}
	if encoding.Valid {
		s.FaceEncoding = encoding.V.Slice()
	}
	if len(projection) > 0 {
		if err := json.Unmarshal(projection, &s.Attendance); err != nil {
			return nil, fmt.Errorf("decode attendance projection: %w", err)
		}
	}
	return &s, nil
}

// encodingValue converts an encoding to a nullable pgvector parameter.
func encodingValue(encoding []float32) any {
	if len(encoding) == 0 {
		return nil
	}
	return pgvector.NewVector(encoding)
}

// GetStudent retrieves a student by ID, returns nil if not found.
func (r *StudentRepository) GetStudent(ctx context.Context, studentID string) (*store.Student, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+studentColumns+" FROM students WHERE student_id = $1", studentID)

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
			query += " WHERE course = $1"
			args = append(args, f.Course)
		}
		query += " ORDER BY student_id"

		rows, err := r.pool.Query(ctx, query, args...)
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
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// InsertStudent registers a new student. Returns store.ErrDuplicateStudent
// when the student_id is taken.
func (r *StudentRepository) InsertStudent(ctx context.Context, s *store.Student) error {
	result, err := r.pool.Exec(ctx, `
		INSERT INTO students (student_id, name, course, year, face_encoding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id) DO NOTHING
	`, s.StudentID, s.Name, s.Course, s.Year, encodingValue(s.FaceEncoding))
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
	result, err := r.pool.Exec(ctx,
		"UPDATE students SET face_encoding = $2 WHERE student_id = $1",
		studentID, encodingValue(encoding))
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

	_, err = r.pool.Exec(ctx,
		"UPDATE students SET attendance = attendance || $2::jsonb WHERE student_id = $1",
		studentID, string(payload))
	if err != nil {
		return fmt.Errorf("append attendance projection: %w", err)
	}
	return nil
}
