package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/classtrack/classtrack/internal/store"
)

// AttendanceRepository provides PostgreSQL-backed ledger storage. The
// UNIQUE (student_id, exam_name, exam_date) constraint keeps concurrent
// submissions from producing duplicate rows; the only in-place mutation is
// the Absent-to-Present promotion in InsertRecord.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const recordColumns = "id, student_id, name, course, year, exam_name, exam_date, status, ts"

func scanRecord(row interface{ Scan(...any) error }) (*store.AttendanceRecord, error) {
	var (
		rec  store.AttendanceRecord
		date time.Time
	)
	if err := row.Scan(&rec.ID, &rec.StudentID, &rec.Name, &rec.Course, &rec.Year,
		&rec.ExamName, &date, &rec.Status, &rec.Timestamp); err != nil {
		return nil, err
	}
	rec.ExamDate = date.Format(store.DateLayout)
	return &rec, nil
}

// whereClause builds a WHERE clause and argument list from the filter.
func whereClause(f store.RecordFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
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
	row := r.pool.QueryRow(ctx,
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
	rows, err := r.pool.Query(ctx,
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
// ignored, except that a Present record takes over an existing Absent row:
// a student swept absent by a classmate's earlier submission is promoted
// when they scan themselves.
func (r *AttendanceRepository) InsertRecord(ctx context.Context, rec *store.AttendanceRecord) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (id, student_id, name, course, year, exam_name, exam_date, status, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, exam_name, exam_date) DO UPDATE
		SET id = EXCLUDED.id, status = EXCLUDED.status, ts = EXCLUDED.ts
		WHERE attendance.status = 'Absent' AND EXCLUDED.status = 'Present'
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
