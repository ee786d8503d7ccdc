package attendance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/classtrack/classtrack/internal/store"
)

// MarkResult reports the outcome of one reconciliation.
type MarkResult struct {
	Student       *store.Student
	Exam          *store.Exam
	Record        *store.AttendanceRecord
	AlreadyMarked bool
	AbsentMarked  int
}

// Reconciler turns a (matched student, resolved exam) pair into a consistent,
// idempotent set of ledger entries: one Present record for the student plus
// synthesized Absent records for every classmate not yet accounted for.
type Reconciler struct {
	roster store.StudentWriter
	ledger store.AttendanceWriter
	now    func() time.Time
}

// NewReconciler creates a reconciler. The now function supplies the capture
// clock; pass nil for time.Now.
func NewReconciler(roster store.StudentWriter, ledger store.AttendanceWriter, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{roster: roster, ledger: ledger, now: now}
}

// Mark records the student as present for the exam and sweeps the course
// roster for absentees. Repeating the call for the same student/exam/date is
// a no-op reported through MarkResult.AlreadyMarked. A student swept absent
// by a classmate's earlier submission is still recorded present: the ledger
// insert promotes the existing Absent row. A store failure during the sweep
// leaves previously inserted records intact; the sweep is check-then-insert
// per classmate and therefore idempotent on retry.
func (r *Reconciler) Mark(ctx context.Context, student *store.Student, exam *store.Exam) (*MarkResult, error) {
	examDate := exam.Date()

	existing, err := r.ledger.FindRecord(ctx, store.RecordFilter{
		StudentID: student.StudentID,
		ExamName:  exam.ExamName,
		ExamDate:  examDate,
		Status:    store.StatusPresent,
	})
	if err != nil {
		return nil, fmt.Errorf("checking existing attendance: %w", err)
	}
	if existing != nil {
		return &MarkResult{Student: student, Exam: exam, Record: existing, AlreadyMarked: true}, nil
	}

	timestamp := r.now()
	record := &store.AttendanceRecord{
		ID:        uuid.New().String(),
		StudentID: student.StudentID,
		Name:      student.Name,
		Course:    student.Course,
		Year:      student.Year,
		ExamName:  exam.ExamName,
		ExamDate:  examDate,
		Status:    store.StatusPresent,
		Timestamp: timestamp,
	}

	inserted, err := r.ledger.InsertRecord(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("recording presence: %w", err)
	}
	if !inserted {
		// Only an existing Present row leaves the ledger unchanged here (an
		// Absent row would have been promoted): a concurrent submission won
		// the insert between the check above and now.
		return &MarkResult{Student: student, Exam: exam, Record: record, AlreadyMarked: true}, nil
	}

	// Best-effort projection update; the ledger is the system of record.
	if err := r.roster.AppendAttendance(ctx, student.StudentID, *record); err != nil {
		log.Printf("warning: attendance projection update failed for %s: %v", student.StudentID, err)
	}

	absent, err := r.sweepAbsent(ctx, student, exam, examDate, timestamp)
	if err != nil {
		return nil, err
	}

	return &MarkResult{Student: student, Exam: exam, Record: record, AbsentMarked: absent}, nil
}

// sweepAbsent inserts an Absent record for every enrolled classmate with no
// ledger entry for the exam, regardless of status. After the sweep every
// student in the course has exactly one record for the exam/date.
func (r *Reconciler) sweepAbsent(ctx context.Context, marked *store.Student, exam *store.Exam, examDate string, timestamp time.Time) (int, error) {
	var absent int

	for classmate, err := range r.roster.Students(ctx, store.StudentFilter{Course: marked.Course}) {
		if err != nil {
			return absent, fmt.Errorf("sweeping course roster: %w", err)
		}
		if classmate.StudentID == "" || classmate.StudentID == marked.StudentID {
			continue
		}

		existing, err := r.ledger.FindRecord(ctx, store.RecordFilter{
			StudentID: classmate.StudentID,
			ExamName:  exam.ExamName,
			ExamDate:  examDate,
		})
		if err != nil {
			return absent, fmt.Errorf("checking record for %s: %w", classmate.StudentID, err)
		}
		if existing != nil {
			continue
		}

		inserted, err := r.ledger.InsertRecord(ctx, &store.AttendanceRecord{
			ID:        uuid.New().String(),
			StudentID: classmate.StudentID,
			Name:      classmate.Name,
			Course:    classmate.Course,
			Year:      classmate.Year,
			ExamName:  exam.ExamName,
			ExamDate:  examDate,
			Status:    store.StatusAbsent,
			Timestamp: timestamp,
		})
		if err != nil {
			return absent, fmt.Errorf("recording absence for %s: %w", classmate.StudentID, err)
		}
		if inserted {
			absent++
		}
	}

	return absent, nil
}
