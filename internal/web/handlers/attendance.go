package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/classtrack/classtrack/internal/attendance"
	"github.com/classtrack/classtrack/internal/store"
)

// AttendanceHandler handles attendance submission and ledger queries.
type AttendanceHandler struct {
	engine *attendance.Engine
	ledger store.AttendanceReader
	now    func() time.Time
}

// NewAttendanceHandler creates a new attendance handler. The now function
// supplies the local clock; pass nil for time.Now.
func NewAttendanceHandler(engine *attendance.Engine, ledger store.AttendanceReader, now func() time.Time) *AttendanceHandler {
	if now == nil {
		now = time.Now
	}
	return &AttendanceHandler{engine: engine, ledger: ledger, now: now}
}

// markRequest is a probe submission.
type markRequest struct {
	FaceEncoding []float32 `json:"face_encoding"`
}

// Mark handles POST /attendance/mark: match the probe against the roster,
// resolve today's exam and reconcile the ledger. Domain outcomes map to the
// status envelope; only store failures become 5xx.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondOutcome(w, http.StatusBadRequest, Envelope{
			Status:  "error",
			Message: errInvalidRequestBody,
		})
		return
	}
	if len(req.FaceEncoding) == 0 {
		respondOutcome(w, http.StatusBadRequest, Envelope{
			Status:  "error",
			Message: "no face encoding provided",
		})
		return
	}

	result, err := h.engine.MarkByProbe(r.Context(), req.FaceEncoding)
	if err != nil {
		h.respondMarkError(w, err)
		return
	}

	if result.AlreadyMarked {
		respondOutcome(w, http.StatusOK, Envelope{
			Status:           "info",
			Message:          fmt.Sprintf("%s already marked present for %s", result.Student.Name, result.Exam.ExamName),
			Student:          studentInfo(result.Student),
			AttendanceRecord: result.Record,
		})
		return
	}

	respondOutcome(w, http.StatusOK, Envelope{
		Status: "success",
		Message: fmt.Sprintf("attendance marked for %s (%s) in %s",
			result.Student.Name, result.Student.Course, result.Exam.ExamName),
		Student:          studentInfo(result.Student),
		AttendanceRecord: result.Record,
	})
}

// respondMarkError maps domain errors to user-facing envelopes and
// everything else to a service error.
func (h *AttendanceHandler) respondMarkError(w http.ResponseWriter, err error) {
	switch {
	case attendance.IsMalformedEncoding(err):
		respondOutcome(w, http.StatusBadRequest, Envelope{Status: "error", Message: err.Error()})
	case attendance.IsNoFaceMatch(err):
		respondOutcome(w, http.StatusNotFound, Envelope{
			Status:  "error",
			Message: "face not recognized or confidence too low",
		})
	case attendance.IsNoExamScheduled(err):
		respondOutcome(w, http.StatusBadRequest, Envelope{Status: "error", Message: err.Error()})
	default:
		respondOutcome(w, http.StatusServiceUnavailable, Envelope{
			Status:  "error",
			Message: "attendance service unavailable",
		})
	}
}

// Summary handles GET /attendance/summary. All three counts come from
// today's ledger rows, so total equals present plus absent; before the first
// submission of the day every count is zero.
func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	today := h.now().Format(store.DateLayout)

	records, err := h.ledger.Records(r.Context(), store.RecordFilter{ExamDate: today})
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "failed to query attendance ledger")
		return
	}

	summary := store.Summary{TotalStudents: len(records)}
	for i := range records {
		switch records[i].Status {
		case store.StatusPresent:
			summary.PresentToday++
		case store.StatusAbsent:
			summary.AbsentToday++
		}
	}
	respondJSON(w, http.StatusOK, summary)
}

// Today handles GET /attendance/today?course=&year=: today's ledger rows,
// optionally filtered. Filters compare case- and diacritic-insensitively.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	today := h.now().Format(store.DateLayout)
	course := r.URL.Query().Get("course")
	year := r.URL.Query().Get("year")

	records, err := h.ledger.Records(r.Context(), store.RecordFilter{ExamDate: today})
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "failed to query attendance ledger")
		return
	}

	filtered := make([]store.AttendanceRecord, 0, len(records))
	for i := range records {
		if course != "" && !attendance.SameLabel(records[i].Course, course) {
			continue
		}
		if year != "" && !attendance.SameLabel(records[i].Year, year) {
			continue
		}
		filtered = append(filtered, records[i])
	}
	respondJSON(w, http.StatusOK, filtered)
}
