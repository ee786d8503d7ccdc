package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/classtrack/classtrack/internal/attendance"
	"github.com/classtrack/classtrack/internal/store"
)

// ExamsHandler handles exam scheduling and lookup.
type ExamsHandler struct {
	exams    store.ExamWriter
	resolver *attendance.ExamResolver
}

// NewExamsHandler creates a new exams handler.
func NewExamsHandler(exams store.ExamWriter, resolver *attendance.ExamResolver) *ExamsHandler {
	return &ExamsHandler{exams: exams, resolver: resolver}
}

// createExamRequest is an exam scheduling payload. ExamDate accepts either a
// date ("2026-03-10") or an RFC 3339 timestamp.
type createExamRequest struct {
	CourseID string `json:"course_id"`
	ExamName string `json:"exam_name"`
	ExamDate string `json:"exam_date"`
}

func parseExamDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(store.DateLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Create handles POST /exams. One exam per course per day; a second exam for
// the same day is a configuration error and gets 409.
func (h *ExamsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.CourseID == "" || req.ExamName == "" || req.ExamDate == "" {
		respondError(w, http.StatusBadRequest, "course_id, exam_name and exam_date are required")
		return
	}

	examDate, err := parseExamDate(req.ExamDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "exam_date must be YYYY-MM-DD or RFC 3339")
		return
	}

	exam := &store.Exam{
		CourseID: req.CourseID,
		ExamName: req.ExamName,
		ExamDate: examDate,
	}
	if err := h.exams.InsertExam(r.Context(), exam); err != nil {
		if errors.Is(err, store.ErrDuplicateExam) {
			respondError(w, http.StatusConflict, "an exam is already scheduled for this course and day")
			return
		}
		respondError(w, http.StatusServiceUnavailable, "failed to schedule exam")
		return
	}
	respondJSON(w, http.StatusCreated, exam)
}

// Today handles GET /exams/today?course=: resolve today's exam for a course.
func (h *ExamsHandler) Today(w http.ResponseWriter, r *http.Request) {
	course := r.URL.Query().Get("course")
	if course == "" {
		respondError(w, http.StatusBadRequest, "course is required")
		return
	}

	exam, err := h.resolver.ResolveToday(r.Context(), course)
	if err != nil {
		if attendance.IsNoExamScheduled(err) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusServiceUnavailable, "failed to resolve exam")
		return
	}
	respondJSON(w, http.StatusOK, exam)
}
