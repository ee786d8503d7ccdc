package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classtrack/classtrack/internal/store"
)

// StudentsHandler handles roster registration and listing.
type StudentsHandler struct {
	roster      store.StudentWriter
	encodingDim int
	onRegister  func() // optional roster-index refresh hook
}

// NewStudentsHandler creates a new students handler. encodingDim is the
// expected face encoding length; onRegister, when non-nil, runs after every
// successful roster mutation.
func NewStudentsHandler(roster store.StudentWriter, encodingDim int, onRegister func()) *StudentsHandler {
	return &StudentsHandler{roster: roster, encodingDim: encodingDim, onRegister: onRegister}
}

// registerRequest is a student registration payload.
type registerRequest struct {
	Name         string    `json:"name"`
	StudentID    string    `json:"student_id"`
	Course       string    `json:"course"`
	Year         string    `json:"year"`
	FaceEncoding []float32 `json:"face_encoding"`
}

func (req *registerRequest) validate(encodingDim int) string {
	switch {
	case req.Name == "":
		return "name is required"
	case req.StudentID == "":
		return "student_id is required"
	case req.Course == "":
		return "course is required"
	case req.Year == "":
		return "year is required"
	case len(req.FaceEncoding) == 0:
		return "face_encoding is required"
	case encodingDim > 0 && len(req.FaceEncoding) != encodingDim:
		return "face_encoding has the wrong length"
	}
	return ""
}

// Register handles POST /students. Duplicate student IDs get 409.
func (h *StudentsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if msg := req.validate(h.encodingDim); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	student := &store.Student{
		StudentID:    req.StudentID,
		Name:         req.Name,
		Course:       req.Course,
		Year:         req.Year,
		FaceEncoding: req.FaceEncoding,
	}

	if err := h.roster.InsertStudent(r.Context(), student); err != nil {
		if errors.Is(err, store.ErrDuplicateStudent) {
			respondError(w, http.StatusConflict, "student ID already registered")
			return
		}
		respondError(w, http.StatusServiceUnavailable, "failed to register student")
		return
	}

	if h.onRegister != nil {
		h.onRegister()
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "student registered successfully",
	})
}

// List handles GET /students: the roster without encodings.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	course := r.URL.Query().Get("course")

	var students []StudentInfo
	for s, err := range h.roster.Students(r.Context(), store.StudentFilter{Course: course}) {
		if err != nil {
			respondError(w, http.StatusServiceUnavailable, "failed to query roster")
			return
		}
		students = append(students, *studentInfo(s))
	}
	if students == nil {
		students = []StudentInfo{}
	}
	respondJSON(w, http.StatusOK, students)
}

// updateEncodingRequest is a face re-registration payload.
type updateEncodingRequest struct {
	FaceEncoding []float32 `json:"face_encoding"`
}

// UpdateEncoding handles PUT /students/{id}/encoding: replace the stored
// face encoding for an existing student.
func (h *StudentsHandler) UpdateEncoding(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	var req updateEncodingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.FaceEncoding) == 0 {
		respondError(w, http.StatusBadRequest, "face_encoding is required")
		return
	}
	if h.encodingDim > 0 && len(req.FaceEncoding) != h.encodingDim {
		respondError(w, http.StatusBadRequest, "face_encoding has the wrong length")
		return
	}

	existing, err := h.roster.GetStudent(r.Context(), studentID)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "failed to query roster")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}

	if err := h.roster.UpdateFaceEncoding(r.Context(), studentID, req.FaceEncoding); err != nil {
		respondError(w, http.StatusServiceUnavailable, "failed to update face encoding")
		return
	}

	if h.onRegister != nil {
		h.onRegister()
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "face encoding updated",
	})
}
