// Package handlers provides HTTP handlers for the web API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/classtrack/classtrack/internal/store"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// Envelope is the response shape for attendance submissions.
type Envelope struct {
	Status           string                  `json:"status"` // success | info | error
	Message          string                  `json:"message"`
	Student          *StudentInfo            `json:"student,omitempty"`
	AttendanceRecord *store.AttendanceRecord `json:"attendance_record,omitempty"`
}

// StudentInfo is the student payload returned to clients; never includes the
// face encoding.
type StudentInfo struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Course    string `json:"course"`
	Year      string `json:"year"`
}

func studentInfo(s *store.Student) *StudentInfo {
	return &StudentInfo{
		StudentID: s.StudentID,
		Name:      s.Name,
		Course:    s.Course,
		Year:      s.Year,
	}
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondOutcome sends an enveloped domain outcome.
func respondOutcome(w http.ResponseWriter, httpStatus int, env Envelope) {
	respondJSON(w, httpStatus, env)
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
