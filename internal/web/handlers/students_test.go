package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/classtrack/classtrack/internal/store/mock"
)

func validRegistration() map[string]any {
	return map[string]any{
		"student_id":    "S9",
		"name":          "Eve",
		"course":        "BCA",
		"year":          "2",
		"face_encoding": []float32{0.1, 0.2, 0.3},
	}
}

func TestRegister(t *testing.T) {
	db := mock.NewStore()
	var rebuilt bool
	handler := NewStudentsHandler(db, 3, func() { rebuilt = true })

	req := jsonRequest(t, http.MethodPost, "/api/v1/students", validRegistration())
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	if !rebuilt {
		t.Error("onRegister hook was not called")
	}

	student, err := db.GetStudent(req.Context(), "S9")
	if err != nil || student == nil {
		t.Fatalf("registered student not found: %v", err)
	}
	if !student.HasEncoding() {
		t.Error("registered student has no encoding")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	db := mock.NewStore()
	handler := NewStudentsHandler(db, 3, nil)

	first := jsonRequest(t, http.MethodPost, "/api/v1/students", validRegistration())
	handler.Register(httptest.NewRecorder(), first)

	second := jsonRequest(t, http.MethodPost, "/api/v1/students", validRegistration())
	recorder := httptest.NewRecorder()
	handler.Register(recorder, second)

	assertStatusCode(t, recorder, http.StatusConflict)
	assertJSONError(t, recorder, "student ID already registered")
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing name", func(m map[string]any) { delete(m, "name") }},
		{"missing student_id", func(m map[string]any) { delete(m, "student_id") }},
		{"missing course", func(m map[string]any) { delete(m, "course") }},
		{"missing year", func(m map[string]any) { delete(m, "year") }},
		{"missing encoding", func(m map[string]any) { delete(m, "face_encoding") }},
		{"wrong encoding length", func(m map[string]any) { m["face_encoding"] = []float32{0.1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewStudentsHandler(mock.NewStore(), 3, nil)

			body := validRegistration()
			tt.mutate(body)
			req := jsonRequest(t, http.MethodPost, "/api/v1/students", body)
			recorder := httptest.NewRecorder()
			handler.Register(recorder, req)

			assertStatusCode(t, recorder, http.StatusBadRequest)
		})
	}
}

func TestRegisterInvalidBody(t *testing.T) {
	handler := NewStudentsHandler(mock.NewStore(), 3, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students", strings.NewReader("{"))
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, errInvalidRequestBody)
}

func TestList(t *testing.T) {
	db := seedStore(t)
	handler := NewStudentsHandler(db, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var students []StudentInfo
	parseJSONResponse(t, recorder, &students)
	if len(students) != 3 {
		t.Errorf("List() returned %d students, want 3", len(students))
	}

	// The raw body must never leak encodings.
	if strings.Contains(recorder.Body.String(), "face_encoding") {
		t.Error("List() response contains face encodings")
	}
}

func TestListCourseFilter(t *testing.T) {
	db := seedStore(t)
	handler := NewStudentsHandler(db, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students?course=MCA", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var students []StudentInfo
	parseJSONResponse(t, recorder, &students)
	if len(students) != 0 {
		t.Errorf("List(MCA) returned %d students, want 0", len(students))
	}
	// Empty result is a JSON array, not null.
	if strings.TrimSpace(recorder.Body.String()) != "[]" {
		t.Errorf("List() empty body = %q, want []", recorder.Body.String())
	}
}

func TestUpdateEncoding(t *testing.T) {
	db := seedStore(t)
	var rebuilt bool
	handler := NewStudentsHandler(db, 1, func() { rebuilt = true })

	req := jsonRequest(t, http.MethodPut, "/api/v1/students/S3/encoding", map[string]any{
		"face_encoding": []float32{0.77},
	})
	req = requestWithChiParams(req, map[string]string{"id": "S3"})
	recorder := httptest.NewRecorder()
	handler.UpdateEncoding(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if !rebuilt {
		t.Error("onRegister hook was not called")
	}

	student, err := db.GetStudent(req.Context(), "S3")
	if err != nil || student == nil {
		t.Fatalf("student not found: %v", err)
	}
	if !student.HasEncoding() || student.FaceEncoding[0] != 0.77 {
		t.Errorf("encoding = %v, want [0.77]", student.FaceEncoding)
	}
}

func TestUpdateEncodingUnknownStudent(t *testing.T) {
	handler := NewStudentsHandler(seedStore(t), 1, nil)

	req := jsonRequest(t, http.MethodPut, "/api/v1/students/NOPE/encoding", map[string]any{
		"face_encoding": []float32{0.77},
	})
	req = requestWithChiParams(req, map[string]string{"id": "NOPE"})
	recorder := httptest.NewRecorder()
	handler.UpdateEncoding(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "student not found")
}

func TestUpdateEncodingWrongLength(t *testing.T) {
	handler := NewStudentsHandler(seedStore(t), 3, nil)

	req := jsonRequest(t, http.MethodPut, "/api/v1/students/S3/encoding", map[string]any{
		"face_encoding": []float32{0.77},
	})
	req = requestWithChiParams(req, map[string]string{"id": "S3"})
	recorder := httptest.NewRecorder()
	handler.UpdateEncoding(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestRegisterStoreFailure(t *testing.T) {
	db := mock.NewStore()
	db.InsertError = errors.New("connection reset")
	handler := NewStudentsHandler(db, 3, nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/students", validRegistration())
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
}
