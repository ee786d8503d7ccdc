package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/classtrack/classtrack/internal/attendance"
	"github.com/classtrack/classtrack/internal/store"
	"github.com/classtrack/classtrack/internal/store/mock"
)

// testClock is the frozen reference time used across handler tests.
var testClock = func() time.Time {
	return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

// seedStore builds an in-memory store with a small BCA course and an exam
// scheduled for the test clock's day.
func seedStore(t *testing.T) *mock.Store {
	t.Helper()
	db := mock.NewStore()
	ctx := context.Background()

	students := []*store.Student{
		{StudentID: "S1", Name: "Alice", Course: "BCA", Year: "3", FaceEncoding: []float32{0.62}},
		{StudentID: "S2", Name: "Bob", Course: "BCA", Year: "3", FaceEncoding: []float32{0.41}},
		{StudentID: "S3", Name: "Cara", Course: "BCA", Year: "3"},
	}
	for _, s := range students {
		if err := db.InsertStudent(ctx, s); err != nil {
			t.Fatalf("failed to seed student %s: %v", s.StudentID, err)
		}
	}

	err := db.InsertExam(ctx, &store.Exam{
		CourseID: "BCA",
		ExamName: "Midterm",
		ExamDate: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("failed to seed exam: %v", err)
	}
	return db
}

// testEngine assembles the attendance engine over the store with the frozen
// clock and the default threshold.
func testEngine(db *mock.Store) *attendance.Engine {
	return attendance.NewEngine(
		attendance.NewMatcher(db, 0.5),
		attendance.NewExamResolver(db, testClock),
		attendance.NewReconciler(db, db, testClock),
	)
}

// jsonRequest creates a request with a JSON-encoded body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type.
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code.
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message.
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
