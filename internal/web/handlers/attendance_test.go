package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/classtrack/classtrack/internal/store"
	"github.com/classtrack/classtrack/internal/store/mock"
)

func newAttendanceHandler(t *testing.T) (*AttendanceHandler, *mock.Store) {
	t.Helper()
	db := seedStore(t)
	return NewAttendanceHandler(testEngine(db), db, testClock), db
}

func TestMarkSuccess(t *testing.T) {
	handler, db := newAttendanceHandler(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/attendance/mark", map[string]any{
		"face_encoding": []float32{0.40},
	})
	recorder := httptest.NewRecorder()
	handler.Mark(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var env Envelope
	parseJSONResponse(t, recorder, &env)
	if env.Status != "success" {
		t.Errorf("status = %s, want success", env.Status)
	}
	if env.Student == nil || env.Student.StudentID != "S2" {
		t.Errorf("student = %+v, want S2", env.Student)
	}
	if env.AttendanceRecord == nil || env.AttendanceRecord.Status != store.StatusPresent {
		t.Errorf("record = %+v, want Present", env.AttendanceRecord)
	}

	// Bob is present, Alice and Cara are swept absent.
	records, err := db.Records(context.Background(), store.RecordFilter{ExamDate: "2026-03-14"})
	if err != nil {
		t.Fatalf("Records() unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("ledger has %d records, want 3", len(records))
	}
}

func TestMarkIdempotent(t *testing.T) {
	handler, _ := newAttendanceHandler(t)

	for i, wantStatus := range []string{"success", "info"} {
		req := jsonRequest(t, http.MethodPost, "/api/v1/attendance/mark", map[string]any{
			"face_encoding": []float32{0.40},
		})
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
		var env Envelope
		parseJSONResponse(t, recorder, &env)
		if env.Status != wantStatus {
			t.Errorf("call %d: status = %s, want %s", i+1, env.Status, wantStatus)
		}
	}
}

func TestMarkNoFaceMatch(t *testing.T) {
	handler, _ := newAttendanceHandler(t)

	// Probe far from every registered encoding.
	req := jsonRequest(t, http.MethodPost, "/api/v1/attendance/mark", map[string]any{
		"face_encoding": []float32{5.0},
	})
	recorder := httptest.NewRecorder()
	handler.Mark(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	var env Envelope
	parseJSONResponse(t, recorder, &env)
	if env.Status != "error" {
		t.Errorf("status = %s, want error", env.Status)
	}
	if env.Message != "face not recognized or confidence too low" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestMarkNoExamScheduled(t *testing.T) {
	db := seedStore(t)
	// Only MCA has a student today; no exam is scheduled for MCA.
	err := db.InsertStudent(context.Background(), &store.Student{
		StudentID: "M1", Name: "Dana", Course: "MCA", Year: "1", FaceEncoding: []float32{9.0},
	})
	if err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}
	handler := NewAttendanceHandler(testEngine(db), db, testClock)

	req := jsonRequest(t, http.MethodPost, "/api/v1/attendance/mark", map[string]any{
		"face_encoding": []float32{9.0},
	})
	recorder := httptest.NewRecorder()
	handler.Mark(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	var env Envelope
	parseJSONResponse(t, recorder, &env)
	if !strings.Contains(env.Message, "no exam scheduled") {
		t.Errorf("message = %q, want a no-exam explanation", env.Message)
	}
}

func TestMarkEmptyEncoding(t *testing.T) {
	handler, _ := newAttendanceHandler(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/attendance/mark", map[string]any{})
	recorder := httptest.NewRecorder()
	handler.Mark(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestMarkInvalidBody(t *testing.T) {
	handler, _ := newAttendanceHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/mark", strings.NewReader("not json"))
	recorder := httptest.NewRecorder()
	handler.Mark(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestMarkStoreFailure(t *testing.T) {
	db := seedStore(t)
	db.FindRecordError = context.DeadlineExceeded
	handler := NewAttendanceHandler(testEngine(db), db, testClock)

	req := jsonRequest(t, http.MethodPost, "/api/v1/attendance/mark", map[string]any{
		"face_encoding": []float32{0.40},
	})
	recorder := httptest.NewRecorder()
	handler.Mark(recorder, req)

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
}

func TestSummary(t *testing.T) {
	handler, _ := newAttendanceHandler(t)

	// Mark Bob first so today's ledger has 1 Present + 2 Absent. All three
	// counts come from the day's ledger rows, so total = present + absent.
	markReq := jsonRequest(t, http.MethodPost, "/api/v1/attendance/mark", map[string]any{
		"face_encoding": []float32{0.40},
	})
	handler.Mark(httptest.NewRecorder(), markReq)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/summary", nil)
	recorder := httptest.NewRecorder()
	handler.Summary(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var summary store.Summary
	parseJSONResponse(t, recorder, &summary)
	if summary.TotalStudents != 3 {
		t.Errorf("TotalStudents = %d, want 3", summary.TotalStudents)
	}
	if summary.PresentToday != 1 {
		t.Errorf("PresentToday = %d, want 1", summary.PresentToday)
	}
	if summary.AbsentToday != 2 {
		t.Errorf("AbsentToday = %d, want 2", summary.AbsentToday)
	}
	if summary.TotalStudents != summary.PresentToday+summary.AbsentToday {
		t.Errorf("summary = %+v, want total = present + absent", summary)
	}
}

func TestSummaryEmptyLedger(t *testing.T) {
	handler, _ := newAttendanceHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/summary", nil)
	recorder := httptest.NewRecorder()
	handler.Summary(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var summary store.Summary
	parseJSONResponse(t, recorder, &summary)
	if summary.TotalStudents != 0 || summary.PresentToday != 0 || summary.AbsentToday != 0 {
		t.Errorf("summary = %+v, want all zero before the first submission", summary)
	}
}

func TestToday(t *testing.T) {
	db := seedStore(t)
	handler := NewAttendanceHandler(testEngine(db), db, testClock)

	seedRecords := []store.AttendanceRecord{
		{ID: "r1", StudentID: "S2", Name: "Bob", Course: "BCA", Year: "3", ExamName: "Midterm", ExamDate: "2026-03-14", Status: store.StatusPresent, Timestamp: testClock()},
		{ID: "r2", StudentID: "S1", Name: "Alice", Course: "BCA", Year: "3", ExamName: "Midterm", ExamDate: "2026-03-14", Status: store.StatusAbsent, Timestamp: testClock()},
		{ID: "r3", StudentID: "M1", Name: "Dana", Course: "MCA", Year: "1", ExamName: "Algebra", ExamDate: "2026-03-14", Status: store.StatusPresent, Timestamp: testClock()},
		{ID: "r4", StudentID: "S2", Name: "Bob", Course: "BCA", Year: "3", ExamName: "Final", ExamDate: "2026-03-01", Status: store.StatusPresent, Timestamp: testClock().AddDate(0, 0, -13)},
	}
	for i := range seedRecords {
		if _, err := db.InsertRecord(context.Background(), &seedRecords[i]); err != nil {
			t.Fatalf("failed to seed record: %v", err)
		}
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all of today", "", 3},
		{"course filter", "?course=BCA", 2},
		{"course filter is case insensitive", "?course=bca", 2},
		{"course and year", "?course=MCA&year=1", 1},
		{"no match", "?course=BBA", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today"+tt.query, nil)
			recorder := httptest.NewRecorder()
			handler.Today(recorder, req)

			assertStatusCode(t, recorder, http.StatusOK)
			var records []store.AttendanceRecord
			parseJSONResponse(t, recorder, &records)
			if len(records) != tt.want {
				t.Errorf("Today(%q) returned %d records, want %d", tt.query, len(records), tt.want)
			}
			for _, rec := range records {
				if rec.ExamDate != "2026-03-14" {
					t.Errorf("record %s has date %s, want today only", rec.ID, rec.ExamDate)
				}
			}
		})
	}
}
