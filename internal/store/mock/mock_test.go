package mock

import (
	"context"
	"testing"
	"time"

	"github.com/classtrack/classtrack/internal/store"
)

func ledgerRecord(id string, status store.Status) *store.AttendanceRecord {
	return &store.AttendanceRecord{
		ID:        id,
		StudentID: "S1",
		ExamName:  "Midterm",
		ExamDate:  "2026-03-14",
		Status:    status,
		Timestamp: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestInsertRecordCollisions(t *testing.T) {
	tests := []struct {
		name         string
		existing     store.Status
		incoming     store.Status
		wantInserted bool
		wantStatus   store.Status
		wantID       string
	}{
		{"absent over present ignored", store.StatusPresent, store.StatusAbsent, false, store.StatusPresent, "first"},
		{"absent over absent ignored", store.StatusAbsent, store.StatusAbsent, false, store.StatusAbsent, "first"},
		{"present over present ignored", store.StatusPresent, store.StatusPresent, false, store.StatusPresent, "first"},
		{"present promotes absent", store.StatusAbsent, store.StatusPresent, true, store.StatusPresent, "second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := NewStore()
			if _, err := db.InsertRecord(context.Background(), ledgerRecord("first", tt.existing)); err != nil {
				t.Fatalf("failed to seed record: %v", err)
			}

			inserted, err := db.InsertRecord(context.Background(), ledgerRecord("second", tt.incoming))
			if err != nil {
				t.Fatalf("InsertRecord() unexpected error: %v", err)
			}
			if inserted != tt.wantInserted {
				t.Errorf("InsertRecord() = %v, want %v", inserted, tt.wantInserted)
			}

			records, err := db.Records(context.Background(), store.RecordFilter{StudentID: "S1"})
			if err != nil {
				t.Fatalf("Records() unexpected error: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("ledger has %d records, want 1", len(records))
			}
			if records[0].Status != tt.wantStatus {
				t.Errorf("ledger status = %s, want %s", records[0].Status, tt.wantStatus)
			}
			if records[0].ID != tt.wantID {
				t.Errorf("ledger record id = %s, want %s", records[0].ID, tt.wantID)
			}
		})
	}
}
