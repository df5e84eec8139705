package db

import (
	"testing"

	"github.com/rsclarke/goepp/internal/models"
)

func TestCreateAndGetJournalEntry(t *testing.T) {
	db := openTestDB(t)

	want := models.JournalEntry{
		OccurredAt: 1700000000000,
		Command:    "domain:check",
		User:       "registrar-1",
		ClTRID:     "ABC-12345",
		SvTRID:     "SRV-1",
		Code:       1000,
		Message:    "Command completed successfully",
		DurationMS: 12,
		Request:    "<epp/>",
		Response:   "<epp><response/></epp>",
	}
	id, err := CreateJournalEntry(db, want)
	if err != nil {
		t.Fatalf("CreateJournalEntry failed: %v", err)
	}
	want.ID = id

	got, err := GetJournalEntry(db, id)
	if err != nil {
		t.Fatalf("GetJournalEntry failed: %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("GetJournalEntry = %+v, want %+v", got, want)
	}

	missing, err := GetJournalEntry(db, id+1)
	if err != nil {
		t.Fatalf("GetJournalEntry failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown id, got %+v", missing)
	}
}

func TestGetJournalEntryByClTRID(t *testing.T) {
	db := openTestDB(t)

	for _, code := range []int{2400, 1000} {
		if _, err := CreateJournalEntry(db, models.JournalEntry{
			OccurredAt: 1, Command: "domain:create", ClTRID: "RETRY-1", Code: code,
		}); err != nil {
			t.Fatalf("CreateJournalEntry failed: %v", err)
		}
	}

	got, err := GetJournalEntryByClTRID(db, "RETRY-1")
	if err != nil {
		t.Fatalf("GetJournalEntryByClTRID failed: %v", err)
	}
	if got == nil || got.Code != 1000 {
		t.Errorf("expected the latest entry, got %+v", got)
	}

	none, err := GetJournalEntryByClTRID(db, "NOPE")
	if err != nil {
		t.Fatalf("GetJournalEntryByClTRID failed: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil, got %+v", none)
	}
}

func TestListJournalEntries(t *testing.T) {
	db := openTestDB(t)

	seed := []models.JournalEntry{
		{OccurredAt: 100, Command: "login", ClTRID: "T1"},
		{OccurredAt: 200, Command: "domain:check", ClTRID: "T2"},
		{OccurredAt: 300, Command: "domain:check", ClTRID: "T3"},
		{OccurredAt: 400, Command: "logout", ClTRID: "T4"},
	}
	for _, e := range seed {
		if _, err := CreateJournalEntry(db, e); err != nil {
			t.Fatalf("CreateJournalEntry failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter models.JournalFilter
		want   []string
	}{
		{"all newest first", models.JournalFilter{}, []string{"T4", "T3", "T2", "T1"}},
		{"by command", models.JournalFilter{Command: "domain:check"}, []string{"T3", "T2"}},
		{"by cltrid", models.JournalFilter{ClTRID: "T1"}, []string{"T1"}},
		{"since", models.JournalFilter{Since: 300}, []string{"T4", "T3"}},
		{"limit", models.JournalFilter{Limit: 1}, []string{"T4"}},
		{"no match", models.JournalFilter{Command: "poll"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListJournalEntries(db, tt.filter)
			if err != nil {
				t.Fatalf("ListJournalEntries failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.ClTRID != tt.want[i] {
					t.Errorf("entry %d = %s, want %s", i, e.ClTRID, tt.want[i])
				}
			}
		})
	}
}

func TestPruneJournal(t *testing.T) {
	db := openTestDB(t)

	for _, at := range []int64{100, 200, 300} {
		if _, err := CreateJournalEntry(db, models.JournalEntry{OccurredAt: at, Command: "hello"}); err != nil {
			t.Fatalf("CreateJournalEntry failed: %v", err)
		}
	}

	n, err := PruneJournal(db, 250)
	if err != nil {
		t.Fatalf("PruneJournal failed: %v", err)
	}
	if n != 2 {
		t.Errorf("pruned %d, want 2", n)
	}

	left, err := ListJournalEntries(db, models.JournalFilter{})
	if err != nil {
		t.Fatalf("ListJournalEntries failed: %v", err)
	}
	if len(left) != 1 || left[0].OccurredAt != 300 {
		t.Errorf("unexpected remaining entries: %+v", left)
	}
}
