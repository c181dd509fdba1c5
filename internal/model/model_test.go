package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestNewStateDefaults(t *testing.T) {
	st := NewState()

	if st.Preferences.Language != "english" {
		t.Errorf("language = %q, want english", st.Preferences.Language)
	}
	if st.Preferences.DifficultyLevel != DifficultyMedium {
		t.Errorf("difficulty = %q, want medium", st.Preferences.DifficultyLevel)
	}
	if st.Preferences.Subjects == nil {
		t.Error("subjects should be an empty slice, not nil")
	}
	if st.InteractionHistory == nil {
		t.Error("interaction history should be an empty slice, not nil")
	}
	if st.AttendanceRecords == nil {
		t.Error("attendance records should be an empty map, not nil")
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	st := NewState()
	st.UserName = "Asha"
	st.UserRole = string(UserRoleTeacher)
	st.SessionCount = 3
	st.LogInteraction(now, "attendance", "Saved attendance for John Smith")
	st.StudentsDatabase = map[string]Student{
		"student_0001": {Name: "John Smith", Grade: "5", CreatedDate: now.Format(time.RFC3339), TotalAttendanceDays: 1, CreatedBy: "Asha"},
	}
	st.AttendanceRecords["2026-02-03_student_0001"] = AttendanceRecord{
		StudentID:   "student_0001",
		StudentName: "John Smith",
		Grade:       "5",
		Date:        "2026-02-03",
		Status:      "present",
		Timestamp:   now.Format(time.RFC3339),
		MarkedBy:    "Asha",
	}

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got State
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(st, &got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, st)
	}
}

func TestLogInteractionCap(t *testing.T) {
	st := NewState()
	now := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	for i := 0; i < MaxInteractionHistory+10; i++ {
		st.LogInteraction(now.Add(time.Duration(i)*time.Second), "query", strings.Repeat("x", i))
	}

	if len(st.InteractionHistory) != MaxInteractionHistory {
		t.Fatalf("history length = %d, want %d", len(st.InteractionHistory), MaxInteractionHistory)
	}
	// Oldest entries evicted first: the last entry must be the most recent.
	last := st.InteractionHistory[len(st.InteractionHistory)-1]
	if len(last.Details) != MaxInteractionHistory+9 {
		t.Errorf("last entry details length = %d, want %d", len(last.Details), MaxInteractionHistory+9)
	}
	first := st.InteractionHistory[0]
	if len(first.Details) != 10 {
		t.Errorf("first entry details length = %d, want 10", len(first.Details))
	}
}

func TestLogInteractionTruncatesDetails(t *testing.T) {
	st := NewState()
	entry := st.LogInteraction(time.Now(), "query", strings.Repeat("a", MaxInteractionDetails+100))
	if len(entry.Details) != MaxInteractionDetails {
		t.Errorf("details length = %d, want %d", len(entry.Details), MaxInteractionDetails)
	}
}

func TestLogInteractionTruncatesAtRuneBoundary(t *testing.T) {
	st := NewState()

	// 499 ASCII bytes followed by Devanagari text puts the byte cut in
	// the middle of a multi-byte rune.
	details := strings.Repeat("x", MaxInteractionDetails-1) + strings.Repeat("नमस्ते", 10)
	entry := st.LogInteraction(time.Now(), "query", details)

	if len(entry.Details) > MaxInteractionDetails {
		t.Errorf("details length = %d, want at most %d", len(entry.Details), MaxInteractionDetails)
	}
	if !utf8.ValidString(entry.Details) {
		t.Fatalf("truncated details are not valid UTF-8: %q", entry.Details)
	}

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got State
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.InteractionHistory[0].Details != entry.Details {
		t.Errorf("round trip mismatch:\n got %q\nwant %q", got.InteractionHistory[0].Details, entry.Details)
	}
}

func TestLogResourceSearchCap(t *testing.T) {
	st := NewState()
	for i := 0; i < MaxSearchHistory+5; i++ {
		st.LogResourceSearch(ResourceSearch{Topic: "photosynthesis", ResultsCount: i})
	}
	if len(st.ResourceSearchHistory) != MaxSearchHistory {
		t.Fatalf("search history length = %d, want %d", len(st.ResourceSearchHistory), MaxSearchHistory)
	}
	last := st.ResourceSearchHistory[len(st.ResourceSearchHistory)-1]
	if last.ResultsCount != MaxSearchHistory+4 {
		t.Errorf("last entry results count = %d, want %d", last.ResultsCount, MaxSearchHistory+4)
	}
}

func TestSessionSummary(t *testing.T) {
	st := NewState()
	st.UserName = "Ravi"
	st.UserRole = string(UserRoleStudent)
	st.SessionCount = 2
	st.LogInteraction(time.Now(), "qa", "asked about fractions")

	sess := Session{ID: "abc", AppName: "sahayak", UserID: "u1", State: st}
	sum := sess.Summary()

	if sum.ID != "abc" || sum.UserName != "Ravi" || sum.InteractionCount != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}
