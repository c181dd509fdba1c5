package agent

import (
	"testing"

	"github.com/sahayak-edu/sahayak/internal/model"
)

func TestUpdateUserInfo(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()

	result := call(t, m, "update_user_info", st, map[string]any{"name": "Priya", "role": "TEACHER"})
	if result["status"] != "success" {
		t.Fatalf("status = %v", result["status"])
	}
	if st.UserName != "Priya" || st.UserRole != "teacher" {
		t.Errorf("state = %q/%q", st.UserName, st.UserRole)
	}
	if st.SessionCount != 1 {
		t.Errorf("session_count = %d, want 1", st.SessionCount)
	}

	call(t, m, "update_user_info", st, map[string]any{"name": "Priya", "role": "teacher"})
	if st.SessionCount != 2 {
		t.Errorf("session_count = %d, want 2 after second update", st.SessionCount)
	}
}

func TestUpdateUserInfoRejectsBadRole(t *testing.T) {
	m := newTestManager(nil)
	args := map[string]any{"name": "Priya", "role": "wizard"}
	if _, err := callErr(t, m, "update_user_info", model.NewState(), args); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestSetUserPreferencesMerges(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()

	call(t, m, "set_user_preferences", st, map[string]any{"language": "Hindi"})
	if st.Preferences.Language != "hindi" {
		t.Errorf("language = %q", st.Preferences.Language)
	}
	if st.Preferences.DifficultyLevel != model.DifficultyMedium {
		t.Errorf("difficulty changed unexpectedly: %v", st.Preferences.DifficultyLevel)
	}

	call(t, m, "set_user_preferences", st, map[string]any{
		"difficulty_level": "hard",
		"subjects":         []string{"math", "science"},
	})
	if st.Preferences.DifficultyLevel != model.DifficultyHard {
		t.Errorf("difficulty = %v", st.Preferences.DifficultyLevel)
	}
	if len(st.Preferences.Subjects) != 2 {
		t.Errorf("subjects = %v", st.Preferences.Subjects)
	}
	if st.Preferences.Language != "hindi" {
		t.Errorf("language reset: %q", st.Preferences.Language)
	}
}

func TestSetUserPreferencesRejectsBadDifficulty(t *testing.T) {
	m := newTestManager(nil)
	args := map[string]any{"difficulty_level": "impossible"}
	if _, err := callErr(t, m, "set_user_preferences", model.NewState(), args); err == nil {
		t.Fatal("expected error for unknown difficulty")
	}
}

func TestGetSessionSummary(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	call(t, m, "update_user_info", st, map[string]any{"name": "Priya", "role": "teacher"})
	call(t, m, "save_attendance", st, map[string]any{"student_name": "Ravi"})

	result := call(t, m, "get_session_summary", st, nil)
	if result["user_name"] != "Priya" {
		t.Errorf("user_name = %v", result["user_name"])
	}
	if result["attendance_records"] != 1 {
		t.Errorf("attendance_records = %v, want 1", result["attendance_records"])
	}
	if result["students_on_roster"] != 1 {
		t.Errorf("students_on_roster = %v, want 1", result["students_on_roster"])
	}
}

func TestSessionAnalyticsRoleGating(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	st.UserRole = "student"
	call(t, m, "save_attendance", st, map[string]any{"student_name": "Ravi"})

	asStudent := call(t, m, "get_session_analytics", st, nil)
	if _, ok := asStudent["attendance_stats"]; ok {
		t.Error("attendance stats exposed to student role")
	}

	st.UserRole = "teacher"
	asTeacher := call(t, m, "get_session_analytics", st, nil)
	stats, ok := asTeacher["attendance_stats"].(map[string]any)
	if !ok {
		t.Fatal("attendance stats missing for teacher role")
	}
	if stats["total_records"] != 1 || stats["present_marked"] != 1 {
		t.Errorf("stats = %v", stats)
	}
}

func TestClearUserDataInteractions(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	st.LogInteraction(testNow, "user_query", "hello")

	call(t, m, "clear_user_data", st, map[string]any{"data_type": "interactions"})
	// The clear itself logs one entry.
	if len(st.InteractionHistory) != 1 || st.InteractionHistory[0].Type != "data_cleared" {
		t.Errorf("history after clear: %+v", st.InteractionHistory)
	}
}

func TestClearUserDataAttendanceKeepsRoster(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	st.UserName = "Mrs. Sharma"
	call(t, m, "save_attendance", st, map[string]any{"student_name": "Ravi"})

	call(t, m, "clear_user_data", st, map[string]any{"data_type": "attendance"})

	if len(st.AttendanceRecords) != 0 {
		t.Errorf("attendance records survived clear: %+v", st.AttendanceRecords)
	}
	if len(st.StudentsDatabase) != 1 {
		t.Fatalf("roster size = %d, want 1", len(st.StudentsDatabase))
	}
	if st.StudentsDatabase["student_0001"].Name != "Ravi" {
		t.Errorf("roster entry = %+v", st.StudentsDatabase["student_0001"])
	}
}

func TestClearUserDataAllKeepsIdentity(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	call(t, m, "update_user_info", st, map[string]any{"name": "Priya", "role": "teacher"})
	call(t, m, "save_attendance", st, map[string]any{"student_name": "Ravi"})
	call(t, m, "set_user_preferences", st, map[string]any{"language": "hindi"})

	call(t, m, "clear_user_data", st, map[string]any{"data_type": "all"})

	if st.UserName != "Priya" || st.UserRole != "teacher" || st.SessionCount != 1 {
		t.Errorf("identity lost: %q/%q count=%d", st.UserName, st.UserRole, st.SessionCount)
	}
	if len(st.AttendanceRecords) != 0 || len(st.StudentsDatabase) != 0 {
		t.Errorf("attendance data survived clear")
	}
	if st.Preferences.Language != "english" {
		t.Errorf("preferences not reset: %q", st.Preferences.Language)
	}
}

func TestClearUserDataUnknownType(t *testing.T) {
	m := newTestManager(nil)
	args := map[string]any{"data_type": "everything"}
	if _, err := callErr(t, m, "clear_user_data", model.NewState(), args); err == nil {
		t.Fatal("expected error for unknown data type")
	}
}
