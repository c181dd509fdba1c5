package agent

import (
	"testing"

	"github.com/sahayak-edu/sahayak/internal/model"
)

func TestSaveAttendanceNewStudent(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	st.UserName = "Mrs. Sharma"

	result := call(t, m, "save_attendance", st, map[string]any{"student_name": "  john smith  "})

	if result["status"] != "success" {
		t.Fatalf("status = %v", result["status"])
	}
	if result["is_new_student"] != true {
		t.Errorf("is_new_student = %v, want true", result["is_new_student"])
	}

	student, ok := st.StudentsDatabase["student_0001"]
	if !ok {
		t.Fatalf("roster entry student_0001 not created, roster: %v", st.StudentsDatabase)
	}
	if student.Name != "John Smith" {
		t.Errorf("name = %q, want %q", student.Name, "John Smith")
	}
	if student.Grade != "Not specified" {
		t.Errorf("grade = %q, want %q", student.Grade, "Not specified")
	}
	if student.TotalAttendanceDays != 1 {
		t.Errorf("total_attendance_days = %d, want 1", student.TotalAttendanceDays)
	}
	if student.CreatedBy != "Mrs. Sharma" {
		t.Errorf("created_by = %q", student.CreatedBy)
	}

	recordKey := "2026-09-01_student_0001"
	rec, ok := st.AttendanceRecords[recordKey]
	if !ok {
		t.Fatalf("attendance record %s not created", recordKey)
	}
	if rec.Status != "present" || rec.StudentName != "John Smith" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestSaveAttendanceDuplicateSameDay(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()

	call(t, m, "save_attendance", st, map[string]any{"student_name": "John Smith"})
	result := call(t, m, "save_attendance", st, map[string]any{"student_name": "john smith"})

	if result["status"] != "info" {
		t.Fatalf("duplicate status = %v, want info", result["status"])
	}
	if _, ok := result["existing_record"]; !ok {
		t.Error("duplicate response missing existing_record")
	}
	if len(st.AttendanceRecords) != 1 {
		t.Errorf("record count = %d, want 1", len(st.AttendanceRecords))
	}
	if got := st.StudentsDatabase["student_0001"].TotalAttendanceDays; got != 1 {
		t.Errorf("total_attendance_days = %d, want 1 after duplicate", got)
	}
}

func TestSaveAttendanceNextDayIncrements(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()

	call(t, m, "save_attendance", st, map[string]any{"student_name": "John Smith", "date": "2026-08-31"})
	call(t, m, "save_attendance", st, map[string]any{"student_name": "John Smith", "date": "2026-09-01"})

	student := st.StudentsDatabase["student_0001"]
	if student.TotalAttendanceDays != 2 {
		t.Errorf("total_attendance_days = %d, want 2", student.TotalAttendanceDays)
	}
	if student.LastAttendance != "2026-09-01" {
		t.Errorf("last_attendance = %q", student.LastAttendance)
	}
	if len(st.StudentsDatabase) != 1 {
		t.Errorf("roster size = %d, want 1", len(st.StudentsDatabase))
	}
}

func TestSaveAttendanceEmptyName(t *testing.T) {
	m := newTestManager(nil)
	if _, err := callErr(t, m, "save_attendance", model.NewState(), map[string]any{"student_name": "   "}); err == nil {
		t.Fatal("expected error for empty student name")
	}
}

func TestSaveAttendanceInvalidDate(t *testing.T) {
	m := newTestManager(nil)
	args := map[string]any{"student_name": "Asha", "date": "not-a-date"}
	if _, err := callErr(t, m, "save_attendance", model.NewState(), args); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestSaveAttendanceUpdatesGrade(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()

	call(t, m, "save_attendance", st, map[string]any{"student_name": "Asha", "grade": "5", "date": "2026-08-30"})
	call(t, m, "save_attendance", st, map[string]any{"student_name": "Asha", "grade": "6", "date": "2026-08-31"})

	if got := st.StudentsDatabase["student_0001"].Grade; got != "6" {
		t.Errorf("grade = %q, want %q", got, "6")
	}
}

func TestGetStudentByName(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	call(t, m, "save_attendance", st, map[string]any{"student_name": "John Smith"})
	call(t, m, "save_attendance", st, map[string]any{"student_name": "Johnny Walker"})
	call(t, m, "save_attendance", st, map[string]any{"student_name": "Asha Patel"})

	result := call(t, m, "get_student_by_name", st, map[string]any{"student_name": "john"})
	if result["status"] != "found" {
		t.Fatalf("status = %v", result["status"])
	}
	if result["count"] != 2 {
		t.Errorf("count = %v, want 2", result["count"])
	}

	missing := call(t, m, "get_student_by_name", st, map[string]any{"student_name": "zorro"})
	if missing["status"] != "not_found" {
		t.Errorf("status = %v, want not_found", missing["status"])
	}
}

func TestAttendanceSummaryZeroWindow(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	// Student exists but the only record is outside the window.
	call(t, m, "save_attendance", st, map[string]any{"student_name": "Asha", "date": "2026-01-15"})

	result := call(t, m, "get_attendance_summary", st, map[string]any{
		"student_name":    "Asha",
		"date_range_days": 7,
	})
	summary := result["summary"].(map[string]any)
	if summary["total_days"] != 0 {
		t.Errorf("total_days = %v, want 0", summary["total_days"])
	}
	if summary["attendance_percentage"] != 0.0 {
		t.Errorf("attendance_percentage = %v, want 0", summary["attendance_percentage"])
	}
}

func TestAttendanceSummaryPerStudent(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	for _, d := range []string{"2026-08-25", "2026-08-26", "2026-08-27"} {
		call(t, m, "save_attendance", st, map[string]any{"student_name": "Asha", "date": d})
	}

	result := call(t, m, "get_attendance_summary", st, map[string]any{"student_name": "asha"})
	summary := result["summary"].(map[string]any)
	if summary["total_days"] != 3 || summary["present_days"] != 3 {
		t.Errorf("summary = %v", summary)
	}
	if summary["attendance_percentage"] != 100.0 {
		t.Errorf("attendance_percentage = %v, want 100", summary["attendance_percentage"])
	}
}

func TestAttendanceSummaryAllStudents(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	call(t, m, "save_attendance", st, map[string]any{"student_name": "Asha", "date": "2026-08-28"})
	call(t, m, "save_attendance", st, map[string]any{"student_name": "John", "date": "2026-08-28"})

	result := call(t, m, "get_attendance_summary", st, map[string]any{})
	if result["total_students"] != 2 {
		t.Errorf("total_students = %v, want 2", result["total_students"])
	}
	summaries := result["summaries"].([]map[string]any)
	if len(summaries) != 2 {
		t.Fatalf("summaries length = %d", len(summaries))
	}
	for _, s := range summaries {
		if s["attendance_percentage"] != 100.0 {
			t.Errorf("percentage for %v = %v, want 100", s["student_name"], s["attendance_percentage"])
		}
	}
}

func TestAttendanceSummaryUnknownStudent(t *testing.T) {
	m := newTestManager(nil)
	if _, err := callErr(t, m, "get_attendance_summary", model.NewState(), map[string]any{"student_name": "Nobody"}); err == nil {
		t.Fatal("expected error for unknown student")
	}
}
