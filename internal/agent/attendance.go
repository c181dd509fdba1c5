package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/sahayak-edu/sahayak/internal/model"
)

func (m *Manager) registerAttendanceTools() {
	m.register("save_attendance",
		"Mark a student present for a date. Creates the roster entry if the student is new.",
		objSchema(map[string]jsonschema.Definition{
			"student_name": strProp("Name of the student"),
			"grade":        strProp("Student's grade or class (optional)"),
			"date":         strProp("Date in YYYY-MM-DD format, defaults to today"),
		}, "student_name"),
		m.saveAttendance)

	m.register("get_student_by_name",
		"Search the student roster by name, case-insensitive substring match.",
		objSchema(map[string]jsonschema.Definition{
			"student_name": strProp("Name or partial name to search for"),
		}, "student_name"),
		m.getStudentByName)

	m.register("get_attendance_summary",
		"Summarize attendance over a recent window, for one student or the whole roster.",
		objSchema(map[string]jsonschema.Definition{
			"student_name":    strProp("Specific student name (optional, all students if omitted)"),
			"date_range_days": intProp("Number of days to look back, default 30"),
		}),
		m.getAttendanceSummary)
}

// findStudent returns the roster id for an exact case-insensitive name
// match, or "" if the student is unknown.
func findStudent(st *model.State, name string) string {
	for id, student := range st.StudentsDatabase {
		if strings.EqualFold(student.Name, name) {
			return id
		}
	}
	return ""
}

func markedBy(st *model.State) string {
	if st.UserName != "" {
		return st.UserName
	}
	return "system"
}

func (m *Manager) saveAttendance(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName string `json:"student_name"`
		Grade       string `json:"grade"`
		Date        string `json:"date"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}

	name := titleName(in.StudentName)
	if name == "" {
		return nil, fmt.Errorf("student name is required")
	}

	now := m.now()
	dateStr := in.Date
	if dateStr == "" {
		dateStr = now.Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, dateStr); err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", in.Date)
	}

	if st.StudentsDatabase == nil {
		st.StudentsDatabase = map[string]model.Student{}
	}
	if st.AttendanceRecords == nil {
		st.AttendanceRecords = map[string]model.AttendanceRecord{}
	}

	studentID := findStudent(st, name)
	isNew := studentID == ""
	if isNew {
		studentID = fmt.Sprintf("student_%04d", len(st.StudentsDatabase)+1)
		grade := in.Grade
		if grade == "" {
			grade = "Not specified"
		}
		st.StudentsDatabase[studentID] = model.Student{
			Name:        name,
			Grade:       grade,
			CreatedDate: now.Format(time.RFC3339),
			CreatedBy:   markedBy(st),
		}
	} else if in.Grade != "" && st.StudentsDatabase[studentID].Grade != in.Grade {
		student := st.StudentsDatabase[studentID]
		student.Grade = in.Grade
		st.StudentsDatabase[studentID] = student
	}

	recordKey := dateStr + "_" + studentID
	if existing, ok := st.AttendanceRecords[recordKey]; ok {
		return map[string]any{
			"action":          "save_attendance",
			"status":          "info",
			"message":         fmt.Sprintf("Attendance already marked for %s on %s", name, dateStr),
			"existing_record": existing,
		}, nil
	}

	record := model.AttendanceRecord{
		StudentID:   studentID,
		StudentName: name,
		Grade:       st.StudentsDatabase[studentID].Grade,
		Date:        dateStr,
		Status:      "present",
		Timestamp:   now.Format(time.RFC3339),
		MarkedBy:    markedBy(st),
	}
	st.AttendanceRecords[recordKey] = record

	student := st.StudentsDatabase[studentID]
	student.TotalAttendanceDays++
	student.LastAttendance = dateStr
	st.StudentsDatabase[studentID] = student

	return map[string]any{
		"action":         "save_attendance",
		"status":         "success",
		"record":         record,
		"student_info":   student,
		"is_new_student": isNew,
		"message":        fmt.Sprintf("Attendance saved for %s (Grade: %s) on %s", name, student.Grade, dateStr),
	}, nil
}

func (m *Manager) getStudentByName(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName string `json:"student_name"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	query := strings.ToLower(strings.TrimSpace(in.StudentName))
	if query == "" {
		return nil, fmt.Errorf("student name is required")
	}

	var found []map[string]any
	for id, student := range st.StudentsDatabase {
		if strings.Contains(strings.ToLower(student.Name), query) {
			found = append(found, map[string]any{
				"student_id":            id,
				"name":                  student.Name,
				"grade":                 student.Grade,
				"total_attendance_days": student.TotalAttendanceDays,
				"last_attendance":       student.LastAttendance,
				"created_by":            student.CreatedBy,
			})
		}
	}

	if len(found) == 0 {
		return map[string]any{
			"action":      "get_student_by_name",
			"status":      "not_found",
			"message":     fmt.Sprintf("No student found with name %q", in.StudentName),
			"suggestions": "Would you like to create a new student record?",
		}, nil
	}
	return map[string]any{
		"action":   "get_student_by_name",
		"status":   "found",
		"students": found,
		"count":    len(found),
		"message":  fmt.Sprintf("Found %d student(s) matching %q", len(found), in.StudentName),
	}, nil
}

// attendanceWindow collects a student's records with dates inside
// [start, end], both inclusive.
func attendanceWindow(st *model.State, studentID string, start, end time.Time) []model.AttendanceRecord {
	var records []model.AttendanceRecord
	for _, rec := range st.AttendanceRecords {
		if rec.StudentID != studentID {
			continue
		}
		d, err := time.Parse(dateLayout, rec.Date)
		if err != nil {
			continue
		}
		if !d.Before(start) && !d.After(end) {
			records = append(records, rec)
		}
	}
	return records
}

func summarizeRecords(records []model.AttendanceRecord) (total, present int, percentage float64) {
	total = len(records)
	for _, rec := range records {
		if rec.Status == "present" {
			present++
		}
	}
	if total > 0 {
		percentage = round2(float64(present) / float64(total) * 100)
	}
	return total, present, percentage
}

func (m *Manager) getAttendanceSummary(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName   string `json:"student_name"`
		DateRangeDays int    `json:"date_range_days"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	days := in.DateRangeDays
	if days <= 0 {
		days = 30
	}

	end, err := time.Parse(dateLayout, m.now().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("compute date window: %w", err)
	}
	start := end.AddDate(0, 0, -days)
	dateRange := fmt.Sprintf("%s to %s", start.Format(dateLayout), end.Format(dateLayout))

	if name := strings.TrimSpace(in.StudentName); name != "" {
		studentID := findStudent(st, name)
		if studentID == "" {
			return nil, fmt.Errorf("student %q not found", name)
		}
		records := attendanceWindow(st, studentID, start, end)
		total, present, percentage := summarizeRecords(records)
		return map[string]any{
			"action":       "get_attendance_summary",
			"student_name": name,
			"student_id":   studentID,
			"date_range":   dateRange,
			"summary": map[string]any{
				"total_days":            total,
				"present_days":          present,
				"attendance_percentage": percentage,
			},
			"records": records,
			"message": fmt.Sprintf("Attendance summary for %s: %d/%d days (%.1f%%)", name, present, total, percentage),
		}, nil
	}

	var summaries []map[string]any
	for studentID, student := range st.StudentsDatabase {
		records := attendanceWindow(st, studentID, start, end)
		total, present, percentage := summarizeRecords(records)
		summaries = append(summaries, map[string]any{
			"student_id":            studentID,
			"student_name":          student.Name,
			"grade":                 student.Grade,
			"total_days":            total,
			"present_days":          present,
			"attendance_percentage": percentage,
		})
	}
	return map[string]any{
		"action":         "get_attendance_summary",
		"date_range":     dateRange,
		"total_students": len(summaries),
		"summaries":      summaries,
		"message":        fmt.Sprintf("Attendance summary for %d students over last %d days", len(summaries), days),
	}, nil
}
