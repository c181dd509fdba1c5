package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/sahayak-edu/sahayak/internal/model"
)

func (m *Manager) registerManagerTools() {
	m.register("update_user_info",
		"Store the user's name and role. Call when a user introduces themselves.",
		objSchema(map[string]jsonschema.Definition{
			"name": strProp("The user's name"),
			"role": strProp("The user's role: student, teacher, or admin"),
		}, "name", "role"),
		m.updateUserInfo)

	m.register("set_user_preferences",
		"Update the user's language, difficulty level, or subjects of interest. Omitted fields are left unchanged.",
		objSchema(map[string]jsonschema.Definition{
			"language":         strProp("Preferred language for responses"),
			"difficulty_level": strProp("Preferred content difficulty: easy, medium, or hard"),
			"subjects":         strListProp("Subjects of interest"),
		}),
		m.setUserPreferences)

	m.register("get_session_summary",
		"Summarize the current session: user info, preferences, and recent activity.",
		objSchema(nil),
		m.getSessionSummary)

	m.register("get_session_analytics",
		"Report usage analytics for this session: interaction type counts and attendance statistics.",
		objSchema(nil),
		m.getSessionAnalytics)

	m.register("clear_user_data",
		"Clear stored session data. data_type is one of: interactions, attendance, preferences, all.",
		objSchema(map[string]jsonschema.Definition{
			"data_type": strProp("What to clear: interactions, attendance, preferences, or all"),
		}, "data_type"),
		m.clearUserData)
}

func (m *Manager) updateUserInfo(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	switch role {
	case "student", "teacher", "admin":
	default:
		return nil, fmt.Errorf("unknown role %q, expected student, teacher, or admin", in.Role)
	}

	st.UserName = name
	st.UserRole = role
	st.SessionCount++
	st.LogInteraction(m.now(), "user_info_update", fmt.Sprintf("name=%s role=%s", name, role))

	return map[string]any{
		"action":        "update_user_info",
		"status":        "success",
		"user_name":     name,
		"user_role":     role,
		"session_count": st.SessionCount,
		"message":       fmt.Sprintf("Welcome %s! I've registered you as a %s.", name, role),
	}, nil
}

func (m *Manager) setUserPreferences(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		Language        string   `json:"language"`
		DifficultyLevel string   `json:"difficulty_level"`
		Subjects        []string `json:"subjects"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}

	if in.Language != "" {
		st.Preferences.Language = strings.ToLower(strings.TrimSpace(in.Language))
	}
	if in.DifficultyLevel != "" {
		level := model.DifficultyLevel(strings.ToLower(strings.TrimSpace(in.DifficultyLevel)))
		switch level {
		case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
			st.Preferences.DifficultyLevel = level
		default:
			return nil, fmt.Errorf("unknown difficulty %q, expected easy, medium, or hard", in.DifficultyLevel)
		}
	}
	if in.Subjects != nil {
		st.Preferences.Subjects = in.Subjects
	}
	st.LogInteraction(m.now(), "preferences_update", fmt.Sprintf("language=%s difficulty=%s subjects=%v",
		st.Preferences.Language, st.Preferences.DifficultyLevel, st.Preferences.Subjects))

	return map[string]any{
		"action":      "set_user_preferences",
		"status":      "success",
		"preferences": st.Preferences,
		"message":     "Preferences updated.",
	}, nil
}

func (m *Manager) getSessionSummary(_ context.Context, st *model.State, _ json.RawMessage) (map[string]any, error) {
	recent := st.InteractionHistory
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	return map[string]any{
		"action":              "get_session_summary",
		"status":              "success",
		"user_name":           st.UserName,
		"user_role":           st.UserRole,
		"session_count":       st.SessionCount,
		"preferences":         st.Preferences,
		"total_interactions":  len(st.InteractionHistory),
		"recent_interactions": recent,
		"students_on_roster":  len(st.StudentsDatabase),
		"attendance_records":  len(st.AttendanceRecords),
	}, nil
}

func (m *Manager) getSessionAnalytics(_ context.Context, st *model.State, _ json.RawMessage) (map[string]any, error) {
	typeCounts := map[string]int{}
	for _, entry := range st.InteractionHistory {
		typeCounts[entry.Type]++
	}

	result := map[string]any{
		"action":             "get_session_analytics",
		"status":             "success",
		"total_interactions": len(st.InteractionHistory),
		"interaction_types":  typeCounts,
		"session_count":      st.SessionCount,
	}

	// Attendance statistics are only meaningful for staff roles.
	if st.UserRole == "teacher" || st.UserRole == "admin" {
		presentDays := 0
		for _, rec := range st.AttendanceRecords {
			if rec.Status == "present" {
				presentDays++
			}
		}
		result["attendance_stats"] = map[string]any{
			"total_records":  len(st.AttendanceRecords),
			"present_marked": presentDays,
			"total_students": len(st.StudentsDatabase),
		}
	}

	if n := len(st.InteractionHistory); n > 0 {
		result["last_activity"] = st.InteractionHistory[n-1].Timestamp
	}
	return result, nil
}

func (m *Manager) clearUserData(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		DataType string `json:"data_type"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}

	dataType := strings.ToLower(strings.TrimSpace(in.DataType))
	switch dataType {
	case "interactions":
		st.InteractionHistory = []model.Interaction{}
	case "attendance":
		// The roster stays; only the day-by-day records go.
		st.AttendanceRecords = map[string]model.AttendanceRecord{}
	case "preferences":
		st.Preferences = model.NewState().Preferences
	case "all":
		// Keep identity and session count, reset everything else.
		fresh := model.NewState()
		fresh.UserName = st.UserName
		fresh.UserRole = st.UserRole
		fresh.SessionCount = st.SessionCount
		*st = *fresh
	default:
		return nil, fmt.Errorf("unknown data_type %q, expected interactions, attendance, preferences, or all", in.DataType)
	}

	st.LogInteraction(m.now(), "data_cleared", "cleared: "+dataType)
	return map[string]any{
		"action":  "clear_user_data",
		"status":  "success",
		"cleared": dataType,
		"message": fmt.Sprintf("Cleared %s data.", dataType),
	}, nil
}
