package agent

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sahayak-edu/sahayak/internal/model"
)

// seedProgressData creates a roster entry plus attendance, quiz, and
// game records that land inside the default 30-day window.
func seedProgressData(t *testing.T, m *Manager, st *model.State, name string, presentDays, absentDays int, quizScores []float64, games int) {
	t.Helper()

	call(t, m, "save_attendance", st, map[string]any{"student_name": name, "date": "2026-08-05"})
	studentID := findStudent(st, titleName(name))
	if studentID == "" {
		t.Fatalf("student %s not created", name)
	}

	// Replace the bootstrap record with a controlled set.
	st.AttendanceRecords = map[string]model.AttendanceRecord{}
	day := 6
	addRecord := func(status string) {
		date := fmt.Sprintf("2026-08-%02d", day)
		st.AttendanceRecords[date+"_"+studentID] = model.AttendanceRecord{
			StudentID:   studentID,
			StudentName: titleName(name),
			Date:        date,
			Status:      status,
		}
		day++
	}
	for n := 0; n < presentDays; n++ {
		addRecord("present")
	}
	for n := 0; n < absentDays; n++ {
		addRecord("absent")
	}

	st.QuizResults = map[string]model.QuizResult{}
	for i, score := range quizScores {
		st.QuizResults[fmt.Sprintf("mcq_%02d", i)] = model.QuizResult{
			StudentName: titleName(name),
			Subject:     "Math",
			Score:       score,
			Date:        fmt.Sprintf("2026-08-%02d", 10+i),
		}
	}

	st.GameActivities = map[string]model.GameActivity{}
	for i := 0; i < games; i++ {
		st.GameActivities[fmt.Sprintf("game_%02d", i)] = model.GameActivity{
			StudentName:     titleName(name),
			GameType:        "quiz",
			DurationMinutes: 25,
			Date:            fmt.Sprintf("2026-08-%02d", 10+i%15),
		}
	}
}

func TestOverallScoreWeighting(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	// 90% attendance, 80 quiz average, high engagement:
	// 90*0.4 + 80*0.4 + 85*0.2 = 85.0
	seedProgressData(t, m, st, "Asha", 9, 1, []float64{80, 80, 80}, 12)

	result := call(t, m, "analyze_student_progress", st, map[string]any{"student_name": "Asha"})
	if result["status"] != "success" {
		t.Fatalf("status = %v", result["status"])
	}

	analysis := result["progress_analysis"].(model.ProgressAnalysis)
	if analysis.AttendanceAnalysis.AttendancePercentage != 90.0 {
		t.Errorf("attendance = %v, want 90", analysis.AttendanceAnalysis.AttendancePercentage)
	}
	if analysis.QuizPerformance.AverageScore != 80.0 {
		t.Errorf("quiz average = %v, want 80", analysis.QuizPerformance.AverageScore)
	}
	if analysis.GameEngagement.EngagementLevel != model.EngagementHigh {
		t.Errorf("engagement = %v, want high", analysis.GameEngagement.EngagementLevel)
	}
	if analysis.OverallScore != 85.0 {
		t.Errorf("overall score = %v, want 85.0", analysis.OverallScore)
	}
}

func TestProgressNoData(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	call(t, m, "save_attendance", st, map[string]any{"student_name": "Asha", "date": "2026-08-20"})

	result := call(t, m, "analyze_student_progress", st, map[string]any{"student_name": "Asha"})
	analysis := result["progress_analysis"].(model.ProgressAnalysis)

	if analysis.QuizPerformance.ImprovementTrend != "no_data" {
		t.Errorf("quiz trend = %q, want no_data", analysis.QuizPerformance.ImprovementTrend)
	}
	if analysis.QuizPerformance.Patterns[0] != "No MCQ tests taken in this period" {
		t.Errorf("quiz pattern = %q", analysis.QuizPerformance.Patterns[0])
	}
	if analysis.GameEngagement.EngagementLevel != model.EngagementNoData {
		t.Errorf("engagement = %v, want no_data", analysis.GameEngagement.EngagementLevel)
	}
	if analysis.PathProgress.Patterns[0] != "No personalized learning paths assigned" {
		t.Errorf("path pattern = %q", analysis.PathProgress.Patterns[0])
	}
	// 100% attendance (the single present day), no quizzes, no games:
	// 100*0.4 + 0*0.4 + 50*0.2 = 50.0
	if analysis.OverallScore != 50.0 {
		t.Errorf("overall = %v, want 50.0", analysis.OverallScore)
	}
}

func TestProgressUnknownStudent(t *testing.T) {
	m := newTestManager(nil)
	result := call(t, m, "analyze_student_progress", model.NewState(), map[string]any{"student_name": "Nobody"})
	if result["status"] != "not_found" {
		t.Errorf("status = %v, want not_found", result["status"])
	}
}

func TestProgressImprovementTrend(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	seedProgressData(t, m, st, "Asha", 10, 0, []float64{50, 55, 52, 80, 85, 82}, 0)

	result := call(t, m, "analyze_student_progress", st, map[string]any{"student_name": "Asha"})
	analysis := result["progress_analysis"].(model.ProgressAnalysis)
	if analysis.QuizPerformance.ImprovementTrend != "improving" {
		t.Errorf("trend = %q, want improving", analysis.QuizPerformance.ImprovementTrend)
	}
	if analysis.BehavioralInsights.LearningMomentum != "accelerating" {
		t.Errorf("momentum = %q, want accelerating", analysis.BehavioralInsights.LearningMomentum)
	}
}

func TestProgressRecommendationsThresholds(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	// 50% attendance and low quiz scores trip the intervention paths.
	seedProgressData(t, m, st, "Asha", 5, 5, []float64{40, 45, 50}, 0)

	result := call(t, m, "analyze_student_progress", st, map[string]any{"student_name": "Asha"})
	analysis := result["progress_analysis"].(model.ProgressAnalysis)

	joined := strings.Join(analysis.Recommendations, "|")
	for _, want := range []string{
		"Priority: Improve attendance consistency - consider parent meeting",
		"Provide additional academic support and tutoring",
		"Create personalized learning path based on student profile",
		"Implement daily check-ins and routine building",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("recommendations missing %q:\n%v", want, analysis.Recommendations)
		}
	}
}

func TestProgressHealthyStudentRecommendation(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	seedProgressData(t, m, st, "Asha", 20, 0, []float64{80, 82, 84}, 12)

	// A learning path so the zero-paths recommendation does not fire.
	st.LearningPaths = map[string]model.LearningPath{
		"path_1": {StudentName: "Asha", Subject: "Math", DurationWeeks: 12},
	}

	result := call(t, m, "analyze_student_progress", st, map[string]any{"student_name": "Asha"})
	analysis := result["progress_analysis"].(model.ProgressAnalysis)
	if len(analysis.Recommendations) != 1 || analysis.Recommendations[0] != "Continue current approach - student is performing well" {
		t.Errorf("recommendations = %v", analysis.Recommendations)
	}
	if analysis.PathProgress.ActivePaths != 1 {
		t.Errorf("active paths = %d, want 1", analysis.PathProgress.ActivePaths)
	}
}

func TestGetProgressHistory(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	seedProgressData(t, m, st, "Asha", 10, 0, []float64{70}, 2)

	call(t, m, "analyze_student_progress", st, map[string]any{"student_name": "Asha"})

	// A second stored analysis with a later date, inserted directly.
	st.ProgressAnalyses["progress_20260902_000000_Asha"] = model.ProgressAnalysis{
		StudentName:  "Asha",
		AnalysisDate: "2026-09-02T00:00:00Z",
		OverallScore: 75,
	}

	result := call(t, m, "get_progress_history", st, map[string]any{"student_name": "Asha", "limit": 1})
	if result["total_analyses"] != 1 {
		t.Fatalf("total_analyses = %v, want 1", result["total_analyses"])
	}
	history := result["history"].([]map[string]any)
	if history[0]["analysis_date"] != "2026-09-02T00:00:00Z" {
		t.Errorf("newest first expected, got %v", history[0]["analysis_date"])
	}
}
