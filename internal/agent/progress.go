package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/sahayak-edu/sahayak/internal/model"
)

func (m *Manager) registerProgressTools() {
	m.register("analyze_student_progress",
		"Run a full progress analysis for a student: attendance, quiz performance, game engagement, learning paths, behavioral insights, and an overall score.",
		objSchema(map[string]jsonschema.Definition{
			"student_name":     strProp("Name of the student to analyze"),
			"time_period_days": intProp("Number of days to analyze, default 30"),
		}, "student_name"),
		m.analyzeStudentProgress)

	m.register("get_progress_history",
		"List past progress analyses for a student, most recent first.",
		objSchema(map[string]jsonschema.Definition{
			"student_name": strProp("Name of the student"),
			"limit":        intProp("Number of recent analyses to return, default 5"),
		}, "student_name"),
		m.getProgressHistory)
}

func (m *Manager) analyzeStudentProgress(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName    string `json:"student_name"`
		TimePeriodDays int    `json:"time_period_days"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	name := strings.TrimSpace(in.StudentName)
	days := in.TimePeriodDays
	if days <= 0 {
		days = 30
	}

	studentID := findStudent(st, name)
	if studentID == "" {
		return map[string]any{
			"action":  "analyze_student_progress",
			"status":  "not_found",
			"message": fmt.Sprintf("Student %q not found in database", name),
		}, nil
	}
	name = st.StudentsDatabase[studentID].Name

	now := m.now()
	end, err := time.Parse(dateLayout, now.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("compute date window: %w", err)
	}
	start := end.AddDate(0, 0, -days)

	attendance := analyzeAttendancePattern(st, studentID, start, end)
	quizzes := analyzeQuizPerformance(st, name, start, end)
	games := analyzeGameEngagement(st, name, start, end)
	paths := analyzePathProgress(st, name)
	behavioral := analyzeBehavioralPatterns(attendance, quizzes, games)
	overall := overallProgressScore(attendance, quizzes, games)

	analysis := model.ProgressAnalysis{
		StudentName:        name,
		StudentID:          studentID,
		AnalysisPeriod:     fmt.Sprintf("%s to %s", start.Format(dateLayout), end.Format(dateLayout)),
		AnalysisDate:       now.Format(time.RFC3339),
		TimePeriodDays:     days,
		AttendanceAnalysis: attendance,
		QuizPerformance:    quizzes,
		GameEngagement:     games,
		PathProgress:       paths,
		BehavioralInsights: behavioral,
		OverallScore:       overall,
	}
	analysis.Recommendations = progressRecommendations(analysis)
	analysis.Summary = progressSummary(analysis)

	if st.ProgressAnalyses == nil {
		st.ProgressAnalyses = map[string]model.ProgressAnalysis{}
	}
	analysisID := fmt.Sprintf("progress_%s_%s", now.Format("20060102_150405"), strings.ReplaceAll(name, " ", "_"))
	st.ProgressAnalyses[analysisID] = analysis

	return map[string]any{
		"action":            "analyze_student_progress",
		"status":            "success",
		"analysis_id":       analysisID,
		"progress_analysis": analysis,
		"message":           fmt.Sprintf("Comprehensive progress analysis completed for %s", name),
		"key_metrics": map[string]any{
			"overall_score":   overall,
			"attendance_rate": attendance.AttendancePercentage,
			"quiz_average":    quizzes.AverageScore,
			"games_played":    games.TotalGames,
		},
	}, nil
}

func analyzeAttendancePattern(st *model.State, studentID string, start, end time.Time) model.AttendanceAnalysis {
	records := attendanceWindow(st, studentID, start, end)

	a := model.AttendanceAnalysis{TotalDays: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case "present":
			a.PresentDays++
		case "absent":
			a.AbsentDays++
		case "late":
			a.LateDays++
		}
	}
	if a.TotalDays > 0 {
		a.AttendancePercentage = round2(float64(a.PresentDays) / float64(a.TotalDays) * 100)
	}

	switch {
	case a.AttendancePercentage >= 95:
		a.Patterns = append(a.Patterns, "Excellent attendance")
	case a.AttendancePercentage >= 85:
		a.Patterns = append(a.Patterns, "Good attendance")
	case a.AttendancePercentage >= 75:
		a.Patterns = append(a.Patterns, "Moderate attendance - needs improvement")
	default:
		a.Patterns = append(a.Patterns, "Poor attendance - requires intervention")
	}
	if float64(a.LateDays) > float64(a.TotalDays)*0.1 {
		a.Patterns = append(a.Patterns, "Frequent tardiness")
	}

	a.Trend = "needs_attention"
	if a.PresentDays > a.AbsentDays {
		a.Trend = "improving"
	}
	return a
}

// studentQuizResults returns the student's quiz results within the
// window, ordered by date for trend calculation.
func studentQuizResults(st *model.State, studentName string, start, end time.Time) []model.QuizResult {
	var results []model.QuizResult
	for _, r := range st.QuizResults {
		if !strings.EqualFold(r.StudentName, studentName) {
			continue
		}
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			continue
		}
		if !d.Before(start) && !d.After(end) {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date < results[j].Date })
	return results
}

func analyzeQuizPerformance(st *model.State, studentName string, start, end time.Time) model.QuizPerformance {
	results := studentQuizResults(st, studentName, start, end)
	if len(results) == 0 {
		return model.QuizPerformance{
			ImprovementTrend:   "no_data",
			SubjectPerformance: map[string]model.SubjectScore{},
			Patterns:           []string{"No MCQ tests taken in this period"},
		}
	}

	q := model.QuizPerformance{
		TotalTests:         len(results),
		HighestScore:       results[0].Score,
		LowestScore:        results[0].Score,
		SubjectPerformance: map[string]model.SubjectScore{},
	}
	var sum float64
	bySubject := map[string][]float64{}
	for _, r := range results {
		sum += r.Score
		if r.Score > q.HighestScore {
			q.HighestScore = r.Score
		}
		if r.Score < q.LowestScore {
			q.LowestScore = r.Score
		}
		subject := r.Subject
		if subject == "" {
			subject = "Unknown"
		}
		bySubject[subject] = append(bySubject[subject], r.Score)
	}
	q.AverageScore = round2(sum / float64(len(results)))

	for subject, scores := range bySubject {
		var subjectSum, best float64
		for _, s := range scores {
			subjectSum += s
			if s > best {
				best = s
			}
		}
		q.SubjectPerformance[subject] = model.SubjectScore{
			Average:    subjectSum / float64(len(scores)),
			TestsTaken: len(scores),
			BestScore:  best,
		}
	}

	if len(results) >= 3 {
		var earlySum, recentSum float64
		for i := 0; i < 3; i++ {
			earlySum += results[i].Score
			recentSum += results[len(results)-3+i].Score
		}
		earlyAvg, recentAvg := earlySum/3, recentSum/3
		switch {
		case recentAvg > earlyAvg+5:
			q.ImprovementTrend = "improving"
		case recentAvg < earlyAvg-5:
			q.ImprovementTrend = "declining"
		default:
			q.ImprovementTrend = "stable"
		}
	} else {
		q.ImprovementTrend = "insufficient_data"
	}

	switch {
	case q.AverageScore >= 85:
		q.Patterns = append(q.Patterns, "Excellent academic performance")
	case q.AverageScore >= 75:
		q.Patterns = append(q.Patterns, "Good academic performance")
	case q.AverageScore >= 65:
		q.Patterns = append(q.Patterns, "Average performance - room for improvement")
	default:
		q.Patterns = append(q.Patterns, "Below average - needs additional support")
	}
	return q
}

func analyzeGameEngagement(st *model.State, studentName string, start, end time.Time) model.GameEngagement {
	var games []model.GameActivity
	for _, g := range st.GameActivities {
		if !strings.EqualFold(g.StudentName, studentName) {
			continue
		}
		d, err := time.Parse(dateLayout, g.Date)
		if err != nil {
			continue
		}
		if !d.Before(start) && !d.After(end) {
			games = append(games, g)
		}
	}

	if len(games) == 0 {
		return model.GameEngagement{
			GameTypes:       map[string]int{},
			EngagementLevel: model.EngagementNoData,
			Patterns:        []string{"No educational games played in this period"},
		}
	}

	e := model.GameEngagement{
		TotalGames: len(games),
		GameTypes:  map[string]int{},
	}
	for _, g := range games {
		e.TotalTimeMinutes += g.DurationMinutes
		gameType := g.GameType
		if gameType == "" {
			gameType = "Unknown"
		}
		e.GameTypes[gameType]++
	}
	e.AverageSessionTime = round2(float64(e.TotalTimeMinutes) / float64(e.TotalGames))

	// The analysis window is treated as four weeks for rate purposes.
	gamesPerWeek := float64(e.TotalGames) / 4
	switch {
	case gamesPerWeek >= 3:
		e.EngagementLevel = model.EngagementHigh
		e.Patterns = append(e.Patterns, "High engagement with educational games")
	case gamesPerWeek >= 1:
		e.EngagementLevel = model.EngagementModerate
		e.Patterns = append(e.Patterns, "Moderate game engagement")
	default:
		e.EngagementLevel = model.EngagementLow
		e.Patterns = append(e.Patterns, "Low game engagement - may need more interactive content")
	}
	if e.AverageSessionTime > 20 {
		e.Patterns = append(e.Patterns, "Good focus during game sessions")
	} else if e.AverageSessionTime < 10 {
		e.Patterns = append(e.Patterns, "Short attention span during games")
	}
	return e
}

func analyzePathProgress(st *model.State, studentName string) model.PathProgress {
	p := model.PathProgress{SubjectsCovered: []string{}}
	seen := map[string]bool{}
	for _, path := range st.LearningPaths {
		if !strings.EqualFold(path.StudentName, studentName) {
			continue
		}
		p.ActivePaths++
		p.TotalWeeksPlanned += path.DurationWeeks
		if !seen[path.Subject] {
			seen[path.Subject] = true
			p.SubjectsCovered = append(p.SubjectsCovered, path.Subject)
		}
	}
	sort.Strings(p.SubjectsCovered)

	if p.ActivePaths == 0 {
		p.Patterns = []string{"No personalized learning paths assigned"}
		return p
	}
	p.Patterns = []string{
		fmt.Sprintf("Has %d active learning path(s)", p.ActivePaths),
		"Covering subjects: " + strings.Join(p.SubjectsCovered, ", "),
	}
	return p
}

func analyzeBehavioralPatterns(attendance model.AttendanceAnalysis, quizzes model.QuizPerformance, games model.GameEngagement) model.BehavioralInsights {
	b := model.BehavioralInsights{
		Consistency:          "unknown",
		EngagementPreference: "unknown",
		LearningMomentum:     "unknown",
	}

	rate := attendance.AttendancePercentage
	switch {
	case rate >= 90:
		b.Consistency = "highly_consistent"
	case rate >= 75:
		b.Consistency = "moderately_consistent"
	default:
		b.Consistency = "inconsistent"
	}

	switch {
	case games.EngagementLevel == model.EngagementHigh && quizzes.ImprovementTrend == "improving":
		b.EngagementPreference = "multi_modal_learner"
	case games.EngagementLevel == model.EngagementHigh:
		b.EngagementPreference = "interactive_learner"
	case quizzes.ImprovementTrend == "improving":
		b.EngagementPreference = "traditional_assessments"
	}

	switch {
	case quizzes.ImprovementTrend == "improving" && rate > 85:
		b.LearningMomentum = "accelerating"
	case quizzes.ImprovementTrend == "stable" && rate > 75:
		b.LearningMomentum = "steady"
	default:
		b.LearningMomentum = "needs_support"
	}
	return b
}

// overallProgressScore weighs attendance 40%, quiz average 40%, and
// game engagement 20%.
func overallProgressScore(attendance model.AttendanceAnalysis, quizzes model.QuizPerformance, games model.GameEngagement) float64 {
	engagement := map[model.EngagementLevel]float64{
		model.EngagementHigh:     85,
		model.EngagementModerate: 70,
		model.EngagementLow:      40,
		model.EngagementNoData:   50,
	}
	score, ok := engagement[games.EngagementLevel]
	if !ok {
		score = 50
	}
	return round2(attendance.AttendancePercentage*0.4 + quizzes.AverageScore*0.4 + score*0.2)
}

func progressRecommendations(a model.ProgressAnalysis) []string {
	var recs []string
	if a.AttendanceAnalysis.AttendancePercentage < 85 {
		recs = append(recs,
			"Priority: Improve attendance consistency - consider parent meeting",
			"Investigate barriers to regular attendance")
	}
	if avg := a.QuizPerformance.AverageScore; avg < 70 {
		recs = append(recs,
			"Provide additional academic support and tutoring",
			"Consider modified assessment methods")
	} else if avg > 85 {
		recs = append(recs, "Consider advanced or enrichment activities")
	}
	if a.GameEngagement.EngagementLevel == model.EngagementLow {
		recs = append(recs,
			"Increase interactive and gamified learning opportunities",
			"Explore student interests to boost engagement")
	}
	if a.PathProgress.ActivePaths == 0 {
		recs = append(recs, "Create personalized learning path based on student profile")
	}
	if a.BehavioralInsights.Consistency == "inconsistent" {
		recs = append(recs,
			"Implement daily check-ins and routine building",
			"Collaborate with parents on home-school consistency")
	}
	if len(recs) == 0 {
		recs = []string{"Continue current approach - student is performing well"}
	}
	return recs
}

func progressSummary(a model.ProgressAnalysis) string {
	var level string
	switch {
	case a.OverallScore >= 85:
		level = "excellent"
	case a.OverallScore >= 75:
		level = "good"
	case a.OverallScore >= 65:
		level = "satisfactory"
	default:
		level = "needs improvement"
	}

	parts := []string{
		fmt.Sprintf("%s demonstrates %s overall progress with a score of %v/100.", a.StudentName, level, a.OverallScore),
	}

	rate := a.AttendanceAnalysis.AttendancePercentage
	switch {
	case rate >= 90:
		parts = append(parts, fmt.Sprintf("Attendance is excellent at %v%%.", rate))
	case rate >= 75:
		parts = append(parts, fmt.Sprintf("Attendance is acceptable at %v%% but could improve.", rate))
	default:
		parts = append(parts, fmt.Sprintf("Attendance at %v%% requires immediate attention.", rate))
	}

	avg := a.QuizPerformance.AverageScore
	switch {
	case avg >= 80:
		parts = append(parts, fmt.Sprintf("Academic performance is strong with an average MCQ score of %v%%.", avg))
	case avg >= 70:
		parts = append(parts, fmt.Sprintf("Academic performance is satisfactory with room for growth (MCQ average: %v%%).", avg))
	default:
		parts = append(parts, fmt.Sprintf("Academic performance needs support (MCQ average: %v%%).", avg))
	}

	switch a.BehavioralInsights.LearningMomentum {
	case "accelerating":
		parts = append(parts, "The student shows positive learning momentum and increased engagement.")
	case "steady":
		parts = append(parts, "The student maintains steady progress with consistent effort.")
	default:
		parts = append(parts, "The student would benefit from additional motivation and support strategies.")
	}
	return strings.Join(parts, " ")
}

func (m *Manager) getProgressHistory(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName string `json:"student_name"`
		Limit       int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 5
	}

	var history []map[string]any
	for id, a := range st.ProgressAnalyses {
		if !strings.EqualFold(a.StudentName, strings.TrimSpace(in.StudentName)) {
			continue
		}
		history = append(history, map[string]any{
			"analysis_id":   id,
			"analysis_date": a.AnalysisDate,
			"overall_score": a.OverallScore,
			"time_period":   a.TimePeriodDays,
			"key_metrics": map[string]any{
				"attendance_rate":  a.AttendanceAnalysis.AttendancePercentage,
				"quiz_average":     a.QuizPerformance.AverageScore,
				"engagement_level": a.GameEngagement.EngagementLevel,
			},
		})
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i]["analysis_date"].(string) > history[j]["analysis_date"].(string)
	})
	if len(history) > limit {
		history = history[:limit]
	}

	return map[string]any{
		"action":         "get_progress_history",
		"status":         "success",
		"student_name":   in.StudentName,
		"total_analyses": len(history),
		"history":        history,
		"message":        fmt.Sprintf("Retrieved %d progress analyses for %s", len(history), in.StudentName),
	}, nil
}
