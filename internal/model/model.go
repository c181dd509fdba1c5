package model

import (
	"time"
	"unicode/utf8"
)

// UserRole represents a user's declared role.
type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleTeacher UserRole = "teacher"
	UserRoleAdmin   UserRole = "admin"
)

// DifficultyLevel represents content difficulty preference.
type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// EvaluationStatus represents the status of a student evaluation session.
type EvaluationStatus string

const (
	EvaluationInProgress EvaluationStatus = "in_progress"
	EvaluationCompleted  EvaluationStatus = "completed"
)

// EngagementLevel buckets how actively a student uses educational games.
type EngagementLevel string

const (
	EngagementHigh     EngagementLevel = "high"
	EngagementModerate EngagementLevel = "moderate"
	EngagementLow      EngagementLevel = "low"
	EngagementNoData   EngagementLevel = "no_data"
)

// Limits on unbounded state collections.
const (
	MaxInteractionHistory = 100
	MaxSearchHistory      = 50
	MaxInteractionDetails = 500
)

// Preferences holds the user's personalization settings.
type Preferences struct {
	Language        string          `json:"language"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level"`
	Subjects        []string        `json:"subjects"`
}

// Interaction is a single entry in the session's interaction log.
type Interaction struct {
	Timestamp    string `json:"timestamp"`
	Type         string `json:"type"`
	Details      string `json:"details"`
	SessionCount int    `json:"session_count"`
	UserRole     string `json:"user_role"`
}

// Student is a roster entry in the students database.
type Student struct {
	Name                string `json:"name"`
	Grade               string `json:"grade"`
	CreatedDate         string `json:"created_date"`
	TotalAttendanceDays int    `json:"total_attendance_days"`
	LastAttendance      string `json:"last_attendance,omitempty"`
	CreatedBy           string `json:"created_by"`
}

// AttendanceRecord marks a student present on a given date.
// Records are keyed by "date_studentID" in the state document.
type AttendanceRecord struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Grade       string `json:"grade"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	MarkedBy    string `json:"marked_by"`
}

// EvaluationQuestion is one question in the fixed evaluation questionnaire.
type EvaluationQuestion struct {
	Category   string `json:"category"`
	Question   string `json:"question"`
	Type       string `json:"type"`
	Importance string `json:"importance"`
}

// EvaluationAnswer records a student's answer keyed by question type.
type EvaluationAnswer struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
}

// EvaluationSession tracks a structured student evaluation in progress.
type EvaluationSession struct {
	SessionID            string                      `json:"session_id"`
	StudentName          string                      `json:"student_name"`
	StartTime            string                      `json:"start_time"`
	Questions            []EvaluationQuestion        `json:"questions"`
	CurrentQuestionIndex int                         `json:"current_question_index"`
	Answers              map[string]EvaluationAnswer `json:"answers"`
	Status               EvaluationStatus            `json:"status"`
	Evaluator            string                      `json:"evaluator"`
	CompletionTime       string                      `json:"completion_time,omitempty"`
}

// AcademicAnalysis summarizes a student's academic self-report.
type AcademicAnalysis struct {
	FavoriteSubject    string `json:"favorite_subject"`
	ChallengingSubject string `json:"challenging_subject"`
	GradeLevel         string `json:"grade_level"`
	AcademicConfidence string `json:"academic_confidence"`
}

// LearningStyleAnalysis captures how the student prefers to learn.
type LearningStyleAnalysis struct {
	PrimaryStyle      string `json:"primary_style"`
	SocialLearning    string `json:"social_learning"`
	TechnologyComfort string `json:"technology_comfort"`
}

// EmotionalAnalysis captures the student's emotional patterns.
type EmotionalAnalysis struct {
	EmotionalStability string `json:"emotional_stability"`
	MotivationLevel    string `json:"motivation_level"`
	Resilience         string `json:"resilience"`
}

// ProfileAnalysis is the full evaluation analysis for a student.
type ProfileAnalysis struct {
	StudentName           string                `json:"student_name"`
	EvaluationDate        string                `json:"evaluation_date"`
	SessionID             string                `json:"session_id"`
	AcademicAnalysis      AcademicAnalysis      `json:"academic_analysis"`
	LearningStyleAnalysis LearningStyleAnalysis `json:"learning_style_analysis"`
	EmotionalAnalysis     EmotionalAnalysis     `json:"emotional_analysis"`
	Strengths             []string              `json:"strengths"`
	Weaknesses            []string              `json:"weaknesses"`
	Recommendations       []string              `json:"recommendations"`
	Summary               string                `json:"summary"`
}

// StudentProfile stores the evaluation outcome, keyed by student name.
type StudentProfile struct {
	ProfileCreated string                      `json:"profile_created"`
	LastEvaluation string                      `json:"last_evaluation"`
	Analysis       ProfileAnalysis             `json:"analysis"`
	RawAnswers     map[string]EvaluationAnswer `json:"raw_answers"`
}

// WeeklyPlan is one week of a personalized learning path.
type WeeklyPlan struct {
	Week                      int      `json:"week"`
	Topic                     string   `json:"topic"`
	LearningObjectives        []string `json:"learning_objectives"`
	Activities                []string `json:"activities"`
	EstimatedTimeMinutes      int      `json:"estimated_time_minutes"`
	ResourcesNeeded           []string `json:"resources_needed"`
	AssessmentMethod          string   `json:"assessment_method"`
	DifferentiationStrategies []string `json:"differentiation_strategies"`
	EmotionalSupport          []string `json:"emotional_support"`
}

// Milestone is a progress checkpoint within a learning path.
type Milestone struct {
	Week            int      `json:"week"`
	MilestoneName   string   `json:"milestone_name"`
	SuccessCriteria []string `json:"success_criteria"`
	AssessmentType  string   `json:"assessment_type"`
}

// FinalAssessment is the summative assessment at the end of a path.
type FinalAssessment struct {
	Week           int      `json:"week"`
	AssessmentName string   `json:"assessment_name"`
	Type           string   `json:"type"`
	Format         []string `json:"format"`
	TopicsCovered  []string `json:"topics_covered"`
}

// PersonalizationFactors records the profile inputs that shaped a path.
type PersonalizationFactors struct {
	LearningStyle          string `json:"learning_style"`
	SocialPreference       string `json:"social_preference"`
	EmotionalSupportNeeded bool   `json:"emotional_support_needed"`
	SubjectAffinity        string `json:"subject_affinity"`
	ChallengeLevel         string `json:"challenge_level"`
}

// LearningPath is a personalized week-by-week plan for a student.
type LearningPath struct {
	PathID                 string                 `json:"path_id"`
	StudentName            string                 `json:"student_name"`
	Subject                string                 `json:"subject"`
	CreatedDate            string                 `json:"created_date"`
	DurationWeeks          int                    `json:"duration_weeks"`
	LearningStyle          string                 `json:"learning_style"`
	DifficultyLevel        string                 `json:"difficulty_level"`
	WeeklyPlan             []WeeklyPlan           `json:"weekly_plan"`
	AssessmentSchedule     []FinalAssessment      `json:"assessment_schedule"`
	PersonalizationFactors PersonalizationFactors `json:"personalization_factors"`
	Adaptations            []string               `json:"adaptations"`
	Milestones             []Milestone            `json:"milestones"`
}

// AttendanceAnalysis is the attendance portion of a progress analysis.
type AttendanceAnalysis struct {
	TotalDays            int      `json:"total_days"`
	PresentDays          int      `json:"present_days"`
	AbsentDays           int      `json:"absent_days"`
	LateDays             int      `json:"late_days"`
	AttendancePercentage float64  `json:"attendance_percentage"`
	Patterns             []string `json:"patterns"`
	Trend                string   `json:"trend"`
}

// SubjectScore aggregates quiz scores within one subject.
type SubjectScore struct {
	Average    float64 `json:"average"`
	TestsTaken int     `json:"tests_taken"`
	BestScore  float64 `json:"best_score"`
}

// QuizPerformance is the academic portion of a progress analysis.
type QuizPerformance struct {
	TotalTests         int                     `json:"total_tests"`
	AverageScore       float64                 `json:"average_score"`
	HighestScore       float64                 `json:"highest_score"`
	LowestScore        float64                 `json:"lowest_score"`
	ImprovementTrend   string                  `json:"improvement_trend"`
	SubjectPerformance map[string]SubjectScore `json:"subject_performance"`
	Patterns           []string                `json:"patterns"`
}

// GameEngagement is the engagement portion of a progress analysis.
type GameEngagement struct {
	TotalGames         int             `json:"total_games"`
	TotalTimeMinutes   int             `json:"total_time_minutes"`
	AverageSessionTime float64         `json:"average_session_time"`
	GameTypes          map[string]int  `json:"game_types"`
	EngagementLevel    EngagementLevel `json:"engagement_level"`
	Patterns           []string        `json:"patterns"`
}

// PathProgress summarizes a student's assigned learning paths.
type PathProgress struct {
	ActivePaths       int      `json:"active_paths"`
	SubjectsCovered   []string `json:"subjects_covered"`
	TotalWeeksPlanned int      `json:"total_weeks_planned"`
	Patterns          []string `json:"patterns"`
}

// BehavioralInsights are derived patterns across all metric sources.
type BehavioralInsights struct {
	Consistency          string `json:"consistency"`
	EngagementPreference string `json:"engagement_preference"`
	LearningMomentum     string `json:"learning_momentum"`
}

// ProgressAnalysis is a complete point-in-time progress report.
type ProgressAnalysis struct {
	StudentName        string             `json:"student_name"`
	StudentID          string             `json:"student_id"`
	AnalysisPeriod     string             `json:"analysis_period"`
	AnalysisDate       string             `json:"analysis_date"`
	TimePeriodDays     int                `json:"time_period_days"`
	AttendanceAnalysis AttendanceAnalysis `json:"attendance_analysis"`
	QuizPerformance    QuizPerformance    `json:"academic_performance"`
	GameEngagement     GameEngagement     `json:"engagement_metrics"`
	PathProgress       PathProgress       `json:"learning_path_progress"`
	BehavioralInsights BehavioralInsights `json:"behavioral_insights"`
	Recommendations    []string           `json:"recommendations"`
	OverallScore       float64            `json:"overall_score"`
	Summary            string             `json:"summary"`
}

// QuizResult records a student's score on a generated quiz.
type QuizResult struct {
	StudentName string  `json:"student_name"`
	Subject     string  `json:"subject"`
	Topic       string  `json:"topic"`
	Score       float64 `json:"score"`
	Date        string  `json:"date"`
	RecordedBy  string  `json:"recorded_by"`
}

// GameActivity records a student playing a generated educational game.
type GameActivity struct {
	StudentName     string `json:"student_name"`
	GameType        string `json:"game_type"`
	Topic           string `json:"topic"`
	DurationMinutes int    `json:"duration_minutes"`
	Date            string `json:"date"`
}

// Resource is a single educational resource recommendation.
type Resource struct {
	Title              string   `json:"title"`
	Type               string   `json:"type"`
	URL                string   `json:"url"`
	Source             string   `json:"source"`
	Duration           string   `json:"duration,omitempty"`
	GradeLevel         string   `json:"grade_level"`
	Description        string   `json:"description"`
	QualityScore       float64  `json:"quality_score"`
	LearningObjectives []string `json:"learning_objectives"`
	Pros               []string `json:"pros"`
	Cons               []string `json:"cons"`
	StyleMatch         int      `json:"learning_style_match,omitempty"`
}

// ResourceSearch is one entry in the resource search history.
type ResourceSearch struct {
	Timestamp    string `json:"timestamp"`
	Topic        string `json:"topic"`
	Searcher     string `json:"searcher"`
	ResultsCount int    `json:"results_count"`
}

// SavedRecommendation is a curated resource set saved by a teacher.
type SavedRecommendation struct {
	RecommendationID string     `json:"recommendation_id"`
	Topic            string     `json:"topic"`
	CreatedDate      string     `json:"created_date"`
	CreatedBy        string     `json:"created_by"`
	Resources        []Resource `json:"resources"`
	TeacherNotes     string     `json:"teacher_notes"`
	UsageCount       int        `json:"usage_count"`
	Status           string     `json:"status"`
}

// State is the complete per-session document persisted as JSON.
// All timestamps are RFC 3339 strings so the document round-trips
// through JSON without loss.
type State struct {
	UserName              string                         `json:"user_name"`
	UserRole              string                         `json:"user_role"`
	SessionCount          int                            `json:"session_count"`
	Preferences           Preferences                    `json:"preferences"`
	InteractionHistory    []Interaction                  `json:"interaction_history"`
	AttendanceRecords     map[string]AttendanceRecord    `json:"attendance_records"`
	StudentsDatabase      map[string]Student             `json:"students_database,omitempty"`
	StudentProfiles       map[string]StudentProfile      `json:"student_profiles,omitempty"`
	EvaluationSessions    map[string]EvaluationSession   `json:"evaluation_sessions,omitempty"`
	LearningPaths         map[string]LearningPath        `json:"learning_paths,omitempty"`
	ProgressAnalyses      map[string]ProgressAnalysis    `json:"progress_analyses,omitempty"`
	QuizResults           map[string]QuizResult          `json:"mcq_results,omitempty"`
	GameActivities        map[string]GameActivity        `json:"game_activities,omitempty"`
	ResourceSearchHistory []ResourceSearch               `json:"resource_search_history,omitempty"`
	SavedRecommendations  map[string]SavedRecommendation `json:"saved_resource_recommendations,omitempty"`
}

// NewState returns the default document for a fresh session.
func NewState() *State {
	return &State{
		Preferences: Preferences{
			Language:        "english",
			DifficultyLevel: DifficultyMedium,
			Subjects:        []string{},
		},
		InteractionHistory: []Interaction{},
		AttendanceRecords:  map[string]AttendanceRecord{},
	}
}

// LogInteraction appends an entry to the interaction history, truncating
// long details and evicting the oldest entries past MaxInteractionHistory.
func (s *State) LogInteraction(now time.Time, interactionType, details string) Interaction {
	if len(details) > MaxInteractionDetails {
		// Cut at a rune boundary so the entry stays valid UTF-8.
		cut := MaxInteractionDetails
		for cut > 0 && !utf8.RuneStart(details[cut]) {
			cut--
		}
		details = details[:cut]
	}
	entry := Interaction{
		Timestamp:    now.Format(time.RFC3339),
		Type:         interactionType,
		Details:      details,
		SessionCount: s.SessionCount,
		UserRole:     s.UserRole,
	}
	s.InteractionHistory = append(s.InteractionHistory, entry)
	if n := len(s.InteractionHistory); n > MaxInteractionHistory {
		s.InteractionHistory = s.InteractionHistory[n-MaxInteractionHistory:]
	}
	return entry
}

// LogResourceSearch appends a resource search entry, keeping the most
// recent MaxSearchHistory entries.
func (s *State) LogResourceSearch(entry ResourceSearch) {
	s.ResourceSearchHistory = append(s.ResourceSearchHistory, entry)
	if n := len(s.ResourceSearchHistory); n > MaxSearchHistory {
		s.ResourceSearchHistory = s.ResourceSearchHistory[n-MaxSearchHistory:]
	}
}

// Session is a stored session row with its state document.
type Session struct {
	ID        string    `json:"id"`
	AppName   string    `json:"app_name"`
	UserID    string    `json:"user_id"`
	State     *State    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionSummary is the condensed per-session view used in listings.
type SessionSummary struct {
	ID                     string      `json:"id"`
	CreatedAt              time.Time   `json:"created_at"`
	UserName               string      `json:"user_name"`
	UserRole               string      `json:"user_role"`
	SessionCount           int         `json:"session_count"`
	AttendanceRecordsCount int         `json:"attendance_records_count"`
	InteractionCount       int         `json:"interaction_count"`
	Preferences            Preferences `json:"preferences"`
}

// Summary builds the condensed view of a session.
func (sess Session) Summary() SessionSummary {
	return SessionSummary{
		ID:                     sess.ID,
		CreatedAt:              sess.CreatedAt,
		UserName:               sess.State.UserName,
		UserRole:               sess.State.UserRole,
		SessionCount:           sess.State.SessionCount,
		AttendanceRecordsCount: len(sess.State.AttendanceRecords),
		InteractionCount:       len(sess.State.InteractionHistory),
		Preferences:            sess.State.Preferences,
	}
}
