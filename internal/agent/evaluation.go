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

func (m *Manager) registerEvaluationTools() {
	m.register("start_student_evaluation",
		"Start a structured evaluation for a student: a fixed questionnaire covering academics, learning style, emotions, and background.",
		objSchema(map[string]jsonschema.Definition{
			"student_name": strProp("Name of the student to evaluate"),
		}, "student_name"),
		m.startStudentEvaluation)

	m.register("record_evaluation_answer",
		"Record the student's answer to the current evaluation question and get the next question, or the final analysis when done.",
		objSchema(map[string]jsonschema.Definition{
			"session_id": strProp("The evaluation session id"),
			"answer":     strProp("The student's answer to the current question"),
		}, "session_id", "answer"),
		m.recordEvaluationAnswer)

	m.register("get_student_profile",
		"Retrieve the stored evaluation profile for a student.",
		objSchema(map[string]jsonschema.Definition{
			"student_name": strProp("Name of the student"),
		}, "student_name"),
		m.getStudentProfile)

	m.register("get_evaluation_sessions",
		"List evaluation sessions, optionally filtered by student name or status (in_progress, completed).",
		objSchema(map[string]jsonschema.Definition{
			"student_name": strProp("Filter by student name (optional)"),
			"status":       strProp("Filter by status: in_progress or completed (optional)"),
		}),
		m.getEvaluationSessions)
}

// evaluationQuestions is the fixed questionnaire. The first question is
// personalized with the student's name.
func evaluationQuestions(studentName string) []model.EvaluationQuestion {
	return []model.EvaluationQuestion{
		{Category: "basic_info", Question: fmt.Sprintf("Hi %s! Let's start with some basic information. How old are you?", studentName), Type: "age", Importance: "high"},
		{Category: "academic", Question: "What grade/class are you currently in?", Type: "grade_level", Importance: "high"},
		{Category: "academic", Question: "Which school do you attend?", Type: "school_info", Importance: "medium"},
		{Category: "interests", Question: "What is your favorite subject in school and why?", Type: "favorite_subject", Importance: "high"},
		{Category: "interests", Question: "Which subject do you find most difficult or challenging?", Type: "difficult_subject", Importance: "high"},
		{Category: "learning_style", Question: "How do you prefer to learn new things? (reading, watching videos, hands-on activities, listening to explanations)", Type: "learning_preference", Importance: "high"},
		{Category: "hobbies", Question: "What do you like to do in your free time? What are your hobbies?", Type: "hobbies", Importance: "medium"},
		{Category: "social", Question: "Do you prefer working alone or with other students? Why?", Type: "social_preference", Importance: "medium"},
		{Category: "motivation", Question: "What motivates you to study? What are your goals?", Type: "motivation", Importance: "high"},
		{Category: "challenges", Question: "What do you find most challenging about school or learning?", Type: "learning_challenges", Importance: "high"},
		{Category: "emotional", Question: "How do you feel when you don't understand something in class?", Type: "emotional_response", Importance: "high"},
		{Category: "activities", Question: "What activities have you done recently that you enjoyed?", Type: "recent_activities", Importance: "medium"},
		{Category: "family", Question: "Does anyone at home help you with your studies? How?", Type: "family_support", Importance: "medium"},
		{Category: "technology", Question: "Are you comfortable using computers, tablets, or educational apps?", Type: "tech_comfort", Importance: "medium"},
		{Category: "future", Question: "What do you want to be when you grow up? Any dream career?", Type: "career_aspirations", Importance: "medium"},
	}
}

func (m *Manager) startStudentEvaluation(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName string `json:"student_name"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	name := titleName(in.StudentName)
	if name == "" {
		return nil, fmt.Errorf("student name is required")
	}

	now := m.now()
	sessionID := fmt.Sprintf("eval_%s_%s", now.Format("20060102_150405"), strings.ReplaceAll(name, " ", "_"))
	questions := evaluationQuestions(name)

	if st.EvaluationSessions == nil {
		st.EvaluationSessions = map[string]model.EvaluationSession{}
	}
	st.EvaluationSessions[sessionID] = model.EvaluationSession{
		SessionID:   sessionID,
		StudentName: name,
		StartTime:   now.Format(time.RFC3339),
		Questions:   questions,
		Answers:     map[string]model.EvaluationAnswer{},
		Status:      model.EvaluationInProgress,
		Evaluator:   markedBy(st),
	}

	return map[string]any{
		"action":          "start_student_evaluation",
		"status":          "started",
		"session_id":      sessionID,
		"student_name":    name,
		"total_questions": len(questions),
		"first_question":  questions[0],
		"message":         fmt.Sprintf("Started comprehensive evaluation for %s.", name),
		"instructions":    "Please answer each question thoughtfully. There are no right or wrong answers.",
	}, nil
}

func (m *Manager) recordEvaluationAnswer(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		SessionID string `json:"session_id"`
		Answer    string `json:"answer"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}

	session, ok := st.EvaluationSessions[in.SessionID]
	if !ok {
		return nil, fmt.Errorf("evaluation session %q not found", in.SessionID)
	}
	if session.CurrentQuestionIndex >= len(session.Questions) {
		return nil, fmt.Errorf("no more questions in this evaluation")
	}

	now := m.now()
	current := session.Questions[session.CurrentQuestionIndex]
	session.Answers[current.Type] = model.EvaluationAnswer{
		Question:  current.Question,
		Answer:    strings.TrimSpace(in.Answer),
		Category:  current.Category,
		Timestamp: now.Format(time.RFC3339),
	}
	session.CurrentQuestionIndex++

	if session.CurrentQuestionIndex >= len(session.Questions) {
		session.Status = model.EvaluationCompleted
		session.CompletionTime = now.Format(time.RFC3339)
		st.EvaluationSessions[in.SessionID] = session

		analysis := analyzeResponses(session, now)
		if st.StudentProfiles == nil {
			st.StudentProfiles = map[string]model.StudentProfile{}
		}
		st.StudentProfiles[session.StudentName] = model.StudentProfile{
			ProfileCreated: now.Format(time.RFC3339),
			LastEvaluation: in.SessionID,
			Analysis:       analysis,
			RawAnswers:     session.Answers,
		}

		return map[string]any{
			"action":        "record_evaluation_answer",
			"status":        "completed",
			"session_id":    in.SessionID,
			"total_answers": len(session.Answers),
			"analysis":      analysis,
			"message":       "Evaluation completed! The responses have been analyzed and a learning profile created.",
		}, nil
	}

	st.EvaluationSessions[in.SessionID] = session
	next := session.Questions[session.CurrentQuestionIndex]
	progress := round1(float64(session.CurrentQuestionIndex) / float64(len(session.Questions)) * 100)

	return map[string]any{
		"action":              "record_evaluation_answer",
		"status":              "continuing",
		"session_id":          in.SessionID,
		"progress_percentage": progress,
		"question_number":     session.CurrentQuestionIndex + 1,
		"total_questions":     len(session.Questions),
		"next_question":       next,
		"message":             fmt.Sprintf("Great answer! Let's continue... (Question %d of %d)", session.CurrentQuestionIndex+1, len(session.Questions)),
	}, nil
}

func answerText(answers map[string]model.EvaluationAnswer, questionType string) string {
	return strings.ToLower(answers[questionType].Answer)
}

// analyzeResponses derives the student profile from the questionnaire
// answers using fixed keyword rules.
func analyzeResponses(session model.EvaluationSession, now time.Time) model.ProfileAnalysis {
	answers := session.Answers

	favorite := answerText(answers, "favorite_subject")
	difficult := answerText(answers, "difficult_subject")
	gradeLevel := answers["grade_level"].Answer

	confidence := "medium"
	if containsAny(difficult, "easy", "none") {
		confidence = "high"
	}

	learningPref := answerText(answers, "learning_preference")
	style := "visual"
	switch {
	case containsAny(learningPref, "hands-on", "activities"):
		style = "kinesthetic"
	case containsAny(learningPref, "listening", "explanation"):
		style = "auditory"
	case containsAny(learningPref, "reading", "text"):
		style = "reading/writing"
	case containsAny(learningPref, "video", "watching"):
		style = "visual"
	}

	socialPref := answerText(answers, "social_preference")
	social := "independent"
	if containsAny(socialPref, "group", "others") {
		social = "collaborative"
	}

	techComfort := "medium"
	if containsAny(answerText(answers, "tech_comfort"), "yes", "comfortable") {
		techComfort = "high"
	}

	emotional := answerText(answers, "emotional_response")
	stability := "stable"
	switch {
	case containsAny(emotional, "frustrated", "angry"):
		stability = "needs_support"
	case containsAny(emotional, "sad", "give up"):
		stability = "low_confidence"
	case containsAny(emotional, "ask", "help"):
		stability = "help_seeking"
	}

	motivation := "medium"
	if containsAny(answerText(answers, "motivation"), "goal", "future") {
		motivation = "high"
	}

	resilience := "medium"
	if containsAny(emotional, "try again", "practice") {
		resilience = "high"
	}

	var strengths []string
	if favorite != "" && favorite != "none" {
		strengths = append(strengths, "Strong interest in "+favorite)
	}
	if social == "collaborative" {
		strengths = append(strengths, "Works well with others")
	}
	if motivation == "high" {
		strengths = append(strengths, "Highly motivated learner")
	}
	if stability == "help_seeking" {
		strengths = append(strengths, "Comfortable asking for help")
	}

	var weaknesses []string
	if difficult != "" && difficult != "none" {
		weaknesses = append(weaknesses, "Needs support in "+difficult)
	}
	if stability == "needs_support" {
		weaknesses = append(weaknesses, "May need emotional support when facing challenges")
	}
	if techComfort == "medium" {
		weaknesses = append(weaknesses, "Could benefit from technology skills development")
	}
	if len(weaknesses) == 0 {
		weaknesses = []string{"No significant weaknesses identified"}
	}

	var recommendations []string
	switch style {
	case "kinesthetic":
		recommendations = append(recommendations, "Use hands-on activities, experiments, and interactive learning")
	case "visual":
		recommendations = append(recommendations, "Incorporate visual aids, diagrams, and video content")
	case "auditory":
		recommendations = append(recommendations, "Use discussions, explanations, and audio materials")
	}
	if difficult != "" {
		recommendations = append(recommendations,
			"Provide extra support and practice in "+difficult,
			"Break down "+difficult+" concepts into smaller, manageable parts")
	}
	if stability == "needs_support" {
		recommendations = append(recommendations,
			"Create a supportive learning environment with positive reinforcement",
			"Teach coping strategies for handling difficult concepts")
	}
	if social == "collaborative" {
		recommendations = append(recommendations, "Include group projects and peer learning opportunities")
	} else {
		recommendations = append(recommendations, "Provide individual learning paths and self-paced activities")
	}

	var summary []string
	summary = append(summary, fmt.Sprintf("%s is a %s student with a %s learning style.", session.StudentName, gradeLevel, style))
	if favorite != "" {
		summary = append(summary, fmt.Sprintf("They show strong interest in %s.", favorite))
	}
	if difficult != "" && difficult != "none" {
		summary = append(summary, fmt.Sprintf("They find %s challenging and would benefit from additional support.", difficult))
	}
	summary = append(summary, fmt.Sprintf("Their emotional response to challenges suggests they are %s.", strings.ReplaceAll(stability, "_", " ")))
	if social == "collaborative" {
		summary = append(summary, "They prefer collaborative learning environments.")
	} else {
		summary = append(summary, "They work well independently.")
	}

	return model.ProfileAnalysis{
		StudentName:    session.StudentName,
		EvaluationDate: now.Format(time.RFC3339),
		SessionID:      session.SessionID,
		AcademicAnalysis: model.AcademicAnalysis{
			FavoriteSubject:    favorite,
			ChallengingSubject: difficult,
			GradeLevel:         gradeLevel,
			AcademicConfidence: confidence,
		},
		LearningStyleAnalysis: model.LearningStyleAnalysis{
			PrimaryStyle:      style,
			SocialLearning:    social,
			TechnologyComfort: techComfort,
		},
		EmotionalAnalysis: model.EmotionalAnalysis{
			EmotionalStability: stability,
			MotivationLevel:    motivation,
			Resilience:         resilience,
		},
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		Recommendations: recommendations,
		Summary:         strings.Join(summary, " "),
	}
}

func (m *Manager) getStudentProfile(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName string `json:"student_name"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}

	for name, profile := range st.StudentProfiles {
		if strings.EqualFold(name, strings.TrimSpace(in.StudentName)) {
			return map[string]any{
				"action":       "get_student_profile",
				"status":       "found",
				"student_name": name,
				"profile":      profile,
				"message":      fmt.Sprintf("Retrieved comprehensive profile for %s", name),
			}, nil
		}
	}
	return map[string]any{
		"action":     "get_student_profile",
		"status":     "not_found",
		"message":    fmt.Sprintf("No evaluation profile found for %s. Please conduct an evaluation first.", in.StudentName),
		"suggestion": "Use start_student_evaluation to create a profile for this student.",
	}, nil
}

func (m *Manager) getEvaluationSessions(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName string `json:"student_name"`
		Status      string `json:"status"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}

	var sessions []map[string]any
	for id, session := range st.EvaluationSessions {
		if in.StudentName != "" && !strings.EqualFold(session.StudentName, in.StudentName) {
			continue
		}
		if in.Status != "" && string(session.Status) != in.Status {
			continue
		}
		sessions = append(sessions, map[string]any{
			"session_id":      id,
			"student_name":    session.StudentName,
			"status":          session.Status,
			"start_time":      session.StartTime,
			"completion_time": session.CompletionTime,
			"progress":        fmt.Sprintf("%d / %d questions", len(session.Answers), len(session.Questions)),
			"evaluator":       session.Evaluator,
		})
	}

	return map[string]any{
		"action":         "get_evaluation_sessions",
		"total_sessions": len(sessions),
		"sessions":       sessions,
		"filters_applied": map[string]any{
			"student_name": in.StudentName,
			"status":       in.Status,
		},
		"message": fmt.Sprintf("Found %d evaluation sessions", len(sessions)),
	}, nil
}
