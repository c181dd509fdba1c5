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

const visualizationSystemPrompt = `You create single-file HTML visualizations for educational concepts.
Produce one complete, self-contained HTML document with inline CSS and JavaScript.
Use Three.js from a CDN for 3D content when it suits the concept, otherwise Canvas or SVG.
The visualization must be interactive (rotate, zoom, or adjustable parameters) and labeled clearly for classroom use.
Respond with the HTML document only.`

const gameSystemPrompt = `You create single-file HTML educational games.
Produce one complete, self-contained HTML document with inline CSS and JavaScript.
The game must teach the requested topic through play, track a score, show simple instructions, and work with mouse and keyboard.
Keep the reading level appropriate for the requested grade level.
Respond with the HTML document only.`

func (m *Manager) registerContentTools() {
	m.register("create_quiz",
		"Generate a multiple-choice quiz on a topic at a given difficulty.",
		objSchema(map[string]jsonschema.Definition{
			"topic":         strProp("The topic to quiz on"),
			"difficulty":    strProp("Difficulty: easy, medium, or hard (defaults to the user's preference)"),
			"num_questions": intProp("Number of questions, default 5"),
		}, "topic"),
		m.createQuiz)

	m.register("record_quiz_result",
		"Record a student's score on a quiz so it counts toward progress analysis.",
		objSchema(map[string]jsonschema.Definition{
			"student_name": strProp("Name of the student"),
			"subject":      strProp("Subject of the quiz"),
			"topic":        strProp("Topic of the quiz"),
			"score":        {Type: jsonschema.Number, Description: "Score as a percentage, 0 to 100"},
			"date":         strProp("Date in YYYY-MM-DD format, defaults to today"),
		}, "student_name", "score"),
		m.recordQuizResult)

	m.register("create_visualization",
		"Generate a single-file interactive HTML visualization for a concept.",
		objSchema(map[string]jsonschema.Definition{
			"concept":     strProp("The concept to visualize"),
			"description": strProp("Additional detail about what to show (optional)"),
		}, "concept"),
		m.createVisualization)

	m.register("create_game",
		"Generate a single-file HTML educational game for a topic.",
		objSchema(map[string]jsonschema.Definition{
			"topic":       strProp("The topic the game should teach"),
			"game_type":   strProp("Kind of game, e.g. quiz, puzzle, memory (optional)"),
			"grade_level": strProp("Target grade level (optional)"),
		}, "topic"),
		m.createGame)

	m.register("record_game_activity",
		"Record that a student played an educational game, for engagement metrics.",
		objSchema(map[string]jsonschema.Definition{
			"student_name":     strProp("Name of the student"),
			"game_type":        strProp("Kind of game played"),
			"topic":            strProp("Topic of the game"),
			"duration_minutes": intProp("How long the session lasted, in minutes"),
			"date":             strProp("Date in YYYY-MM-DD format, defaults to today"),
		}, "student_name", "duration_minutes"),
		m.recordGameActivity)
}

func (m *Manager) createQuiz(ctx context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		Topic        string `json:"topic"`
		Difficulty   string `json:"difficulty"`
		NumQuestions int    `json:"num_questions"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = string(st.Preferences.DifficultyLevel)
	}
	n := in.NumQuestions
	if n <= 0 {
		n = 5
	}

	quiz, err := m.llm.GenerateQuiz(ctx, topic, difficulty, st.Preferences.Language, n)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	st.LogInteraction(m.now(), "quiz_created", fmt.Sprintf("topic=%s difficulty=%s questions=%d", topic, difficulty, len(quiz.Questions)))
	return map[string]any{
		"action":  "create_quiz",
		"status":  "success",
		"quiz":    quiz,
		"message": fmt.Sprintf("Created a %s quiz on %s with %d questions", difficulty, topic, len(quiz.Questions)),
	}, nil
}

func (m *Manager) recordQuizResult(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName string  `json:"student_name"`
		Subject     string  `json:"subject"`
		Topic       string  `json:"topic"`
		Score       float64 `json:"score"`
		Date        string  `json:"date"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	name := titleName(in.StudentName)
	if name == "" {
		return nil, fmt.Errorf("student name is required")
	}
	if in.Score < 0 || in.Score > 100 {
		return nil, fmt.Errorf("score must be between 0 and 100, got %v", in.Score)
	}

	now := m.now()
	dateStr := in.Date
	if dateStr == "" {
		dateStr = now.Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, dateStr); err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", in.Date)
	}

	result := model.QuizResult{
		StudentName: name,
		Subject:     in.Subject,
		Topic:       in.Topic,
		Score:       in.Score,
		Date:        dateStr,
		RecordedBy:  markedBy(st),
	}
	if st.QuizResults == nil {
		st.QuizResults = map[string]model.QuizResult{}
	}
	resultID := fmt.Sprintf("mcq_%s_%s", now.Format("20060102_150405"), strings.ReplaceAll(name, " ", "_"))
	st.QuizResults[resultID] = result

	return map[string]any{
		"action":    "record_quiz_result",
		"status":    "success",
		"result_id": resultID,
		"result":    result,
		"message":   fmt.Sprintf("Recorded quiz score %.1f%% for %s", in.Score, name),
	}, nil
}

func (m *Manager) createVisualization(ctx context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		Concept     string `json:"concept"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	concept := strings.TrimSpace(in.Concept)
	if concept == "" {
		return nil, fmt.Errorf("concept is required")
	}

	request := "Create an interactive visualization of: " + concept
	if in.Description != "" {
		request += "\nDetails: " + in.Description
	}
	html, err := m.llm.GenerateHTML(ctx, visualizationSystemPrompt, request)
	if err != nil {
		return nil, fmt.Errorf("generate visualization: %w", err)
	}

	st.LogInteraction(m.now(), "visualization_created", "concept="+concept)
	return map[string]any{
		"action":  "create_visualization",
		"status":  "success",
		"concept": concept,
		"html":    html,
		"message": fmt.Sprintf("Created an interactive visualization for %q. Save the HTML to a file and open it in a browser.", concept),
	}, nil
}

func (m *Manager) createGame(ctx context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		Topic      string `json:"topic"`
		GameType   string `json:"game_type"`
		GradeLevel string `json:"grade_level"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	request := "Create an educational game about: " + topic
	if in.GameType != "" {
		request += "\nGame type: " + in.GameType
	}
	if in.GradeLevel != "" {
		request += "\nGrade level: " + in.GradeLevel
	}
	html, err := m.llm.GenerateHTML(ctx, gameSystemPrompt, request)
	if err != nil {
		return nil, fmt.Errorf("generate game: %w", err)
	}

	st.LogInteraction(m.now(), "game_created", fmt.Sprintf("topic=%s type=%s", topic, in.GameType))
	return map[string]any{
		"action":    "create_game",
		"status":    "success",
		"topic":     topic,
		"game_type": in.GameType,
		"html":      html,
		"message":   fmt.Sprintf("Created an educational game about %q. Save the HTML to a file and open it in a browser.", topic),
	}, nil
}

func (m *Manager) recordGameActivity(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName     string `json:"student_name"`
		GameType        string `json:"game_type"`
		Topic           string `json:"topic"`
		DurationMinutes int    `json:"duration_minutes"`
		Date            string `json:"date"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	name := titleName(in.StudentName)
	if name == "" {
		return nil, fmt.Errorf("student name is required")
	}
	if in.DurationMinutes <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", in.DurationMinutes)
	}

	now := m.now()
	dateStr := in.Date
	if dateStr == "" {
		dateStr = now.Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, dateStr); err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", in.Date)
	}

	activity := model.GameActivity{
		StudentName:     name,
		GameType:        in.GameType,
		Topic:           in.Topic,
		DurationMinutes: in.DurationMinutes,
		Date:            dateStr,
	}
	if st.GameActivities == nil {
		st.GameActivities = map[string]model.GameActivity{}
	}
	activityID := fmt.Sprintf("game_%s_%s", now.Format("20060102_150405"), strings.ReplaceAll(name, " ", "_"))
	st.GameActivities[activityID] = activity

	return map[string]any{
		"action":      "record_game_activity",
		"status":      "success",
		"activity_id": activityID,
		"activity":    activity,
		"message":     fmt.Sprintf("Recorded %d minute game session for %s", in.DurationMinutes, name),
	}, nil
}
