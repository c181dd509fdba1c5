// Package agent implements the manager dispatcher and its sub-agent
// tool sets. Every tool mutates the session state document in memory;
// persistence is the caller's job.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sahayak-edu/sahayak/internal/llm"
	"github.com/sahayak-edu/sahayak/internal/model"
)

const dateLayout = "2006-01-02"

// maxToolRounds bounds the tool-call loop per processed query.
const maxToolRounds = 8

// chatClient is the LLM surface the manager needs.
type chatClient interface {
	Chat(ctx context.Context, msgs []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error)
	GenerateQuiz(ctx context.Context, topic, difficulty, lang string, numQuestions int) (*llm.Quiz, error)
	GenerateHTML(ctx context.Context, systemPrompt, request string) (string, error)
	Answer(ctx context.Context, question, lang, difficulty string) (string, error)
}

type toolFunc func(ctx context.Context, st *model.State, args json.RawMessage) (map[string]any, error)

type tool struct {
	def openai.Tool
	run toolFunc
}

// Manager routes user queries to the sub-agent tools via LLM tool
// calling and applies the resulting state mutations.
type Manager struct {
	llm   chatClient
	now   func() time.Time
	tools map[string]tool
	defs  []openai.Tool
}

// New creates a manager with all sub-agent tool sets registered.
func New(client *llm.Client) *Manager {
	return newManager(client)
}

func newManager(client chatClient) *Manager {
	m := &Manager{
		llm:   client,
		now:   time.Now,
		tools: map[string]tool{},
	}
	m.registerManagerTools()
	m.registerAttendanceTools()
	m.registerEvaluationTools()
	m.registerProgressTools()
	m.registerLearningTools()
	m.registerResourceTools()
	m.registerContentTools()
	m.registerQATools()
	return m
}

func (m *Manager) register(name, description string, params jsonschema.Definition, run toolFunc) {
	def := openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
	m.tools[name] = tool{def: def, run: run}
	m.defs = append(m.defs, def)
}

// Process runs one chat turn: the query is logged to the interaction
// history, tool calls are executed against the state until the model
// produces a plain text reply, and that reply is returned.
func (m *Manager) Process(ctx context.Context, st *model.State, text string) (string, error) {
	st.LogInteraction(m.now(), "user_query", text)

	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: m.systemPrompt(st)},
		{Role: openai.ChatMessageRoleUser, Content: text},
	}

	for round := 0; round < maxToolRounds; round++ {
		msg, err := m.llm.Chat(ctx, msgs, m.defs)
		if err != nil {
			return "", fmt.Errorf("manager chat: %w", err)
		}
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}
		msgs = append(msgs, msg)
		for _, tc := range msg.ToolCalls {
			result := m.dispatch(ctx, st, tc)
			payload, err := json.Marshal(result)
			if err != nil {
				payload = []byte(`{"status":"error","message":"tool result not serializable"}`)
			}
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    string(payload),
				ToolCallID: tc.ID,
			})
		}
	}
	return "", fmt.Errorf("tool call loop did not settle after %d rounds", maxToolRounds)
}

// dispatch executes a single tool call. Tool failures never abort the
// loop; they become error payloads the model can react to.
func (m *Manager) dispatch(ctx context.Context, st *model.State, tc openai.ToolCall) map[string]any {
	name := tc.Function.Name
	t, ok := m.tools[name]
	if !ok {
		slog.Warn("unknown tool requested", "tool", name)
		return errResult(fmt.Sprintf("unknown tool %q", name))
	}
	slog.Debug("running tool", "tool", name)
	result, err := t.run(ctx, st, json.RawMessage(tc.Function.Arguments))
	if err != nil {
		slog.Warn("tool failed", "tool", name, "error", err)
		return errResult(err.Error())
	}
	return result
}

func (m *Manager) systemPrompt(st *model.State) string {
	var sb strings.Builder
	sb.WriteString("You are Sahayak, an educational assistant for teachers and students. ")
	sb.WriteString("You manage attendance, student evaluations, personalized learning paths, ")
	sb.WriteString("progress analytics, resource recommendations, quizzes, educational games, ")
	sb.WriteString("visualizations, and general Q&A through the available tools.\n\n")
	sb.WriteString("Use tools for anything touching stored data. Call update_user_info as soon ")
	sb.WriteString("as a user introduces themselves. Answer in the user's preferred language.\n\n")

	sb.WriteString("Current session:\n")
	fmt.Fprintf(&sb, "- user_name: %q\n", st.UserName)
	fmt.Fprintf(&sb, "- user_role: %q\n", st.UserRole)
	fmt.Fprintf(&sb, "- language: %s, difficulty: %s\n", st.Preferences.Language, st.Preferences.DifficultyLevel)
	fmt.Fprintf(&sb, "- students on roster: %d, attendance records: %d\n", len(st.StudentsDatabase), len(st.AttendanceRecords))
	fmt.Fprintf(&sb, "- today: %s\n", m.now().Format(dateLayout))
	return sb.String()
}

func errResult(msg string) map[string]any {
	return map[string]any{"status": "error", "message": msg}
}

// Schema shorthands for tool parameter definitions.

func objSchema(props map[string]jsonschema.Definition, required ...string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Object, Properties: props, Required: required}
}

func strProp(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: desc}
}

func intProp(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Integer, Description: desc}
}

func strListProp(desc string) jsonschema.Definition {
	return jsonschema.Definition{
		Type:        jsonschema.Array,
		Description: desc,
		Items:       &jsonschema.Definition{Type: jsonschema.String},
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// titleName trims and title-cases a student name.
func titleName(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
