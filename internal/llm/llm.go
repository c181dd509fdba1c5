package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// Quiz is a set of generated multiple-choice questions.
type Quiz struct {
	Topic      string         `json:"topic"`
	Difficulty string         `json:"difficulty"`
	Questions  []QuizQuestion `json:"questions"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable and the model responds.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("LLM ping: %w", err)
	}
	return nil
}

// Chat runs one completion turn with the given messages and tool
// definitions. The returned message may contain tool calls.
func (c *Client) Chat(ctx context.Context, msgs []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Tools:       tools,
		Temperature: 0.7,
	})
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("LLM returned no choices")
	}
	return resp.Choices[0].Message, nil
}

// GenerateQuiz asks the model for multiple-choice questions on a topic.
func (c *Client) GenerateQuiz(ctx context.Context, topic, difficulty, language string, numQuestions int) (*Quiz, error) {
	systemPrompt := buildQuizSystemPrompt(difficulty, language, numQuestions)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Topic: " + topic},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("quiz API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices for quiz")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("quiz response", "raw", raw)

	var quiz Quiz
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return nil, fmt.Errorf("parse quiz response: %w (raw: %s)", err, raw)
	}
	if quiz.Topic == "" {
		quiz.Topic = topic
	}
	if quiz.Difficulty == "" {
		quiz.Difficulty = difficulty
	}
	return &quiz, nil
}

// GenerateHTML asks the model for a complete single-file HTML document
// following the given system prompt, stripping any code fences.
func (c *Client) GenerateHTML(ctx context.Context, systemPrompt, request string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: request},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("HTML generation API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices for HTML generation")
	}
	html := StripCodeFence(resp.Choices[0].Message.Content)
	if !strings.Contains(strings.ToLower(html), "<html") {
		return "", fmt.Errorf("LLM response is not an HTML document")
	}
	return html, nil
}

// Answer produces a direct answer to an educational question, adapted
// to the given language and difficulty preferences.
func (c *Client) Answer(ctx context.Context, question, language, difficulty string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildAnswerSystemPrompt(language, difficulty)},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("answer API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices for answer")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildQuizSystemPrompt(difficulty, language string, numQuestions int) string {
	var sb strings.Builder
	sb.WriteString("You create multiple-choice questions for an educational topic.\n\n")
	sb.WriteString(fmt.Sprintf("Generate exactly %d questions at %s difficulty.\n", numQuestions, difficulty))
	if language != "" {
		sb.WriteString("Write all text in " + language + ".\n")
	}
	sb.WriteString("Each question has exactly 4 options, one correct answer, and a brief explanation.\n\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"topic": "<topic>", "difficulty": "<difficulty>", "questions": [{"question": "<text>", "options": ["A", "B", "C", "D"], "answer": "<the correct option text>", "explanation": "<why>"}]}`)
	sb.WriteString("\n")
	return sb.String()
}

func buildAnswerSystemPrompt(language, difficulty string) string {
	var sb strings.Builder
	sb.WriteString("You answer educational and administrative questions from teachers and students. ")
	sb.WriteString("Provide clear, concise, and helpful answers.\n")
	if language != "" {
		sb.WriteString("Answer in " + language + ".\n")
	}
	if difficulty != "" {
		sb.WriteString("Pitch the explanation at a " + difficulty + " level.\n")
	}
	return sb.String()
}

// StripCodeFence removes a surrounding markdown code fence, if present.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// Drop the language tag on the opening fence.
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
