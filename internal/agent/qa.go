package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/sahayak-edu/sahayak/internal/model"
)

func (m *Manager) registerQATools() {
	m.register("answer_question",
		"Answer an educational or administrative question directly, adapted to the user's language and difficulty preferences.",
		objSchema(map[string]jsonschema.Definition{
			"question": strProp("The question to answer"),
		}, "question"),
		m.answerQuestion)
}

func (m *Manager) answerQuestion(ctx context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	answer, err := m.llm.Answer(ctx, question, st.Preferences.Language, string(st.Preferences.DifficultyLevel))
	if err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}

	st.LogInteraction(m.now(), "question_answered", question)
	return map[string]any{
		"action":   "answer_question",
		"status":   "success",
		"question": question,
		"answer":   answer,
	}, nil
}
