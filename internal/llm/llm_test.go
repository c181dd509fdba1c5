package llm

import (
	"strings"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", "<html></html>", "<html></html>"},
		{"plain fence", "```\n<html></html>\n```", "<html></html>"},
		{"html fence", "```html\n<html></html>\n```", "<html></html>"},
		{"leading whitespace", "  ```html\n<html></html>\n```  ", "<html></html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripCodeFence(tt.input)
			if got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildQuizSystemPrompt(t *testing.T) {
	prompt := buildQuizSystemPrompt("hard", "hindi", 5)
	for _, want := range []string{"5 questions", "hard", "hindi", `"questions"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("quiz prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildAnswerSystemPrompt(t *testing.T) {
	prompt := buildAnswerSystemPrompt("english", "easy")
	if !strings.Contains(prompt, "english") {
		t.Errorf("answer prompt missing language:\n%s", prompt)
	}
	if !strings.Contains(prompt, "easy") {
		t.Errorf("answer prompt missing difficulty:\n%s", prompt)
	}

	bare := buildAnswerSystemPrompt("", "")
	if strings.Contains(bare, "Answer in") || strings.Contains(bare, "Pitch") {
		t.Errorf("bare prompt should omit language and difficulty lines:\n%s", bare)
	}
}
