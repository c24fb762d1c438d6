package services

import (
	"strings"
	"testing"

	"github.com/krshsl/interviewprep/models"
)

func TestBuildEvaluationPrompt(t *testing.T) {
	course := &models.Course{Title: "Go Basics", Category: "Backend"}
	turns := []AnswerTurn{
		{QuestionText: "What is a slice?", Difficulty: "easy", ExpectedAnswer: "A view over an array.", Transcript: "a window on an array"},
		{QuestionText: "Explain select.", Difficulty: "hard", Transcript: NoResponseText},
	}

	prompt := buildEvaluationPrompt(course, turns)

	for _, want := range []string{
		`"Go Basics" (Backend)`,
		"Question 1 (easy): What is a slice?",
		"Reference answer: A view over an array.",
		"Candidate answer: a window on an array",
		"Question 2 (hard): Explain select.",
		"Candidate answer: " + NoResponseText,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Count(prompt, "Reference answer:") != 1 {
		t.Error("questions without an expected answer should not get a reference line")
	}
}

func TestRecordingKey(t *testing.T) {
	tests := []struct {
		position int
		mimeType string
		expected string
	}{
		{0, "audio/webm", "stu/sess/01.webm"},
		{9, "audio/ogg", "stu/sess/10.ogg"},
		{2, "", "stu/sess/03.webm"},
	}

	for _, tt := range tests {
		if got := recordingKey("stu", "sess", tt.position, tt.mimeType); got != tt.expected {
			t.Errorf("recordingKey(%d, %q) = %q, expected %q", tt.position, tt.mimeType, got, tt.expected)
		}
	}
}
