package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/krshsl/interviewprep/models"
	"google.golang.org/genai"
)

const ModelName = "gemini-2.5-flash"

const transcriptionPrompt = "Transcribe the spoken answer in this recording verbatim. " +
	"Return only the transcript text. If nothing is said, return an empty response."

// GeminiService transcribes answers when no Whisper key is configured and
// writes feedback on completed interviews.
type GeminiService struct {
	genaiClient *genai.Client
}

func NewGeminiService(apiKey string) (*GeminiService, error) {
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiService{genaiClient: genaiClient}, nil
}

func (g *GeminiService) Name() string { return "gemini" }

// Transcribe sends the recording inline with a transcription prompt.
func (g *GeminiService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if mimeType == "" {
		mimeType = DefaultAudioMIMEType
	}

	parts := []*genai.Part{
		genai.NewPartFromText(transcriptionPrompt),
		genai.NewPartFromBytes(audio, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.genaiClient.Models.GenerateContent(ctx, ModelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate transcript: %w", err)
	}
	return strings.TrimSpace(result.Text()), nil
}

// Evaluate compares each answer with the question's expected answer and
// returns narrative feedback for the whole interview.
func (g *GeminiService) Evaluate(ctx context.Context, course *models.Course, turns []AnswerTurn) (string, error) {
	if len(turns) == 0 {
		return "", nil
	}

	result, err := g.genaiClient.Models.GenerateContent(ctx, ModelName, genai.Text(buildEvaluationPrompt(course, turns)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate feedback: %w", err)
	}

	feedback := strings.TrimSpace(result.Text())
	slog.Info("Interview feedback generated", "course_id", course.ID, "feedback_length", len(feedback))
	return feedback, nil
}

func buildEvaluationPrompt(course *models.Course, turns []AnswerTurn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are reviewing a practice interview for the course %q", course.Title)
	if course.Category != "" {
		fmt.Fprintf(&b, " (%s)", course.Category)
	}
	b.WriteString(".\nFor each question compare the candidate's spoken answer with the reference answer. ")
	b.WriteString("Answers were transcribed from speech, so ignore filler words and transcription noise.\n")
	b.WriteString("Finish with two or three sentences of overall advice. Keep the whole review under 300 words.\n\n")

	for i, turn := range turns {
		fmt.Fprintf(&b, "Question %d (%s): %s\n", i+1, turn.Difficulty, turn.QuestionText)
		if turn.ExpectedAnswer != "" {
			fmt.Fprintf(&b, "Reference answer: %s\n", turn.ExpectedAnswer)
		}
		fmt.Fprintf(&b, "Candidate answer: %s\n\n", turn.Transcript)
	}
	return b.String()
}
