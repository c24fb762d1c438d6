package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interviewprep/metrics"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultAudioMIMEType = "audio/webm"
	transcribeTimeout    = 30 * time.Second
)

var ErrEmptyAudio = errors.New("no audio data provided")

// Transcriber turns a recorded answer into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	Name() string
}

// WhisperTranscriber calls an OpenAI-compatible /audio/transcriptions endpoint.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

func NewWhisperTranscriber(apiKey, baseURL, model string) *WhisperTranscriber {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (t *WhisperTranscriber) Name() string { return "whisper" }

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	// FilePath only names the multipart part; the bytes come from Reader.
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		Reader:   bytes.NewReader(audio),
		FilePath: "answer" + audioExtension(mimeType),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// instrumentedTranscriber records metrics around another Transcriber.
type instrumentedTranscriber struct {
	next Transcriber
}

// Instrument wraps t so each call is counted and timed.
func Instrument(t Transcriber) Transcriber {
	if t == nil {
		return nil
	}
	return instrumentedTranscriber{next: t}
}

func (t instrumentedTranscriber) Name() string { return t.next.Name() }

func (t instrumentedTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	start := time.Now()
	text, err := t.next.Transcribe(ctx, audio, mimeType)
	metrics.ObserveTranscription(t.next.Name(), err, time.Since(start))
	if err != nil {
		slog.Error("Transcription failed", "provider", t.next.Name(), "size", len(audio), "error", err)
		return "", err
	}
	slog.Info("Audio transcribed", "provider", t.next.Name(), "size", len(audio), "transcript_length", len(text))
	return text, nil
}

func audioExtension(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(base) {
	case "audio/ogg":
		return ".ogg"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	default:
		return ".webm"
	}
}

// DecodeAudio accepts raw base64 or a data URL ("data:audio/webm;base64,...")
// and returns the bytes and the MIME type.
func DecodeAudio(encoded string) ([]byte, string, error) {
	mimeType := DefaultAudioMIMEType
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		header, payload, found := strings.Cut(encoded, ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		if mt := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"); mt != "" {
			mimeType = mt
		}
		encoded = payload
	}
	if encoded == "" {
		return nil, "", ErrEmptyAudio
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode base64 audio: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyAudio
	}
	return data, mimeType, nil
}

// TranscriptionEndpoints exposes the transcribe-audio function.
type TranscriptionEndpoints struct {
	transcriber   Transcriber
	maxAudioBytes int
}

type TranscribeRequest struct {
	Audio    string `json:"audio"`
	MIMEType string `json:"mime_type,omitempty"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

func NewTranscriptionEndpoints(transcriber Transcriber, maxAudioBytes int) *TranscriptionEndpoints {
	return &TranscriptionEndpoints{transcriber: transcriber, maxAudioBytes: maxAudioBytes}
}

func (e *TranscriptionEndpoints) RegisterRoutes(r chi.Router) {
	r.Post("/functions/transcribe-audio", e.TranscribeHandler)
}

func (e *TranscriptionEndpoints) TranscribeHandler(w http.ResponseWriter, r *http.Request) {
	// base64 inflates by 4/3; leave room for the JSON envelope. Zero means no limit.
	if e.maxAudioBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(e.maxAudioBytes)*4/3+4096)
	}

	var req TranscribeRequest
	if err := decodeBody(r, &req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Audio too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	audio, mimeType, err := DecodeAudio(req.Audio)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.MIMEType != "" {
		mimeType = req.MIMEType
	}
	if e.maxAudioBytes > 0 && len(audio) > e.maxAudioBytes {
		http.Error(w, "Audio too large", http.StatusRequestEntityTooLarge)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), transcribeTimeout)
	defer cancel()

	text, err := e.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		http.Error(w, "Transcription failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, TranscribeResponse{Text: text})
}
