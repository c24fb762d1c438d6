package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/krshsl/interviewprep/metrics"
	"github.com/krshsl/interviewprep/models"
	"gorm.io/datatypes"
)

// FlowState is the position of a live interview in its turn sequence.
type FlowState string

const (
	StateIdle           FlowState = "idle"
	StatePrompting      FlowState = "prompting"
	StateAwaitingAnswer FlowState = "awaiting_answer"
	StateProcessing     FlowState = "processing"
	StateCompleted      FlowState = "completed"
)

const (
	NoResponseText   = "No response detected"
	NoQuestionsText  = "This course does not have any questions yet."
	previewLength    = 50
	evaluateTimeout  = 45 * time.Second
	persistTimeout   = 10 * time.Second
	endedSessionText = "Thank you for your time. The interview has ended."
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrNoQuestions    = errors.New("course has no questions")
	ErrFlowEnded      = errors.New("interview has ended")
	ErrInvalidState   = errors.New("action not allowed in current state")
	ErrAudioTooLarge  = errors.New("audio too large")
)

// Inbound message types.
const (
	MsgStart          = "start"
	MsgPromptFinished = "prompt_finished"
	MsgAnswer         = "answer"
	MsgEndSession     = "end_session"
)

// Outbound message types.
const (
	MsgReady          = "ready"
	MsgQuestion       = "question"
	MsgAwaitingAnswer = "awaiting_answer"
	MsgProcessing     = "processing"
	MsgAnswerRecorded = "answer_recorded"
	MsgCompleted      = "completed"
	MsgEnded          = "ended"
	MsgError          = "error"
)

// InterviewSaver loads what a flow asks and stores what it produced.
type InterviewSaver interface {
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	ListInterviewQuestions(ctx context.Context, courseID string) ([]models.Question, error)
	CreateInterview(ctx context.Context, interview *models.Interview) error
}

// Evaluator writes feedback for a finished interview.
type Evaluator interface {
	Evaluate(ctx context.Context, course *models.Course, turns []AnswerTurn) (string, error)
}

// FlowDeps are shared by every flow. Recordings and Evaluator may be nil.
type FlowDeps struct {
	Store       InterviewSaver
	Transcriber Transcriber
	Recordings  RecordingStore
	Evaluator   Evaluator
	Config      InterviewConfig
}

// AnswerTurn is one question and the transcript of its answer.
type AnswerTurn struct {
	QuestionID     string
	QuestionText   string
	Difficulty     string
	ExpectedAnswer string
	Transcript     string
	AudioObject    string
}

type InboundMessage struct {
	Type            string `json:"type"`
	AudioDataBase64 string `json:"audio_data_base64,omitempty"`
	MIMEType        string `json:"mime_type,omitempty"`
}

type QuestionPrompt struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
}

// SpeechSettings tell the browser how to voice the prompt.
type SpeechSettings struct {
	Rate  float64 `json:"rate"`
	Pitch float64 `json:"pitch"`
}

type OutboundMessage struct {
	Type       string            `json:"type"`
	State      FlowState         `json:"state"`
	Index      int               `json:"index"`
	Total      int               `json:"total"`
	Content    string            `json:"content,omitempty"`
	Question   *QuestionPrompt   `json:"question,omitempty"`
	Speech     *SpeechSettings   `json:"speech,omitempty"`
	Transcript string            `json:"transcript,omitempty"`
	Interview  *models.Interview `json:"interview,omitempty"`
}

// InterviewFlow runs one student through a course's questions:
// idle -> prompting -> awaiting_answer -> processing -> (prompting | completed).
// Inputs for one flow must arrive sequentially; the delayed next-question send
// is the only other goroutine that touches it.
type InterviewFlow struct {
	mu        sync.Mutex
	deps      FlowDeps
	send      func(OutboundMessage)
	sessionID string
	studentID string
	course    *models.Course
	questions []models.Question
	state     FlowState
	current   int
	turns     []AnswerTurn
	pending   *time.Timer
	ended     bool
}

// NewInterviewFlow loads the course and its questions. It fails with
// ErrCourseNotFound or ErrNoQuestions before anything is sent.
func NewInterviewFlow(ctx context.Context, deps FlowDeps, sessionID, studentID, courseID string, send func(OutboundMessage)) (*InterviewFlow, error) {
	course, err := deps.Store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	questions, err := deps.Store.ListInterviewQuestions(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	return &InterviewFlow{
		deps:      deps,
		send:      send,
		sessionID: sessionID,
		studentID: studentID,
		course:    course,
		questions: questions,
		state:     StateIdle,
	}, nil
}

func (f *InterviewFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Transcripts returns the answers recorded so far, in question order.
func (f *InterviewFlow) Transcripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return transcriptsOf(f.turns)
}

func (f *InterviewFlow) emitLocked(msg OutboundMessage) {
	msg.State = f.state
	msg.Total = len(f.questions)
	if msg.Type != MsgCompleted && msg.Index == 0 {
		msg.Index = f.current
	}
	f.send(msg)
}

// Announce tells the client the course is loaded and the interview can start.
func (f *InterviewFlow) Announce() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitLocked(OutboundMessage{Type: MsgReady, Content: f.course.Title})
}

// Handle dispatches one client message. Failures are reported to the client
// as error messages and leave the state as it was.
func (f *InterviewFlow) Handle(ctx context.Context, msg InboundMessage) {
	var err error
	switch msg.Type {
	case MsgStart:
		err = f.Start()
	case MsgPromptFinished:
		err = f.PromptFinished()
	case MsgAnswer:
		audio, mimeType, decodeErr := DecodeAudio(msg.AudioDataBase64)
		if decodeErr != nil {
			err = decodeErr
			break
		}
		if msg.MIMEType != "" {
			mimeType = msg.MIMEType
		}
		err = f.SubmitAnswer(ctx, audio, mimeType)
	case MsgEndSession:
		f.End()
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}

	if err != nil {
		slog.Warn("Interview message rejected", "session_id", f.sessionID, "type", msg.Type, "error", err)
		f.mu.Lock()
		f.emitLocked(OutboundMessage{Type: MsgError, Content: err.Error()})
		f.mu.Unlock()
	}
}

func (f *InterviewFlow) checkLocked(action string, want FlowState) error {
	if f.ended {
		return ErrFlowEnded
	}
	if f.state != want {
		return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, action, f.state)
	}
	return nil
}

// Start is sent once camera and microphone are live. It voices the first question.
func (f *InterviewFlow) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkLocked("start", StateIdle); err != nil {
		return err
	}
	slog.Info("Interview started", "session_id", f.sessionID, "course_id", f.course.ID, "questions", len(f.questions))
	f.askLocked(0)
	return nil
}

func (f *InterviewFlow) askLocked(index int) {
	q := f.questions[index]
	f.current = index
	f.state = StatePrompting
	f.emitLocked(OutboundMessage{
		Type:  MsgQuestion,
		Index: index,
		Question: &QuestionPrompt{
			ID:         q.ID,
			Text:       q.QuestionText,
			Difficulty: q.Difficulty,
		},
		Speech: &SpeechSettings{
			Rate:  f.deps.Config.SpeechRate,
			Pitch: f.deps.Config.SpeechPitch,
		},
	})
}

// PromptFinished is sent when the browser finished speaking the question.
func (f *InterviewFlow) PromptFinished() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkLocked("finish prompt", StatePrompting); err != nil {
		return err
	}
	f.state = StateAwaitingAnswer
	f.emitLocked(OutboundMessage{Type: MsgAwaitingAnswer})
	return nil
}

// SubmitAnswer transcribes a recorded answer to the current question. On a
// transcription failure the flow goes back to awaiting_answer so the same
// question can be answered again.
func (f *InterviewFlow) SubmitAnswer(ctx context.Context, audio []byte, mimeType string) error {
	f.mu.Lock()
	if err := f.checkLocked("answer", StateAwaitingAnswer); err != nil {
		f.mu.Unlock()
		return err
	}
	if len(audio) == 0 {
		f.mu.Unlock()
		return ErrEmptyAudio
	}
	if limit := f.deps.Config.MaxAudioBytes; limit > 0 && len(audio) > limit {
		f.mu.Unlock()
		return ErrAudioTooLarge
	}
	index := f.current
	question := f.questions[index]
	f.state = StateProcessing
	f.emitLocked(OutboundMessage{Type: MsgProcessing})
	f.mu.Unlock()

	tctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	text, err := f.deps.Transcriber.Transcribe(tctx, audio, mimeType)
	cancel()

	var audioObject string
	if err == nil && f.deps.Recordings != nil {
		key := recordingKey(f.studentID, f.sessionID, index, mimeType)
		if saveErr := f.deps.Recordings.Save(ctx, key, audio, mimeType); saveErr != nil {
			slog.Error("Failed to archive answer audio", "session_id", f.sessionID, "key", key, "error", saveErr)
		} else {
			audioObject = key
		}
	}

	f.mu.Lock()
	if f.ended {
		f.mu.Unlock()
		return ErrFlowEnded
	}
	if err != nil {
		f.state = StateAwaitingAnswer
		f.mu.Unlock()
		return fmt.Errorf("error processing answer: %w", err)
	}
	if text == "" {
		text = NoResponseText
	}

	f.turns = append(f.turns, AnswerTurn{
		QuestionID:     question.ID,
		QuestionText:   question.QuestionText,
		Difficulty:     question.Difficulty,
		ExpectedAnswer: question.ExpectedAnswer,
		Transcript:     text,
		AudioObject:    audioObject,
	})
	f.emitLocked(OutboundMessage{
		Type:       MsgAnswerRecorded,
		Index:      index,
		Transcript: text,
		Content:    preview(text),
	})

	if index < len(f.questions)-1 {
		f.scheduleLocked(index + 1)
		f.mu.Unlock()
		return nil
	}
	turns := append([]AnswerTurn(nil), f.turns...)
	f.mu.Unlock()

	return f.complete(ctx, turns)
}

// scheduleLocked voices the next question after the configured pause.
// The flow stays in processing until then, so early answers are rejected.
func (f *InterviewFlow) scheduleLocked(next int) {
	delay := f.deps.Config.NextQuestionDelay
	if delay <= 0 {
		f.askLocked(next)
		return
	}
	f.pending = time.AfterFunc(delay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.pending = nil
		if f.ended || f.state != StateProcessing {
			return
		}
		f.askLocked(next)
	})
}

// complete evaluates and saves the finished interview. It runs unlocked and
// stays in processing meanwhile, so End is never blocked behind it.
func (f *InterviewFlow) complete(ctx context.Context, turns []AnswerTurn) error {
	var feedback string
	if f.deps.Evaluator != nil {
		ectx, cancel := context.WithTimeout(ctx, evaluateTimeout)
		var err error
		feedback, err = f.deps.Evaluator.Evaluate(ectx, f.course, turns)
		cancel()
		if err != nil {
			slog.Error("Failed to evaluate interview", "session_id", f.sessionID, "error", err)
			feedback = ""
		}
	}

	interview := BuildInterview(f.studentID, f.course.ID, turns, feedback)

	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	saveErr := f.deps.Store.CreateInterview(pctx, interview)
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()

	if saveErr != nil {
		// Drop the last answer so re-answering the final question retries the save.
		f.turns = f.turns[:len(f.turns)-1]
		if f.ended {
			return ErrFlowEnded
		}
		f.state = StateAwaitingAnswer
		return fmt.Errorf("failed to save interview: %w", saveErr)
	}

	f.state = StateCompleted
	metrics.InterviewsCompletedTotal.Inc()
	slog.Info("Interview completed", "session_id", f.sessionID, "interview_id", interview.ID,
		"student_id", f.studentID, "course_id", f.course.ID, "questions_answered", interview.QuestionsAnswered)

	f.emitLocked(OutboundMessage{
		Type:      MsgCompleted,
		Index:     len(f.questions) - 1,
		Content:   "Interview completed!",
		Interview: interview,
	})
	return nil
}

// End abandons the flow. Nothing is persisted for an unfinished interview.
// It is safe to call more than once.
func (f *InterviewFlow) End() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ended {
		return
	}
	f.ended = true
	if f.pending != nil {
		f.pending.Stop()
		f.pending = nil
	}
	if f.state != StateCompleted {
		slog.Info("Interview abandoned", "session_id", f.sessionID, "state", f.state, "answers", len(f.turns))
		f.emitLocked(OutboundMessage{Type: MsgEnded, Content: endedSessionText})
	}
}

// BuildInterview assembles the interview row and its ordered answers.
func BuildInterview(studentID, courseID string, turns []AnswerTurn, feedback string) *models.Interview {
	answers := make([]models.InterviewAnswer, 0, len(turns))
	for i, turn := range turns {
		answer := models.InterviewAnswer{
			Position:    i,
			Transcript:  turn.Transcript,
			AudioObject: turn.AudioObject,
		}
		if turn.QuestionID != "" {
			id := turn.QuestionID
			answer.QuestionID = &id
		}
		answers = append(answers, answer)
	}

	return &models.Interview{
		StudentID:         studentID,
		CourseID:          courseID,
		Date:              time.Now().UTC(),
		QuestionsAnswered: len(turns),
		ResultSummary: datatypes.NewJSONType(models.ResultSummary{
			Answers:  transcriptsOf(turns),
			Feedback: feedback,
		}),
		Answers: answers,
	}
}

func transcriptsOf(turns []AnswerTurn) []string {
	out := make([]string, len(turns))
	for i, turn := range turns {
		out[i] = turn.Transcript
	}
	return out
}

// preview is the toast text for a recorded answer: at most 50 runes, always followed by "...".
func preview(text string) string {
	runes := []rune(text)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return string(runes) + "..."
}
