package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/krshsl/interviewprep/models"
	"github.com/krshsl/interviewprep/repository"
)

// memoryRepo is an in-memory stand-in for GORMRepository.
type memoryRepo struct {
	mu              sync.Mutex
	seq             int
	clock           time.Time
	profiles        map[string]*models.Profile
	refreshTokens   map[string]*models.RefreshToken
	permanentTokens map[string]*models.PermanentToken
	courses         map[string]*models.Course
	questions       map[string]*models.Question
	interviews      map[string]*models.Interview
	queries         map[string]*models.SupportQuery
	createErr       error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		clock:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		profiles:        map[string]*models.Profile{},
		refreshTokens:   map[string]*models.RefreshToken{},
		permanentTokens: map[string]*models.PermanentToken{},
		courses:         map[string]*models.Course{},
		questions:       map[string]*models.Question{},
		interviews:      map[string]*models.Interview{},
		queries:         map[string]*models.SupportQuery{},
	}
}

func (m *memoryRepo) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (m *memoryRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memoryRepo) CreateProfile(ctx context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == profile.Email {
			return repository.ErrDuplicate
		}
	}
	profile.ID = m.nextID("user")
	profile.CreatedAt = m.tick()
	stored := *profile
	m.profiles[profile.ID] = &stored
	return nil
}

func (m *memoryRepo) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email {
			found := *p
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryRepo) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		found := *p
		return &found, nil
	}
	return nil, nil
}

func (m *memoryRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *memoryRepo) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.refreshTokens[token]; ok && t.ExpiresAt.After(time.Now()) {
		return t, nil
	}
	return nil, nil
}

func (m *memoryRepo) CreatePermanentToken(ctx context.Context, token *models.PermanentToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permanentTokens[token.Token] = token
	return nil
}

func (m *memoryRepo) GetPermanentToken(ctx context.Context, token string) (*models.PermanentToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permanentTokens[token], nil
}

func (m *memoryRepo) DeleteAllUserTokens(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, t := range m.refreshTokens {
		if t.UserID == userID {
			delete(m.refreshTokens, k)
		}
	}
	for k, t := range m.permanentTokens {
		if t.UserID == userID {
			delete(m.permanentTokens, k)
		}
	}
	return nil
}

func (m *memoryRepo) CreateCourse(ctx context.Context, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	course.ID = m.nextID("course")
	course.CreatedAt = m.tick()
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *memoryRepo) ListCourses(ctx context.Context) ([]models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	courses := make([]models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses, nil
}

func (m *memoryRepo) ListCourseTitles(ctx context.Context) ([]models.CourseTitle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	titles := make([]models.CourseTitle, 0, len(m.courses))
	for _, c := range m.courses {
		titles = append(titles, models.CourseTitle{ID: c.ID, Title: c.Title})
	}
	sort.Slice(titles, func(i, j int) bool { return titles[i].Title < titles[j].Title })
	return titles, nil
}

func (m *memoryRepo) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.courses[courseID]; ok {
		found := *c
		return &found, nil
	}
	return nil, nil
}

func (m *memoryRepo) UpdateCourse(ctx context.Context, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *memoryRepo) DeleteCourse(ctx context.Context, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, q := range m.questions {
		if q.CourseID == courseID {
			delete(m.questions, id)
		}
	}
	delete(m.courses, courseID)
	return nil
}

func (m *memoryRepo) CountCourses(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.courses)), nil
}

func (m *memoryRepo) CreateQuestion(ctx context.Context, question *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	question.ID = m.nextID("question")
	question.CreatedAt = m.tick()
	stored := *question
	m.questions[question.ID] = &stored
	return nil
}

func (m *memoryRepo) questionsFor(courseID string, newestFirst bool) []models.Question {
	var questions []models.Question
	for _, q := range m.questions {
		if q.CourseID == courseID {
			questions = append(questions, *q)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		if newestFirst {
			return questions[i].CreatedAt.After(questions[j].CreatedAt)
		}
		return questions[i].CreatedAt.Before(questions[j].CreatedAt)
	})
	return questions
}

func (m *memoryRepo) ListQuestions(ctx context.Context, courseID string) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questionsFor(courseID, true), nil
}

func (m *memoryRepo) ListInterviewQuestions(ctx context.Context, courseID string) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questionsFor(courseID, false), nil
}

func (m *memoryRepo) GetQuestion(ctx context.Context, questionID string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.questions[questionID]; ok {
		found := *q
		return &found, nil
	}
	return nil, nil
}

func (m *memoryRepo) DeleteQuestion(ctx context.Context, questionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.questions, questionID)
	return nil
}

func (m *memoryRepo) CountQuestions(ctx context.Context, courseID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, q := range m.questions {
		if courseID == "" || q.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepo) CreateInterview(ctx context.Context, interview *models.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.createErr != nil {
		return m.createErr
	}
	interview.ID = m.nextID("interview")
	interview.CreatedAt = m.tick()
	interview.Date = interview.CreatedAt
	stored := *interview
	m.interviews[interview.ID] = &stored
	return nil
}

func (m *memoryRepo) ListInterviews(ctx context.Context, studentID string) ([]models.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var interviews []models.Interview
	for _, i := range m.interviews {
		if i.StudentID == studentID {
			interviews = append(interviews, *i)
		}
	}
	sort.Slice(interviews, func(a, b int) bool { return interviews[a].Date.After(interviews[b].Date) })
	return interviews, nil
}

func (m *memoryRepo) GetInterview(ctx context.Context, interviewID string) (*models.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.interviews[interviewID]; ok {
		found := *i
		return &found, nil
	}
	return nil, nil
}

func (m *memoryRepo) CountInterviews(ctx context.Context, studentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, i := range m.interviews {
		if i.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepo) CreateSupportQuery(ctx context.Context, query *models.SupportQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	query.ID = m.nextID("query")
	query.CreatedAt = m.tick()
	stored := *query
	m.queries[query.ID] = &stored
	return nil
}

func (m *memoryRepo) ListSupportQueries(ctx context.Context) ([]models.SupportQuery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queries := make([]models.SupportQuery, 0, len(m.queries))
	for _, q := range m.queries {
		queries = append(queries, *q)
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].CreatedAt.After(queries[j].CreatedAt) })
	return queries, nil
}

func (m *memoryRepo) ResolveSupportQuery(ctx context.Context, queryID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queries[queryID]
	if !ok {
		return false, nil
	}
	q.Status = models.SupportStatusResolved
	return true, nil
}

func (m *memoryRepo) CountSupportQueries(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.queries)), nil
}

// seedCourse adds a course with one question per text, oldest first.
func (m *memoryRepo) seedCourse(title string, questionTexts ...string) *models.Course {
	course := &models.Course{Title: title, Category: "Testing"}
	m.CreateCourse(context.Background(), course)
	for i, text := range questionTexts {
		m.CreateQuestion(context.Background(), &models.Question{
			CourseID:       course.ID,
			QuestionText:   text,
			Difficulty:     models.DifficultyMedium,
			ExpectedAnswer: fmt.Sprintf("expected %d", i+1),
		})
	}
	return course
}

// fakeTranscriber returns queued results in order, then echoes the audio.
type fakeTranscriber struct {
	mu      sync.Mutex
	results []fakeResult
	calls   int
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeTranscriber) Name() string { return "fake" }

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.results) == 0 {
		return string(audio), nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.text, r.err
}

type fakeRecordings struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeRecordings) Save(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

type fakeEvaluator struct {
	feedback string
	err      error
	turns    []AnswerTurn
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, course *models.Course, turns []AnswerTurn) (string, error) {
	f.turns = append([]AnswerTurn(nil), turns...)
	return f.feedback, f.err
}

// blockingEvaluator holds the evaluation open until its context ends.
type blockingEvaluator struct {
	started chan struct{}
}

func (b *blockingEvaluator) Evaluate(ctx context.Context, course *models.Course, turns []AnswerTurn) (string, error) {
	close(b.started)
	<-ctx.Done()
	return "", ctx.Err()
}

var errProvider = errors.New("provider unavailable")
