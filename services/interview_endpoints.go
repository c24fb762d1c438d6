package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interviewprep/models"
)

// InterviewStore is the persistence behind interview history.
type InterviewStore interface {
	InterviewSaver
	ListInterviews(ctx context.Context, studentID string) ([]models.Interview, error)
	GetInterview(ctx context.Context, interviewID string) (*models.Interview, error)
	CountInterviews(ctx context.Context, studentID string) (int64, error)
}

type InterviewEndpoints struct {
	repo InterviewStore
	live *LiveInterviewHandler
}

type CreateInterviewRequest struct {
	CourseID string   `json:"course_id"`
	Answers  []string `json:"answers"`
}

type GetInterviewsResponse struct {
	Interviews []models.Interview `json:"interviews"`
	Count      int                `json:"count"`
}

// NewInterviewEndpoints serves history; live may be nil when the live flow is disabled.
func NewInterviewEndpoints(repo InterviewStore, live *LiveInterviewHandler) *InterviewEndpoints {
	return &InterviewEndpoints{repo: repo, live: live}
}

// RegisterRoutes expects to be mounted behind the auth middleware.
func (e *InterviewEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/interviews", func(r chi.Router) {
		r.With(RequireRole(models.RoleStudent)).Get("/", e.GetInterviewsHandler)
		r.With(RequireRole(models.RoleStudent)).Post("/", e.CreateInterviewHandler)
		if e.live != nil {
			e.live.RegisterRoutes(r)
		}
		r.Get("/{id}", e.GetInterviewHandler)
	})
}

// GetInterviewsHandler lists the caller's interviews newest first.
func (e *InterviewEndpoints) GetInterviewsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	interviews, err := e.repo.ListInterviews(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to get interviews", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, GetInterviewsResponse{Interviews: interviews, Count: len(interviews)})
}

// GetInterviewHandler returns one interview to its student or to an admin.
func (e *InterviewEndpoints) GetInterviewHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	interview, err := e.repo.GetInterview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get interview", http.StatusInternalServerError)
		return
	}
	// Someone else's interview looks the same as a missing one.
	if interview == nil || (interview.StudentID != user.ID && !user.IsAdmin()) {
		http.Error(w, "Interview not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"interview": interview})
}

// CreateInterviewHandler records an interview completed outside a live session.
// Answers are matched to the course's questions in asking order.
func (e *InterviewEndpoints) CreateInterviewHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateInterviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CourseID = strings.TrimSpace(req.CourseID)
	if req.CourseID == "" {
		http.Error(w, "course_id is required", http.StatusBadRequest)
		return
	}

	course, err := e.repo.GetCourse(r.Context(), req.CourseID)
	if err != nil {
		http.Error(w, "Error saving interview", http.StatusInternalServerError)
		return
	}
	if course == nil {
		http.Error(w, "Course not found", http.StatusNotFound)
		return
	}

	questions, err := e.repo.ListInterviewQuestions(r.Context(), req.CourseID)
	if err != nil {
		http.Error(w, "Error saving interview", http.StatusInternalServerError)
		return
	}

	turns := make([]AnswerTurn, len(req.Answers))
	for i, answer := range req.Answers {
		if strings.TrimSpace(answer) == "" {
			answer = NoResponseText
		}
		turns[i].Transcript = answer
		if i < len(questions) {
			turns[i].QuestionID = questions[i].ID
		}
	}

	interview := BuildInterview(user.ID, course.ID, turns, "")
	if err := e.repo.CreateInterview(r.Context(), interview); err != nil {
		http.Error(w, "Error saving interview", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"interview": interview,
		"message":   "Interview saved successfully",
	})
}
