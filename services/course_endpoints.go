package services

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interviewprep/models"
)

// CourseStore is the persistence behind the course and question endpoints.
type CourseStore interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	ListCourseTitles(ctx context.Context) ([]models.CourseTitle, error)
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	UpdateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, courseID string) error
	CountQuestions(ctx context.Context, courseID string) (int64, error)
	ListQuestions(ctx context.Context, courseID string) ([]models.Question, error)
	GetQuestion(ctx context.Context, questionID string) (*models.Question, error)
	CreateQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, questionID string) error
}

type CourseEndpoints struct {
	repo CourseStore
}

type CourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type GetCoursesResponse struct {
	Courses []models.Course `json:"courses"`
	Count   int             `json:"count"`
}

type CourseDetailsResponse struct {
	Course        *models.Course `json:"course"`
	QuestionCount int64          `json:"question_count"`
}

func NewCourseEndpoints(repo CourseStore) *CourseEndpoints {
	return &CourseEndpoints{repo: repo}
}

// RegisterRoutes expects to be mounted behind the auth middleware.
func (e *CourseEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", e.GetCoursesHandler)
		r.Get("/{id}", e.GetCourseHandler)
		r.Get("/{id}/questions", e.GetQuestionsHandler)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(models.RoleAdmin))
			r.Post("/", e.CreateCourseHandler)
			r.Put("/{id}", e.UpdateCourseHandler)
			r.Delete("/{id}", e.DeleteCourseHandler)
			r.Post("/{id}/questions", e.CreateQuestionHandler)
		})
	})

	r.With(RequireRole(models.RoleAdmin)).Delete("/questions/{id}", e.DeleteQuestionHandler)
}

func (r CourseRequest) normalized() CourseRequest {
	return CourseRequest{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Category:    strings.TrimSpace(r.Category),
	}
}

// GetCoursesHandler lists courses newest first; ?fields=titles returns id and title ordered by title.
func (e *CourseEndpoints) GetCoursesHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("fields") == "titles" {
		titles, err := e.repo.ListCourseTitles(r.Context())
		if err != nil {
			http.Error(w, "Failed to get courses", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"courses": titles, "count": len(titles)})
		return
	}

	courses, err := e.repo.ListCourses(r.Context())
	if err != nil {
		http.Error(w, "Failed to get courses", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, GetCoursesResponse{Courses: courses, Count: len(courses)})
}

func (e *CourseEndpoints) GetCourseHandler(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	course, err := e.repo.GetCourse(r.Context(), courseID)
	if err != nil {
		http.Error(w, "Failed to get course", http.StatusInternalServerError)
		return
	}
	if course == nil {
		http.Error(w, "Course not found", http.StatusNotFound)
		return
	}

	count, err := e.repo.CountQuestions(r.Context(), courseID)
	if err != nil {
		slog.Error("Failed to count questions", "error", err, "course_id", courseID)
		http.Error(w, "Failed to get course", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, CourseDetailsResponse{Course: course, QuestionCount: count})
}

func (e *CourseEndpoints) CreateCourseHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req = req.normalized()
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	course := models.Course{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   &user.ID,
	}
	if err := e.repo.CreateCourse(r.Context(), &course); err != nil {
		http.Error(w, "Error creating course", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"course":  course,
		"message": "Course created successfully",
	})
}

func (e *CourseEndpoints) UpdateCourseHandler(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	var req CourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req = req.normalized()
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	course, err := e.repo.GetCourse(r.Context(), courseID)
	if err != nil {
		http.Error(w, "Error updating course", http.StatusInternalServerError)
		return
	}
	if course == nil {
		http.Error(w, "Course not found", http.StatusNotFound)
		return
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Category = req.Category
	if err := e.repo.UpdateCourse(r.Context(), course); err != nil {
		http.Error(w, "Error updating course", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"course":  course,
		"message": "Course updated successfully",
	})
}

func (e *CourseEndpoints) DeleteCourseHandler(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	course, err := e.repo.GetCourse(r.Context(), courseID)
	if err != nil {
		http.Error(w, "Error deleting course", http.StatusInternalServerError)
		return
	}
	if course == nil {
		http.Error(w, "Course not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteCourse(r.Context(), courseID); err != nil {
		http.Error(w, "Error deleting course", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Course deleted successfully",
	})
}
