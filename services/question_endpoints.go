package services

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interviewprep/models"
)

type CreateQuestionRequest struct {
	QuestionText   string `json:"question_text"`
	Difficulty     string `json:"difficulty"`
	ExpectedAnswer string `json:"expected_answer"`
}

type GetQuestionsResponse struct {
	Questions []models.Question `json:"questions"`
	Count     int               `json:"count"`
}

// GetQuestionsHandler lists a course's questions newest first. Expected answers are admin-only.
func (e *CourseEndpoints) GetQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	courseID := chi.URLParam(r, "id")

	questions, err := e.repo.ListQuestions(r.Context(), courseID)
	if err != nil {
		http.Error(w, "Failed to get questions", http.StatusInternalServerError)
		return
	}

	if !user.IsAdmin() {
		for i := range questions {
			questions[i].ExpectedAnswer = ""
		}
	}

	writeJSON(w, http.StatusOK, GetQuestionsResponse{Questions: questions, Count: len(questions)})
}

func (e *CourseEndpoints) CreateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	var req CreateQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.QuestionText = strings.TrimSpace(req.QuestionText)
	if req.QuestionText == "" {
		http.Error(w, "Question text is required", http.StatusBadRequest)
		return
	}
	req.Difficulty = strings.ToLower(strings.TrimSpace(req.Difficulty))
	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyMedium
	}
	if !models.ValidDifficulty(req.Difficulty) {
		http.Error(w, "Difficulty must be easy, medium or hard", http.StatusBadRequest)
		return
	}

	course, err := e.repo.GetCourse(r.Context(), courseID)
	if err != nil {
		http.Error(w, "Error creating question", http.StatusInternalServerError)
		return
	}
	if course == nil {
		http.Error(w, "Please select a course", http.StatusNotFound)
		return
	}

	question := models.Question{
		CourseID:       courseID,
		QuestionText:   req.QuestionText,
		Difficulty:     req.Difficulty,
		ExpectedAnswer: strings.TrimSpace(req.ExpectedAnswer),
	}
	if err := e.repo.CreateQuestion(r.Context(), &question); err != nil {
		http.Error(w, "Error creating question", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"question": question,
		"message":  "Question created successfully",
	})
}

func (e *CourseEndpoints) DeleteQuestionHandler(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "id")

	question, err := e.repo.GetQuestion(r.Context(), questionID)
	if err != nil {
		http.Error(w, "Error deleting question", http.StatusInternalServerError)
		return
	}
	if question == nil {
		http.Error(w, "Question not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteQuestion(r.Context(), questionID); err != nil {
		http.Error(w, "Error deleting question", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Question deleted successfully",
	})
}
