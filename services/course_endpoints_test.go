package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interviewprep/models"
)

var (
	testAdmin   = &models.Profile{ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}
	testStudent = &models.Profile{ID: "student-1", Email: "student@example.com", Role: models.RoleStudent}
)

// serve routes one request through a router that authenticates as user (nil for anonymous).
func serve(t *testing.T, register func(chi.Router), user *models.Profile, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user != nil {
				req = req.WithContext(WithUser(req.Context(), user))
			}
			next.ServeHTTP(w, req)
		})
	})
	register(r)

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestCourseEndpointsPermissions(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.Profile
		method   string
		path     string
		body     any
		expected int
	}{
		{"student lists courses", testStudent, http.MethodGet, "/courses", nil, http.StatusOK},
		{"student cannot create", testStudent, http.MethodPost, "/courses", CourseRequest{Title: "New"}, http.StatusForbidden},
		{"student cannot update", testStudent, http.MethodPut, "/courses/course-1", CourseRequest{Title: "New"}, http.StatusForbidden},
		{"student cannot delete", testStudent, http.MethodDelete, "/courses/course-1", nil, http.StatusForbidden},
		{"student cannot add question", testStudent, http.MethodPost, "/courses/course-1/questions", CreateQuestionRequest{QuestionText: "Q"}, http.StatusForbidden},
		{"student cannot delete question", testStudent, http.MethodDelete, "/questions/question-2", nil, http.StatusForbidden},
		{"anonymous cannot create", nil, http.MethodPost, "/courses", CourseRequest{Title: "New"}, http.StatusUnauthorized},
		{"admin creates", testAdmin, http.MethodPost, "/courses", CourseRequest{Title: "New"}, http.StatusCreated},
		{"admin needs a title", testAdmin, http.MethodPost, "/courses", CourseRequest{Title: "  "}, http.StatusBadRequest},
		{"admin updates missing course", testAdmin, http.MethodPut, "/courses/course-404", CourseRequest{Title: "X"}, http.StatusNotFound},
		{"admin deletes missing course", testAdmin, http.MethodDelete, "/courses/course-404", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			repo.seedCourse("Existing", "Q1")
			e := NewCourseEndpoints(repo)

			rr := serve(t, e.RegisterRoutes, tt.user, tt.method, tt.path, tt.body)
			if rr.Code != tt.expected {
				t.Errorf("%s %s = %d, expected %d (%s)", tt.method, tt.path, rr.Code, tt.expected, rr.Body.String())
			}
		})
	}
}

func TestCourseLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	e := NewCourseEndpoints(repo)

	rr := serve(t, e.RegisterRoutes, testAdmin, http.MethodPost, "/courses", CourseRequest{
		Title:       " System Design ",
		Description: "Scaling questions",
		Category:    "Architecture",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Course  models.Course `json:"course"`
		Message string        `json:"message"`
	}
	decodeResponse(t, rr, &created)
	if created.Course.Title != "System Design" || created.Course.CreatedBy == nil || *created.Course.CreatedBy != testAdmin.ID {
		t.Errorf("created course = %+v", created.Course)
	}
	if created.Message != "Course created successfully" {
		t.Errorf("message = %q", created.Message)
	}
	courseID := created.Course.ID

	rr = serve(t, e.RegisterRoutes, testAdmin, http.MethodPost, "/courses/"+courseID+"/questions", CreateQuestionRequest{
		QuestionText: "Design a URL shortener",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create question = %d: %s", rr.Code, rr.Body.String())
	}

	rr = serve(t, e.RegisterRoutes, testStudent, http.MethodGet, "/courses/"+courseID, nil)
	var details CourseDetailsResponse
	decodeResponse(t, rr, &details)
	if details.QuestionCount != 1 || details.Course.Title != "System Design" {
		t.Errorf("course details = %+v", details)
	}

	rr = serve(t, e.RegisterRoutes, testAdmin, http.MethodPut, "/courses/"+courseID, CourseRequest{Title: "Systems"})
	if rr.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", rr.Code, rr.Body.String())
	}
	if c, _ := repo.GetCourse(context.Background(), courseID); c.Title != "Systems" {
		t.Errorf("title after update = %q", c.Title)
	}

	rr = serve(t, e.RegisterRoutes, testAdmin, http.MethodDelete, "/courses/"+courseID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete = %d: %s", rr.Code, rr.Body.String())
	}
	if n, _ := repo.CountQuestions(context.Background(), ""); n != 0 {
		t.Errorf("questions after course delete = %d, expected 0", n)
	}
	rr = serve(t, e.RegisterRoutes, testStudent, http.MethodGet, "/courses/"+courseID, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get deleted course = %d, expected 404", rr.Code)
	}
}

func TestGetCoursesOrdering(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedCourse("Beta")
	repo.seedCourse("Alpha")
	e := NewCourseEndpoints(repo)

	rr := serve(t, e.RegisterRoutes, testStudent, http.MethodGet, "/courses", nil)
	var list GetCoursesResponse
	decodeResponse(t, rr, &list)
	if list.Count != 2 || list.Courses[0].Title != "Alpha" {
		t.Errorf("courses = %+v, expected newest (Alpha) first", list.Courses)
	}

	rr = serve(t, e.RegisterRoutes, testAdmin, http.MethodGet, "/courses?fields=titles", nil)
	var titles struct {
		Courses []models.CourseTitle `json:"courses"`
	}
	decodeResponse(t, rr, &titles)
	if len(titles.Courses) != 2 || titles.Courses[0].Title != "Alpha" || titles.Courses[1].Title != "Beta" {
		t.Errorf("titles = %+v, expected alphabetical", titles.Courses)
	}
}

func TestQuestionEndpoints(t *testing.T) {
	repo := newMemoryRepo()
	course := repo.seedCourse("Go", "First", "Second")
	e := NewCourseEndpoints(repo)

	t.Run("students do not see expected answers", func(t *testing.T) {
		rr := serve(t, e.RegisterRoutes, testStudent, http.MethodGet, "/courses/"+course.ID+"/questions", nil)
		var resp GetQuestionsResponse
		decodeResponse(t, rr, &resp)
		if resp.Count != 2 || resp.Questions[0].QuestionText != "Second" {
			t.Fatalf("questions = %+v, expected newest first", resp.Questions)
		}
		for _, q := range resp.Questions {
			if q.ExpectedAnswer != "" {
				t.Errorf("student saw expected answer %q", q.ExpectedAnswer)
			}
		}
	})

	t.Run("admins see expected answers", func(t *testing.T) {
		rr := serve(t, e.RegisterRoutes, testAdmin, http.MethodGet, "/courses/"+course.ID+"/questions", nil)
		var resp GetQuestionsResponse
		decodeResponse(t, rr, &resp)
		if resp.Questions[0].ExpectedAnswer == "" {
			t.Error("admin did not see expected answer")
		}
	})

	createTests := []struct {
		name       string
		courseID   string
		req        CreateQuestionRequest
		expected   int
		difficulty string
	}{
		{"defaults to medium", course.ID, CreateQuestionRequest{QuestionText: "Why?"}, http.StatusCreated, models.DifficultyMedium},
		{"keeps hard", course.ID, CreateQuestionRequest{QuestionText: "How?", Difficulty: "hard"}, http.StatusCreated, models.DifficultyHard},
		{"rejects unknown difficulty", course.ID, CreateQuestionRequest{QuestionText: "What?", Difficulty: "extreme"}, http.StatusBadRequest, ""},
		{"requires text", course.ID, CreateQuestionRequest{QuestionText: " "}, http.StatusBadRequest, ""},
		{"requires course", "course-404", CreateQuestionRequest{QuestionText: "Who?"}, http.StatusNotFound, ""},
	}
	for _, tt := range createTests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, e.RegisterRoutes, testAdmin, http.MethodPost, "/courses/"+tt.courseID+"/questions", tt.req)
			if rr.Code != tt.expected {
				t.Fatalf("create question = %d, expected %d (%s)", rr.Code, tt.expected, rr.Body.String())
			}
			if tt.difficulty == "" {
				return
			}
			var resp struct {
				Question models.Question `json:"question"`
			}
			decodeResponse(t, rr, &resp)
			if resp.Question.Difficulty != tt.difficulty {
				t.Errorf("difficulty = %q, expected %q", resp.Question.Difficulty, tt.difficulty)
			}
		})
	}

	t.Run("delete", func(t *testing.T) {
		questions, _ := repo.ListQuestions(context.Background(), course.ID)
		rr := serve(t, e.RegisterRoutes, testAdmin, http.MethodDelete, "/questions/"+questions[0].ID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("delete question = %d", rr.Code)
		}
		rr = serve(t, e.RegisterRoutes, testAdmin, http.MethodDelete, "/questions/"+questions[0].ID, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("second delete = %d, expected 404", rr.Code)
		}
	})
}
