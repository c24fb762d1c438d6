package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/krshsl/interviewprep/models"
)

func TestCreateAndListInterviews(t *testing.T) {
	repo := newMemoryRepo()
	course := repo.seedCourse("Go", "Q1", "Q2")
	e := NewInterviewEndpoints(repo, nil)

	rr := serve(t, e.RegisterRoutes, testStudent, http.MethodPost, "/interviews", CreateInterviewRequest{
		CourseID: course.ID,
		Answers:  []string{"first", "second", "third"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Interview models.Interview `json:"interview"`
	}
	decodeResponse(t, rr, &created)
	if created.Interview.QuestionsAnswered != 3 {
		t.Errorf("questions_answered = %d, expected 3", created.Interview.QuestionsAnswered)
	}
	if answers := created.Interview.ResultSummary.Data().Answers; len(answers) != 3 || answers[2] != "third" {
		t.Errorf("result_summary answers = %v", answers)
	}
	rows := created.Interview.Answers
	if len(rows) != 3 || rows[0].QuestionID == nil || rows[2].QuestionID != nil {
		t.Errorf("answer rows = %+v, expected the first two linked to questions", rows)
	}

	repo.CreateInterview(context.Background(), BuildInterview("student-2", course.ID, nil, ""))

	rr = serve(t, e.RegisterRoutes, testStudent, http.MethodGet, "/interviews", nil)
	var list GetInterviewsResponse
	decodeResponse(t, rr, &list)
	if list.Count != 1 || list.Interviews[0].StudentID != testStudent.ID {
		t.Errorf("interviews = %+v, expected only the caller's", list.Interviews)
	}
}

func TestCreateInterviewFillsEmptyAnswers(t *testing.T) {
	repo := newMemoryRepo()
	course := repo.seedCourse("Go", "Q1", "Q2")
	e := NewInterviewEndpoints(repo, nil)

	rr := serve(t, e.RegisterRoutes, testStudent, http.MethodPost, "/interviews", CreateInterviewRequest{
		CourseID: course.ID,
		Answers:  []string{"", "  "},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Interview models.Interview `json:"interview"`
	}
	decodeResponse(t, rr, &created)
	for i, answer := range created.Interview.ResultSummary.Data().Answers {
		if answer != NoResponseText {
			t.Errorf("answer %d = %q, expected %q", i, answer, NoResponseText)
		}
	}
	for _, row := range created.Interview.Answers {
		if row.Transcript != NoResponseText {
			t.Errorf("answer row %d transcript = %q", row.Position, row.Transcript)
		}
	}
}

func TestCreateInterviewValidation(t *testing.T) {
	repo := newMemoryRepo()
	e := NewInterviewEndpoints(repo, nil)

	tests := []struct {
		name     string
		user     *models.Profile
		req      CreateInterviewRequest
		expected int
	}{
		{"missing course id", testStudent, CreateInterviewRequest{}, http.StatusBadRequest},
		{"unknown course", testStudent, CreateInterviewRequest{CourseID: "course-404"}, http.StatusNotFound},
		{"admins do not take interviews", testAdmin, CreateInterviewRequest{CourseID: "course-1"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, e.RegisterRoutes, tt.user, http.MethodPost, "/interviews", tt.req)
			if rr.Code != tt.expected {
				t.Errorf("create = %d, expected %d (%s)", rr.Code, tt.expected, rr.Body.String())
			}
		})
	}
}

func TestGetInterviewVisibility(t *testing.T) {
	repo := newMemoryRepo()
	course := repo.seedCourse("Go", "Q1")
	interview := BuildInterview(testStudent.ID, course.ID, []AnswerTurn{{Transcript: "hi"}}, "")
	repo.CreateInterview(context.Background(), interview)
	e := NewInterviewEndpoints(repo, nil)

	other := &models.Profile{ID: "student-2", Role: models.RoleStudent}

	tests := []struct {
		name     string
		user     *models.Profile
		id       string
		expected int
	}{
		{"owner", testStudent, interview.ID, http.StatusOK},
		{"admin", testAdmin, interview.ID, http.StatusOK},
		{"other student", other, interview.ID, http.StatusNotFound},
		{"missing", testStudent, "interview-404", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, e.RegisterRoutes, tt.user, http.MethodGet, "/interviews/"+tt.id, nil)
			if rr.Code != tt.expected {
				t.Errorf("get = %d, expected %d", rr.Code, tt.expected)
			}
		})
	}
}
