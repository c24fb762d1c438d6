package services

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interviewprep/models"
)

type DashboardStore interface {
	CountCourses(ctx context.Context) (int64, error)
	CountQuestions(ctx context.Context, courseID string) (int64, error)
	CountSupportQueries(ctx context.Context) (int64, error)
	CountInterviews(ctx context.Context, studentID string) (int64, error)
}

type DashboardEndpoints struct {
	repo DashboardStore
}

func NewDashboardEndpoints(repo DashboardStore) *DashboardEndpoints {
	return &DashboardEndpoints{repo: repo}
}

func (e *DashboardEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.With(RequireRole(models.RoleAdmin)).Get("/admin", e.AdminStatsHandler)
		r.With(RequireRole(models.RoleStudent)).Get("/student", e.StudentStatsHandler)
	})
}

func (e *DashboardEndpoints) AdminStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var stats models.AdminStats
	var err error

	if stats.Courses, err = e.repo.CountCourses(ctx); err != nil {
		e.statsFailed(w, "courses", err)
		return
	}
	if stats.Questions, err = e.repo.CountQuestions(ctx, ""); err != nil {
		e.statsFailed(w, "questions", err)
		return
	}
	if stats.Queries, err = e.repo.CountSupportQueries(ctx); err != nil {
		e.statsFailed(w, "support_queries", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (e *DashboardEndpoints) StudentStatsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	var stats models.StudentStats
	var err error

	if stats.TotalInterviews, err = e.repo.CountInterviews(ctx, user.ID); err != nil {
		e.statsFailed(w, "interviews", err)
		return
	}
	if stats.AvailableCourses, err = e.repo.CountCourses(ctx); err != nil {
		e.statsFailed(w, "courses", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (e *DashboardEndpoints) statsFailed(w http.ResponseWriter, counter string, err error) {
	slog.Error("Failed to load dashboard stats", "counter", counter, "error", err)
	http.Error(w, "Failed to load stats", http.StatusInternalServerError)
}
