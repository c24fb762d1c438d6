package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interviewprep/models"
)

type SupportStore interface {
	CreateSupportQuery(ctx context.Context, query *models.SupportQuery) error
	ListSupportQueries(ctx context.Context) ([]models.SupportQuery, error)
	ResolveSupportQuery(ctx context.Context, queryID string) (bool, error)
}

type SupportEndpoints struct {
	repo SupportStore
}

type SupportRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func NewSupportEndpoints(repo SupportStore) *SupportEndpoints {
	return &SupportEndpoints{repo: repo}
}

func (e *SupportEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/support", func(r chi.Router) {
		r.Post("/", e.CreateQueryHandler)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(models.RoleAdmin))
			r.Get("/", e.ListQueriesHandler)
			r.Post("/{id}/resolve", e.ResolveQueryHandler)
		})
	})
}

func (e *SupportEndpoints) CreateQueryHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req SupportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		http.Error(w, "Subject and message are required", http.StatusBadRequest)
		return
	}

	query := models.SupportQuery{
		UserID:  user.ID,
		Subject: subject,
		Message: message,
		Status:  models.SupportStatusOpen,
	}
	if err := e.repo.CreateSupportQuery(r.Context(), &query); err != nil {
		http.Error(w, "Error submitting query", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"query":   query,
		"message": "Query submitted successfully",
	})
}

func (e *SupportEndpoints) ListQueriesHandler(w http.ResponseWriter, r *http.Request) {
	queries, err := e.repo.ListSupportQueries(r.Context())
	if err != nil {
		http.Error(w, "Failed to get queries", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": queries, "count": len(queries)})
}

func (e *SupportEndpoints) ResolveQueryHandler(w http.ResponseWriter, r *http.Request) {
	found, err := e.repo.ResolveSupportQuery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Error resolving query", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "Query not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Query resolved"})
}
