package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/krshsl/interviewprep/metrics"
	"github.com/krshsl/interviewprep/repository"
	ws "github.com/krshsl/interviewprep/websocket"
)

const healthTimeout = 2 * time.Second

// Server holds all server dependencies
type Server struct {
	config                 *Config
	repo                   *repository.GORMRepository
	authService            *AuthService
	transcriber            Transcriber
	recordings             RecordingStore
	evaluator              Evaluator
	timeoutService         *SessionTimeoutService
	wsHub                  *ws.Hub
	authEndpoints          *AuthEndpoints
	courseEndpoints        *CourseEndpoints
	interviewEndpoints     *InterviewEndpoints
	dashboardEndpoints     *DashboardEndpoints
	supportEndpoints       *SupportEndpoints
	transcriptionEndpoints *TranscriptionEndpoints
}

func NewServer(config *Config, repo *repository.GORMRepository) *Server {
	return &Server{
		config: config,
		repo:   repo,
	}
}

// InitializeServices builds the services and endpoints. Background workers
// stop when ctx is cancelled.
func (s *Server) InitializeServices(ctx context.Context) error {
	if s.config.JWT.Secret == "" {
		return errors.New("jwt secret is not configured")
	}

	var gemini *GeminiService
	if s.config.AI.GeminiAPIKey != "" {
		var err error
		gemini, err = NewGeminiService(s.config.AI.GeminiAPIKey)
		if err != nil {
			return err
		}
		s.evaluator = gemini
		slog.Info("Gemini service initialized")
	}

	switch {
	case s.config.AI.OpenAIAPIKey != "":
		s.transcriber = Instrument(NewWhisperTranscriber(s.config.AI.OpenAIAPIKey, s.config.AI.OpenAIBaseURL, s.config.AI.OpenAIModel))
	case gemini != nil:
		s.transcriber = Instrument(gemini)
	default:
		slog.Warn("No transcription provider configured, live interviews disabled")
	}
	if s.transcriber != nil {
		slog.Info("Transcription provider selected", "provider", s.transcriber.Name())
	}

	if s.config.Storage.Endpoint != "" {
		store, err := NewMinioRecordingStore(ctx, s.config.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize recording store: %w", err)
		}
		s.recordings = store
		slog.Info("Recording store initialized", "endpoint", s.config.Storage.Endpoint, "bucket", s.config.Storage.Bucket)
	}

	s.authService = NewAuthService(s.repo, s.config.JWT.Secret, s.config.IsProduction())
	s.authEndpoints = NewAuthEndpoints(s.authService)
	s.courseEndpoints = NewCourseEndpoints(s.repo)
	s.dashboardEndpoints = NewDashboardEndpoints(s.repo)
	s.supportEndpoints = NewSupportEndpoints(s.repo)

	var live *LiveInterviewHandler
	if s.transcriber != nil {
		s.transcriptionEndpoints = NewTranscriptionEndpoints(s.transcriber, s.config.Interview.MaxAudioBytes)

		s.wsHub = ws.NewHub()
		go s.wsHub.Run(ctx)

		s.timeoutService = NewSessionTimeoutService(s.config.Interview.IdleTimeout)
		s.timeoutService.Start(ctx)

		deps := FlowDeps{
			Store:       s.repo,
			Transcriber: s.transcriber,
			Recordings:  s.recordings,
			Evaluator:   s.evaluator,
			Config:      s.config.Interview,
		}
		live = NewLiveInterviewHandler(s.wsHub, deps, s.timeoutService, s.config.WebSocket.AllowedOrigins)
	}
	s.interviewEndpoints = NewInterviewEndpoints(s.repo, live)

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.Metrics.Enabled {
		r.Use(metrics.InstrumentHandler)
		r.Handle("/metrics", metrics.Handler())
	}

	r.Get("/health", s.healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.apiV1Handler)

		s.authEndpoints.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(s.authService.Middleware)
			s.courseEndpoints.RegisterRoutes(r)
			s.interviewEndpoints.RegisterRoutes(r)
			s.dashboardEndpoints.RegisterRoutes(r)
			s.supportEndpoints.RegisterRoutes(r)
			if s.transcriptionEndpoints != nil {
				s.transcriptionEndpoints.RegisterRoutes(r)
			}
		})
	})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", s.config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exited")
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "up"

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		slog.Error("Health check database ping failed", "error", err)
		status = "degraded"
		dbStatus = "down"
	}

	resp := map[string]any{
		"status":   status,
		"database": dbStatus,
	}
	if s.wsHub != nil {
		resp["live_interviews"] = s.wsHub.ActiveCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) apiV1Handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API v1", "version": "1.0.0"})
}
