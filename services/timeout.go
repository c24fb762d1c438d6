package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultTimeout       = 30 * time.Minute
	timeoutCheckInterval = 30 * time.Second
)

// SessionTimeoutService closes live interviews that have gone quiet.
type SessionTimeoutService struct {
	idleTimeout    time.Duration
	activeSessions map[string]*ActiveSession
	mutex          sync.Mutex
}

type ActiveSession struct {
	SessionID    string
	UserID       string
	LastActivity time.Time
	onTimeout    func()
}

func NewSessionTimeoutService(idleTimeout time.Duration) *SessionTimeoutService {
	if idleTimeout <= 0 {
		idleTimeout = DefaultTimeout
	}
	return &SessionTimeoutService{
		idleTimeout:    idleTimeout,
		activeSessions: make(map[string]*ActiveSession),
	}
}

// RegisterSession starts tracking a session. onTimeout runs once, outside
// any lock, if the session stays idle past the timeout.
func (s *SessionTimeoutService) RegisterSession(sessionID, userID string, onTimeout func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.activeSessions[sessionID] = &ActiveSession{
		SessionID:    sessionID,
		UserID:       userID,
		LastActivity: time.Now(),
		onTimeout:    onTimeout,
	}
	slog.Info("Session registered for timeout tracking", "session_id", sessionID, "user_id", userID)
}

func (s *SessionTimeoutService) UpdateActivity(sessionID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if session, exists := s.activeSessions[sessionID]; exists {
		session.LastActivity = time.Now()
	}
}

func (s *SessionTimeoutService) EndSession(sessionID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.activeSessions, sessionID)
}

func (s *SessionTimeoutService) ActiveCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.activeSessions)
}

// Start runs the sweeper until ctx is cancelled.
func (s *SessionTimeoutService) Start(ctx context.Context) {
	interval := timeoutCheckInterval
	if s.idleTimeout < 2*interval {
		interval = s.idleTimeout / 2
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.checkTimeouts(now)
			}
		}
	}()
}

// checkTimeouts drops every session idle at now and fires its callback.
// It returns the dropped session IDs.
func (s *SessionTimeoutService) checkTimeouts(now time.Time) []string {
	s.mutex.Lock()
	var expired []*ActiveSession
	for id, session := range s.activeSessions {
		if now.Sub(session.LastActivity) > s.idleTimeout {
			expired = append(expired, session)
			delete(s.activeSessions, id)
		}
	}
	s.mutex.Unlock()

	ids := make([]string, 0, len(expired))
	for _, session := range expired {
		slog.Info("Session timed out", "session_id", session.SessionID, "user_id", session.UserID,
			"idle", now.Sub(session.LastActivity).Round(time.Second).String())
		if session.onTimeout != nil {
			session.onTimeout()
		}
		ids = append(ids, session.SessionID)
	}
	return ids
}
