package notification

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidCursor is returned when the polling cursor lies in the future
var ErrInvalidCursor = errors.New("since cursor cannot be in the future")

const (
	defaultPollLimit = 100
	maxPollLimit     = 500
)

// Lister is the read side of the event store
type Lister interface {
	ListSince(ctx context.Context, householdID string, since time.Time, limit int) ([]*Event, error)
}

// Service serves ledger events to polling consumers
type Service struct {
	repo Lister
	now  func() time.Time
}

// NewService creates a new event service
func NewService(repo Lister) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Poll returns up to limit events newer than since, oldest first
func (s *Service) Poll(ctx context.Context, householdID string, since time.Time, limit int) ([]*Event, error) {
	if since.After(s.now().Add(time.Minute)) {
		return nil, ErrInvalidCursor
	}
	if limit < 1 || limit > maxPollLimit {
		limit = defaultPollLimit
	}
	return s.repo.ListSince(ctx, householdID, since, limit)
}
