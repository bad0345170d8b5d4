package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/ksuid"
)

// Service records race lifecycle events.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// LogActivity stores one event. Every entry names the race it belongs to;
// the id and timestamp are filled in when missing.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || entry.RaceName == "" {
		return fmt.Errorf("%w: race name required", ErrInvalidInput)
	}
	if !entry.ActivityType.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownType, entry.ActivityType)
	}
	if entry.ID == "" {
		entry.ID = ksuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	s.logger.Debug("activity logged", "race", entry.RaceName, "type", entry.ActivityType)
	return nil
}

// GetRecentActivity lists events newest first. A zero limit means
// DefaultLimit; larger requests are capped at MaxLimit.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}
