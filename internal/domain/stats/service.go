package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Service is the per-player win ledger.
type Service struct {
	mu     sync.Mutex
	repo   Repository
	logger *slog.Logger
	wins   map[string]int
}

// NewService creates a new stats service with an empty ledger.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, wins: make(map[string]int)}
}

// Load replaces the ledger with the persisted one.
func (s *Service) Load(ctx context.Context) error {
	wins, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading stats: %w", err)
	}
	if wins == nil {
		wins = make(map[string]int)
	}

	s.mu.Lock()
	s.wins = wins
	s.mu.Unlock()
	return nil
}

// Flush persists the ledger.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SaveAll(ctx, s.wins); err != nil {
		return fmt.Errorf("saving stats: %w", err)
	}
	return nil
}

// RecordWin increments the player's win count and persists the ledger.
func (s *Service) RecordWin(ctx context.Context, playerID string) (int, error) {
	if strings.TrimSpace(playerID) == "" {
		return 0, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]int, len(s.wins)+1)
	for id, n := range s.wins {
		next[id] = n
	}
	next[playerID]++

	if err := s.repo.SaveAll(ctx, next); err != nil {
		return 0, fmt.Errorf("saving stats: %w", err)
	}
	s.wins = next

	if s.logger != nil {
		s.logger.Info("win recorded", "player_id", playerID, "wins", next[playerID])
	}
	return next[playerID], nil
}

// Wins returns the player's win count, zero when unknown.
func (s *Service) Wins(playerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wins[playerID]
}

// HasRecord reports whether the player appears in the ledger.
func (s *Service) HasRecord(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.wins[playerID]
	return ok
}

// Leaderboard returns up to limit standings ordered by wins, then player id.
// A non-positive limit returns every player.
func (s *Service) Leaderboard(limit int) []Standing {
	s.mu.Lock()
	out := make([]Standing, 0, len(s.wins))
	for id, n := range s.wins {
		out = append(out, Standing{PlayerID: id, Wins: n})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
