package definition

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/course"
)

// Option keys accepted by SetOption.
const (
	OptionName    = "name"
	OptionMin     = "min"
	OptionMax     = "max"
	OptionSeconds = "seconds"
	OptionLaps    = "laps"
)

// authoring is the single in-flight definition. draft is a working copy;
// original is the stored name when editing, empty when creating.
type authoring struct {
	draft    *RaceDefinition
	original string
}

// Service is the race definition store and its single-editor authoring slot.
type Service struct {
	mu        sync.Mutex
	repo      Repository
	activity  ActivityLogger
	logger    *slog.Logger
	defs      map[string]*RaceDefinition
	authoring *authoring
}

// NewService creates a new definition service with an empty store.
func NewService(repo Repository, activityLog ActivityLogger, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		activity: activityLog,
		logger:   logger,
		defs:     make(map[string]*RaceDefinition),
	}
}

// Load replaces the in-memory store with the persisted definitions.
func (s *Service) Load(ctx context.Context) error {
	defs, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading definitions: %w", err)
	}
	if defs == nil {
		defs = make(map[string]*RaceDefinition)
	}

	s.mu.Lock()
	s.defs = defs
	s.mu.Unlock()
	return nil
}

// Flush persists the current store.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SaveAll(ctx, s.defs); err != nil {
		return fmt.Errorf("saving definitions: %w", err)
	}
	return nil
}

// BeginCreate opens a fresh definition for authoring.
func (s *Service) BeginCreate() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authoring != nil {
		return Summary{}, ErrAlreadyAuthoring
	}
	s.authoring = &authoring{draft: New()}
	return s.summaryLocked(), nil
}

// BeginEdit opens a saved definition for authoring.
func (s *Service) BeginEdit(name string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.defs[name]
	if !ok {
		return Summary{}, ErrNotFound
	}
	if s.authoring != nil {
		return Summary{}, ErrAlreadyAuthoring
	}
	s.authoring = &authoring{draft: def.Clone(), original: name}
	return s.summaryLocked(), nil
}

// SetOption sets one of the scalar options on the open definition. State is
// left unchanged when the value does not validate.
func (s *Service) SetOption(key, value string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authoring == nil {
		return Summary{}, ErrNotAuthoring
	}
	draft := s.authoring.draft

	switch strings.ToLower(key) {
	case OptionName:
		name := strings.TrimSpace(value)
		if name == "" {
			return Summary{}, fmt.Errorf("%w: name must not be empty", ErrInvalidValue)
		}
		draft.Name = name
	case OptionMin:
		n, err := parseCount(value, 1)
		if err != nil {
			return Summary{}, err
		}
		draft.MinPlayers = n
	case OptionMax:
		n, err := parseCount(value, 1)
		if err != nil {
			return Summary{}, err
		}
		draft.MaxPlayers = n
	case OptionSeconds:
		n, err := parseCount(value, 0)
		if err != nil {
			return Summary{}, err
		}
		draft.TimeLimitSeconds = n
	case OptionLaps:
		n, err := parseCount(value, 1)
		if err != nil {
			return Summary{}, err
		}
		draft.Laps = n
	default:
		return Summary{}, ErrUnknownOption
	}

	return s.summaryLocked(), nil
}

// SetFinish places the finish point of the open definition.
func (s *Service) SetFinish(pos course.Vec3, radius float64) error {
	return s.withCourse(func(c *course.Course) error {
		return c.SetFinish(pos, radius)
	})
}

// AddCheckpoint appends a checkpoint to the open definition and returns its index.
func (s *Service) AddCheckpoint(pos course.Vec3, radius float64) (int, error) {
	index := -1
	err := s.withCourse(func(c *course.Course) error {
		var err error
		index, err = c.AddCheckpoint(pos, radius)
		return err
	})
	return index, err
}

// EditFinishRadius changes the finish radius of the open definition.
func (s *Service) EditFinishRadius(radius float64) error {
	return s.withCourse(func(c *course.Course) error {
		return c.EditFinishRadius(radius)
	})
}

// EditCheckpointRadius changes one checkpoint radius of the open definition.
func (s *Service) EditCheckpointRadius(index int, radius float64) error {
	return s.withCourse(func(c *course.Course) error {
		return c.EditCheckpointRadius(index, radius)
	})
}

// Save commits the open definition. The new store is persisted before it
// replaces the in-memory one, so a failed write leaves both untouched.
func (s *Service) Save(ctx context.Context) (*RaceDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authoring == nil {
		return nil, ErrNothingToSave
	}
	draft := s.authoring.draft
	if strings.TrimSpace(draft.Name) == "" {
		return nil, ErrMissingName
	}
	if _, exists := s.defs[draft.Name]; exists && draft.Name != s.authoring.original {
		return nil, ErrDuplicateName
	}
	if draft.Course.Finish == nil {
		return nil, ErrMissingFinish
	}
	if draft.MaxPlayers < draft.MinPlayers {
		return nil, fmt.Errorf("%w: max players below min players", ErrInvalidValue)
	}

	next := make(map[string]*RaceDefinition, len(s.defs)+1)
	for name, def := range s.defs {
		next[name] = def
	}
	if s.authoring.original != "" {
		delete(next, s.authoring.original)
	}
	saved := draft.Clone()
	next[saved.Name] = saved

	if err := s.repo.SaveAll(ctx, next); err != nil {
		return nil, fmt.Errorf("saving definitions: %w", err)
	}

	s.defs = next
	s.authoring = nil

	if s.logger != nil {
		s.logger.Info("race definition saved", "name", saved.Name, "checkpoints", len(saved.Course.Checkpoints))
	}
	s.logActivity(ctx, saved.Name)

	return saved.Clone(), nil
}

// Cancel discards the open definition without committing it.
func (s *Service) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authoring == nil {
		return ErrNothingToCancel
	}
	s.authoring = nil
	return nil
}

// List returns all saved race names in sorted order.
func (s *Service) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of a saved definition.
func (s *Service) Get(name string) (*RaceDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.defs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return def.Clone(), nil
}

// Summary returns the authoring view of the open definition.
func (s *Service) Summary() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authoring == nil {
		return Summary{}, ErrNotAuthoring
	}
	return s.summaryLocked(), nil
}

// IsAuthoring reports whether a definition is open.
func (s *Service) IsAuthoring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authoring != nil
}

func (s *Service) withCourse(fn func(c *course.Course) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authoring == nil {
		return ErrNotAuthoring
	}
	return fn(&s.authoring.draft.Course)
}

func (s *Service) summaryLocked() Summary {
	draft := s.authoring.draft
	return Summary{
		Name:             draft.Name,
		Editing:          s.authoring.original != "",
		MinPlayers:       draft.MinPlayers,
		MaxPlayers:       draft.MaxPlayers,
		TimeLimitSeconds: draft.TimeLimitSeconds,
		Laps:             draft.Laps,
		HasFinish:        draft.Course.Finish != nil,
		Checkpoints:      len(draft.Course.Checkpoints),
	}
}

func (s *Service) logActivity(ctx context.Context, name string) {
	if s.activity == nil {
		return
	}
	entry := &activity.ActivityEntry{
		RaceName:     name,
		ActivityType: activity.TypeDefinitionSaved,
		Summary:      fmt.Sprintf("race %q saved", name),
	}
	if err := s.activity.LogActivity(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("failed to log activity", "type", entry.ActivityType, "error", err)
	}
}

func parseCount(value string, min int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidValue, value)
	}
	if n < min {
		return 0, fmt.Errorf("%w: must be at least %d", ErrInvalidValue, min)
	}
	return n, nil
}
