package mocks

import (
	"context"

	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/stretchr/testify/mock"
)

// DefinitionRepository is a mock for repository.DefinitionRepository.
type DefinitionRepository struct {
	mock.Mock
}

func (m *DefinitionRepository) LoadAll(ctx context.Context) (map[string]*definition.RaceDefinition, error) {
	args := m.Called(ctx)
	if defs, ok := args.Get(0).(map[string]*definition.RaceDefinition); ok {
		return defs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DefinitionRepository) SaveAll(ctx context.Context, defs map[string]*definition.RaceDefinition) error {
	args := m.Called(ctx, defs)
	return args.Error(0)
}

// StatsRepository is a mock for repository.StatsRepository.
type StatsRepository struct {
	mock.Mock
}

func (m *StatsRepository) LoadAll(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if wins, ok := args.Get(0).(map[string]int); ok {
		return wins, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StatsRepository) SaveAll(ctx context.Context, wins map[string]int) error {
	args := m.Called(ctx, wins)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// APIKeyRepository is a mock for repository.APIKeyRepository.
type APIKeyRepository struct {
	mock.Mock
}

func (m *APIKeyRepository) CreateKey(ctx context.Context, keyHash, operatorID, description string) error {
	args := m.Called(ctx, keyHash, operatorID, description)
	return args.Error(0)
}

func (m *APIKeyRepository) LookupKey(ctx context.Context, keyHash string) (string, error) {
	args := m.Called(ctx, keyHash)
	return args.String(0), args.Error(1)
}
