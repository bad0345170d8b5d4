package definition_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/rpggio/racekeeper/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*definition.Service, *mocks.DefinitionRepository) {
	t.Helper()
	repo := &mocks.DefinitionRepository{}
	repo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)
	return definition.NewService(repo, nil, nil), repo
}

func createNamed(t *testing.T, svc *definition.Service, name string) {
	t.Helper()
	_, err := svc.BeginCreate()
	require.NoError(t, err)
	_, err = svc.SetOption("name", name)
	require.NoError(t, err)
	require.NoError(t, svc.SetFinish(course.Vec3{X: 1}, 5))
}

func TestDefinitionService_SingleAuthoringSlot(t *testing.T) {
	svc, _ := newService(t)
	createNamed(t, svc, "harbor")
	_, err := svc.Save(context.Background())
	require.NoError(t, err)

	_, err = svc.BeginCreate()
	require.NoError(t, err)

	_, err = svc.BeginCreate()
	require.ErrorIs(t, err, definition.ErrAlreadyAuthoring)
	_, err = svc.BeginEdit("harbor")
	require.ErrorIs(t, err, definition.ErrAlreadyAuthoring)

	require.NoError(t, svc.Cancel())
	_, err = svc.BeginEdit("harbor")
	require.NoError(t, err)
	_, err = svc.BeginCreate()
	require.ErrorIs(t, err, definition.ErrAlreadyAuthoring)
}

func TestDefinitionService_BeginEditUnknown(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.BeginEdit("nope")
	require.ErrorIs(t, err, definition.ErrNotFound)
	require.False(t, svc.IsAuthoring())
}

func TestDefinitionService_Defaults(t *testing.T) {
	svc, _ := newService(t)
	summary, err := svc.BeginCreate()
	require.NoError(t, err)
	require.Equal(t, 1, summary.MinPlayers)
	require.Equal(t, 10, summary.MaxPlayers)
	require.Equal(t, 3, summary.Laps)
	require.Equal(t, 0, summary.TimeLimitSeconds)
	require.False(t, summary.Editing)
}

func TestDefinitionService_SaveRequiresName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx)
	require.ErrorIs(t, err, definition.ErrNothingToSave)

	_, err = svc.BeginCreate()
	require.NoError(t, err)
	require.NoError(t, svc.SetFinish(course.Vec3{}, 4))
	_, err = svc.Save(ctx)
	require.ErrorIs(t, err, definition.ErrMissingName)

	_, err = svc.SetOption("name", "harbor")
	require.NoError(t, err)
	_, err = svc.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"harbor"}, svc.List())
	require.False(t, svc.IsAuthoring())
}

func TestDefinitionService_SaveRequiresFinish(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.BeginCreate()
	require.NoError(t, err)
	_, err = svc.SetOption("name", "harbor")
	require.NoError(t, err)

	_, err = svc.Save(context.Background())
	require.ErrorIs(t, err, definition.ErrMissingFinish)
	require.True(t, svc.IsAuthoring())
	require.Empty(t, svc.List())
}

func TestDefinitionService_DuplicateName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	createNamed(t, svc, "harbor")
	require.NoError(t, svc.EditFinishRadius(8))
	_, err := svc.Save(ctx)
	require.NoError(t, err)

	createNamed(t, svc, "harbor")
	_, err = svc.Save(ctx)
	require.ErrorIs(t, err, definition.ErrDuplicateName)

	require.Equal(t, []string{"harbor"}, svc.List())
	stored, err := svc.Get("harbor")
	require.NoError(t, err)
	require.Equal(t, 8.0, stored.Course.Finish.Radius)
}

func TestDefinitionService_SetOptionValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.SetOption("min", "2")
	require.ErrorIs(t, err, definition.ErrNotAuthoring)

	_, err = svc.BeginCreate()
	require.NoError(t, err)

	for _, tc := range []struct{ key, value string }{
		{"min", "abc"},
		{"min", "-1"},
		{"min", "0"},
		{"max", "1.5"},
		{"seconds", "-3"},
		{"laps", "0"},
		{"name", "   "},
	} {
		_, err := svc.SetOption(tc.key, tc.value)
		require.ErrorIs(t, err, definition.ErrInvalidValue, "%s=%s", tc.key, tc.value)
	}

	summary, err := svc.Summary()
	require.NoError(t, err)
	require.Equal(t, 1, summary.MinPlayers)
	require.Equal(t, 10, summary.MaxPlayers)
	require.Equal(t, 0, summary.TimeLimitSeconds)

	_, err = svc.SetOption("colour", "red")
	require.ErrorIs(t, err, definition.ErrUnknownOption)

	summary, err = svc.SetOption("seconds", "120")
	require.NoError(t, err)
	require.Equal(t, 120, summary.TimeLimitSeconds)
	summary, err = svc.SetOption("MAX", "4")
	require.NoError(t, err)
	require.Equal(t, 4, summary.MaxPlayers)
}

func TestDefinitionService_SaveRejectsMaxBelowMin(t *testing.T) {
	svc, _ := newService(t)
	createNamed(t, svc, "harbor")
	_, err := svc.SetOption("min", "5")
	require.NoError(t, err)
	_, err = svc.SetOption("max", "3")
	require.NoError(t, err)

	_, err = svc.Save(context.Background())
	require.ErrorIs(t, err, definition.ErrInvalidValue)
}

func TestDefinitionService_CourseRequiresAuthoring(t *testing.T) {
	svc, _ := newService(t)

	require.ErrorIs(t, svc.SetFinish(course.Vec3{}, 2), definition.ErrNotAuthoring)
	_, err := svc.AddCheckpoint(course.Vec3{}, 2)
	require.ErrorIs(t, err, definition.ErrNotAuthoring)
	require.ErrorIs(t, svc.EditFinishRadius(2), definition.ErrNotAuthoring)
	require.ErrorIs(t, svc.EditCheckpointRadius(0, 2), definition.ErrNotAuthoring)
}

func TestDefinitionService_EditFinishRadiusRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	createNamed(t, svc, "harbor")
	_, err := svc.Save(ctx)
	require.NoError(t, err)

	summary, err := svc.BeginEdit("harbor")
	require.NoError(t, err)
	require.True(t, summary.Editing)
	require.NoError(t, svc.EditFinishRadius(12.5))
	_, err = svc.Save(ctx)
	require.NoError(t, err)

	def, err := svc.Get("harbor")
	require.NoError(t, err)
	require.Equal(t, 12.5, def.Course.Finish.Radius)
	require.Equal(t, []string{"harbor"}, svc.List())
}

func TestDefinitionService_EditCheckpointOutOfRange(t *testing.T) {
	svc, _ := newService(t)
	createNamed(t, svc, "harbor")
	_, err := svc.AddCheckpoint(course.Vec3{X: 3}, 2)
	require.NoError(t, err)
	idx, err := svc.AddCheckpoint(course.Vec3{X: 6}, 3)
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	require.ErrorIs(t, svc.EditCheckpointRadius(2, 9), course.ErrIndexOutOfRange)

	def, err := svc.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2.0, def.Course.Checkpoints[0].Radius)
	require.Equal(t, 3.0, def.Course.Checkpoints[1].Radius)
}

func TestDefinitionService_CancelDiscardsEdits(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.Cancel(), definition.ErrNothingToCancel)

	createNamed(t, svc, "harbor")
	_, err := svc.Save(ctx)
	require.NoError(t, err)

	_, err = svc.BeginEdit("harbor")
	require.NoError(t, err)
	require.NoError(t, svc.EditFinishRadius(40))
	require.NoError(t, svc.Cancel())

	def, err := svc.Get("harbor")
	require.NoError(t, err)
	require.Equal(t, 5.0, def.Course.Finish.Radius)
}

func TestDefinitionService_EditRename(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	createNamed(t, svc, "harbor")
	_, err := svc.Save(ctx)
	require.NoError(t, err)
	createNamed(t, svc, "canyon")
	_, err = svc.Save(ctx)
	require.NoError(t, err)

	_, err = svc.BeginEdit("harbor")
	require.NoError(t, err)
	_, err = svc.SetOption("name", "canyon")
	require.NoError(t, err)
	_, err = svc.Save(ctx)
	require.ErrorIs(t, err, definition.ErrDuplicateName)

	_, err = svc.SetOption("name", "docks")
	require.NoError(t, err)
	_, err = svc.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"canyon", "docks"}, svc.List())
}

func TestDefinitionService_SaveFailureLeavesStoreIntact(t *testing.T) {
	repo := &mocks.DefinitionRepository{}
	repo.On("SaveAll", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	svc := definition.NewService(repo, nil, nil)

	createNamed(t, svc, "harbor")
	_, err := svc.Save(context.Background())
	require.Error(t, err)
	require.Empty(t, svc.List())
	require.True(t, svc.IsAuthoring())
}

func TestDefinitionService_LoadAndGetReturnsCopy(t *testing.T) {
	repo := &mocks.DefinitionRepository{}
	stored := definition.New()
	stored.Name = "harbor"
	require.NoError(t, stored.Course.SetFinish(course.Vec3{}, 6))
	repo.On("LoadAll", mock.Anything).Return(map[string]*definition.RaceDefinition{"harbor": stored}, nil)

	svc := definition.NewService(repo, nil, nil)
	require.NoError(t, svc.Load(context.Background()))

	def, err := svc.Get("harbor")
	require.NoError(t, err)
	def.Course.Finish.Radius = 99

	again, err := svc.Get("harbor")
	require.NoError(t, err)
	require.Equal(t, 6.0, again.Course.Finish.Radius)

	_, err = svc.Get("missing")
	require.ErrorIs(t, err, definition.ErrNotFound)
}
