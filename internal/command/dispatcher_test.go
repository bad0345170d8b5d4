package command_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/racekeeper/internal/command"
	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/rpggio/racekeeper/internal/domain/race"
	"github.com/rpggio/racekeeper/internal/domain/stats"
	"github.com/rpggio/racekeeper/internal/notify"
	"github.com/rpggio/racekeeper/internal/player"
	"github.com/rpggio/racekeeper/internal/repository/mocks"
	"github.com/rpggio/racekeeper/internal/timer"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dispatcher *command.Dispatcher
	defs       *definition.Service
	races      *race.Service
	wins       *stats.Service
	players    *player.Registry
	clock      *timer.Manual
	inbox      *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	defRepo := &mocks.DefinitionRepository{}
	defRepo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)
	statsRepo := &mocks.StatsRepository{}
	statsRepo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

	f := &fixture{
		defs:    definition.NewService(defRepo, nil, nil),
		wins:    stats.NewService(statsRepo, nil),
		players: player.NewRegistry(),
		clock:   timer.NewManual(),
		inbox:   &notify.Recorder{},
	}
	f.races = race.NewService(race.Deps{
		Definitions: f.defs,
		Wins:        f.wins,
		Gateway:     f.inbox,
		Players:     f.players,
		Timers:      f.clock,
	}, race.Timing{MinWait: 300 * time.Second, AutoStart: 60 * time.Second})
	f.dispatcher = command.NewDispatcher(f.defs, f.races, f.wins, f.players, nil)
	return f
}

func (f *fixture) connect(id string, pos course.Vec3) player.Player {
	p := player.Player{ID: id, Name: strings.ToUpper(id)}
	f.players.Connect(p)
	f.players.UpdatePosition(id, pos)
	return p
}

func (f *fixture) run(t *testing.T, caller player.Player, input string) command.Reply {
	t.Helper()
	return f.dispatcher.Execute(context.Background(), caller, input)
}

func (f *fixture) mustRun(t *testing.T, caller player.Player, input string) command.Reply {
	t.Helper()
	reply := f.run(t, caller, input)
	require.NoError(t, reply.Err, "%s: %s", input, reply.Text())
	return reply
}

func TestDispatcher_AuthoringFlow(t *testing.T) {
	f := newFixture(t)
	op := f.connect("op", course.Vec3{X: 5, Y: 0, Z: 5})

	reply := f.mustRun(t, op, "/race create")
	require.Contains(t, reply.Text(), "Race creation started.")

	f.mustRun(t, op, "/race set name harbor")
	f.mustRun(t, op, "/race set min 2")
	f.mustRun(t, op, "/race set MAX 4")
	reply = f.mustRun(t, op, "/race set laps 2")
	require.Contains(t, reply.Text(), "5. Laps: 2")

	reply = f.mustRun(t, op, "/race set finish radius 5")
	require.Contains(t, reply.Text(), "(5.0, 0.0, 5.0)")

	f.players.UpdatePosition("op", course.Vec3{X: 50})
	reply = f.mustRun(t, op, "/race set checkpoint radius 3")
	require.Contains(t, reply.Text(), "Checkpoint 0 added")

	reply = f.mustRun(t, op, "/race save")
	require.Equal(t, "Race 'harbor' saved.", reply.Text())

	reply = f.mustRun(t, op, "race list")
	require.Equal(t, []string{"Saved races:", "- harbor"}, reply.Lines)

	def, err := f.defs.Get("harbor")
	require.NoError(t, err)
	require.Equal(t, 2, def.MinPlayers)
	require.Equal(t, 4, def.MaxPlayers)
	require.Len(t, def.Course.Checkpoints, 1)
}

func TestDispatcher_EditRadii(t *testing.T) {
	f := newFixture(t)
	op := f.connect("op", course.Vec3{})

	f.mustRun(t, op, "create")
	f.mustRun(t, op, "set name harbor")
	f.mustRun(t, op, "set finish radius 5")
	f.mustRun(t, op, "set checkpoint radius 3")
	f.mustRun(t, op, "save")

	f.mustRun(t, op, "edit harbor")
	reply := f.mustRun(t, op, "edit finish radius 7.5")
	require.Equal(t, "Finish radius updated to 7.5 meters.", reply.Text())

	reply = f.run(t, op, "edit checkpoint 3 radius 2")
	require.ErrorIs(t, reply.Err, course.ErrIndexOutOfRange)
	require.Equal(t, "Checkpoint index out of range.", reply.Text())

	f.mustRun(t, op, "edit checkpoint 0 radius 2")
	f.mustRun(t, op, "save")

	def, err := f.defs.Get("harbor")
	require.NoError(t, err)
	require.Equal(t, 7.5, def.Course.Finish.Radius)
	require.Equal(t, 2.0, def.Course.Checkpoints[0].Radius)
}

func TestDispatcher_SetWithoutPosition(t *testing.T) {
	f := newFixture(t)
	ghost := player.Player{ID: "ghost"}

	f.mustRun(t, ghost, "create")
	reply := f.run(t, ghost, "set finish radius 5")
	require.ErrorIs(t, reply.Err, command.ErrUnknownPosition)
}

func TestDispatcher_UsageOnMalformedInput(t *testing.T) {
	f := newFixture(t)
	op := f.connect("op", course.Vec3{})

	for _, input := range []string{
		"",
		"/race",
		"/race fly",
		"/race set",
		"/race set finish radius",
		"/race set finish diameter 4",
		"/race set checkpoint radius abc",
		"/race start",
	} {
		reply := f.run(t, op, input)
		require.NotEmpty(t, reply.Lines, input)
		if input != "" && input != "/race" {
			require.ErrorIs(t, reply.Err, command.ErrUsage, input)
		}
	}

	require.False(t, f.defs.IsAuthoring())
	require.Equal(t, race.StateIdle, f.races.Status().State)
	require.Equal(t, command.Usage(), f.run(t, op, "/race fly").Lines)
}

func TestDispatcher_MalformedEditNeverOpensAuthoring(t *testing.T) {
	f := newFixture(t)
	op := f.connect("op", course.Vec3{})

	// Saved races named like the edit keywords must not be reachable through a typo.
	for _, name := range []string{"finish radius abc", "checkpoint x radius 5"} {
		f.mustRun(t, op, "/race create")
		f.mustRun(t, op, "/race set name "+name)
		f.mustRun(t, op, "/race set finish radius 5")
		f.mustRun(t, op, "/race save")
	}

	for input, usage := range map[string]string{
		"/race edit finish radius abc":     "Usage: /race edit finish radius {value}",
		"/race edit finish":                "Usage: /race edit finish radius {value}",
		"/race edit checkpoint x radius 5": "Usage: /race edit checkpoint {index} radius {value}",
		"/race edit checkpoint 0":          "Usage: /race edit checkpoint {index} radius {value}",
	} {
		reply := f.run(t, op, input)
		require.ErrorIs(t, reply.Err, command.ErrUsage, input)
		require.Equal(t, []string{usage}, reply.Lines, input)
		require.False(t, f.defs.IsAuthoring(), input)
	}
}

func TestDispatcher_DomainErrorsBecomeMessages(t *testing.T) {
	f := newFixture(t)
	op := f.connect("op", course.Vec3{})

	reply := f.run(t, op, "save")
	require.ErrorIs(t, reply.Err, definition.ErrNothingToSave)
	require.Equal(t, "There is no race to save.", reply.Text())

	reply = f.run(t, op, "start nowhere")
	require.ErrorIs(t, reply.Err, race.ErrDefinitionNotFound)
	require.Contains(t, reply.Text(), "No saved race has that name")

	reply = f.run(t, op, "join")
	require.ErrorIs(t, reply.Err, race.ErrNoActiveRace)

	f.mustRun(t, op, "create")
	reply = f.run(t, op, "set speed 3")
	require.ErrorIs(t, reply.Err, definition.ErrUnknownOption)
	reply = f.run(t, op, "set min zero")
	require.ErrorIs(t, reply.Err, definition.ErrInvalidValue)
}

func TestDispatcher_RaceLifecycle(t *testing.T) {
	f := newFixture(t)
	op := f.connect("op", course.Vec3{})
	a := f.connect("a", course.Vec3{})
	b := f.connect("b", course.Vec3{})

	f.mustRun(t, op, "create")
	f.mustRun(t, op, "set name duel")
	f.mustRun(t, op, "set min 2")
	f.mustRun(t, op, "set max 2")
	f.mustRun(t, op, "set finish radius 5")
	f.mustRun(t, op, "save")

	reply := f.mustRun(t, op, "start duel")
	require.Contains(t, reply.Text(), "Players can join using '/race join'.")

	reply = f.mustRun(t, a, "join")
	require.Equal(t, "You joined the race. Players: 1/2.", reply.Text())
	reply = f.mustRun(t, op, "status")
	require.Contains(t, reply.Text(), "Waiting for more players.")

	f.mustRun(t, b, "join")
	reply = f.run(t, op, "join")
	require.ErrorIs(t, reply.Err, race.ErrFull)

	reply = f.run(t, op, "positions")
	require.ErrorIs(t, reply.Err, race.ErrRaceNotStarted)

	f.clock.Advance(60 * time.Second)
	reply = f.mustRun(t, op, "positions")
	require.Equal(t, "Current positions:", reply.Lines[0])
	require.Len(t, reply.Lines, 3)

	reply = f.run(t, op, "end nobody")
	require.ErrorIs(t, reply.Err, race.ErrNotParticipant)

	reply = f.mustRun(t, op, "end b")
	require.Equal(t, "Race 'duel' ended.", reply.Text())
	require.Equal(t, 1, f.wins.Wins("b"))

	reply = f.mustRun(t, b, "stats")
	require.Equal(t, "Total wins: 1", reply.Text())
	reply = f.mustRun(t, a, "stats")
	require.Equal(t, "You have no recorded stats.", reply.Text())
	reply = f.mustRun(t, a, "stats top")
	require.Equal(t, []string{"Top racers:", "1. B - 1 wins"}, reply.Lines)
}

func TestDispatcher_AbortVersusCancel(t *testing.T) {
	f := newFixture(t)
	op := f.connect("op", course.Vec3{})

	f.mustRun(t, op, "create")
	f.mustRun(t, op, "set name loop")
	f.mustRun(t, op, "set finish radius 5")
	f.mustRun(t, op, "save")
	f.mustRun(t, op, "start loop")

	reply := f.run(t, op, "cancel")
	require.ErrorIs(t, reply.Err, definition.ErrNothingToCancel)
	require.Equal(t, race.StateJoining, f.races.Status().State)

	f.mustRun(t, op, "abort")
	require.Equal(t, race.StateIdle, f.races.Status().State)

	reply = f.run(t, op, "abort")
	require.ErrorIs(t, reply.Err, race.ErrNoActiveRace)
}

func TestMessage(t *testing.T) {
	require.Empty(t, command.Message(nil))
	require.Equal(t, "The race is full.", command.Message(race.ErrFull))
	require.Equal(t, "The race is full.", command.Message(errors.Join(errors.New("ctx"), race.ErrFull)))
	require.Equal(t, "Something went wrong, please try again later.", command.Message(errors.New("disk on fire")))
}
