// Package command parses "/race" commands and routes them to the domain services.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/rpggio/racekeeper/internal/domain/race"
	"github.com/rpggio/racekeeper/internal/domain/stats"
	"github.com/rpggio/racekeeper/internal/player"
)

const leaderboardSize = 10

// DefinitionService defines the authoring operations needed by commands.
type DefinitionService interface {
	BeginCreate() (definition.Summary, error)
	BeginEdit(name string) (definition.Summary, error)
	SetOption(key, value string) (definition.Summary, error)
	SetFinish(pos course.Vec3, radius float64) error
	AddCheckpoint(pos course.Vec3, radius float64) (int, error)
	EditFinishRadius(radius float64) error
	EditCheckpointRadius(index int, radius float64) error
	Save(ctx context.Context) (*definition.RaceDefinition, error)
	Cancel() error
	List() []string
}

// RaceService defines the race session operations needed by commands.
type RaceService interface {
	Start(ctx context.Context, starter player.Player, name string) (*race.Status, error)
	Join(ctx context.Context, p player.Player) (*race.JoinResult, error)
	Positions() ([]race.Standing, error)
	Cancel(ctx context.Context) error
	End(ctx context.Context, winnerID string) (*race.Result, error)
	Status() *race.Status
}

// StatsService defines the ledger reads needed by commands.
type StatsService interface {
	Wins(playerID string) int
	HasRecord(playerID string) bool
	Leaderboard(limit int) []stats.Standing
}

// Reply is the text returned to the caller of a command.
type Reply struct {
	Lines []string `json:"lines"`
	// Err is the domain error behind a failed command, nil on success.
	Err error `json:"-"`
}

// Text joins the reply lines.
func (r Reply) Text() string {
	return strings.Join(r.Lines, "\n")
}

// Dispatcher executes commands on behalf of players.
type Dispatcher struct {
	definitions DefinitionService
	races       RaceService
	stats       StatsService
	players     player.Directory
	logger      *slog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(defs DefinitionService, races RaceService, statsSvc StatsService, players player.Directory, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		definitions: defs,
		races:       races,
		stats:       statsSvc,
		players:     players,
		logger:      logger,
	}
}

// Execute runs one command line such as "/race set min 2". The leading
// "/race" or "race" is optional.
func (d *Dispatcher) Execute(ctx context.Context, caller player.Player, input string) Reply {
	args := strings.Fields(input)
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "/race", "race":
			args = args[1:]
		}
	}
	return d.Run(ctx, caller, args)
}

// Run dispatches already tokenized arguments.
func (d *Dispatcher) Run(ctx context.Context, caller player.Player, args []string) Reply {
	if caller.Name == "" {
		caller.Name = caller.ID
	}
	if len(args) == 0 {
		return Reply{Lines: Usage()}
	}

	lines, err := d.dispatch(ctx, caller, strings.ToLower(args[0]), args[1:])
	if err != nil {
		return d.failure(caller, args, lines, err)
	}
	return Reply{Lines: lines}
}

func (d *Dispatcher) failure(caller player.Player, args []string, lines []string, err error) Reply {
	if errors.Is(err, ErrUsage) {
		if len(lines) == 0 {
			lines = Usage()
		}
		return Reply{Lines: lines, Err: err}
	}

	if _, known := describe(err); known {
		d.logger.Debug("command rejected", "player_id", caller.ID, "command", args[0], "error", err)
	} else {
		d.logger.Error("command failed", "player_id", caller.ID, "command", args[0], "error", err)
	}
	return Reply{Lines: append(lines, Message(err)), Err: err}
}

func (d *Dispatcher) dispatch(ctx context.Context, caller player.Player, sub string, rest []string) ([]string, error) {
	switch sub {
	case "create":
		summary, err := d.definitions.BeginCreate()
		if err != nil {
			return nil, err
		}
		return append([]string{"Race creation started."}, summaryLines(summary)...), nil
	case "save":
		def, err := d.definitions.Save(ctx)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("Race '%s' saved.", def.Name)}, nil
	case "set":
		return d.set(caller, rest)
	case "edit":
		return d.edit(rest)
	case "cancel":
		if err := d.definitions.Cancel(); err != nil {
			return nil, err
		}
		return []string{"Race creation cancelled."}, nil
	case "list":
		return listLines(d.definitions.List()), nil
	case "start":
		if len(rest) == 0 {
			return []string{"Name a saved race to start it, e.g. '/race start harbor'."}, ErrUsage
		}
		status, err := d.races.Start(ctx, caller, strings.Join(rest, " "))
		if err != nil {
			return nil, err
		}
		return []string{
			fmt.Sprintf("Race '%s' started.", status.Definition.Name),
			"Players can join using '/race join'.",
		}, nil
	case "join":
		res, err := d.races.Join(ctx, caller)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("You joined the race. Players: %d/%d.", res.Players, res.MaxPlayers)}, nil
	case "positions":
		standings, err := d.races.Positions()
		if err != nil {
			return nil, err
		}
		return positionLines(standings), nil
	case "status":
		return statusLines(d.races.Status()), nil
	case "stats":
		return d.statsLines(caller, rest), nil
	case "end":
		winnerID := ""
		if len(rest) > 0 {
			winnerID = rest[0]
		}
		result, err := d.races.End(ctx, winnerID)
		if err != nil {
			if result != nil {
				return []string{fmt.Sprintf("Race '%s' ended.", result.RaceName)}, err
			}
			return nil, err
		}
		return []string{fmt.Sprintf("Race '%s' ended.", result.RaceName)}, nil
	case "abort":
		if err := d.races.Cancel(ctx); err != nil {
			return nil, err
		}
		return []string{"Race cancelled."}, nil
	default:
		return nil, ErrUsage
	}
}

func (d *Dispatcher) set(caller player.Player, rest []string) ([]string, error) {
	if len(rest) < 2 {
		return []string{"Usage: /race set {name|min|max|seconds|laps} {value}"}, ErrUsage
	}

	switch key := strings.ToLower(rest[0]); key {
	case "finish":
		radius, ok := parseRadiusArgs(rest[1:])
		if !ok {
			return []string{"Usage: /race set finish radius {value}"}, ErrUsage
		}
		pos, err := d.position(caller)
		if err != nil {
			return nil, err
		}
		if err := d.definitions.SetFinish(pos, radius); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("Finish point set at %s with a radius of %g meters.", pos, radius)}, nil
	case "checkpoint":
		radius, ok := parseRadiusArgs(rest[1:])
		if !ok {
			return []string{"Usage: /race set checkpoint radius {value}"}, ErrUsage
		}
		pos, err := d.position(caller)
		if err != nil {
			return nil, err
		}
		index, err := d.definitions.AddCheckpoint(pos, radius)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("Checkpoint %d added at %s with a radius of %g meters.", index, pos, radius)}, nil
	default:
		summary, err := d.definitions.SetOption(key, strings.Join(rest[1:], " "))
		if err != nil {
			return nil, err
		}
		return summaryLines(summary), nil
	}
}

func (d *Dispatcher) edit(rest []string) ([]string, error) {
	if len(rest) == 0 {
		return []string{"Usage: /race edit {name}"}, ErrUsage
	}

	switch strings.ToLower(rest[0]) {
	case "finish":
		radius, ok := parseRadiusArgs(rest[1:])
		if !ok {
			return []string{"Usage: /race edit finish radius {value}"}, ErrUsage
		}
		if err := d.definitions.EditFinishRadius(radius); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("Finish radius updated to %g meters.", radius)}, nil
	case "checkpoint":
		usage := []string{"Usage: /race edit checkpoint {index} radius {value}"}
		if len(rest) != 4 {
			return usage, ErrUsage
		}
		index, err := strconv.Atoi(rest[1])
		radius, ok := parseRadiusArgs(rest[2:])
		if err != nil || !ok {
			return usage, ErrUsage
		}
		if err := d.definitions.EditCheckpointRadius(index, radius); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("Checkpoint %d radius updated to %g meters.", index, radius)}, nil
	}

	// Anything else names a saved race.
	summary, err := d.definitions.BeginEdit(strings.Join(rest, " "))
	if err != nil {
		return nil, err
	}
	return append([]string{"Editing race."}, summaryLines(summary)...), nil
}

func (d *Dispatcher) statsLines(caller player.Player, rest []string) []string {
	if len(rest) > 0 && strings.EqualFold(rest[0], "top") {
		board := d.stats.Leaderboard(leaderboardSize)
		if len(board) == 0 {
			return []string{"No wins recorded yet."}
		}
		lines := []string{"Top racers:"}
		for i, s := range board {
			lines = append(lines, fmt.Sprintf("%d. %s - %d wins", i+1, d.displayName(s.PlayerID), s.Wins))
		}
		return lines
	}

	if !d.stats.HasRecord(caller.ID) {
		return []string{"You have no recorded stats."}
	}
	return []string{fmt.Sprintf("Total wins: %d", d.stats.Wins(caller.ID))}
}

func (d *Dispatcher) position(caller player.Player) (course.Vec3, error) {
	if d.players == nil {
		return course.Vec3{}, ErrUnknownPosition
	}
	pos, ok := d.players.Position(caller.ID)
	if !ok {
		return course.Vec3{}, ErrUnknownPosition
	}
	return pos, nil
}

func (d *Dispatcher) displayName(playerID string) string {
	if d.players != nil {
		if p, ok := d.players.Lookup(playerID); ok {
			return p.Name
		}
	}
	return playerID
}

// parseRadiusArgs accepts "radius {value}".
func parseRadiusArgs(args []string) (float64, bool) {
	if len(args) != 2 || !strings.EqualFold(args[0], "radius") {
		return 0, false
	}
	radius, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, false
	}
	return radius, true
}

func summaryLines(s definition.Summary) []string {
	name := s.Name
	if name == "" {
		name = "not set"
	}
	limit := "none"
	if s.TimeLimitSeconds > 0 {
		limit = strconv.Itoa(s.TimeLimitSeconds)
	}
	finish := "not set"
	if s.HasFinish {
		finish = "set"
	}
	return []string{
		"Race settings:",
		"1. Name: " + name,
		fmt.Sprintf("2. Minimum players: %d", s.MinPlayers),
		fmt.Sprintf("3. Maximum players: %d", s.MaxPlayers),
		"4. Seconds: " + limit,
		fmt.Sprintf("5. Laps: %d", s.Laps),
		"6. Finish: " + finish,
		fmt.Sprintf("7. Checkpoints: %d", s.Checkpoints),
		"Use '/race set ...' to change settings and '/race save' to save.",
	}
}

func listLines(names []string) []string {
	if len(names) == 0 {
		return []string{"There are no saved races."}
	}
	lines := []string{"Saved races:"}
	for _, name := range names {
		lines = append(lines, "- "+name)
	}
	return lines
}

func positionLines(standings []race.Standing) []string {
	lines := []string{"Current positions:"}
	for _, s := range standings {
		lines = append(lines, fmt.Sprintf("%d. %s - lap %d, checkpoint %d", s.Position, s.Name, s.LapsCompleted, s.NextCheckpoint))
	}
	return lines
}

func statusLines(s *race.Status) []string {
	if s.State == race.StateIdle {
		return []string{"No race is running."}
	}
	lines := []string{
		fmt.Sprintf("Race '%s' is %s.", s.Definition.Name, s.State),
		fmt.Sprintf("Players: %d/%d (minimum %d).", len(s.Participants), s.Definition.MaxPlayers, s.Definition.MinPlayers),
	}
	switch {
	case s.CountdownArmed:
		lines = append(lines, "The countdown is running.")
	case s.WaitArmed:
		lines = append(lines, "Waiting for more players.")
	}
	return lines
}
