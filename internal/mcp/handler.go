package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/racekeeper/internal/command"
	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/rpggio/racekeeper/internal/domain/race"
	"github.com/rpggio/racekeeper/internal/domain/stats"
	"github.com/rpggio/racekeeper/internal/player"
)

// DefinitionService defines definition reads needed by MCP.
type DefinitionService interface {
	List() []string
	Get(name string) (*definition.RaceDefinition, error)
}

// RaceService defines race session operations needed by MCP.
type RaceService interface {
	ReportPosition(ctx context.Context, playerID string, pos course.Vec3) (*race.ProgressResult, error)
	Positions() ([]race.Standing, error)
	Status() *race.Status
}

// StatsService defines ledger reads needed by MCP.
type StatsService interface {
	Wins(playerID string) int
	HasRecord(playerID string) bool
	Leaderboard(limit int) []stats.Standing
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// CommandRunner executes '/race' commands on behalf of a player.
type CommandRunner interface {
	Execute(ctx context.Context, caller player.Player, input string) command.Reply
}

// PlayerRegistry tracks connected players and their positions.
type PlayerRegistry interface {
	Connect(p player.Player)
	Disconnect(id string)
	UpdatePosition(id string, pos course.Vec3) bool
	Lookup(id string) (player.Player, bool)
	Connected() []player.Player
}

// Services contains all domain services needed by MCP.
type Services struct {
	Definitions DefinitionService
	Races       RaceService
	Stats       StatsService
	Activity    ActivityService
	Commands    CommandRunner
	Players     PlayerRegistry
}

const defaultLeaderboardSize = 10

// Handler dispatches MCP tool calls to domain services.
type Handler struct {
	svc    Services
	logger *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Handle dispatches a tool call. operatorID identifies the authenticated
// caller and stands in for the player when a command names none.
func (h *Handler) Handle(ctx context.Context, operatorID, sessionID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "race_command":
		var req RaceCommandParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		caller := h.caller(operatorID, req.PlayerID, req.PlayerName)
		reply := h.svc.Commands.Execute(ctx, caller, req.Command)
		resp := CommandResponse{Lines: reply.Lines, OK: reply.Err == nil}
		if reply.Err != nil {
			resp.Error = MapError(reply.Err)
			h.logger.Debug("race command failed", "operator_id", operatorID, "session_id", sessionID, "player_id", caller.ID, "error", reply.Err)
		}
		return resp, nil
	case "connect_player":
		var req ConnectPlayerParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.PlayerID == "" {
			return nil, mapError(race.ErrInvalidInput)
		}
		h.svc.Players.Connect(player.Player{ID: req.PlayerID, Name: req.Name})
		if req.Position != nil {
			h.svc.Players.UpdatePosition(req.PlayerID, *req.Position)
		}
		p, _ := h.svc.Players.Lookup(req.PlayerID)
		return ConnectPlayerResponse{Player: p, Players: len(h.svc.Players.Connected())}, nil
	case "disconnect_player":
		var req DisconnectPlayerParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		h.svc.Players.Disconnect(req.PlayerID)
		return map[string]bool{"ok": true}, nil
	case "report_position":
		var req ReportPositionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.reportPosition(ctx, req)
	case "list_races":
		return ListRacesResponse{Races: h.svc.Definitions.List()}, nil
	case "get_race":
		var req GetRaceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		def, err := h.svc.Definitions.Get(req.Name)
		if err != nil {
			return nil, mapError(err)
		}
		return def, nil
	case "race_status":
		return h.svc.Races.Status(), nil
	case "race_positions":
		standings, err := h.svc.Races.Positions()
		if err != nil {
			return nil, mapError(err)
		}
		return PositionsResponse{Standings: standings}, nil
	case "get_stats":
		var req GetStatsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		id := req.PlayerID
		if id == "" {
			id = operatorID
		}
		return StatsResponse{
			PlayerID:  id,
			Wins:      h.svc.Stats.Wins(id),
			HasRecord: h.svc.Stats.HasRecord(id),
		}, nil
	case "get_leaderboard":
		var req GetLeaderboardParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Limit <= 0 {
			req.Limit = defaultLeaderboardSize
		}
		return h.svc.Stats.Leaderboard(req.Limit), nil
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		opts := activity.ListActivityOptions{
			RaceName:  req.RaceName,
			SessionID: req.SessionID,
			PlayerID:  req.PlayerID,
			Limit:     req.Limit,
			Offset:    req.Offset,
		}
		if req.Type != nil {
			t := activity.ActivityType(*req.Type)
			opts.ActivityType = &t
		}
		entries, err := h.svc.Activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, mapError(err)
		}
		return ActivityResponse{Entries: entries}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func (h *Handler) reportPosition(ctx context.Context, req ReportPositionParams) (ReportPositionResponse, error) {
	pos := course.Vec3{X: req.X, Y: req.Y, Z: req.Z}
	if !h.svc.Players.UpdatePosition(req.PlayerID, pos) {
		return ReportPositionResponse{}, mapError(errPlayerNotConnected)
	}
	progress, err := h.svc.Races.ReportPosition(ctx, req.PlayerID, pos)
	switch {
	case err == nil:
		return ReportPositionResponse{Tracked: true, Progress: progress}, nil
	case errors.Is(err, race.ErrNoActiveRace), errors.Is(err, race.ErrRaceNotStarted), errors.Is(err, race.ErrNotParticipant):
		return ReportPositionResponse{Tracked: true}, nil
	default:
		return ReportPositionResponse{}, mapError(err)
	}
}

// caller resolves who a command runs as. Connected players keep their display name.
func (h *Handler) caller(operatorID, playerID, name string) player.Player {
	if playerID == "" {
		playerID = operatorID
	}
	p, ok := h.svc.Players.Lookup(playerID)
	if !ok {
		p = player.Player{ID: playerID, Name: playerID}
	}
	if name != "" {
		p.Name = name
	}
	return p
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error()}
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
