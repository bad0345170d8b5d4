package mcp

import (
	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/race"
	"github.com/rpggio/racekeeper/internal/player"
)

type RaceCommandParams struct {
	PlayerID   string `json:"player_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Command    string `json:"command"`
}

type ConnectPlayerParams struct {
	PlayerID string       `json:"player_id"`
	Name     string       `json:"name,omitempty"`
	Position *course.Vec3 `json:"position,omitempty"`
}

type DisconnectPlayerParams struct {
	PlayerID string `json:"player_id"`
}

type ReportPositionParams struct {
	PlayerID string  `json:"player_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
}

type GetRaceParams struct {
	Name string `json:"name"`
}

type GetStatsParams struct {
	PlayerID string `json:"player_id"`
}

type GetLeaderboardParams struct {
	Limit int `json:"limit,omitempty"`
}

type GetRecentActivityParams struct {
	RaceName  string  `json:"race_name,omitempty"`
	SessionID *string `json:"session_id,omitempty"`
	PlayerID  *string `json:"player_id,omitempty"`
	Type      *string `json:"type,omitempty"`
	Limit     int     `json:"limit,omitempty"`
	Offset    int     `json:"offset,omitempty"`
}

type CommandResponse struct {
	Lines []string  `json:"lines"`
	OK    bool      `json:"ok"`
	Error *APIError `json:"error,omitempty"`
}

type ConnectPlayerResponse struct {
	Player  player.Player `json:"player"`
	Players int           `json:"players_online"`
}

type ReportPositionResponse struct {
	Tracked  bool                 `json:"tracked"`
	Progress *race.ProgressResult `json:"progress,omitempty"`
}

type ListRacesResponse struct {
	Races []string `json:"races"`
}

type StatsResponse struct {
	PlayerID  string `json:"player_id"`
	Wins      int    `json:"wins"`
	HasRecord bool   `json:"has_record"`
}

type PositionsResponse struct {
	Standings []race.Standing `json:"standings"`
}

type ActivityResponse struct {
	Entries []activity.ActivityEntry `json:"entries"`
}
