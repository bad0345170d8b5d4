package stats

// Standing is one row of the win leaderboard.
type Standing struct {
	PlayerID string `json:"player_id"`
	Wins     int    `json:"wins"`
}
