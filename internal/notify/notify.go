// Package notify delivers text messages to players.
package notify

import "log/slog"

// Gateway delivers messages. Delivery is fire-and-forget.
type Gateway interface {
	Notify(playerID, text string)
	NotifyAll(playerIDs []string, text string)
}

// LogGateway writes every message to a logger. It is used when no player
// transport is attached, e.g. in stdio mode.
type LogGateway struct {
	logger *slog.Logger
}

// NewLogGateway creates a gateway that logs messages at info level.
func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Notify(playerID, text string) {
	if g.logger == nil {
		return
	}
	g.logger.Info("notify", "player_id", playerID, "text", text)
}

func (g *LogGateway) NotifyAll(playerIDs []string, text string) {
	if g.logger == nil {
		return
	}
	g.logger.Info("notify all", "recipients", len(playerIDs), "text", text)
}

// Multi fans messages out to several gateways.
type Multi []Gateway

func (m Multi) Notify(playerID, text string) {
	for _, g := range m {
		g.Notify(playerID, text)
	}
}

func (m Multi) NotifyAll(playerIDs []string, text string) {
	for _, g := range m {
		g.NotifyAll(playerIDs, text)
	}
}
