package mcp

import (
	"context"
	"encoding/json"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
	ReadOnly    bool
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func numberProp(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func integerProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

// buildToolCatalog returns all available MCP tools.
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Commands
		{
			Name:        "race_command",
			Description: "Run a '/race' chat command (create, set, edit, save, cancel, list, start, join, positions, status, stats, end, abort) as a player and return the reply lines",
			InputSchema: objectSchema(map[string]any{
				"command":     stringProp("Command text, with or without the leading '/race', e.g. 'start harbor'"),
				"player_id":   stringProp("Player issuing the command (defaults to the authenticated operator)"),
				"player_name": stringProp("Display name override for the player"),
			}, "command"),
		},

		// Presence
		{
			Name:        "connect_player",
			Description: "Register a player as connected so they receive announcements and can author or race",
			InputSchema: objectSchema(map[string]any{
				"player_id": stringProp("Stable player identifier"),
				"name":      stringProp("Display name"),
				"position": objectSchema(map[string]any{
					"x": numberProp("X coordinate"),
					"y": numberProp("Y coordinate"),
					"z": numberProp("Z coordinate"),
				}),
			}, "player_id"),
		},
		{
			Name:        "disconnect_player",
			Description: "Drop a player connection",
			InputSchema: objectSchema(map[string]any{
				"player_id": stringProp("Player identifier"),
			}, "player_id"),
		},
		{
			Name:        "report_position",
			Description: "Report a player's world position; advances checkpoint and lap progress when the player is racing",
			InputSchema: objectSchema(map[string]any{
				"player_id": stringProp("Player identifier"),
				"x":         numberProp("X coordinate"),
				"y":         numberProp("Y coordinate"),
				"z":         numberProp("Z coordinate"),
			}, "player_id", "x", "y", "z"),
		},

		// Definitions
		{
			Name:        "list_races",
			Description: "List saved race names in alphabetical order",
			InputSchema: objectSchema(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "get_race",
			Description: "Get a saved race definition including its course",
			InputSchema: objectSchema(map[string]any{
				"name": stringProp("Race name"),
			}, "name"),
			ReadOnly: true,
		},

		// Session
		{
			Name:        "race_status",
			Description: "Get the state of the race slot: idle, joining or active, with the roster",
			InputSchema: objectSchema(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "race_positions",
			Description: "Get ranked standings of the running race",
			InputSchema: objectSchema(map[string]any{}),
			ReadOnly:    true,
		},

		// Stats
		{
			Name:        "get_stats",
			Description: "Get total wins for a player",
			InputSchema: objectSchema(map[string]any{
				"player_id": stringProp("Player identifier (defaults to the authenticated operator)"),
			}),
			ReadOnly: true,
		},
		{
			Name:        "get_leaderboard",
			Description: "Get players ranked by wins",
			InputSchema: objectSchema(map[string]any{
				"limit": integerProp("Maximum number of entries (default 10)"),
			}),
			ReadOnly: true,
		},

		// Activity
		{
			Name:        "get_recent_activity",
			Description: "Get recent race activity, newest first",
			InputSchema: objectSchema(map[string]any{
				"race_name":  stringProp("Filter by race name"),
				"session_id": stringProp("Filter by race session"),
				"player_id":  stringProp("Filter by player"),
				"type":       stringProp("Filter by activity type, e.g. race_finished"),
				"limit":      integerProp("Maximum number of entries"),
				"offset":     integerProp("Number of entries to skip"),
			}),
			ReadOnly: true,
		},
	}
}

// registerTools adds every catalog tool to the server, dispatching through h.
func registerTools(server *sdkmcp.Server, h *Handler) {
	for _, def := range buildToolCatalog() {
		def := def
		tool := &sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}
		if def.ReadOnly {
			tool.Annotations = &sdkmcp.ToolAnnotations{ReadOnlyHint: true}
		}
		server.AddTool(tool, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := h.Handle(ctx, getOperatorID(ctx), getSessionID(ctx), def.Name, args)
			if err != nil {
				return errorResult(err), nil
			}
			return textResult(result)
		})
	}
}

func textResult(payload any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func errorResult(err error) *sdkmcp.CallToolResult {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = &APIError{Code: "INTERNAL", Message: err.Error()}
	}
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
