// Package testserver runs the full racekeeper HTTP stack for tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/racekeeper/internal/command"
	"github.com/rpggio/racekeeper/internal/config"
	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/rpggio/racekeeper/internal/domain/race"
	"github.com/rpggio/racekeeper/internal/domain/stats"
	"github.com/rpggio/racekeeper/internal/mcp"
	"github.com/rpggio/racekeeper/internal/notify"
	"github.com/rpggio/racekeeper/internal/player"
	"github.com/rpggio/racekeeper/internal/repository"
	"github.com/rpggio/racekeeper/internal/storage"
	"github.com/rpggio/racekeeper/internal/timer"
	"github.com/rpggio/racekeeper/internal/transport"
	"github.com/stretchr/testify/require"
)

// Timing used by test servers; the manual clock makes the values arbitrary.
var Timing = race.Timing{MinWait: 300 * time.Second, AutoStart: 60 * time.Second}

type TestServer struct {
	Server     *httptest.Server
	Backend    *storage.Backend
	Token      string
	OperatorID string

	Definitions *definition.Service
	Races       *race.Service
	Stats       *stats.Service
	Activity    *activity.Service
	Players     *player.Registry
	Hub         *transport.Hub
	Clock       *timer.Manual
	Inbox       *notify.Recorder
}

// New starts a server backed by in-memory sqlite.
func New(t *testing.T, token, operatorID string) *TestServer {
	return NewWithDriver(t, config.DriverSQLite, token, operatorID)
}

// NewWithDriver starts a server backed by the given in-memory storage driver.
func NewWithDriver(t *testing.T, driver, token, operatorID string) *TestServer {
	t.Helper()
	ctx := context.Background()

	backend, err := storage.Open(config.DBConfig{Driver: driver, Path: ":memory:"})
	require.NoError(t, err)

	ts := &TestServer{
		Backend:    backend,
		Token:      token,
		OperatorID: operatorID,
		Players:    player.NewRegistry(),
		Clock:      timer.NewManual(),
		Inbox:      &notify.Recorder{},
	}
	ts.Activity = activity.NewService(backend.Activity, nil)
	ts.Definitions = definition.NewService(backend.Definitions, ts.Activity, nil)
	ts.Stats = stats.NewService(backend.Stats, nil)
	require.NoError(t, ts.Definitions.Load(ctx))
	require.NoError(t, ts.Stats.Load(ctx))

	gateway := &notify.Deferred{}
	ts.Races = race.NewService(race.Deps{
		Definitions: ts.Definitions,
		Wins:        ts.Stats,
		Activity:    ts.Activity,
		Gateway:     gateway,
		Players:     ts.Players,
		Timers:      ts.Clock,
	}, Timing)
	dispatcher := command.NewDispatcher(ts.Definitions, ts.Races, ts.Stats, ts.Players, nil)
	ts.Hub = transport.NewHub(transport.HubConfig{
		Commands: dispatcher,
		Races:    ts.Races,
		Presence: ts.Players,
	})
	gateway.Bind(notify.Multi{ts.Inbox, ts.Hub})

	resolver := &repository.KeyResolver{Keys: backend.APIKeys}
	services := mcp.Services{
		Definitions: ts.Definitions,
		Races:       ts.Races,
		Stats:       ts.Stats,
		Activity:    ts.Activity,
		Commands:    dispatcher,
		Players:     ts.Players,
	}
	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      resolver,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	router := transport.NewRouter(transport.RouterOptions{
		Handler: mcp.NewHandler(services, nil),
		Hub:     ts.Hub,
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer }, nil,
		),
		Auth: transport.AuthMiddleware(resolver),
	})
	ts.Server = httptest.NewServer(router)

	require.NoError(t, ts.AddAPIKey(token, operatorID))

	t.Cleanup(func() {
		ts.Hub.Close()
		ts.Server.Close()
		_ = backend.Close()
	})

	return ts
}

// AddAPIKey registers token for operatorID.
func (ts *TestServer) AddAPIKey(token, operatorID string) error {
	return ts.Backend.APIKeys.CreateKey(context.Background(), repository.HashAPIKey(token), operatorID, "test")
}

// WSURL returns the websocket URL for a player connection.
func (ts *TestServer) WSURL(playerID, name string) string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") +
		"/ws?player_id=" + playerID + "&name=" + name + "&token=" + ts.Token
}

// Call invokes an RPC method and decodes the result into out. The JSON-RPC
// error, if any, is returned.
func (ts *TestServer) Call(t *testing.T, method string, params any, out any) *transport.Error {
	t.Helper()
	payload := map[string]any{"jsonrpc": "2.0", "method": method, "id": 1}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Result json.RawMessage  `json:"result"`
		Error  *transport.Error `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	if envelope.Error != nil {
		return envelope.Error
	}
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Result, out))
	}
	return nil
}

// Command runs a '/race' command over RPC as playerID.
func (ts *TestServer) Command(t *testing.T, playerID, input string) mcp.CommandResponse {
	t.Helper()
	var resp mcp.CommandResponse
	rpcErr := ts.Call(t, "race_command", mcp.RaceCommandParams{PlayerID: playerID, Command: input}, &resp)
	require.Nil(t, rpcErr)
	return resp
}
