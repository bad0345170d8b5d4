package functional_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/race"
	"github.com/rpggio/racekeeper/internal/mcp"
	"github.com/rpggio/racekeeper/internal/player"
	"github.com/rpggio/racekeeper/internal/testserver"
	"github.com/rpggio/racekeeper/internal/transport"
	"github.com/stretchr/testify/require"
)

type bearerTransport struct {
	token string
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(req)
}

func connectMCP(t *testing.T, ts *testserver.TestServer, token string) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{token: token}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text := result.Content[0].(*sdkmcp.TextContent).Text
	require.False(t, result.IsError, "tool %s: %s", name, text)
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text), out))
	}
}

func dialPlayer(t *testing.T, ts *testserver.TestServer, id string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.WSURL(id, id), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool {
		_, ok := ts.Players.Lookup(id)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

// readUntil reads frames until one satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, match func(transport.ServerMessage) bool) transport.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg transport.ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func noticeContaining(text string) func(transport.ServerMessage) bool {
	return func(m transport.ServerMessage) bool {
		return m.Type == transport.MessageNotice && strings.Contains(m.Text, text)
	}
}

func authorRace(t *testing.T, ts *testserver.TestServer, name string) {
	t.Helper()
	ts.Players.Connect(player.Player{ID: "builder", Name: "Builder"})
	ts.Players.UpdatePosition("builder", course.Vec3{})
	for _, cmd := range []string{
		"create",
		"set name " + name,
		"set min 2",
		"set max 2",
		"set laps 1",
		"set finish radius 5",
	} {
		require.True(t, ts.Command(t, "builder", cmd).OK, cmd)
	}
	ts.Players.UpdatePosition("builder", course.Vec3{X: 100})
	require.True(t, ts.Command(t, "builder", "set checkpoint radius 5").OK)
	require.True(t, ts.Command(t, "builder", "save").OK)
}

func TestFunctional_Authentication(t *testing.T) {
	ts := testserver.New(t, "secret", "op1")

	var status race.Status
	require.Nil(t, ts.Call(t, "race_status", nil, &status))
	require.Equal(t, race.StateIdle, status.State)

	resp, err := http.Post(ts.Server.URL+"/rpc", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, wsResp, err := websocket.DefaultDialer.Dial("ws"+ts.Server.URL[len("http"):]+"/ws?player_id=p1", nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, wsResp.StatusCode)
}

func TestFunctional_RaceOverWebsocket(t *testing.T) {
	ts := testserver.New(t, "secret", "op1")
	authorRace(t, ts, "harbor")

	alice := dialPlayer(t, ts, "alice")
	bob := dialPlayer(t, ts, "bob")

	require.NoError(t, alice.WriteJSON(transport.ClientMessage{Type: transport.MessageCommand, Command: "/race start harbor"}))
	readUntil(t, alice, func(m transport.ServerMessage) bool { return m.Type == transport.MessageReply && m.OK })
	readUntil(t, bob, noticeContaining("Race 'harbor' is open!"))

	for _, conn := range []*websocket.Conn{alice, bob} {
		require.NoError(t, conn.WriteJSON(transport.ClientMessage{Type: transport.MessageCommand, Command: "join"}))
		readUntil(t, conn, func(m transport.ServerMessage) bool { return m.Type == transport.MessageReply })
	}
	readUntil(t, alice, noticeContaining("Minimum of 2 players reached!"))

	ts.Clock.Advance(testserver.Timing.AutoStart)
	readUntil(t, bob, noticeContaining("is starting now!"))

	// Checkpoint at x=100, finish at the origin.
	require.NoError(t, bob.WriteJSON(transport.ClientMessage{Type: transport.MessagePosition, X: 100}))
	readUntil(t, bob, noticeContaining("Checkpoint 1/1 passed."))
	require.NoError(t, bob.WriteJSON(transport.ClientMessage{Type: transport.MessagePosition}))
	readUntil(t, alice, noticeContaining("The winner is bob"))

	require.Equal(t, race.StateIdle, ts.Races.Status().State)

	// The win and the activity entry land after the announcement goes out.
	typ := string(activity.TypeRaceFinished)
	var entries mcp.ActivityResponse
	require.Eventually(t, func() bool {
		entries = mcp.ActivityResponse{}
		return ts.Stats.Wins("bob") == 1 &&
			ts.Call(t, "get_recent_activity", mcp.GetRecentActivityParams{Type: &typ}, &entries) == nil &&
			len(entries.Entries) == 1
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal(t, "harbor", entries.Entries[0].RaceName)
}

func TestFunctional_RPCErrors(t *testing.T) {
	ts := testserver.New(t, "secret", "op1")

	rpcErr := ts.Call(t, "get_race", mcp.GetRaceParams{Name: "nowhere"}, nil)
	require.NotNil(t, rpcErr)
	require.Equal(t, transport.ErrApplication, rpcErr.Code)

	rpcErr = ts.Call(t, "fly", nil, nil)
	require.NotNil(t, rpcErr)
	require.Equal(t, transport.ErrMethodNotFound, rpcErr.Code)

	resp := ts.Command(t, "op1", "start nowhere")
	require.False(t, resp.OK)
	require.Equal(t, "RACE_NOT_FOUND", resp.Error.Code)
}

func TestFunctional_MCPProtocol(t *testing.T) {
	ts := testserver.New(t, "secret", "op1")
	authorRace(t, ts, "harbor")
	session := connectMCP(t, ts, "secret")

	init := session.InitializeResult()
	require.NotNil(t, init)
	require.Equal(t, "racekeeper", init.ServerInfo.Name)

	var races mcp.ListRacesResponse
	callTool(t, session, "list_races", nil, &races)
	require.Equal(t, []string{"harbor"}, races.Races)

	var joined mcp.CommandResponse
	callTool(t, session, "race_command", map[string]any{"command": "start harbor"}, &joined)
	require.True(t, joined.OK)

	callTool(t, session, "connect_player", map[string]any{"player_id": "carol", "name": "Carol"}, nil)
	callTool(t, session, "race_command", map[string]any{"command": "join", "player_id": "carol"}, &joined)
	require.Equal(t, []string{"You joined the race. Players: 1/2."}, joined.Lines)

	var status race.Status
	callTool(t, session, "race_status", nil, &status)
	require.Equal(t, race.StateJoining, status.State)
	require.Len(t, status.Participants, 1)

	read, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "racekeeper://docs/lifecycle"})
	require.NoError(t, err)
	require.Contains(t, read.Contents[0].Text, "Race lifecycle")
}

func TestFunctional_MCPRejectsUnknownToken(t *testing.T) {
	ts := testserver.New(t, "secret", "op1")
	session := connectMCP(t, ts, "wrong")

	_, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "race_status"})
	require.Error(t, err)
}
