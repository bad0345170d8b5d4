package mcp

import (
	"context"
	"strings"

	"github.com/rpggio/racekeeper/internal/command"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `racekeeper runs one race at a time inside a shared world.

Core concepts:
- Race definition: a saved template (name, min/max players, laps, time limit, finish point, ordered checkpoints).
- Authoring slot: at most one definition is being created or edited at once. Nothing is stored until save.
- Race slot: at most one race session. States are idle, joining and active. Finished or cancelled races fold back to idle.
- Lobby timers: the first joiner arms a wait timer; reaching the minimum roster arms an auto-start countdown.

Rules of engagement:
1) Players must be connected (connect_player) before they author or race, and must report positions
   (report_position) so checkpoints and laps can be tracked.
2) Drive the game with race_command, exactly as a player would type '/race ...' in chat.
3) Use race_status, race_positions, list_races and get_race for cheap reads.
4) Use get_recent_activity to see what happened without replaying commands.

Docs:
- racekeeper://docs/index
- racekeeper://docs/commands
- racekeeper://docs/lifecycle
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "racekeeper://docs/index",
		Name:        "docs_index",
		Title:       "racekeeper docs index",
		Description: "Entry point: which tool to call when.",
		Content: `# racekeeper docs

## Hosting a race in five calls

1. ` + "`connect_player`" + ` for every participant (include a position when known).
2. ` + "`race_command`" + ` with ` + "`start <name>`" + ` to open a saved race.
3. ` + "`race_command`" + ` with ` + "`join`" + ` and ` + "`player_id`" + ` for each racer.
4. ` + "`report_position`" + ` as racers move. Progress comes back with every report.
5. ` + "`race_positions`" + ` for the live ranking; ` + "`get_leaderboard`" + ` afterwards.

## More

- ` + "`racekeeper://docs/commands`" + ` lists every '/race' subcommand.
- ` + "`racekeeper://docs/lifecycle`" + ` explains states and timers.
`,
	},
	{
		URI:         "racekeeper://docs/commands",
		Name:        "docs_commands",
		Title:       "Race commands",
		Description: "Every '/race' subcommand accepted by race_command.",
		Content:     "# Race commands\n\n" + strings.Join(command.Usage()[1:], "\n") + "\n",
	},
	{
		URI:         "racekeeper://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Race lifecycle",
		Description: "States, timers and how a winner is decided.",
		Content: `# Race lifecycle

` + "`idle -> joining -> active -> idle`" + `

- ` + "`start <name>`" + ` snapshots the saved definition. Later edits do not affect the running race.
- The first join arms the wait timer (default 300 s). If the minimum roster is not reached in time the race is cancelled.
- When the roster reaches the minimum the wait timer is stopped and the auto-start countdown (default 60 s) is armed.
- Joining is closed once the race is active or the roster is full.
- A lap is completed when a racer has passed every checkpoint in order and then enters the finish sphere.
- The first racer to complete all laps wins. With a time limit, the leader wins when time runs out
  provided they completed at least one lap.
- ` + "`end [player]`" + ` finishes the race by hand and records the win; ` + "`abort`" + ` cancels it.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
