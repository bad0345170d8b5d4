package command

// usage lists every subcommand, one per line.
var usage = []string{
	"Available commands:",
	"/race create - Start creating a race.",
	"/race set {name|min|max|seconds|laps} {value} - Configure the race being created.",
	"/race set finish radius {value} - Place the finish point where you stand.",
	"/race set checkpoint radius {value} - Add a checkpoint where you stand.",
	"/race edit {name} - Edit a saved race.",
	"/race edit finish radius {value} - Change the finish radius.",
	"/race edit checkpoint {index} radius {value} - Change a checkpoint radius.",
	"/race save - Save the race being created or edited.",
	"/race cancel - Discard the race being created or edited.",
	"/race list - List saved races.",
	"/race start {name} - Open a saved race for joining.",
	"/race join - Join the open race.",
	"/race positions - Show current positions.",
	"/race status - Show the race state.",
	"/race stats [top] - Show your wins or the leaderboard.",
	"/race end [player] - Finish the running race.",
	"/race abort - Cancel the running race.",
}

// Usage returns the help text.
func Usage() []string {
	out := make([]string, len(usage))
	copy(out, usage)
	return out
}
