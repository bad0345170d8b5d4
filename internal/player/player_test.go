package player_test

import (
	"testing"

	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/player"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ConnectDisconnect(t *testing.T) {
	r := player.NewRegistry()
	r.Connect(player.Player{ID: "b", Name: "Bea"})
	r.Connect(player.Player{ID: "a"})
	r.Connect(player.Player{ID: "a", Name: "Al"})

	require.Equal(t, []player.Player{{ID: "a", Name: "Al"}, {ID: "b", Name: "Bea"}}, r.Connected())

	r.Disconnect("a")
	_, ok := r.Lookup("a")
	require.True(t, ok, "second connection keeps player registered")

	r.Disconnect("a")
	_, ok = r.Lookup("a")
	require.False(t, ok)
}

func TestRegistry_Position(t *testing.T) {
	r := player.NewRegistry()
	require.False(t, r.UpdatePosition("a", course.Vec3{X: 1}))

	r.Connect(player.Player{ID: "a"})
	_, ok := r.Position("a")
	require.False(t, ok)

	require.True(t, r.UpdatePosition("a", course.Vec3{X: 1, Y: 2, Z: 3}))
	pos, ok := r.Position("a")
	require.True(t, ok)
	require.Equal(t, course.Vec3{X: 1, Y: 2, Z: 3}, pos)
}
