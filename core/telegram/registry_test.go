package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryLookupByAlias(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/catalog", Command{Handler: noop, Description: "Catalog", Aliases: []string{"🛍 Catalog"}}))
	require.NoError(t, reg.RegisterCommand("/stats", Command{Handler: noop, Description: "Stats", AdminOnly: true}))

	name, _, ok := reg.LookupCommand("🛍 Catalog")
	require.True(t, ok)
	assert.Equal(t, "/catalog", name)

	name, cmd, ok := reg.LookupCommand("stats")
	require.True(t, ok)
	assert.Equal(t, "/stats", name)
	assert.True(t, cmd.AdminOnly)

	_, _, ok = reg.LookupCommand("hello")
	assert.False(t, ok)
}

func TestRegistryRejectsInvalidAndDuplicates(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.RegisterCommand("start", Command{Handler: noop, Description: "x"}))
	assert.Error(t, reg.RegisterCommand("/start", Command{Description: "x"}))
	require.NoError(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "x", Aliases: []string{"🏠 Main menu"}}))
	assert.Error(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "x"}))
	assert.Error(t, reg.RegisterCommand("/home", Command{Handler: noop, Description: "x", Aliases: []string{"🏠 Main menu"}}))

	require.NoError(t, reg.RegisterCallback("checkout", noop))
	assert.Error(t, reg.RegisterCallback("checkout", noop))
	assert.Equal(t, []string{"checkout"}, reg.ListCallbacks())
}

func TestRegistryListCommandsHidesAdmin(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "Start"}))
	require.NoError(t, reg.RegisterCommand("/admin", Command{Handler: noop, Description: "Admin", AdminOnly: true}))
	require.NoError(t, reg.RegisterCommand("/cart", Command{Handler: noop, Description: "Cart"}))

	visible := reg.ListCommands(true)
	require.Len(t, visible, 2)
	assert.Equal(t, "cart", visible[0].Text)
	assert.Equal(t, "start", visible[1].Text)
	assert.Len(t, reg.ListCommands(false), 3)
}
