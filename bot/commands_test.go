package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"justbot/web"
)

// The dashboard's command toggle list must use the names the slash commands
// are actually registered under, or its flags are never consulted.
func TestDashboardToggleListMatchesRegisteredCommands(t *testing.T) {
	registered := make(map[string]bool)
	for _, def := range commandDefinitions() {
		registered[def.Name] = true
	}

	for _, name := range web.ToggleableCommands {
		assert.True(t, registered[name], "toggle list entry %q is not a registered command", name)
	}
}
