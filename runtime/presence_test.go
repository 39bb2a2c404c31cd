package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresence_MarkOnline_Idempotent(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()

	// When the same username is marked online twice
	presence.MarkOnline("alice")
	presence.MarkOnline("alice")

	// Then it is online exactly once
	req.True(presence.IsOnline("alice"))
	req.Len(presence.Online(), 1)
}

func TestPresence_MarkOffline(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	presence.MarkOnline("alice")

	// When the user goes offline, twice is harmless
	presence.MarkOffline("alice")
	presence.MarkOffline("alice")

	// Then the user is gone
	req.False(presence.IsOnline("alice"))
	req.Empty(presence.Online())
}
