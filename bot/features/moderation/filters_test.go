package moderation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpamTracker_TriggersAtThreshold(t *testing.T) {
	tracker := newSpamTracker(100)
	key := spamKey{guildID: "1", userID: "2"}
	now := time.Now()
	window := 10 * time.Second

	for n := 0; n < 4; n++ {
		burst, triggered := tracker.record(key, fmt.Sprintf("msg-%d", n), now.Add(time.Duration(n)*time.Second), window, 5)
		assert.False(t, triggered)
		assert.Nil(t, burst)
	}

	burst, triggered := tracker.record(key, "msg-4", now.Add(4*time.Second), window, 5)
	require.True(t, triggered)
	assert.Len(t, burst, 5)
	assert.Equal(t, "msg-0", burst[0])
	assert.Equal(t, "msg-4", burst[4])

	// the window resets after a trigger
	_, triggered = tracker.record(key, "msg-5", now.Add(5*time.Second), window, 5)
	assert.False(t, triggered)
}

func TestSpamTracker_EvictsOldMessages(t *testing.T) {
	tracker := newSpamTracker(100)
	key := spamKey{guildID: "1", userID: "2"}
	now := time.Now()
	window := 10 * time.Second

	for n := 0; n < 4; n++ {
		tracker.record(key, fmt.Sprintf("old-%d", n), now.Add(time.Duration(n)*time.Second), window, 5)
	}

	// 20s later the old messages have aged out, so this is message 1 of 5
	_, triggered := tracker.record(key, "fresh", now.Add(20*time.Second), window, 5)
	assert.False(t, triggered)
	assert.Len(t, tracker.entries[key].messageIDs, 1)
}

func TestSpamTracker_CapsTrackedUsers(t *testing.T) {
	tracker := newSpamTracker(3)
	now := time.Now()
	window := 10 * time.Second

	for n := 0; n < 3; n++ {
		key := spamKey{guildID: "1", userID: fmt.Sprintf("user-%d", n)}
		tracker.record(key, "msg", now, window, 5)
	}
	require.Len(t, tracker.entries, 3)

	// tracker is full of fresh entries: the new key is not admitted
	overflow := spamKey{guildID: "1", userID: "overflow"}
	_, triggered := tracker.record(overflow, "msg", now.Add(time.Second), window, 5)
	assert.False(t, triggered)
	assert.Len(t, tracker.entries, 3)
	assert.NotContains(t, tracker.entries, overflow)

	// once the existing entries age out they are evicted to make room
	_, triggered = tracker.record(overflow, "msg", now.Add(30*time.Second), window, 5)
	assert.False(t, triggered)
	assert.Contains(t, tracker.entries, overflow)
}

func TestInviteLinkPattern(t *testing.T) {
	tests := []struct {
		content string
		match   bool
	}{
		{"join us at discord.gg/abc123", true},
		{"https://discord.com/invite/xyz", true},
		{"HTTPS://DISCORD.GG/LOUD", true},
		{"discordapp.com/invite/old-form", true},
		{"just a normal message", false},
		{"i love discord.com though", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.match, inviteLinkPattern.MatchString(tt.content), tt.content)
	}
}
