package moderation

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"justbot/models"
)

// maxTrackedSpammers caps the spam tracker so a large guild cannot grow the
// map without bound. When full, stale entries are evicted first; a still-full
// tracker stops admitting new keys until entries age out.
const maxTrackedSpammers = 10000

var inviteLinkPattern = regexp.MustCompile(`(?i)(discord\.gg|discord(?:app)?\.com/invite)/[a-zA-Z0-9-]+`)

type spamKey struct {
	guildID string
	userID  string
}

type spamEntry struct {
	timestamps []time.Time
	messageIDs []string
}

// prune drops tracked messages older than the window.
func (e *spamEntry) prune(cutoff time.Time) {
	keep := 0
	for keep < len(e.timestamps) && !e.timestamps[keep].After(cutoff) {
		keep++
	}
	e.timestamps = e.timestamps[keep:]
	e.messageIDs = e.messageIDs[keep:]
}

type spamTracker struct {
	mu         sync.Mutex
	entries    map[spamKey]*spamEntry
	maxEntries int
}

func newSpamTracker(maxEntries int) *spamTracker {
	return &spamTracker{
		entries:    make(map[spamKey]*spamEntry),
		maxEntries: maxEntries,
	}
}

// record adds a message to the per-user window and reports whether the count
// within the window has reached the threshold. When it has, the tracked
// message IDs are returned for deletion and the window is reset.
func (t *spamTracker) record(key spamKey, messageID string, now time.Time, window time.Duration, threshold int) (burst []string, triggered bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-window)
	entry, ok := t.entries[key]
	if !ok {
		if len(t.entries) >= t.maxEntries {
			t.evictStale(cutoff)
		}
		if len(t.entries) >= t.maxEntries {
			return nil, false
		}
		entry = &spamEntry{}
		t.entries[key] = entry
	}

	entry.prune(cutoff)
	entry.timestamps = append(entry.timestamps, now)
	entry.messageIDs = append(entry.messageIDs, messageID)

	if len(entry.timestamps) >= threshold {
		burst = entry.messageIDs
		delete(t.entries, key)
		return burst, true
	}
	return nil, false
}

// evictStale removes entries whose newest message is older than the cutoff.
// Caller holds the lock.
func (t *spamTracker) evictStale(cutoff time.Time) {
	for key, entry := range t.entries {
		if len(entry.timestamps) == 0 || entry.timestamps[len(entry.timestamps)-1].Before(cutoff) {
			delete(t.entries, key)
		}
	}
}

// FilterMessage applies the invite and spam filters to an incoming message.
// It returns true when the message was deleted and further handling should
// stop. Administrators and bots are exempt.
func (f *Feature) FilterMessage(s *discordgo.Session, m *discordgo.MessageCreate, config *models.GuildConfig) bool {
	if m.Author.Bot || m.GuildID == "" {
		return false
	}
	if m.Member != nil && m.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return false
	}

	if config.InviteFilterEnabled && inviteLinkPattern.MatchString(m.Content) {
		if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			log.WithError(err).WithField("message_id", m.ID).Warn("Failed to delete invite link message")
			return false
		}
		if _, err := s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("🔗 %s님, 초대 링크는 올릴 수 없습니다.", m.Author.Mention())); err != nil {
			log.WithError(err).Debug("Failed to post invite filter notice")
		}
		return true
	}

	if config.SpamFilterEnabled {
		threshold := config.SpamThreshold
		if threshold <= 0 {
			threshold = models.DefaultSpamThreshold
		}
		windowSeconds := config.SpamWindowSeconds
		if windowSeconds <= 0 {
			windowSeconds = models.DefaultSpamWindowSeconds
		}

		key := spamKey{guildID: m.GuildID, userID: m.Author.ID}
		burst, triggered := f.spam.record(key, m.ID, time.Now(), time.Duration(windowSeconds)*time.Second, threshold)
		if triggered {
			f.punishSpam(s, m, burst)
			return true
		}
	}
	return false
}

// punishSpam deletes the burst and warns the sender in-channel.
func (f *Feature) punishSpam(s *discordgo.Session, m *discordgo.MessageCreate, burst []string) {
	if err := s.ChannelMessagesBulkDelete(m.ChannelID, burst); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"guild_id": m.GuildID,
			"user_id":  m.Author.ID,
		}).Warn("Failed to bulk delete spam burst")
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("🚫 %s님, 도배가 감지되어 메시지를 삭제했습니다.", m.Author.Mention())); err != nil {
		log.WithError(err).Debug("Failed to post spam filter notice")
	}

	log.WithFields(log.Fields{
		"guild_id": m.GuildID,
		"user_id":  m.Author.ID,
		"messages": len(burst),
	}).Info("Spam burst removed")
}

// IsBlacklistedAuthor reports whether the message author is on the global
// blacklist. Used by the message router to drop prefix commands early.
func (f *Feature) IsBlacklistedAuthor(ctx context.Context, authorID int64) bool {
	entry, err := f.moderationService.IsBlacklisted(ctx, authorID)
	if err != nil {
		log.WithError(err).WithField("user_id", authorID).Warn("Failed to check blacklist")
		return false
	}
	return entry != nil
}
