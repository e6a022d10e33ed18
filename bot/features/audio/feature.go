package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"justbot/bot/common"
)

const extractTimeout = 30 * time.Second

// Feature handles voice channel playback: join, leave, play a single track,
// stop. There is no queue; playing while a track is running replaces it.
type Feature struct {
	extractor Extractor

	mu      sync.Mutex
	players map[string]*guildPlayer
}

func New(extractor Extractor) *Feature {
	return &Feature{
		extractor: extractor,
		players:   make(map[string]*guildPlayer),
	}
}

// HandleCommand routes an audio slash command to its handler
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "들어와":
		f.handleJoin(s, i)
	case "나가":
		f.handleLeave(s, i)
	case "재생":
		f.handlePlay(s, i)
	case "정지":
		f.handleStop(s, i)
	}
}

func (f *Feature) player(guildID string) *guildPlayer {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[guildID]
	if !ok {
		p = &guildPlayer{}
		f.players[guildID] = p
	}
	return p
}

// callerVoiceChannel finds the voice channel the invoking member is in.
func callerVoiceChannel(s *discordgo.Session, guildID, userID string) (string, bool) {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return "", false
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID, true
		}
	}
	return "", false
}

func (f *Feature) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channelID, ok := callerVoiceChannel(s, i.GuildID, i.Member.User.ID)
	if !ok {
		common.RespondWithError(s, i, "먼저 음성 채널에 들어가주세요.")
		return
	}

	if _, err := s.ChannelVoiceJoin(i.GuildID, channelID, false, true); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to join voice channel"), false)
		return
	}

	if err := common.RespondWithSuccess(s, i, fmt.Sprintf("<#%s> 채널에 들어왔습니다.", channelID), false); err != nil {
		log.WithError(err).Error("Failed to respond to voice join")
	}
}

func (f *Feature) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.player(i.GuildID).stop()

	vc, ok := s.VoiceConnections[i.GuildID]
	if !ok {
		common.RespondWithError(s, i, "음성 채널에 있지 않습니다.")
		return
	}
	if err := vc.Disconnect(); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to leave voice channel"), false)
		return
	}

	if err := common.RespondWithSuccess(s, i, "음성 채널에서 나갔습니다.", false); err != nil {
		log.WithError(err).Error("Failed to respond to voice leave")
	}
}

func (f *Feature) handlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "검색어" {
			query = opt.StringValue()
		}
	}
	if query == "" {
		common.RespondWithError(s, i, "재생할 URL 또는 검색어를 입력해주세요.")
		return
	}

	vc, ok := s.VoiceConnections[i.GuildID]
	if !ok {
		channelID, inVoice := callerVoiceChannel(s, i.GuildID, i.Member.User.ID)
		if !inVoice {
			common.RespondWithError(s, i, "먼저 음성 채널에 들어가주세요.")
			return
		}
		var err error
		vc, err = s.ChannelVoiceJoin(i.GuildID, channelID, false, true)
		if err != nil {
			common.HandleError(s, i, common.NewSystemError(err, "failed to join voice channel"), false)
			return
		}
	}

	// extraction can take seconds, keep it off the gateway goroutine
	if err := common.DeferResponse(s, i, false); err != nil {
		log.WithError(err).Error("Failed to defer play response")
		return
	}

	go f.extractAndPlay(s, i, vc, query)
}

func (f *Feature) extractAndPlay(s *discordgo.Session, i *discordgo.InteractionCreate, vc *discordgo.VoiceConnection, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), extractTimeout)
	defer cancel()

	track, err := f.extractor.Extract(ctx, query)
	if err != nil {
		log.WithError(err).WithField("query", query).Warn("Audio extraction failed")
		common.FollowUpWithError(s, i, "음원을 찾을 수 없습니다.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎵 재생 시작",
		Description: fmt.Sprintf("**%s**", track.Title),
		Color:       common.ColorPrimary,
	}
	if track.Duration > 0 {
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "길이", Value: track.Duration.Round(time.Second).String(), Inline: true},
		}
	}
	if _, err := common.FollowUpWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Failed to announce track")
	}

	player := f.player(i.GuildID)
	streamCtx := player.start(track)
	if err := stream(streamCtx, vc, track); err != nil {
		log.WithError(err).WithField("track", track.Title).Warn("Playback failed")
	}
	player.finish(streamCtx)
}

func (f *Feature) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	player := f.player(i.GuildID)

	player.mu.Lock()
	playing := player.current != nil
	player.mu.Unlock()
	if !playing {
		common.RespondWithError(s, i, "재생 중인 음원이 없습니다.")
		return
	}

	player.stop()
	if err := common.RespondWithSuccess(s, i, "재생을 정지했습니다.", false); err != nil {
		log.WithError(err).Error("Failed to respond to stop")
	}
}

// StopAll cancels every running stream; called on shutdown.
func (f *Feature) StopAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		p.stop()
	}
}
