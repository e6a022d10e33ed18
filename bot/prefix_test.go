package bot

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestParseAmountArg(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		amount int64
		ok     bool
	}{
		{name: "plain number", args: []string{"5000"}, amount: 5000, ok: true},
		{name: "won suffix stripped", args: []string{"5000원"}, amount: 5000, ok: true},
		{name: "no args", args: nil, ok: false},
		{name: "zero rejected", args: []string{"0"}, ok: false},
		{name: "negative rejected", args: []string{"-100"}, ok: false},
		{name: "not a number", args: []string{"만원"}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, ok := parseAmountArg(tt.args)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

func TestPrefixTransferWithMentionButNoArgs(t *testing.T) {
	// A reply that pings the recipient produces a mention with an empty
	// argument list; the handler must answer with usage, not panic.
	b := &Bot{}
	m := &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Author:   &discordgo.User{ID: "100", Username: "sender"},
			Mentions: []*discordgo.User{{ID: "200", Username: "receiver"}},
		},
	}

	var replied string
	reply := func(text string) { replied = text }

	assert.NotPanics(t, func() {
		b.handlePrefixBank(context.Background(), m, "송금", nil, 1, 100, reply)
	})
	assert.Equal(t, "사용법: `저스트 송금 @멤버 <금액>`", replied)
}

func TestPrefixTransferWithoutMention(t *testing.T) {
	b := &Bot{}
	m := &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Author: &discordgo.User{ID: "100", Username: "sender"},
		},
	}

	var replied string
	b.handlePrefixBank(context.Background(), m, "송금", []string{"5000"}, 1, 100, func(text string) {
		replied = text
	})
	assert.Equal(t, "사용법: `저스트 송금 @멤버 <금액>`", replied)
}
