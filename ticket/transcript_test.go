package ticket

import (
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"ticket-bot/storage"
)

func TestBuildTranscriptHeader(t *testing.T) {
	created := time.Date(2026, 5, 2, 10, 30, 0, 0, time.UTC)
	tk := storage.Ticket{
		ChannelName: "trade-alice",
		RequesterID: "u1",
		ClaimedBy:   "staff1",
		CreatedAt:   created,
	}

	tr := BuildTranscript(tk, nil, "staff2")

	assert.Equal(t, fmt.Sprintf("trade-alice-%d.txt", created.Unix()), tr.Filename)
	assert.Contains(t, tr.Content, "Channel: #trade-alice")
	assert.Contains(t, tr.Content, "Opened by: <@u1>")
	assert.Contains(t, tr.Content, "Claimed by: <@staff1>")
	assert.Contains(t, tr.Content, "Closed by: <@staff2>")
}

func TestBuildTranscriptUnclaimed(t *testing.T) {
	tr := BuildTranscript(storage.Ticket{ChannelName: "x"}, nil, "staff1")
	assert.Contains(t, tr.Content, "Claimed by: (unclaimed)")
}

func TestBuildTranscriptMessages(t *testing.T) {
	ts := time.Date(2026, 5, 2, 10, 31, 0, 0, time.UTC)
	msgs := []*discordgo.Message{
		{
			Content:   "hello there",
			Author:    &discordgo.User{Username: "alice"},
			Timestamp: ts,
		},
		{
			// Embed-only bot message gets a placeholder line.
			Author:    &discordgo.User{Username: "bot", Bot: true},
			Embeds:    []*discordgo.MessageEmbed{{Title: "Trade Request"}},
			Timestamp: ts.Add(time.Second),
		},
		{
			Content:   "screenshot",
			Author:    &discordgo.User{Username: "bob"},
			Timestamp: ts.Add(2 * time.Second),
			Attachments: []*discordgo.MessageAttachment{
				{URL: "https://cdn.example/proof.png"},
			},
		},
	}

	tr := BuildTranscript(storage.Ticket{ChannelName: "x"}, msgs, "staff1")

	assert.Contains(t, tr.Content, "[2026-05-02 10:31:00] alice: hello there")
	assert.Contains(t, tr.Content, "bot: (embed/attachment)")
	assert.Contains(t, tr.Content, "attachment: https://cdn.example/proof.png")
}
