package ticket

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"ticket-bot/storage"
)

// Transcript is the write-once archival artifact of a closed ticket.
type Transcript struct {
	Filename string
	Content  string
}

// BuildTranscript linearizes a ticket's message history, oldest first,
// into a text artifact. Content-less bot messages (embed or attachment
// only) get a placeholder so no line is blank.
func BuildTranscript(t storage.Ticket, msgs []*discordgo.Message, closedBy string) Transcript {
	var sb strings.Builder

	sb.WriteString("=== TICKET TRANSCRIPT ===\n")
	sb.WriteString(fmt.Sprintf("Channel: #%s\n", t.ChannelName))
	sb.WriteString(fmt.Sprintf("Opened by: <@%s> at %s\n", t.RequesterID, t.CreatedAt.Format("2006-01-02 15:04:05")))
	if t.ClaimedBy != "" {
		sb.WriteString(fmt.Sprintf("Claimed by: <@%s>\n", t.ClaimedBy))
	} else {
		sb.WriteString("Claimed by: (unclaimed)\n")
	}
	sb.WriteString(fmt.Sprintf("Closed by: <@%s>\n\n", closedBy))

	for _, m := range msgs {
		content := m.Content
		if content == "" && m.Author != nil && m.Author.Bot && (len(m.Embeds) > 0 || len(m.Attachments) > 0) {
			content = "(embed/attachment)"
		}
		name := "unknown"
		if m.Author != nil {
			name = m.Author.Username
		}
		ts := m.Timestamp.Format("2006-01-02 15:04:05")
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n", ts, name, content))
		for _, a := range m.Attachments {
			sb.WriteString(fmt.Sprintf("  attachment: %s\n", a.URL))
		}
	}

	return Transcript{
		Filename: fmt.Sprintf("%s-%d.txt", t.ChannelName, t.CreatedAt.Unix()),
		Content:  sb.String(),
	}
}
