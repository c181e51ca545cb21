package bot

import (
	"io"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Adapter exposes the discordgo session through the narrow capability
// surface the ticket and wizard packages consume.
type Adapter struct {
	s *discordgo.Session
}

func NewAdapter(s *discordgo.Session) *Adapter {
	return &Adapter{s: s}
}

func (a *Adapter) SendMessage(channelID, content string) (string, error) {
	m, err := a.s.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (a *Adapter) SendComplex(channelID string, msg *discordgo.MessageSend) (string, error) {
	m, err := a.s.ChannelMessageSendComplex(channelID, msg)
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (a *Adapter) SendFile(channelID, content, filename string, file io.Reader) error {
	_, err := a.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files:   []*discordgo.File{{Name: filename, ContentType: "text/plain", Reader: file}},
	})
	return err
}

func (a *Adapter) CreateChannel(guildID, parentID, name string, overwrites []*discordgo.PermissionOverwrite) (string, error) {
	ch, err := a.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (a *Adapter) DeleteChannel(channelID string) error {
	_, err := a.s.ChannelDelete(channelID)
	return err
}

func (a *Adapter) SetAccessRule(channelID, principalID string, kind discordgo.PermissionOverwriteType, allow, deny int64) error {
	return a.s.ChannelPermissionSet(channelID, principalID, kind, allow, deny)
}

func (a *Adapter) RemoveAccessRule(channelID, principalID string) error {
	return a.s.ChannelPermissionDelete(channelID, principalID)
}

func (a *Adapter) FetchHistory(channelID, beforeID string, limit int) ([]*discordgo.Message, error) {
	return a.s.ChannelMessages(channelID, limit, beforeID, "", "")
}

func (a *Adapter) RestrictUser(guildID, userID string, until time.Time) error {
	return a.s.GuildMemberTimeout(guildID, userID, &until)
}
