// Package ticket implements the ticket lifecycle: provisioning scoped
// conversation channels, the claim/unclaim/close state machine, and
// transcript archival.
package ticket

import (
	"io"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Transport is the capability slice of the chat platform the ticket
// system consumes. bot.Adapter implements it over a discordgo session;
// tests substitute fakes.
type Transport interface {
	SendMessage(channelID, content string) (string, error)
	SendComplex(channelID string, msg *discordgo.MessageSend) (string, error)
	SendFile(channelID, content, filename string, file io.Reader) error
	CreateChannel(guildID, parentID, name string, overwrites []*discordgo.PermissionOverwrite) (string, error)
	DeleteChannel(channelID string) error
	SetAccessRule(channelID, principalID string, kind discordgo.PermissionOverwriteType, allow, deny int64) error
	RemoveAccessRule(channelID, principalID string) error
	FetchHistory(channelID, beforeID string, limit int) ([]*discordgo.Message, error)
	RestrictUser(guildID, userID string, until time.Time) error
}

const (
	permViewPost int64 = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory |
		discordgo.PermissionAttachFiles
	permViewOnly int64 = discordgo.PermissionViewChannel |
		discordgo.PermissionReadMessageHistory
)
