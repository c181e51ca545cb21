package ticket

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ticket-bot/events"
	"ticket-bot/storage"
)

var ErrNotConfigured = errors.New("ticket category not configured")

// Kind distinguishes what a ticket channel is for; it picks the
// channel-name prefix, the staff mention, and the details layout.
type Kind string

const (
	KindTrade   Kind = "trade"
	KindIndex   Kind = "index"
	KindReport  Kind = "report"
	KindSupport Kind = "support"
)

// FormField is one submitted form answer rendered into the ticket's
// details embed.
type FormField struct {
	Name  string
	Value string
}

type Form struct {
	Title  string
	Fields []FormField
}

// TradeForm builds the details record for a trade request modal.
func TradeForm(counterpart, details, coJoin string) Form {
	if coJoin == "" {
		coJoin = "(not answered)"
	}
	return Form{
		Title: "Trade Request",
		Fields: []FormField{
			{Name: "Other party", Value: counterpart},
			{Name: "Details", Value: details},
			{Name: "Can both join private links?", Value: coJoin},
		},
	}
}

// IndexForm builds the details record for an index request modal.
func IndexForm(target, holding, rulesAck string) Form {
	return Form{
		Title: "Index Request",
		Fields: []FormField{
			{Name: "What to index", Value: target},
			{Name: "Held while indexing", Value: holding},
			{Name: "Staff rules acknowledged", Value: rulesAck},
		},
	}
}

// NoteForm builds the single-field record for button-opened tickets.
func NoteForm(kind Kind, reason string) Form {
	title := "Support Request"
	if kind == KindReport {
		title = "Report"
	}
	if reason == "" {
		reason = "(none given)"
	}
	return Form{
		Title:  title,
		Fields: []FormField{{Name: "Reason", Value: reason}},
	}
}

// Sink receives lifecycle events; *events.Publisher satisfies it.
type Sink interface {
	Publish(ev events.Event)
}

// Factory provisions ticket channels with computed access rules.
type Factory struct {
	store *storage.Store
	tr    Transport
	sink  Sink
	log   *zap.Logger
}

func NewFactory(store *storage.Store, tr Transport, sink Sink, log *zap.Logger) *Factory {
	return &Factory{store: store, tr: tr, sink: sink, log: log}
}

// Create provisions a channel for the request and records the ticket.
// No ticket state is recorded until provisioning succeeds; a transport
// failure leaves no partial record.
func (f *Factory) Create(guildID, requesterID, displayName string, kind Kind, form Form) (storage.Ticket, error) {
	setup := f.store.GuildSetup(guildID)
	if setup.TicketCategory == "" {
		return storage.Ticket{}, ErrNotConfigured
	}

	name := string(kind) + "-" + slug(displayName)
	overwrites := accessRules(guildID, requesterID, kind, setup)

	channelID, err := f.tr.CreateChannel(guildID, setup.TicketCategory, name, overwrites)
	if err != nil {
		return storage.Ticket{}, fmt.Errorf("provision ticket channel: %w", err)
	}

	t := storage.Ticket{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		ChannelID:   channelID,
		ChannelName: name,
		RequesterID: requesterID,
		Kind:        string(kind),
		CreatedAt:   time.Now().UTC(),
	}
	err = f.store.Update(func(d *storage.Document) error {
		d.Tickets[channelID] = &t
		return nil
	})
	if err != nil {
		// Channel exists but the record does not; surface the error so
		// the operator can reconcile the orphan channel manually.
		return storage.Ticket{}, fmt.Errorf("record ticket: %w", err)
	}

	f.postOpening(t, setup, form)

	f.sink.Publish(events.Event{
		Type:        events.TicketOpened,
		TicketID:    t.ID,
		GuildID:     guildID,
		ChannelID:   channelID,
		Kind:        string(kind),
		RequesterID: requesterID,
	})
	f.log.Info("ticket created",
		zap.String("ticket", t.ID), zap.String("kind", string(kind)),
		zap.String("channel", channelID), zap.String("requester", requesterID))
	return t, nil
}

// accessRules computes the channel permission overwrites: default-deny
// for everyone, view+post for the requester, view-only for each staff
// role, and post rights for the index staff on index tickets.
func accessRules(guildID, requesterID string, kind Kind, setup storage.GuildSetup) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: requesterID, Type: discordgo.PermissionOverwriteTypeMember, Allow: permViewPost},
	}
	for _, roleID := range setup.StaffRoles() {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: roleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: permViewOnly,
		})
	}
	if kind == KindIndex && setup.IndexStaffRole != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: setup.IndexStaffRole, Type: discordgo.PermissionOverwriteTypeRole, Allow: permViewPost,
		})
	}
	return overwrites
}

// postOpening sends the initial notice and the details embed with the
// staff control buttons. Both sends are best-effort: the ticket exists
// either way.
func (f *Factory) postOpening(t storage.Ticket, setup storage.GuildSetup, form Form) {
	mention := "<@" + t.RequesterID + ">"
	staffRole := setup.MiddlemanRole
	if Kind(t.Kind) == KindIndex && setup.IndexStaffRole != "" {
		staffRole = setup.IndexStaffRole
	}
	if staffRole != "" {
		mention += " | <@&" + staffRole + ">"
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(form.Fields))
	for _, fld := range form.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{Name: fld.Name, Value: fld.Value})
	}

	_, err := f.tr.SendComplex(t.ChannelID, &discordgo.MessageSend{
		Content: mention,
		Embeds: []*discordgo.MessageEmbed{{
			Title:       form.Title,
			Description: "A staff member will be with you shortly.",
			Color:       0x0088FF,
			Fields:      fields,
			Timestamp:   t.CreatedAt.Format(time.RFC3339),
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Claim", Style: discordgo.PrimaryButton, CustomID: "ticket_claim"},
					discordgo.Button{Label: "Unclaim", Style: discordgo.SecondaryButton, CustomID: "ticket_unclaim"},
					discordgo.Button{Label: "Close", Style: discordgo.DangerButton, CustomID: "ticket_close"},
					discordgo.Button{Label: "Timeout + Close", Style: discordgo.DangerButton, CustomID: "ticket_timeout_close"},
				},
			},
		},
	})
	if err != nil {
		f.log.Warn("ticket opening message failed", zap.Error(err), zap.String("channel", t.ChannelID))
	}
}

// slug reduces a display name to channel-name-safe characters, capped
// at 20 runes.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	s := b.String()
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return "user"
	}
	runes := []rune(s)
	if len(runes) > 20 {
		s = strings.Trim(string(runes[:20]), "-")
	}
	return s
}
