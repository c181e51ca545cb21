package ticket

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ticket-bot/events"
	"ticket-bot/storage"
)

var (
	ErrNotTicket      = errors.New("not a ticket channel")
	ErrAlreadyClaimed = errors.New("ticket already claimed")
	ErrNotAuthorized  = errors.New("missing staff capability")
	ErrNotClaimant    = errors.New("only the current claimant may do this")
)

// restrictDuration is the communication timeout applied by
// TimeoutAndClose.
const restrictDuration = time.Hour

// Manager owns every ticket's claim state. No other component writes
// ClaimedBy.
type Manager struct {
	store *storage.Store
	tr    Transport
	db    storage.Database
	sink  Sink
	log   *zap.Logger

	// transcriptLimit caps how many messages a transcript includes;
	// longer histories keep the newest messages.
	transcriptLimit int
}

func NewManager(store *storage.Store, tr Transport, db storage.Database, sink Sink, log *zap.Logger, transcriptLimit int) *Manager {
	if transcriptLimit <= 0 {
		transcriptLimit = 1000
	}
	return &Manager{store: store, tr: tr, db: db, sink: sink, log: log, transcriptLimit: transcriptLimit}
}

// StaffCapable reports whether any of roles is a configured
// staff-capability role.
func StaffCapable(setup storage.GuildSetup, roles []string) bool {
	staff := setup.StaffRoles()
	for _, r := range roles {
		for _, s := range staff {
			if r == s {
				return true
			}
		}
	}
	return false
}

// Claim gives actorID exclusive ownership of the ticket and restricts
// general staff posting in the channel while preserving the claimant's
// and requester's post rights.
func (m *Manager) Claim(channelID, actorID string, actorRoles []string) error {
	var t storage.Ticket
	err := m.store.Update(func(d *storage.Document) error {
		rec, ok := d.Tickets[channelID]
		if !ok {
			return ErrNotTicket
		}
		if rec.ClaimedBy != "" {
			return ErrAlreadyClaimed
		}
		if !StaffCapable(d.Guild(rec.GuildID).Setup, actorRoles) {
			return ErrNotAuthorized
		}
		rec.ClaimedBy = actorID
		t = *rec
		return nil
	})
	if err != nil {
		return err
	}

	setup := m.store.GuildSetup(t.GuildID)
	if setup.MiddlemanRole != "" {
		m.setRule(channelID, setup.MiddlemanRole, discordgo.PermissionOverwriteTypeRole, permViewOnly, discordgo.PermissionSendMessages)
	}
	m.setRule(channelID, actorID, discordgo.PermissionOverwriteTypeMember, permViewPost, 0)
	m.setRule(channelID, t.RequesterID, discordgo.PermissionOverwriteTypeMember, permViewPost, 0)

	m.audit(t, "claim", actorID)
	m.sink.Publish(events.Event{
		Type: events.TicketClaimed, TicketID: t.ID, GuildID: t.GuildID,
		ChannelID: channelID, ActorID: actorID,
	})
	m.log.Info("ticket claimed", zap.String("ticket", t.ID), zap.String("actor", actorID))
	return nil
}

// Unclaim releases the claim. Only the current claimant may release it.
func (m *Manager) Unclaim(channelID, actorID string) error {
	var t storage.Ticket
	err := m.store.Update(func(d *storage.Document) error {
		rec, ok := d.Tickets[channelID]
		if !ok {
			return ErrNotTicket
		}
		if rec.ClaimedBy != actorID {
			return ErrNotClaimant
		}
		rec.ClaimedBy = ""
		t = *rec
		return nil
	})
	if err != nil {
		return err
	}

	m.restoreDefaultRules(t, actorID)

	m.audit(t, "unclaim", actorID)
	m.sink.Publish(events.Event{
		Type: events.TicketUnclaimed, TicketID: t.ID, GuildID: t.GuildID,
		ChannelID: channelID, ActorID: actorID,
	})
	m.log.Info("ticket unclaimed", zap.String("ticket", t.ID), zap.String("actor", actorID))
	return nil
}

// Transfer hands the claim from the current claimant to another
// staff-capable member.
func (m *Manager) Transfer(channelID, actorID, newClaimantID string, newClaimantRoles []string) error {
	var t storage.Ticket
	err := m.store.Update(func(d *storage.Document) error {
		rec, ok := d.Tickets[channelID]
		if !ok {
			return ErrNotTicket
		}
		if rec.ClaimedBy != actorID {
			return ErrNotClaimant
		}
		if !StaffCapable(d.Guild(rec.GuildID).Setup, newClaimantRoles) {
			return ErrNotAuthorized
		}
		rec.ClaimedBy = newClaimantID
		t = *rec
		return nil
	})
	if err != nil {
		return err
	}

	m.setRule(channelID, newClaimantID, discordgo.PermissionOverwriteTypeMember, permViewPost, 0)
	if actorID != t.RequesterID && !contains(t.AddedUsers, actorID) {
		m.removeRule(channelID, actorID)
	}

	m.audit(t, "transfer", actorID)
	m.log.Info("ticket transferred",
		zap.String("ticket", t.ID), zap.String("from", actorID), zap.String("to", newClaimantID))
	return nil
}

// AddUser grants an extra participant view+post rights in the ticket.
func (m *Manager) AddUser(channelID, actorID string, actorRoles []string, targetID string) error {
	var t storage.Ticket
	err := m.store.Update(func(d *storage.Document) error {
		rec, ok := d.Tickets[channelID]
		if !ok {
			return ErrNotTicket
		}
		if !StaffCapable(d.Guild(rec.GuildID).Setup, actorRoles) {
			return ErrNotAuthorized
		}
		if !contains(rec.AddedUsers, targetID) {
			rec.AddedUsers = append(rec.AddedUsers, targetID)
		}
		t = *rec
		return nil
	})
	if err != nil {
		return err
	}

	m.setRule(channelID, targetID, discordgo.PermissionOverwriteTypeMember, permViewPost, 0)
	m.audit(t, "adduser", actorID)
	return nil
}

// Close archives the ticket and tears the channel down. Any
// staff-capable actor may close, claimed or not. Transcript emission,
// archive-database write, and channel deletion are independent
// best-effort steps: a missing transcript destination skips archival
// without blocking teardown.
func (m *Manager) Close(channelID, actorID string, actorRoles []string) error {
	t, ok := m.store.Ticket(channelID)
	if !ok {
		return ErrNotTicket
	}
	setup := m.store.GuildSetup(t.GuildID)
	if !StaffCapable(setup, actorRoles) {
		return ErrNotAuthorized
	}

	if setup.TranscriptsChannel != "" || m.db != nil {
		m.archive(t, setup, actorID)
	}

	m.audit(t, "close", actorID)

	err := m.store.Update(func(d *storage.Document) error {
		delete(d.Tickets, channelID)
		return nil
	})
	if err != nil {
		m.log.Error("ticket record delete failed", zap.Error(err), zap.String("ticket", t.ID))
	}

	m.sink.Publish(events.Event{
		Type: events.TicketClosed, TicketID: t.ID, GuildID: t.GuildID,
		ChannelID: channelID, ActorID: actorID, RequesterID: t.RequesterID,
	})

	if err := m.tr.DeleteChannel(channelID); err != nil {
		// Local state is already gone; the channel must be reconciled
		// manually. Known consistency gap.
		return fmt.Errorf("delete ticket channel: %w", err)
	}
	m.log.Info("ticket closed", zap.String("ticket", t.ID), zap.String("actor", actorID))
	return nil
}

// TimeoutAndClose applies a one-hour communication restriction to the
// offending user, then closes the ticket. A failed restriction is
// logged and never blocks the close.
func (m *Manager) TimeoutAndClose(channelID, actorID string, actorRoles []string, offenderID string) error {
	t, ok := m.store.Ticket(channelID)
	if !ok {
		return ErrNotTicket
	}
	if !StaffCapable(m.store.GuildSetup(t.GuildID), actorRoles) {
		return ErrNotAuthorized
	}

	until := time.Now().Add(restrictDuration)
	if err := m.tr.RestrictUser(t.GuildID, offenderID, until); err != nil {
		m.log.Warn("timeout failed, closing anyway", zap.Error(err),
			zap.String("offender", offenderID), zap.String("ticket", t.ID))
	} else {
		m.audit(t, "timeout", actorID)
	}

	return m.Close(channelID, actorID, actorRoles)
}

// AuditTrail returns the ticket's recent lifecycle events from the
// archive database.
func (m *Manager) AuditTrail(channelID string, limit int) ([]storage.TicketEvent, error) {
	t, ok := m.store.Ticket(channelID)
	if !ok {
		return nil, ErrNotTicket
	}
	if m.db == nil {
		return nil, nil
	}
	return m.db.TicketEvents(t.GuildID, t.ID, limit)
}

// archive builds the transcript and delivers it to the transcripts
// channel and the archive database, each best-effort.
func (m *Manager) archive(t storage.Ticket, setup storage.GuildSetup, closedBy string) {
	msgs, err := m.history(t.ChannelID)
	if err != nil {
		m.log.Warn("history fetch failed, skipping transcript", zap.Error(err), zap.String("ticket", t.ID))
		return
	}
	tr := BuildTranscript(t, msgs, closedBy)

	if setup.TranscriptsChannel != "" {
		summary := fmt.Sprintf("Ticket **%s** closed by <@%s> (opened by <@%s>)", t.ChannelName, closedBy, t.RequesterID)
		if err := m.tr.SendFile(setup.TranscriptsChannel, summary, tr.Filename, strings.NewReader(tr.Content)); err != nil {
			m.log.Warn("transcript delivery failed", zap.Error(err), zap.String("ticket", t.ID))
		}
	}

	if m.db != nil {
		rec := storage.TranscriptRecord{
			TicketID:    t.ID,
			GuildID:     t.GuildID,
			ChannelName: t.ChannelName,
			RequesterID: t.RequesterID,
			ClaimedBy:   t.ClaimedBy,
			ClosedBy:    closedBy,
			Filename:    tr.Filename,
			Content:     tr.Content,
			ClosedAt:    time.Now().UTC(),
		}
		if err := m.db.SaveTranscript(rec); err != nil {
			m.log.Warn("transcript archive failed", zap.Error(err), zap.String("ticket", t.ID))
		}
	}
}

// history fetches the channel's messages oldest-first, newest-kept up
// to transcriptLimit.
func (m *Manager) history(channelID string) ([]*discordgo.Message, error) {
	var all []*discordgo.Message
	beforeID := ""
	for len(all) < m.transcriptLimit {
		batch := m.transcriptLimit - len(all)
		if batch > 100 {
			batch = 100
		}
		msgs, err := m.tr.FetchHistory(channelID, beforeID, batch)
		if err != nil {
			return nil, err
		}
		if len(msgs) == 0 {
			break
		}
		// FetchHistory returns newest-first pages.
		all = append(all, msgs...)
		beforeID = msgs[len(msgs)-1].ID
		if len(msgs) < batch {
			break
		}
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

// restoreDefaultRules reverts claim-time permission overwrites.
func (m *Manager) restoreDefaultRules(t storage.Ticket, formerClaimant string) {
	setup := m.store.GuildSetup(t.GuildID)
	if setup.MiddlemanRole != "" {
		m.setRule(t.ChannelID, setup.MiddlemanRole, discordgo.PermissionOverwriteTypeRole, permViewOnly, 0)
	}
	if formerClaimant != t.RequesterID && !contains(t.AddedUsers, formerClaimant) {
		m.removeRule(t.ChannelID, formerClaimant)
	}
}

func (m *Manager) setRule(channelID, principalID string, kind discordgo.PermissionOverwriteType, allow, deny int64) {
	if err := m.tr.SetAccessRule(channelID, principalID, kind, allow, deny); err != nil {
		m.log.Warn("access rule update failed", zap.Error(err),
			zap.String("channel", channelID), zap.String("principal", principalID))
	}
}

func (m *Manager) removeRule(channelID, principalID string) {
	if err := m.tr.RemoveAccessRule(channelID, principalID); err != nil {
		m.log.Warn("access rule removal failed", zap.Error(err),
			zap.String("channel", channelID), zap.String("principal", principalID))
	}
}

func (m *Manager) audit(t storage.Ticket, action, actorID string) {
	if m.db == nil {
		return
	}
	ev := storage.TicketEvent{
		TicketID:  t.ID,
		GuildID:   t.GuildID,
		Action:    action,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	}
	if err := m.db.AddTicketEvent(ev); err != nil {
		m.log.Warn("audit write failed", zap.Error(err), zap.String("ticket", t.ID), zap.String("action", action))
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
