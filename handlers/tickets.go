package handlers

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ticket-bot/lang"
	"ticket-bot/ticket"
)

func (h *Handler) cmdClaim(s *discordgo.Session, m *discordgo.MessageCreate) {
	err := h.tickets.Claim(m.ChannelID, m.Author.ID, memberRoles(m.Member))
	if err != nil {
		h.reply(s, m, ticketErrText(err))
		return
	}
	h.reply(s, m, lang.T("ticket_claimed", "actor", m.Author.ID))
}

func (h *Handler) cmdUnclaim(s *discordgo.Session, m *discordgo.MessageCreate) {
	err := h.tickets.Unclaim(m.ChannelID, m.Author.ID)
	if err != nil {
		h.reply(s, m, ticketErrText(err))
		return
	}
	h.reply(s, m, lang.T("ticket_unclaimed", "actor", m.Author.ID))
}

func (h *Handler) cmdClose(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.reply(s, m, lang.T("ticket_closing"))
	if err := h.tickets.Close(m.ChannelID, m.Author.ID, memberRoles(m.Member)); err != nil {
		h.reply(s, m, ticketErrText(err))
	}
}

func (h *Handler) cmdTransfer(s *discordgo.Session, m *discordgo.MessageCreate) {
	target := mentionedID(m)
	if target == "" {
		h.reply(s, m, lang.T("ticket_transfer_usage"))
		return
	}
	roles := h.targetRoles(s, m.GuildID, target)
	if err := h.tickets.Transfer(m.ChannelID, m.Author.ID, target, roles); err != nil {
		h.reply(s, m, ticketErrText(err))
		return
	}
	h.reply(s, m, lang.T("ticket_transferred", "user", target))
}

func (h *Handler) cmdAdd(s *discordgo.Session, m *discordgo.MessageCreate) {
	target := mentionedID(m)
	if target == "" {
		h.reply(s, m, lang.T("ticket_add_usage"))
		return
	}
	if err := h.tickets.AddUser(m.ChannelID, m.Author.ID, memberRoles(m.Member), target); err != nil {
		h.reply(s, m, ticketErrText(err))
		return
	}
	h.reply(s, m, lang.T("ticket_user_added", "user", target))
}

// cmdTicketLog prints the audit trail of the current ticket channel.
func (h *Handler) cmdTicketLog(s *discordgo.Session, m *discordgo.MessageCreate) {
	events, err := h.tickets.AuditTrail(m.ChannelID, 25)
	if err != nil {
		h.reply(s, m, ticketErrText(err))
		return
	}
	if len(events) == 0 {
		h.reply(s, m, lang.T("ticket_log_empty"))
		return
	}

	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "`%s` **%s** by <@%s>\n", ev.Timestamp.Format("2006-01-02 15:04"), ev.Action, ev.ActorID)
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Ticket Log",
		Color:       0x2B2D31,
		Description: b.String(),
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		h.log.Warn("ticket log send failed", zap.Error(err))
	}
}

func (h *Handler) btnClaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := h.tickets.Claim(i.ChannelID, i.Member.User.ID, i.Member.Roles)
	if err != nil {
		h.respond(s, i, ticketErrText(err), true)
		return
	}
	h.respond(s, i, lang.T("ticket_claimed", "actor", i.Member.User.ID), false)
}

func (h *Handler) btnUnclaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := h.tickets.Unclaim(i.ChannelID, i.Member.User.ID)
	if err != nil {
		h.respond(s, i, ticketErrText(err), true)
		return
	}
	h.respond(s, i, lang.T("ticket_unclaimed", "actor", i.Member.User.ID), false)
}

// btnCloseConfirm asks for confirmation before the actual close.
func (h *Handler) btnCloseConfirm(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: lang.T("ticket_close_confirm"),
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Close", Style: discordgo.DangerButton, CustomID: "ticket_close_confirm"},
					discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: "ticket_close_cancel"},
				}},
			},
		},
	})
	if err != nil {
		h.log.Warn("close confirm failed", zap.Error(err))
	}
}

func (h *Handler) btnClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.respond(s, i, lang.T("ticket_closing"), true)
	if err := h.tickets.Close(i.ChannelID, i.Member.User.ID, i.Member.Roles); err != nil {
		h.log.Warn("close failed", zap.Error(err), zap.String("channel", i.ChannelID))
	}
}

func (h *Handler) btnCloseCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.respond(s, i, lang.T("ticket_close_cancelled"), true)
}

// btnTimeoutClose times the requester out and then closes.
func (h *Handler) btnTimeoutClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	t, ok := h.store.Ticket(i.ChannelID)
	if !ok {
		h.respond(s, i, lang.T("ticket_not_channel"), true)
		return
	}
	h.respond(s, i, lang.T("ticket_timeout_note", "user", t.RequesterID), false)
	if err := h.tickets.TimeoutAndClose(i.ChannelID, i.Member.User.ID, i.Member.Roles, t.RequesterID); err != nil {
		h.log.Warn("timeout close failed", zap.Error(err), zap.String("channel", i.ChannelID))
	}
}

// targetRoles fetches a member's roles, preferring the state cache.
func (h *Handler) targetRoles(s *discordgo.Session, guildID, userID string) []string {
	member, err := s.State.Member(guildID, userID)
	if err != nil {
		member, err = s.GuildMember(guildID, userID)
		if err != nil {
			return nil
		}
	}
	return member.Roles
}

func ticketErrText(err error) string {
	switch err {
	case ticket.ErrNotTicket:
		return lang.T("ticket_not_channel")
	case ticket.ErrAlreadyClaimed:
		return lang.T("ticket_already_claimed")
	case ticket.ErrNotAuthorized:
		return lang.T("ticket_not_staff")
	case ticket.ErrNotClaimant:
		return lang.T("ticket_not_claimant")
	default:
		return lang.T("ticket_close_failed", "error", err.Error())
	}
}
