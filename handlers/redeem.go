package handlers

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ticket-bot/lang"
	"ticket-bot/ledger"
	"ticket-bot/storage"
)

func (h *Handler) cmdRedeem(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		h.reply(s, m, lang.T("redeem_usage", "prefix", h.cfg.Discord.Prefix))
		return
	}

	err := h.ledger.Redeem(m.Author.ID, args[0])
	switch {
	case errors.Is(err, ledger.ErrKeyUsed):
		h.reply(s, m, lang.T("redeem_used"))
		return
	case errors.Is(err, ledger.ErrInvalidKey):
		h.reply(s, m, lang.T("redeem_invalid"))
		return
	case err != nil:
		h.log.Error("redeem failed", zap.Error(err), zap.String("user", m.Author.ID))
		h.reply(s, m, lang.T("redeem_failed"))
		return
	}

	h.reply(s, m, lang.T("redeem_success"))

	// Best-effort DM with the short tutorial; closed DMs are fine.
	if ch, err := s.UserChannelCreate(m.Author.ID); err == nil {
		_, _ = s.ChannelMessageSend(ch.ID, lang.T("redeem_dm", "prefix", h.cfg.Discord.Prefix))
	}
}

// handleModeReply consumes the 1/2 reply while a redemption is pending
// mode selection. Anything else while pending re-prompts without
// mutating state; users with no pending activation are left alone.
func (h *Handler) handleModeReply(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !h.ledger.ModePending(m.Author.ID) {
		return
	}

	mode, ok := ledger.ParseMode(m.Content)
	if !ok {
		h.reply(s, m, lang.T("mode_reprompt"))
		return
	}

	applied, err := h.ledger.SelectMode(m.Author.ID, mode)
	if err != nil {
		h.log.Error("mode select failed", zap.Error(err), zap.String("user", m.Author.ID))
		return
	}
	if !applied {
		return
	}

	if mode == storage.ModeMiddleman {
		h.reply(s, m, lang.T("mode_mm_on", "prefix", h.cfg.Discord.Prefix))
	} else {
		h.reply(s, m, lang.T("mode_ticket_on", "prefix", h.cfg.Discord.Prefix))
	}
}
