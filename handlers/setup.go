package handlers

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ticket-bot/lang"
	"ticket-bot/storage"
	"ticket-bot/wizard"
)

// cmdSetup starts the full guided setup. Any redeemed user with a
// selected mode may run it.
func (h *Handler) cmdSetup(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !h.ledger.Redeemed(m.Author.ID) {
		// Silent for strangers, like the original: no hint that the
		// command exists.
		h.log.Debug("setup attempt without redemption", zap.String("user", m.Author.ID))
		return
	}
	if h.ledger.Mode(m.Author.ID) == storage.ModeUnselected {
		h.reply(s, m, lang.T("setup_need_mode"))
		return
	}
	h.startWizard(s, m, wizard.TicketSetupQuestions())
}

// cmdMMSetup starts the shorter middleman-only setup.
func (h *Handler) cmdMMSetup(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !h.ledger.Redeemed(m.Author.ID) {
		return
	}
	if h.ledger.Mode(m.Author.ID) != storage.ModeMiddleman {
		h.reply(s, m, lang.T("setup_mm_only"))
		return
	}
	h.startWizard(s, m, wizard.MiddlemanSetupQuestions())
}

func (h *Handler) startWizard(s *discordgo.Session, m *discordgo.MessageCreate, questions []wizard.Question) {
	if h.wizard.Active(m.Author.ID, m.GuildID) {
		h.reply(s, m, lang.T("setup_active"))
		return
	}

	h.reply(s, m, lang.T("setup_started"))
	err := h.wizard.Start(m.Author.ID, m.ChannelID, m.GuildID, questions)
	if errors.Is(err, wizard.ErrSessionActive) {
		h.reply(s, m, lang.T("setup_active"))
		return
	}
	if err != nil {
		h.log.Error("wizard start failed", zap.Error(err), zap.String("user", m.Author.ID))
	}
}
