package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ticket-bot/lang"
	"ticket-bot/storage"
)

// cmdVouch records a vouch for the mentioned user. Middleman mode
// only; the original use is crediting a middleman after a deal.
func (h *Handler) cmdVouch(s *discordgo.Session, m *discordgo.MessageCreate) {
	if h.ledger.Mode(m.Author.ID) != storage.ModeMiddleman {
		return
	}
	target := mentionedID(m)
	if target == "" {
		h.reply(s, m, lang.T("vouch_usage"))
		return
	}
	if target == m.Author.ID {
		h.reply(s, m, lang.T("vouch_self"))
		return
	}

	var count int
	err := h.store.Update(func(d *storage.Document) error {
		d.Vouches[target]++
		count = d.Vouches[target]
		return nil
	})
	if err != nil {
		h.log.Error("vouch save failed", zap.Error(err))
		return
	}
	h.reply(s, m, lang.T("vouch_added", "user", target, "count", strconv.Itoa(count)))
}

func (h *Handler) cmdVouches(s *discordgo.Session, m *discordgo.MessageCreate) {
	target := mentionedID(m)
	if target == "" {
		target = m.Author.ID
	}
	count := h.store.Vouches(target)
	h.reply(s, m, lang.T("vouch_count", "user", target, "count", strconv.Itoa(count)))
}

func (h *Handler) cmdAFK(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	reason := strings.TrimSpace(strings.Join(args, " "))
	if reason == "" {
		reason = lang.T("afk_default_reason")
	}

	err := h.store.Update(func(d *storage.Document) error {
		d.AFK[m.Author.ID] = &storage.AFKStatus{Reason: reason, Since: time.Now()}
		return nil
	})
	if err != nil {
		h.log.Error("afk save failed", zap.Error(err))
		return
	}
	h.reply(s, m, lang.T("afk_set", "reason", reason))
}

// clearAFK removes the author's AFK status when they talk again. AFK
// commands themselves are exempt so setting AFK doesn't immediately
// clear it.
func (h *Handler) clearAFK(s *discordgo.Session, m *discordgo.MessageCreate) {
	if strings.HasPrefix(m.Content, h.cfg.Discord.Prefix+"afk") {
		return
	}
	if _, ok := h.store.AFK(m.Author.ID); !ok {
		return
	}

	err := h.store.Update(func(d *storage.Document) error {
		delete(d.AFK, m.Author.ID)
		return nil
	})
	if err != nil {
		h.log.Error("afk clear failed", zap.Error(err))
		return
	}
	h.reply(s, m, lang.T("afk_back", "user", m.Author.ID))
}

// guardAFKPings intercepts messages that ping an AFK user: the ping is
// deleted and the sender is told why. Returns true when the message
// was consumed.
func (h *Handler) guardAFKPings(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	for _, u := range m.Mentions {
		if u.ID == m.Author.ID {
			continue
		}
		status, ok := h.store.AFK(u.ID)
		if !ok {
			continue
		}

		if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			h.log.Debug("afk ping delete failed", zap.Error(err))
		}
		minutes := int(time.Since(status.Since).Minutes())
		if _, err := s.ChannelMessageSend(m.ChannelID, lang.T("afk_notice",
			"reason", status.Reason,
			"minutes", strconv.Itoa(minutes),
		)); err != nil {
			h.log.Warn("afk notice failed", zap.Error(err))
		}
		return true
	}
	return false
}
