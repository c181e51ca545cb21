// Package handlers wires discordgo events into the ledger, wizard, and
// ticket subsystems: prefix commands in messages, plus buttons and
// modals resolved into a closed action set.
package handlers

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ticket-bot/config"
	"ticket-bot/ledger"
	"ticket-bot/storage"
	"ticket-bot/ticket"
	"ticket-bot/wizard"
)

type Handler struct {
	cfg     *config.Config
	store   *storage.Store
	log     *zap.Logger
	ledger  *ledger.Ledger
	wizard  *wizard.Registry
	factory *ticket.Factory
	tickets *ticket.Manager
}

func New(cfg *config.Config, store *storage.Store, log *zap.Logger, led *ledger.Ledger, wiz *wizard.Registry, factory *ticket.Factory, tickets *ticket.Manager) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   store,
		log:     log,
		ledger:  led,
		wizard:  wiz,
		factory: factory,
		tickets: tickets,
	}
}

func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.onMessage)
	s.AddHandler(h.onInteraction)
}

func (h *Handler) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	h.clearAFK(s, m)
	if h.guardAFKPings(s, m) {
		return
	}

	// Pending wizard sessions get first claim on the message; all
	// other traffic passes through.
	if h.wizard.HandleMessage(m.Author.ID, m.ChannelID, m.GuildID, m.Content) {
		return
	}

	prefix := h.cfg.Discord.Prefix
	if !strings.HasPrefix(m.Content, prefix) {
		h.handleModeReply(s, m)
		return
	}

	args := strings.Fields(strings.TrimPrefix(m.Content, prefix))
	if len(args) == 0 {
		return
	}
	cmd := strings.ToLower(args[0])
	args = args[1:]

	switch cmd {
	case "redeem":
		h.cmdRedeem(s, m, args)
	case "setup":
		h.cmdSetup(s, m)
	case "mmsetup":
		h.cmdMMSetup(s, m)
	case "panel":
		h.cmdTradePanel(s, m)
	case "indexpanel":
		h.cmdIndexPanel(s, m)
	case "support":
		h.cmdSupportPanel(s, m)
	case "report":
		h.cmdReportPanel(s, m)
	case "recruit":
		h.cmdRecruitPanel(s, m)
	case "mminfo":
		h.cmdMMInfo(s, m)
	case "claim":
		h.cmdClaim(s, m)
	case "unclaim":
		h.cmdUnclaim(s, m)
	case "close":
		h.cmdClose(s, m)
	case "transfer":
		h.cmdTransfer(s, m)
	case "add":
		h.cmdAdd(s, m)
	case "ticketlog":
		h.cmdTicketLog(s, m)
	case "vouch":
		h.cmdVouch(s, m)
	case "vouches":
		h.cmdVouches(s, m)
	case "afk":
		h.cmdAFK(s, m, args)
	case "help":
		h.cmdHelp(s, m)
	}
}

// onInteraction resolves component and modal custom IDs once, into a
// closed set of actions.
func (h *Handler) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionMessageComponent:
		switch i.MessageComponentData().CustomID {
		case "ticket_request":
			h.openTradeModal(s, i)
		case "index_request":
			h.openIndexModal(s, i)
		case "support_open":
			h.createTicketFrom(s, i, ticket.KindSupport, ticket.NoteForm(ticket.KindSupport, ""))
		case "report_open":
			h.createTicketFrom(s, i, ticket.KindReport, ticket.NoteForm(ticket.KindReport, ""))
		case "ticket_claim":
			h.btnClaim(s, i)
		case "ticket_unclaim":
			h.btnUnclaim(s, i)
		case "ticket_close":
			h.btnCloseConfirm(s, i)
		case "ticket_close_confirm":
			h.btnClose(s, i)
		case "ticket_close_cancel":
			h.btnCloseCancel(s, i)
		case "ticket_timeout_close":
			h.btnTimeoutClose(s, i)
		case "recruit_join":
			h.btnRecruitJoin(s, i)
		case "recruit_decline":
			h.btnRecruitDecline(s, i)
		case "mm_understood":
			h.btnMMAck(s, i, true)
		case "mm_confused":
			h.btnMMAck(s, i, false)
		default:
			h.log.Debug("unknown component", zap.String("custom_id", i.MessageComponentData().CustomID))
		}

	case discordgo.InteractionModalSubmit:
		switch i.ModalSubmitData().CustomID {
		case "ticket_request_modal":
			h.submitTradeModal(s, i)
		case "index_request_modal":
			h.submitIndexModal(s, i)
		}
	}
}

// reply answers a prefix command in-channel, referencing the message.
func (h *Handler) reply(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	if _, err := s.ChannelMessageSendReply(m.ChannelID, content, m.Reference()); err != nil {
		h.log.Warn("reply failed", zap.Error(err), zap.String("channel", m.ChannelID))
	}
}

// respond answers an interaction, optionally ephemeral.
func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: flags},
	})
	if err != nil {
		h.log.Warn("interaction respond failed", zap.Error(err))
	}
}

func memberRoles(m *discordgo.Member) []string {
	if m == nil {
		return nil
	}
	return m.Roles
}

func displayName(m *discordgo.Member) string {
	if m == nil || m.User == nil {
		return "user"
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

// mentionedID returns the first user mentioned in the message.
func mentionedID(m *discordgo.MessageCreate) string {
	if len(m.Mentions) == 0 {
		return ""
	}
	return m.Mentions[0].ID
}
