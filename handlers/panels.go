package handlers

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ticket-bot/lang"
	"ticket-bot/storage"
	"ticket-bot/ticket"
)

// cmdTradePanel posts the trade-ticket panel with its Request button.
func (h *Handler) cmdTradePanel(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !h.ledger.Redeemed(m.Author.ID) {
		return
	}

	embed := &discordgo.MessageEmbed{
		Color: 0x0088FF,
		Description: "Found a trade and want a safe trading experience?\n\n" +
			"**Open a ticket below**\n\n" +
			"**What we provide**\n" +
			"• A trusted middleman between both parties\n" +
			"• Fast and easy deals\n\n" +
			"**Important notes**\n" +
			"• Both parties must agree before opening a ticket\n" +
			"• Fake or troll tickets lead to a ticket blacklist\n" +
			"• Follow the server guidelines",
		Footer: &discordgo.MessageEmbedFooter{Text: "Safe Trading"},
	}
	h.sendPanel(s, m, embed, discordgo.Button{
		Label: "Request", Style: discordgo.PrimaryButton, Emoji: &discordgo.ComponentEmoji{Name: "✉️"},
		CustomID: "ticket_request",
	})
}

// cmdIndexPanel posts the index-request panel.
func (h *Handler) cmdIndexPanel(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !h.ledger.Redeemed(m.Author.ID) {
		return
	}

	embed := &discordgo.MessageEmbed{
		Color: 0x9B59B6,
		Title: "Index Requests",
		Description: "Want an item indexed? Open a request below.\n\n" +
			"Index staff will hold your collateral while the index runs.\n" +
			"Read the staff rules before requesting.",
	}
	h.sendPanel(s, m, embed, discordgo.Button{
		Label: "Request Index", Style: discordgo.PrimaryButton, Emoji: &discordgo.ComponentEmoji{Name: "✉️"},
		CustomID: "index_request",
	})
}

// cmdSupportPanel posts the support panel; its button opens a support
// ticket directly, no modal.
func (h *Handler) cmdSupportPanel(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !h.ledger.Redeemed(m.Author.ID) {
		return
	}

	embed := &discordgo.MessageEmbed{
		Color:       0x57F287,
		Title:       "Support",
		Description: "Questions or problems? Open a support ticket and staff will assist you.",
	}
	h.sendPanel(s, m, embed, discordgo.Button{
		Label: "Open Support Ticket", Style: discordgo.SuccessButton, CustomID: "support_open",
	})
}

// cmdReportPanel posts the report panel.
func (h *Handler) cmdReportPanel(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !h.ledger.Redeemed(m.Author.ID) {
		return
	}

	embed := &discordgo.MessageEmbed{
		Color:       0xED4245,
		Title:       "Reports",
		Description: "Report a user or an incident. A staff member will review it privately.",
	}
	h.sendPanel(s, m, embed, discordgo.Button{
		Label: "Open Report", Style: discordgo.DangerButton, CustomID: "report_open",
	})
}

// cmdRecruitPanel posts the team recruitment panel. Middleman mode
// only.
func (h *Handler) cmdRecruitPanel(s *discordgo.Session, m *discordgo.MessageCreate) {
	if h.ledger.Mode(m.Author.ID) != storage.ModeMiddleman {
		return
	}

	embed := &discordgo.MessageEmbed{
		Color: 0xFF5555,
		Title: "Want to join the team?",
		Description: "We are looking for new staff members.\n\n" +
			"Interested? Click below and read the guide channel carefully.",
		Footer: &discordgo.MessageEmbedFooter{Text: "Team Recruitment"},
	}
	_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Join Us", Style: discordgo.PrimaryButton, CustomID: "recruit_join"},
				discordgo.Button{Label: "Not Interested", Style: discordgo.DangerButton, CustomID: "recruit_decline"},
			}},
		},
	})
	if err != nil {
		h.log.Warn("recruit panel send failed", zap.Error(err))
	}
}

// cmdMMInfo posts the middleman-service explainer.
func (h *Handler) cmdMMInfo(s *discordgo.Session, m *discordgo.MessageCreate) {
	embed := &discordgo.MessageEmbed{
		Color: 0x2B2D31,
		Title: "Middleman Service Info",
		Description: "A middleman is a trusted staff member who ensures fair trades.\n\n" +
			"**Example:** trading currency for an item? The middleman holds the item " +
			"until payment is confirmed, then releases it.\n\n" +
			"**Benefits:** prevents scams, smooth transactions, secure for both sides.",
		Footer: &discordgo.MessageEmbedFooter{Text: "Middleman Service • Secure Trades"},
	}
	_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Understood", Style: discordgo.SuccessButton, CustomID: "mm_understood"},
				discordgo.Button{Label: "Didn't Understand", Style: discordgo.DangerButton, CustomID: "mm_confused"},
			}},
		},
	})
	if err != nil {
		h.log.Warn("mminfo send failed", zap.Error(err))
	}
}

func (h *Handler) sendPanel(s *discordgo.Session, m *discordgo.MessageCreate, embed *discordgo.MessageEmbed, button discordgo.Button) {
	_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{button}},
		},
	})
	if err != nil {
		h.log.Warn("panel send failed", zap.Error(err), zap.String("channel", m.ChannelID))
	}
}

func (h *Handler) openTradeModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "ticket_request_modal",
			Title:    "Trade Request",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{CustomID: "other_user", Label: "User/ID of other person", Style: discordgo.TextInputShort, Required: true},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{CustomID: "details", Label: "Details", Style: discordgo.TextInputParagraph, Required: true},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{CustomID: "co_join", Label: "Can both join private links?", Style: discordgo.TextInputShort, Required: false},
				}},
			},
		},
	})
	if err != nil {
		h.log.Warn("trade modal open failed", zap.Error(err))
	}
}

func (h *Handler) openIndexModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "index_request_modal",
			Title:    "Request Index",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{CustomID: "what_index", Label: "What do you want to index?", Style: discordgo.TextInputShort, Required: true},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{CustomID: "holding", Label: "What are you letting us hold?", Style: discordgo.TextInputShort, Required: true},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{CustomID: "obey_rules", Label: "Will you obey the staff rules?", Style: discordgo.TextInputShort, Required: true},
				}},
			},
		},
	})
	if err != nil {
		h.log.Warn("index modal open failed", zap.Error(err))
	}
}

func (h *Handler) submitTradeModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	form := ticket.TradeForm(modalValue(data, 0), modalValue(data, 1), modalValue(data, 2))
	h.createTicketFrom(s, i, ticket.KindTrade, form)
}

func (h *Handler) submitIndexModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	form := ticket.IndexForm(modalValue(data, 0), modalValue(data, 1), modalValue(data, 2))
	h.createTicketFrom(s, i, ticket.KindIndex, form)
}

// createTicketFrom provisions a ticket for the interacting member.
func (h *Handler) createTicketFrom(s *discordgo.Session, i *discordgo.InteractionCreate, kind ticket.Kind, form ticket.Form) {
	t, err := h.factory.Create(i.GuildID, i.Member.User.ID, displayName(i.Member), kind, form)
	switch {
	case errors.Is(err, ticket.ErrNotConfigured):
		h.respond(s, i, lang.T("ticket_not_configured"), true)
	case err != nil:
		h.log.Error("ticket create failed", zap.Error(err), zap.String("kind", string(kind)))
		h.respond(s, i, lang.T("ticket_create_failed", "error", err.Error()), true)
	default:
		h.respond(s, i, lang.T("ticket_created", "channel", t.ChannelID), true)
	}
}

func (h *Handler) btnRecruitJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	setup := h.store.GuildSetup(i.GuildID)
	if setup.RecruitRole == "" {
		h.respond(s, i, lang.T("recruit_role_unset"), true)
		return
	}

	userID := i.Member.User.ID
	for _, r := range i.Member.Roles {
		if r == setup.RecruitRole {
			h.respond(s, i, lang.T("recruit_already", "user", userID), true)
			return
		}
	}

	if err := s.GuildMemberRoleAdd(i.GuildID, userID, setup.RecruitRole); err != nil {
		h.log.Warn("recruit role add failed", zap.Error(err), zap.String("user", userID))
		h.respond(s, i, lang.T("recruit_join_failed"), true)
		return
	}
	h.respond(s, i, lang.T("recruit_joined", "user", userID), false)

	if setup.GuideChannel != "" {
		link := setup.VerificationLink
		if link == "" {
			link = "(not set)"
		}
		if _, err := s.ChannelMessageSend(setup.GuideChannel, lang.T("recruit_welcome", "user", userID, "link", link)); err != nil {
			h.log.Warn("guide channel welcome failed", zap.Error(err))
		}
	}
}

func (h *Handler) btnRecruitDecline(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.respond(s, i, lang.T("recruit_declined", "user", i.Member.User.ID), false)
}

func (h *Handler) btnMMAck(s *discordgo.Session, i *discordgo.InteractionCreate, understood bool) {
	key := "mm_understood"
	if !understood {
		key = "mm_confused"
	}
	h.respond(s, i, lang.T(key, "user", i.Member.User.ID), false)
}

// modalValue pulls the text-input value from the idx-th row of a modal
// submission.
func modalValue(data discordgo.ModalSubmitInteractionData, idx int) string {
	if idx >= len(data.Components) {
		return ""
	}
	row, ok := data.Components[idx].(*discordgo.ActionsRow)
	if !ok || len(row.Components) == 0 {
		return ""
	}
	input, ok := row.Components[0].(*discordgo.TextInput)
	if !ok {
		return ""
	}
	return input.Value
}
