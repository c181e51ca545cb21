package handlers

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ticket-bot/storage"
)

// cmdHelp lists the commands the author can use given their unlocked
// mode.
func (h *Handler) cmdHelp(s *discordgo.Session, m *discordgo.MessageCreate) {
	p := h.cfg.Discord.Prefix
	mode := h.ledger.Mode(m.Author.ID)

	fields := []*discordgo.MessageEmbedField{
		{
			Name: "General",
			Value: fmt.Sprintf("`%[1]sredeem <key>` — redeem an access key\n"+
				"`%[1]smminfo` — middleman service explainer\n"+
				"`%[1]safk [reason]` — set yourself AFK\n"+
				"`%[1]svouches [@user]` — show a vouch count", p),
		},
	}

	if mode != storage.ModeUnselected {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Setup & Panels",
			Value: fmt.Sprintf("`%[1]ssetup` — run the ticket setup wizard\n"+
				"`%[1]spanel` — post the trade ticket panel\n"+
				"`%[1]sindexpanel` — post the index request panel\n"+
				"`%[1]ssupport` — post the support panel\n"+
				"`%[1]sreport` — post the report panel", p),
		})
	}
	if mode == storage.ModeMiddleman {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Middleman",
			Value: fmt.Sprintf("`%[1]smmsetup` — run the middleman setup wizard\n"+
				"`%[1]srecruit` — post the recruitment panel\n"+
				"`%[1]svouch @user` — vouch for a user", p),
		})
	}

	fields = append(fields, &discordgo.MessageEmbedField{
		Name: "Tickets (staff)",
		Value: fmt.Sprintf("`%[1]sclaim` / `%[1]sunclaim` — claim or release the ticket\n"+
			"`%[1]stransfer @staff` — hand the claim over\n"+
			"`%[1]sadd @user` — add a user to the ticket\n"+
			"`%[1]sclose` — archive and close the ticket\n"+
			"`%[1]sticketlog` — show the ticket's audit trail", p),
	})

	embed := &discordgo.MessageEmbed{
		Title:  "Commands",
		Color:  0x0088FF,
		Fields: fields,
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		h.log.Warn("help send failed", zap.Error(err))
	}
}
