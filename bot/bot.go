package bot

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ticket-bot/config"
)

type Bot struct {
	Session *discordgo.Session
	Config  *config.Config
	log     *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsGuildMembers
	return &Bot{Session: s, Config: cfg, log: log}, nil
}

func (b *Bot) Start() error {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("bot online",
			zap.String("user", r.User.Username),
			zap.Int("guilds", len(r.Guilds)))
	})
	return b.Session.Open()
}

func (b *Bot) Stop() {
	_ = b.Session.Close()
}
