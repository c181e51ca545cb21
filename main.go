package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ticket-bot/bot"
	"ticket-bot/config"
	"ticket-bot/events"
	"ticket-bot/handlers"
	"ticket-bot/lang"
	"ticket-bot/ledger"
	"ticket-bot/storage"
	"ticket-bot/ticket"
	"ticket-bot/wizard"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the config file")
	flag.Parse()

	// .env is optional; real deployments set TOKEN in the environment.
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}
	if token := os.Getenv("TOKEN"); token != "" {
		cfg.Discord.Token = token
	}
	if cfg.Discord.Token == "" || cfg.Discord.Token == "YOUR_TOKEN_HERE" {
		log.Fatal("no bot token: set TOKEN or discord.token in the config")
	}

	lang.Load(cfg.Messages.Path, log)

	store, err := storage.Open(cfg.Storage.DataFile, cfg.Keys.Valid, log)
	if err != nil {
		log.Fatal("store open failed", zap.Error(err))
	}

	db, err := storage.InitDB(&cfg.Database, log)
	if err != nil {
		// Transcripts still go to the transcripts channel without a
		// database, so this is not fatal.
		log.Warn("archive database unavailable", zap.Error(err))
		db = nil
	} else {
		defer db.Close()
	}

	var sink *events.Publisher
	if cfg.Events.Enabled {
		sink, err = events.Connect(cfg.Events.URL, cfg.Events.Exchange, log)
		if err != nil {
			log.Warn("event broker unavailable", zap.Error(err))
			sink = nil
		} else {
			defer sink.Close()
		}
	}

	b, err := bot.New(cfg, log)
	if err != nil {
		log.Fatal("session create failed", zap.Error(err))
	}
	tr := bot.NewAdapter(b.Session)

	led := ledger.New(store, log)
	wiz := wizard.NewRegistry(store, tr, log,
		time.Duration(cfg.Setup.TimeoutSeconds)*time.Second,
		wizard.Notices{
			Cancelled:  lang.T("setup_cancelled"),
			TimedOut:   lang.T("setup_timeout"),
			Invalid:    lang.T("setup_invalid"),
			Completed:  lang.T("setup_complete"),
			SaveFailed: lang.T("setup_save_failed"),
		})
	factory := ticket.NewFactory(store, tr, sink, log)
	manager := ticket.NewManager(store, tr, db, sink, log, cfg.Transcript.MaxMessages)

	handlers.New(cfg, store, log, led, wiz, factory, manager).Register(b.Session)

	if err := b.Start(); err != nil {
		log.Fatal("gateway open failed", zap.Error(err))
	}
	defer b.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")
}
