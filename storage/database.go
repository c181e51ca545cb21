package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"ticket-bot/config"
)

// Database archives closed tickets and their lifecycle audit trail.
// Archive writes are best-effort from the caller's point of view: a
// failing archive never blocks ticket teardown.
type Database interface {
	Init() error
	Close() error

	SaveTranscript(rec TranscriptRecord) error
	AddTicketEvent(ev TicketEvent) error
	TicketEvents(guildID, ticketID string, limit int) ([]TicketEvent, error)
}

// TranscriptRecord is the write-once archival artifact of a closed
// ticket.
type TranscriptRecord struct {
	TicketID    string    `json:"ticket_id" bson:"ticket_id"`
	GuildID     string    `json:"guild_id" bson:"guild_id"`
	ChannelName string    `json:"channel_name" bson:"channel_name"`
	RequesterID string    `json:"requester_id" bson:"requester_id"`
	ClaimedBy   string    `json:"claimed_by" bson:"claimed_by"`
	ClosedBy    string    `json:"closed_by" bson:"closed_by"`
	Filename    string    `json:"filename" bson:"filename"`
	Content     string    `json:"content" bson:"content"`
	ClosedAt    time.Time `json:"closed_at" bson:"closed_at"`
}

// TicketEvent is one claim/unclaim/transfer/close audit entry.
type TicketEvent struct {
	ID        int64     `json:"id" bson:"-"`
	TicketID  string    `json:"ticket_id" bson:"ticket_id"`
	GuildID   string    `json:"guild_id" bson:"guild_id"`
	Action    string    `json:"action" bson:"action"`
	ActorID   string    `json:"actor_id" bson:"actor_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

func InitDB(cfg *config.DatabaseConfig, log *zap.Logger) (Database, error) {
	switch cfg.Driver {
	case "sqlite":
		db := &SQLiteDB{Path: cfg.SQLite.Path, log: log}
		if err := db.Init(); err != nil {
			return nil, err
		}
		return db, nil

	case "mongodb":
		db := &MongoDB{URI: cfg.MongoDB.URI, DBName: cfg.MongoDB.Database, log: log}
		if err := db.Init(); err != nil {
			return nil, err
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s (use \"sqlite\" or \"mongodb\")", cfg.Driver)
	}
}

type SQLiteDB struct {
	Path string
	log  *zap.Logger
	db   *sql.DB
}

func (s *SQLiteDB) Init() error {
	_ = os.MkdirAll(filepath.Dir(s.Path), 0755)

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("sqlite open: %w", err)
	}
	s.db = db

	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		ticket_id    TEXT PRIMARY KEY,
		guild_id     TEXT NOT NULL,
		channel_name TEXT NOT NULL,
		requester_id TEXT NOT NULL,
		claimed_by   TEXT NOT NULL DEFAULT '',
		closed_by    TEXT NOT NULL,
		filename     TEXT NOT NULL,
		content      TEXT NOT NULL,
		closed_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_guild ON transcripts(guild_id);

	CREATE TABLE IF NOT EXISTS ticket_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id  TEXT NOT NULL,
		guild_id   TEXT NOT NULL,
		action     TEXT NOT NULL,
		actor_id   TEXT NOT NULL,
		timestamp  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ticket_events_guild_ticket ON ticket_events(guild_id, ticket_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	s.log.Info("sqlite archive initialised", zap.String("path", s.Path))
	return nil
}

func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDB) SaveTranscript(rec TranscriptRecord) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO transcripts (ticket_id, guild_id, channel_name, requester_id, claimed_by, closed_by, filename, content, closed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.TicketID, rec.GuildID, rec.ChannelName, rec.RequesterID, rec.ClaimedBy, rec.ClosedBy, rec.Filename, rec.Content, rec.ClosedAt.Format(time.RFC3339),
	)
	return err
}

func (s *SQLiteDB) AddTicketEvent(ev TicketEvent) error {
	_, err := s.db.Exec(
		"INSERT INTO ticket_events (ticket_id, guild_id, action, actor_id, timestamp) VALUES (?, ?, ?, ?, ?)",
		ev.TicketID, ev.GuildID, ev.Action, ev.ActorID, ev.Timestamp.Format(time.RFC3339),
	)
	return err
}

func (s *SQLiteDB) TicketEvents(guildID, ticketID string, limit int) ([]TicketEvent, error) {
	rows, err := s.db.Query(
		"SELECT id, ticket_id, guild_id, action, actor_id, timestamp FROM ticket_events WHERE guild_id = ? AND ticket_id = ? ORDER BY id DESC LIMIT ?",
		guildID, ticketID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []TicketEvent
	for rows.Next() {
		var (
			ev TicketEvent
			ts string
		)
		if err := rows.Scan(&ev.ID, &ev.TicketID, &ev.GuildID, &ev.Action, &ev.ActorID, &ts); err != nil {
			continue
		}
		ev.Timestamp, _ = time.Parse(time.RFC3339, ts)
		events = append(events, ev)
	}
	return events, rows.Err()
}

type MongoDB struct {
	URI    string
	DBName string
	log    *zap.Logger
	client *mongo.Client
}

func (m *MongoDB) Init() error {
	client, err := mongo.Connect(options.Client().ApplyURI(m.URI))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	m.client = client
	m.log.Info("mongodb archive initialised", zap.String("database", m.DBName))
	return nil
}

func (m *MongoDB) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.DBName).Collection(name)
}

func (m *MongoDB) SaveTranscript(rec TranscriptRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := m.collection("transcripts").ReplaceOne(ctx,
		bson.M{"ticket_id": rec.TicketID}, rec, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoDB) AddTicketEvent(ev TicketEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := m.collection("ticket_events").InsertOne(ctx, ev)
	return err
}

func (m *MongoDB) TicketEvents(guildID, ticketID string, limit int) ([]TicketEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := m.collection("ticket_events").Find(ctx, bson.M{"guild_id": guildID, "ticket_id": ticketID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []TicketEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
