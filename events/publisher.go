// Package events publishes ticket lifecycle events to RabbitMQ for
// external consumers (dashboards, audit pipelines). The publisher is
// optional: a nil *Publisher is a safe no-op.
package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	TicketOpened    = "ticket.opened"
	TicketClaimed   = "ticket.claimed"
	TicketUnclaimed = "ticket.unclaimed"
	TicketClosed    = "ticket.closed"
)

type Event struct {
	Type        string    `json:"type"`
	TicketID    string    `json:"ticket_id"`
	GuildID     string    `json:"guild_id"`
	ChannelID   string    `json:"channel_id"`
	Kind        string    `json:"kind,omitempty"`
	RequesterID string    `json:"requester_id,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
	At          time.Time `json:"at"`
}

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

// Connect dials the broker and declares a durable topic exchange.
func Connect(url, exchange string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	log.Info("event publisher connected", zap.String("exchange", exchange))
	return &Publisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

// Publish emits the event with its type as routing key. Failures are
// logged, never surfaced: event delivery must not affect the ticket
// operation that triggered it.
func (p *Publisher) Publish(ev Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("event marshal failed", zap.Error(err), zap.String("type", ev.Type))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = p.ch.PublishWithContext(ctx, p.exchange, ev.Type, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.At,
		Body:        body,
	})
	if err != nil {
		p.log.Warn("event publish failed", zap.Error(err), zap.String("type", ev.Type))
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
