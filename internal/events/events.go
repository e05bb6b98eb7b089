// Package events publishes registry changes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"hackathon-scoreboard/internal/config"
	"hackathon-scoreboard/internal/teams"
)

type Type string

const (
	TeamRegistered Type = "team.registered"
	TeamUpdated    Type = "team.updated"
	TeamScored     Type = "team.scored"
	TeamRemoved    Type = "team.removed"
	RegistryLoaded Type = "registry.loaded"
)

// Event is the message body. Team is omitted for removals and loads; Count
// carries the number of teams after a load.
type Event struct {
	Type   Type        `json:"type"`
	TeamID int         `json:"team_id,omitempty"`
	Team   *teams.Team `json:"team,omitempty"`
	Count  int         `json:"count,omitempty"`
	Role   string      `json:"role,omitempty"`
	At     time.Time   `json:"at"`
}

func ForTeam(typ Type, t teams.Team) Event {
	return Event{Type: typ, TeamID: t.ID, Team: &t, At: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w   messageWriter
	log *slog.Logger
}

// New returns a Kafka backed publisher, or a no-op one when no brokers are
// configured.
func New(cfg config.KafkaConfig, log *slog.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		log.Info("event_publisher_disabled")
		return Nop{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &KafkaPublisher{w: w, log: log.With(slog.String("component", "events"))}
}

// Publish writes e keyed by team id so that all events of a team land on
// the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{Key: []byte(strconv.Itoa(e.TeamID)), Value: body}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("event_publish_failed", "type", e.Type, "team_id", e.TeamID, "err", err)
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	p.log.Debug("event_published", "type", e.Type, "team_id", e.TeamID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
