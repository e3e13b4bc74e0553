// Package kafka publishes bread van events to Kafka, one topic per event type
// under a common prefix (breadvan.drive.scheduled, ...), keyed by drive id so
// a drive's events stay ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"breadvan-backend/internal/events"
)

var _ events.Publisher = (*Publisher)(nil)

const TopicPrefix = "breadvan."

// writer is the part of *kafkago.Writer the publisher uses
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Publisher struct {
	w writer
}

// NewPublisher writes to brokers. Topics are created on first write when the
// cluster allows auto creation; EnsureTopics creates them up front otherwise.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{w: &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}}
}

// Topics lists every topic the publisher writes to
func Topics() []string {
	types := []string{
		events.DriveScheduled, events.DriveStarted, events.DriveCompleted,
		events.DriveCancelled, events.DriveUpdated, events.DriveDeleted,
		events.StopRequested, events.StopCancelled, events.VanNearby,
	}
	topics := make([]string, len(types))
	for i, t := range types {
		topics[i] = TopicPrefix + t
	}
	return topics
}

// EnsureTopics creates the event topics, retrying while the broker starts
func EnsureTopics(ctx context.Context, broker string) error {
	for attempt := 1; attempt <= 10; attempt++ {
		conn, err := kafkago.DialContext(ctx, "tcp", broker)
		if err != nil {
			log.Printf("⏳ Kafka not ready, retrying in 3s... (%d/10)", attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}
		configs := make([]kafkago.TopicConfig, 0, len(Topics()))
		for _, t := range Topics() {
			configs = append(configs, kafkago.TopicConfig{Topic: t, NumPartitions: 3, ReplicationFactor: 1})
		}
		err = conn.CreateTopics(configs...)
		conn.Close()
		if err != nil {
			log.Printf("⚠️  Kafka topic creation returned (may already exist): %v", err)
		}
		log.Println("✅ Kafka topics ensured")
		return nil
	}
	return fmt.Errorf("kafka: could not connect to %s", broker)
}

func message(e events.Event) (kafkago.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	key := e.DriveID
	if key == "" {
		key = e.DriverID
	}
	return kafkago.Message{
		Topic: TopicPrefix + e.Type,
		Key:   []byte(key),
		Value: value,
		Time:  time.Unix(e.OccurredAt, 0),
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	msg, err := message(e)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", msg.Topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
