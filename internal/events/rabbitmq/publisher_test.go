package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"breadvan-backend/internal/events"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublish_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch}

	e := events.New(events.DriveCancelled)
	e.DriveID = "drive-1"
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if ch.exchange != ExchangeName || ch.key != "drive.cancelled" {
		t.Errorf("expected %s/drive.cancelled, got %s/%s", ExchangeName, ch.exchange, ch.key)
	}
	if ch.msg.ContentType != "application/json" || ch.msg.DeliveryMode != amqp.Persistent {
		t.Errorf("unexpected publishing headers %+v", ch.msg)
	}
	var got events.Event
	if err := json.Unmarshal(ch.msg.Body, &got); err != nil {
		t.Fatal(err)
	}
	if got.DriveID != "drive-1" || got.Type != events.DriveCancelled {
		t.Errorf("unexpected body %+v", got)
	}

	if err := p.Close(); err != nil || !ch.closed {
		t.Errorf("expected channel closed, err=%v", err)
	}
}

func TestPublish_WrapsBrokerError(t *testing.T) {
	brokerErr := errors.New("channel closed")
	p := &Publisher{ch: &fakeChannel{err: brokerErr}}
	err := p.Publish(context.Background(), events.New(events.VanNearby))
	if !errors.Is(err, brokerErr) {
		t.Errorf("expected wrapped broker error, got %v", err)
	}
}
