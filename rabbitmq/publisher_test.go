package rabbitmq

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/streadway/amqp"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, exchange: "greenmap", routingKey: "report.created"}

	if err := p.Publish(map[string]string{"id": "1"}); err != nil {
		t.Fatal(err)
	}
	if err := p.PublishWithRoutingKey("report.updated", map[string]string{"id": "2"}); err != nil {
		t.Fatal(err)
	}

	if len(ch.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(ch.sent))
	}
	if ch.sent[0].exchange != "greenmap" || ch.sent[0].key != "report.created" || ch.sent[1].key != "report.updated" {
		t.Errorf("routing = %+v", ch.sent)
	}
	m := ch.sent[0].msg
	if m.ContentType != "application/json" || m.DeliveryMode != amqp.Persistent {
		t.Errorf("publishing = %+v", m)
	}
	var body map[string]string
	if err := json.Unmarshal(m.Body, &body); err != nil || body["id"] != "1" {
		t.Errorf("body = %s", m.Body)
	}
}

func TestPublishError(t *testing.T) {
	p := &Publisher{channel: &fakeChannel{err: errors.New("channel closed")}}
	if err := p.Publish("x"); err == nil {
		t.Error("Publish() error = nil")
	}
	if err := p.Publish(make(chan int)); err == nil {
		t.Error("Publish() of unmarshalable value error = nil")
	}
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !ch.closed {
		t.Error("channel not closed")
	}
}
