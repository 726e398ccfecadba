package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus(t *testing.T) {
	b := NewInMemory(1)
	b.PublishSearchCompleted(context.Background(), SearchCompleted{SearchID: "a"})
	b.PublishSearchCompleted(context.Background(), SearchCompleted{SearchID: "dropped"})

	got := <-b.Subscribe()
	assert.Equal(t, "a", got.SearchID)
	select {
	case evt := <-b.Subscribe():
		t.Fatalf("unexpected event %q", evt.SearchID)
	default:
	}
}

type recorder struct{ got []string }

func (r *recorder) PublishSearchCompleted(_ context.Context, evt SearchCompleted) {
	r.got = append(r.got, evt.SearchID)
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, nil, b, Nop{}}.PublishSearchCompleted(context.Background(), SearchCompleted{SearchID: "x"})
	assert.Equal(t, []string{"x"}, a.got)
	assert.Equal(t, []string{"x"}, b.got)
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{ch: ch, exchange: "cma.events", timeout: time.Second}
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	p.PublishSearchCompleted(context.Background(), SearchCompleted{SearchID: "s-1", Results: 3, At: at})

	assert.Equal(t, "cma.events", ch.exchange)
	assert.Equal(t, RoutingKeySearchCompleted, ch.key)
	assert.Equal(t, "s-1", ch.msg.MessageId)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	var evt SearchCompleted
	require.NoError(t, json.Unmarshal(ch.msg.Body, &evt))
	assert.Equal(t, 3, evt.Results)

	ch.err = errors.New("channel closed")
	assert.NotPanics(t, func() {
		p.PublishSearchCompleted(context.Background(), SearchCompleted{SearchID: "s-2"})
	})

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
	assert.Error(t, p.publish(context.Background(), RoutingKeySearchCompleted, "s-3", SearchCompleted{}))
}
