package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	mu        sync.Mutex
	published []amqp.Publishing
	keys      []string
	err       error
}

func (c *recordingChannel) Publish(_, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func TestNewUserRegistered(t *testing.T) {
	e := NewUserRegistered("alice", "a@x.com")
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, "alice", e.Username)
	assert.Equal(t, "user.registered", e.RoutingKey())
	assert.False(t, e.OccurredAt.IsZero())

	other := NewUserRegistered("alice", "a@x.com")
	assert.NotEqual(t, e.ID, other.ID)
}

func TestRabbitPublisher_Publish(t *testing.T) {
	ch := &recordingChannel{}
	pub := NewRabbitPublisher(ch, "cropyield")

	event := NewYieldPredicted("alice", "Wheat", 3200, "moderate")
	require.NoError(t, pub.Publish(context.Background(), event))

	require.Len(t, ch.published, 1)
	assert.Equal(t, "yield.predicted", ch.keys[0])

	var got YieldPredicted
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, 3200.0, got.PredictedYield)
	assert.Equal(t, "moderate", got.Band)
}

func TestRabbitPublisher_ConcurrentPublish(t *testing.T) {
	ch := &recordingChannel{}
	pub := NewRabbitPublisher(ch, "cropyield")

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, pub.Publish(context.Background(), NewUserRegistered("bob", "b@y.com")))
		}()
	}
	wg.Wait()
	assert.Len(t, ch.published, 20)
}

func TestRabbitPublisher_Errors(t *testing.T) {
	brokerErr := errors.New("channel closed")
	pub := NewRabbitPublisher(&recordingChannel{err: brokerErr}, "cropyield")

	err := pub.Publish(context.Background(), NewUserRegistered("alice", "a@x.com"))
	assert.ErrorIs(t, err, brokerErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pub.Publish(ctx, NewUserRegistered("alice", "a@x.com"))
	assert.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, pub.Close())
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), NewUserRegistered("alice", "a@x.com")))
}
