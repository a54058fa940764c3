package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDispatchesByType(t *testing.T) {
	bus := NewBus()

	var edited, deleted []Event
	bus.Subscribe(LotEdited, func(_ context.Context, e Event) { edited = append(edited, e) })
	bus.Subscribe(LotDeleted, func(_ context.Context, e Event) { deleted = append(deleted, e) })

	require.NoError(t, bus.Publish(context.Background(), Event{Type: LotEdited, LotID: "l1"}))
	require.NoError(t, bus.Publish(context.Background(), Event{Type: LotDeleted, LotID: "l2"}))
	require.NoError(t, bus.Publish(context.Background(), Event{Type: LotEdited, LotID: "l3"}))

	require.Len(t, edited, 2)
	require.Len(t, deleted, 1)
	assert.Equal(t, "l1", edited[0].LotID)
	assert.NotZero(t, edited[0].Timestamp)
	assert.Equal(t, "l2", deleted[0].LotID)
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, Event) error { return f.err }

func TestMulti_JoinsErrors(t *testing.T) {
	bus := NewBus()
	got := 0
	bus.Subscribe(LotEdited, func(context.Context, Event) { got++ })

	boom := errors.New("boom")
	m := Multi{bus, failingPublisher{err: boom}}

	err := m.Publish(context.Background(), Event{Type: LotEdited, LotID: "l1"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, got)

	Notify(context.Background(), m, Event{Type: LotEdited, LotID: "l1"})
	Notify(context.Background(), nil, Event{Type: LotEdited, LotID: "l1"})
	assert.Equal(t, 2, got)
}

type fakeRedis struct {
	channel string
	message []byte
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal(1)
	return cmd
}

func TestRedisPublisher(t *testing.T) {
	client := &fakeRedis{}
	p := NewRedisPublisher(client, "lots:events")

	require.NoError(t, p.Publish(context.Background(), Event{Type: LotDeleted, LotID: "l9", AuctionID: "a1"}))
	assert.Equal(t, "lots:events", client.channel)

	var got Event
	require.NoError(t, json.Unmarshal(client.message, &got))
	assert.Equal(t, LotDeleted, got.Type)
	assert.Equal(t, "l9", got.LotID)
	assert.Equal(t, "a1", got.AuctionID)
	assert.NotZero(t, got.Timestamp)

	client.err = errors.New("connection refused")
	assert.ErrorIs(t, p.Publish(context.Background(), Event{Type: LotEdited}), client.err)
}
