package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/auction/application"
	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/events"
	"github.com/cristianortiz/lotsEngine/internal/shared/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateReader map[uuid.UUID]*application.LotStateDTO

func (r stateReader) GetLotState(_ context.Context, lotID uuid.UUID) (*application.LotStateDTO, error) {
	s, ok := r[lotID]
	if !ok {
		return nil, domain.ErrLotNotFound
	}
	return s, nil
}

func setup(t *testing.T) (*LotWSHandler, *websocket.Hub, uuid.UUID) {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	lotID := uuid.New()
	reader := stateReader{lotID: {LotID: lotID, Title: "Angus steers", State: "live", Count: 12}}
	return NewLotWSHandler(reader, hub), hub, lotID
}

func join(t *testing.T, hub *websocket.Hub, id, lotID string) *websocket.Client {
	t.Helper()
	c := websocket.NewClient(hub, nil, id, lotID, "")
	before := hub.ClientCount("")
	hub.RegisterClient(c)
	require.Eventually(t, func() bool { return hub.ClientCount("") == before+1 }, time.Second, 5*time.Millisecond)
	return c
}

func next(t *testing.T, c *websocket.Client) map[string]any {
	t.Helper()
	select {
	case data := <-c.Send:
		var out map[string]any
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID)
		return nil
	}
}

func silent(t *testing.T, c *websocket.Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("client %s unexpectedly received %s", c.ID, data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProcessMessage_LotState(t *testing.T) {
	h, hub, lotID := setup(t)
	c := join(t, hub, "c1", lotID.String())

	h.processMessage(context.Background(), c, []byte(`{"type":"client_lot_state","payload":{"lotId":"`+lotID.String()+`"}}`))
	msg := next(t, c)
	assert.Equal(t, string(MessageTypeServerLotState), msg["type"])
	assert.Equal(t, "Angus steers", msg["payload"].(map[string]any)["title"])

	h.processMessage(context.Background(), c, []byte(`{"type":"client_lot_state","payload":{"lotId":"`+uuid.NewString()+`"}}`))
	msg = next(t, c)
	assert.Equal(t, string(MessageTypeServerError), msg["type"])
	assert.Equal(t, "lot ID mismatch", msg["payload"].(map[string]any)["error"])

	h.processMessage(context.Background(), c, []byte(`{"type":"client_bid"}`))
	assert.Equal(t, "unknown message type", next(t, c)["payload"].(map[string]any)["error"])

	h.processMessage(context.Background(), c, []byte(`not json`))
	assert.Equal(t, "invalid message format", next(t, c)["payload"].(map[string]any)["error"])
}

func TestLotEvents_FanOut(t *testing.T) {
	h, hub, lotID := setup(t)
	bus := events.NewBus()
	h.Subscribe(bus)

	watcher := join(t, hub, "watcher", lotID.String())
	other := join(t, hub, "other", uuid.NewString())

	require.NoError(t, bus.Publish(context.Background(), events.Event{Type: events.LotEdited, LotID: lotID.String()}))
	msg := next(t, watcher)
	assert.Equal(t, "lot_edit", msg["type"])
	assert.EqualValues(t, 12, msg["payload"].(map[string]any)["count"])
	silent(t, other)

	require.NoError(t, bus.Publish(context.Background(), events.Event{Type: events.LotDeleted, LotID: lotID.String()}))
	for _, c := range []*websocket.Client{watcher, other} {
		msg := next(t, c)
		assert.Equal(t, "lot_delete", msg["type"])
		assert.Equal(t, lotID.String(), msg["payload"].(map[string]any)["lotId"])
	}
}

func TestLotEdited_UnknownLotIsNotBroadcast(t *testing.T) {
	h, hub, _ := setup(t)
	missing := uuid.NewString()
	c := join(t, hub, "c1", missing)

	h.OnLotEdited(context.Background(), events.Event{Type: events.LotEdited, LotID: missing})
	silent(t, c)
}
