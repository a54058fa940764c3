package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cristianortiz/lotsEngine/internal/auction/application"
	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/cristianortiz/lotsEngine/internal/shared/events"
	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"github.com/cristianortiz/lotsEngine/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// LotStateReader is the part of the lot service the websocket layer needs.
type LotStateReader interface {
	GetLotState(ctx context.Context, lotID uuid.UUID) (*application.LotStateDTO, error)
}

// LotWSHandler handles the ws traffic of the auction module: lot
// subscriptions, inbound state requests and lot event fan-out.
type LotWSHandler struct {
	lots LotStateReader
	hub  *websocket.Hub
}

func NewLotWSHandler(lots LotStateReader, hub *websocket.Hub) *LotWSHandler {
	return &LotWSHandler{
		lots: lots,
		hub:  hub,
	}
}

// RegisterRoutes mounts GET /ws/lots/:lotId. ctx bounds the client pumps.
func (h *LotWSHandler) RegisterRoutes(ctx context.Context, r fiber.Router) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	r.Get("/ws/lots/:lotId", fiberws.New(func(conn *fiberws.Conn) {
		h.serve(ctx, conn)
	}))
}

func (h *LotWSHandler) serve(ctx context.Context, conn *fiberws.Conn) {
	lotID, err := uuid.Parse(conn.Params("lotId"))
	if err != nil {
		log.Warn("Rejected websocket subscription", zap.String("lotID", conn.Params("lotId")))
		_ = conn.Close()
		return
	}

	client := websocket.NewClient(h.hub, conn, uuid.NewString(), lotID.String(), conn.RemoteAddr().String())

	// queued before registration, the hub does not own the channel yet
	if data, err := h.initialState(ctx, lotID); err == nil {
		client.Send <- data
	} else {
		log.Warn("Failed to load initial lot state", zap.String("lotID", lotID.String()), zap.Error(err))
	}
	h.hub.RegisterClient(client)

	go client.WritePump(ctx)
	// fiber closes the connection when this handler returns
	client.ReadPump(ctx)
}

func (h *LotWSHandler) initialState(ctx context.Context, lotID uuid.UUID) ([]byte, error) {
	state, err := h.lots.GetLotState(ctx, lotID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ServerLotStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerInitialState},
		Payload:     state,
	})
}

// ListenForMessages processes the hub inbound messages until ctx is done.
func (h *LotWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("LotWSHandler started listening for inbound messages from hub")
	for {
		select {
		case <-ctx.Done():
			log.Info("LotWSHandler stopped listening for inbound messages from hub")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

// processMessage dispatch the message by this type
func (h *LotWSHandler) processMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, "invalid message format")
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientLotState:
		h.handleLotStateRequest(ctx, client, data)
	default:
		h.sendErrorToClient(client, "unknown message type")
	}
}

func (h *LotWSHandler) handleLotStateRequest(ctx context.Context, client *websocket.Client, data []byte) {
	var msg ClientLotStateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendErrorToClient(client, "invalid lot state message format")
		return
	}
	if msg.Payload.LotID.String() != client.LotID {
		h.sendErrorToClient(client, "lot ID mismatch")
		return
	}

	state, err := h.lots.GetLotState(ctx, msg.Payload.LotID)
	if err != nil {
		if errors.Is(err, domain.ErrLotNotFound) {
			h.sendErrorToClient(client, "lot not found")
			return
		}
		log.Error("Failed to get lot state", zap.String("lotID", client.LotID), zap.Error(err))
		h.sendErrorToClient(client, "failed to get lot state")
		return
	}
	h.sendToClient(client, ServerLotStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerLotState},
		Payload:     state,
	})
}

// Subscribe attaches the lot event handlers to bus.
func (h *LotWSHandler) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.LotEdited, h.OnLotEdited)
	bus.Subscribe(events.LotDeleted, h.OnLotDeleted)
}

// OnLotEdited pushes the fresh lot state to the lot's clients.
func (h *LotWSHandler) OnLotEdited(ctx context.Context, e events.Event) {
	lotID, err := uuid.Parse(e.LotID)
	if err != nil {
		log.Warn("lot_edit event with invalid lot id", zap.String("lotID", e.LotID))
		return
	}
	state, err := h.lots.GetLotState(ctx, lotID)
	if err != nil {
		log.Error("Failed to load lot state for broadcast", zap.String("lotID", e.LotID), zap.Error(err))
		return
	}
	data, err := json.Marshal(ServerLotStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerLotEdit},
		Payload:     state,
	})
	if err != nil {
		log.Error("failed to marshal lot_edit message", zap.Error(err))
		return
	}
	h.hub.BroadcastToLot(e.LotID, data)
}

// OnLotDeleted tells every connected client, like the lot listings do.
func (h *LotWSHandler) OnLotDeleted(_ context.Context, e events.Event) {
	msg := ServerLotDeleteMessage{BaseMessage: BaseMessage{Type: MessageTypeServerLotDelete}}
	msg.Payload.LotID = e.LotID
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal lot_delete message", zap.Error(err))
		return
	}
	h.hub.BroadcastToAll(data)
}

func (h *LotWSHandler) sendToClient(client *websocket.Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal websocket message", zap.Error(err))
		return
	}
	if !h.hub.SendToClient(client, data) {
		log.Warn("client gone or send channel full, message dropped", zap.String("clientID", client.ID))
	}
}

// sendErrorToClient serializes and sends an error msg to a specific client
func (h *LotWSHandler) sendErrorToClient(client *websocket.Client, errorMessage string) {
	errMsg := ServerErrorMessage{
		BaseMessage: BaseMessage{MessageTypeServerError},
	}
	errMsg.Payload.Error = errorMessage
	h.sendToClient(client, errMsg)
}
