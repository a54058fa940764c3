package websocket

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer  = 64
	queueBuffer = 256
)

// Conn is the part of the websocket connection the pumps use.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	NextWriter(messageType int) (io.WriteCloser, error)
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Hub keeps the client registry grouped by lot and fans messages out.
// Run is the only goroutine that mutates the registry.
type Hub struct {
	mu sync.RWMutex
	// lot ID -> set of clients
	clients map[string]map[*Client]struct{}

	broadcast chan *Message
	// register and unregister share one queue so they apply in call order.
	membership chan membership

	// InboundMessages is consumed by module handlers.
	InboundMessages chan *ClientMessage
}

// Client is a single websocket connection subscribed to one lot.
type Client struct {
	Hub        *Hub
	Conn       Conn
	Send       chan []byte
	LotID      string
	ID         string
	RemoteAddr string
}

// Message targets every client of LotID, or every client when LotID is empty.
type Message struct {
	LotID string
	Data  []byte
}

type membership struct {
	client *Client
	join   bool
}

// ClientMessage wraps raw data received from a client.
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:       make(chan *Message, queueBuffer),
		membership:      make(chan membership, 2*queueBuffer),
		clients:         make(map[string]map[*Client]struct{}),
		InboundMessages: make(chan *ClientMessage, queueBuffer),
	}
}

func NewClient(h *Hub, conn Conn, id, lotID, remoteAddr string) *Client {
	return &Client{
		Hub:        h,
		Conn:       conn,
		Send:       make(chan []byte, sendBuffer),
		LotID:      lotID,
		ID:         id,
		RemoteAddr: remoteAddr,
	}
}

// Run serves the hub channels until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info("Websocket Hub started")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			log.Info("WebSocket Hub shutting down due to context cancellation")
			return

		case m := <-h.membership:
			if m.join {
				h.add(m.client)
			} else {
				h.remove(m.client)
			}

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.LotID]; !ok {
		h.clients[client.LotID] = make(map[*Client]struct{})
	}
	h.clients[client.LotID][client] = struct{}{}
	total := h.totalLocked()
	h.mu.Unlock()
	log.Info("Client registered",
		zap.String("clientID", client.ID),
		zap.String("lotID", client.LotID),
		zap.String("remote_addr", client.RemoteAddr),
		zap.Int("total_clients", total),
	)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	removed := h.removeLocked(client)
	total := h.totalLocked()
	h.mu.Unlock()
	if removed {
		log.Info("Client unregistered",
			zap.String("clientID", client.ID),
			zap.String("lotID", client.LotID),
			zap.Int("total_clients", total),
		)
	}
}

func (h *Hub) deliver(message *Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []*Client
	if message.LotID == "" {
		for _, group := range h.clients {
			for client := range group {
				targets = append(targets, client)
			}
		}
	} else {
		for client := range h.clients[message.LotID] {
			targets = append(targets, client)
		}
	}

	log.Debug("Broadcasting message", zap.String("lotID", message.LotID), zap.Int("clients", len(targets)))
	for _, client := range targets {
		select {
		case client.Send <- message.Data:
		default:
			// slow consumer
			h.removeLocked(client)
			log.Warn("Client send buffer full, unregistering",
				zap.String("clientID", client.ID),
				zap.String("lotID", client.LotID),
				zap.String("remote_addr", client.RemoteAddr),
			)
		}
	}
}

func (h *Hub) removeLocked(client *Client) bool {
	group, ok := h.clients[client.LotID]
	if !ok {
		return false
	}
	if _, ok := group[client]; !ok {
		return false
	}
	delete(group, client)
	close(client.Send)
	if len(group) == 0 {
		delete(h.clients, client.LotID)
	}
	return true
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for lotID, group := range h.clients {
		for client := range group {
			close(client.Send)
		}
		delete(h.clients, lotID)
	}
}

func (h *Hub) totalLocked() int {
	count := 0
	for _, group := range h.clients {
		count += len(group)
	}
	return count
}

// ClientCount reports the clients watching lotID, or all clients when lotID is empty.
func (h *Hub) ClientCount(lotID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if lotID == "" {
		return h.totalLocked()
	}
	return len(h.clients[lotID])
}

func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.membership <- membership{client: client, join: true}:
	default:
		log.Error("Register channel is full, client registration failed",
			zap.String("clientID", client.ID),
			zap.String("lotID", client.LotID),
		)
		if client.Conn != nil {
			_ = client.Conn.Close()
		}
	}
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.membership <- membership{client: client}:
	default:
		log.Error("Unregister channel is full, client unregistration failed",
			zap.String("clientID", client.ID),
			zap.String("lotID", client.LotID),
		)
	}
}

// BroadcastToLot queues data for every client of lotID.
func (h *Hub) BroadcastToLot(lotID string, data []byte) {
	h.enqueue(&Message{LotID: lotID, Data: data})
}

// BroadcastToAll queues data for every connected client.
func (h *Hub) BroadcastToAll(data []byte) {
	h.enqueue(&Message{Data: data})
}

// SendToClient queues data for a single registered client. It reports false
// when the client is gone or its buffer is full.
func (h *Hub) SendToClient(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.LotID][client]; !ok {
		return false
	}
	select {
	case client.Send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) enqueue(m *Message) {
	select {
	case h.broadcast <- m:
	default:
		log.Error("Broadcast channel is full, message dropped", zap.String("lotID", m.LotID))
	}
}

// ReadPump forwards client frames to InboundMessages. One goroutine per client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("ReadPump stopped for client",
			zap.String("clientID", c.ID),
			zap.String("lotID", c.LotID),
		)
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error",
					zap.String("clientID", c.ID),
					zap.String("lotID", c.LotID),
					zap.String("remote_addr", c.RemoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			log.Error("Hub InboundMessages channel is full, dropping message",
				zap.String("clientID", c.ID),
				zap.String("lotID", c.LotID),
			)
		}
	}
}

// WritePump writes queued messages one frame each and keeps the
// connection alive with pings. It is the only writer for the connection.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			err := c.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			if err != nil {
				log.Debug("Failed to send close control message", zap.String("clientID", c.ID), zap.Error(err))
			}
			return

		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				log.Error("Failed to get next writer for client",
					zap.String("clientID", c.ID),
					zap.String("lotID", c.LotID),
					zap.Error(err),
				)
				return
			}
			if _, err := w.Write(message); err != nil {
				log.Error("Failed to write message", zap.String("clientID", c.ID), zap.Error(err))
				return
			}
			if err := w.Close(); err != nil {
				log.Error("Failed to close writer for client",
					zap.String("clientID", c.ID),
					zap.String("lotID", c.LotID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Error("Failed to write ping message to client",
					zap.String("clientID", c.ID),
					zap.String("lotID", c.LotID),
					zap.Error(err),
				)
				return
			}
		}
	}
}
