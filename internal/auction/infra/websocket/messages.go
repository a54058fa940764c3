package websocket

import (
	"github.com/cristianortiz/lotsEngine/internal/auction/application"
	"github.com/google/uuid"
)

// MessageType defines ws type message
type MessageType string

const (
	MessageTypeClientLotState     MessageType = "client_lot_state"     // client asks for the current lot state
	MessageTypeServerInitialState MessageType = "server_initial_state" // lot state sent on connect
	MessageTypeServerLotState     MessageType = "server_lot_state"     // reply to client_lot_state
	MessageTypeServerLotEdit      MessageType = "lot_edit"             // a lot was created or updated
	MessageTypeServerLotDelete    MessageType = "lot_delete"           // a lot was removed, sent to every client
	MessageTypeServerError        MessageType = "server_error"
)

// BaseMessage is base struct for all the WS messages, includes a Type field for identify the message type
type BaseMessage struct {
	Type MessageType `json:"type"`
}

type ClientLotStateMessage struct {
	BaseMessage
	Payload struct {
		LotID uuid.UUID `json:"lotId"`
	} `json:"payload"`
}

// ServerLotStateMessage carries a lot snapshot. It is used for the initial
// state, explicit state requests and lot_edit broadcasts.
type ServerLotStateMessage struct {
	BaseMessage
	Payload *application.LotStateDTO `json:"payload"`
}

type ServerLotDeleteMessage struct {
	BaseMessage
	Payload struct {
		LotID string `json:"lotId"`
	} `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Error string `json:"error"`
	} `json:"payload"`
}
