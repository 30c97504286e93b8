package protocol

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Version is the envelope and command body version the game accepts.
const Version = 1

// Message purposes.
const (
	PurposeSubscribe       = "subscribe"
	PurposeCommandRequest  = "commandRequest"
	PurposeCommandResponse = "commandResponse"
	PurposeEvent           = "event"
	PurposeError           = "error"
)

const (
	TypeCommandRequest = "commandRequest"

	EventPlayerMessage = "PlayerMessage"

	OriginPlayer = "player"
	ReplaceMode  = "replace"

	// DefaultSystemSender is the sender the game reports for chat produced
	// by the websocket client itself (command echoes). Such chat is ignored.
	DefaultSystemSender = "外部"
)

// Header is the envelope shared by every frame. Inbound frames may carry
// only MessagePurpose.
type Header struct {
	RequestID      string `json:"requestId"`
	MessagePurpose string `json:"messagePurpose"`
	Version        int    `json:"version"`
	MessageType    string `json:"messageType"`
}

func newHeader(purpose string) Header {
	return Header{
		RequestID:      uuid.NewString(),
		MessagePurpose: purpose,
		Version:        Version,
		MessageType:    TypeCommandRequest,
	}
}

// Encode marshals an outbound message.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, &Error{Code: ErrEncode, Err: err}
	}
	return b, nil
}
