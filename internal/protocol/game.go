package protocol

import "encoding/json"

// Frames the game side produces. Used by the mock game client and tests.

func NewChatEvent(sender, message string) Event {
	name := EventPlayerMessage
	h := newHeader(PurposeEvent)
	h.MessageType = "event"
	return Event{
		Header: h,
		Body: EventBody{
			EventName:  &name,
			Properties: &ChatProperties{Sender: sender, Message: message},
		},
	}
}

func NewCommandResponse(requestID string, statusCode int, statusMessage string) Event {
	h := newHeader(PurposeCommandResponse)
	h.RequestID = requestID
	return Event{
		Header: h,
		Body:   EventBody{StatusCode: &statusCode, StatusMessage: statusMessage},
	}
}

// DecodeCommand parses a commandRequest frame as the game receives it.
func DecodeCommand(b []byte) (CommandMsg, error) {
	var m CommandMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return CommandMsg{}, &Error{Code: ErrBadJSON, Err: err}
	}
	if m.Header.MessagePurpose != PurposeCommandRequest {
		return CommandMsg{}, &Error{Code: ErrMissingField, Field: "header.messagePurpose"}
	}
	if m.Body.CommandLine == "" {
		return CommandMsg{}, &Error{Code: ErrMissingField, Field: "body.commandLine"}
	}
	return m, nil
}
