package protocol

import (
	"encoding/json"
	"strconv"
	"strings"
)

// subscribe (bridge -> game)
type SubscribeMsg struct {
	Header Header        `json:"header"`
	Body   SubscribeBody `json:"body"`
}

type SubscribeBody struct {
	EventName string `json:"eventName"`
}

func NewSubscribe(eventName string) SubscribeMsg {
	return SubscribeMsg{
		Header: newHeader(PurposeSubscribe),
		Body:   SubscribeBody{EventName: eventName},
	}
}

// commandRequest (bridge -> game)
type CommandMsg struct {
	Header Header      `json:"header"`
	Body   CommandBody `json:"body"`
}

type CommandBody struct {
	Origin      Origin `json:"origin"`
	CommandLine string `json:"commandLine"`
	Version     int    `json:"version"`
}

type Origin struct {
	Type string `json:"type"`
}

func NewCommand(line string) CommandMsg {
	return CommandMsg{
		Header: newHeader(PurposeCommandRequest),
		Body: CommandBody{
			Origin:      Origin{Type: OriginPlayer},
			CommandLine: line,
			Version:     Version,
		},
	}
}

// SetBlockLine renders "setblock <x> <y> <z> <block> <mode>".
func SetBlockLine(x, y, z int, block, mode string) string {
	var b strings.Builder
	b.WriteString("setblock ")
	b.WriteString(strconv.Itoa(x))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(y))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(z))
	b.WriteByte(' ')
	b.WriteString(block)
	b.WriteByte(' ')
	b.WriteString(mode)
	return b.String()
}

// event / commandResponse (game -> bridge)
type Event struct {
	Header Header    `json:"header"`
	Body   EventBody `json:"body"`
}

type EventBody struct {
	EventName  *string         `json:"eventName,omitempty"`
	Properties *ChatProperties `json:"properties,omitempty"`

	// commandResponse only.
	StatusCode    *int   `json:"statusCode,omitempty"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

// ChatProperties keys arrive capitalized from the game; decoding is
// case-insensitive so lower-case keys also match.
type ChatProperties struct {
	Sender  string `json:"Sender"`
	Message string `json:"Message"`
}

type eventWire struct {
	Header *Header    `json:"header"`
	Body   *EventBody `json:"body"`
}

func DecodeEvent(b []byte) (Event, error) {
	var w eventWire
	if err := json.Unmarshal(b, &w); err != nil {
		return Event{}, &Error{Code: ErrBadJSON, Err: err}
	}
	if w.Header == nil {
		return Event{}, &Error{Code: ErrMissingField, Field: "header"}
	}
	if w.Header.MessagePurpose == "" {
		return Event{}, &Error{Code: ErrMissingField, Field: "header.messagePurpose"}
	}
	if w.Body == nil {
		return Event{}, &Error{Code: ErrMissingField, Field: "body"}
	}
	return Event{Header: *w.Header, Body: *w.Body}, nil
}

type Chat struct {
	Sender  string
	Message string
}

// Chat reports whether e is a player chat line the bridge should act on.
// Lines from systemSender are the bridge's own echoes and never qualify.
func (e Event) Chat(systemSender string) (Chat, bool) {
	if e.Body.EventName == nil || *e.Body.EventName != EventPlayerMessage {
		return Chat{}, false
	}
	p := e.Body.Properties
	if p == nil || p.Sender == systemSender {
		return Chat{}, false
	}
	return Chat{Sender: p.Sender, Message: p.Message}, true
}

type CommandResult struct {
	RequestID     string
	StatusCode    int
	StatusMessage string
}

func (r CommandResult) OK() bool { return r.StatusCode == 0 }

// CommandResult extracts the game's reply to a commandRequest.
func (e Event) CommandResult() (CommandResult, bool) {
	if e.Header.MessagePurpose != PurposeCommandResponse && e.Header.MessagePurpose != PurposeError {
		return CommandResult{}, false
	}
	if e.Body.StatusCode == nil {
		return CommandResult{}, false
	}
	return CommandResult{
		RequestID:     e.Header.RequestID,
		StatusCode:    *e.Body.StatusCode,
		StatusMessage: e.Body.StatusMessage,
	}, true
}
