package protocol

import (
	"errors"
	"testing"
)

func TestGameFrames_DecodeOnBridgeSide(t *testing.T) {
	b, err := Encode(NewChatEvent("Steve", "build castle 1,2,3"))
	if err != nil {
		t.Fatal(err)
	}
	ev, err := DecodeEvent(b)
	if err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	chat, ok := ev.Chat(DefaultSystemSender)
	if !ok || chat.Sender != "Steve" || chat.Message != "build castle 1,2,3" {
		t.Fatalf("chat=%+v ok=%v", chat, ok)
	}

	b, _ = Encode(NewCommandResponse("req-1", -2147352576, "Unknown block"))
	ev, err = DecodeEvent(b)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	res, ok := ev.CommandResult()
	if !ok || res.RequestID != "req-1" || res.OK() || res.StatusMessage != "Unknown block" {
		t.Fatalf("result=%+v ok=%v", res, ok)
	}
}

func TestDecodeCommand(t *testing.T) {
	b, _ := Encode(NewCommand("setblock 1 2 3 stone replace"))
	m, err := DecodeCommand(b)
	if err != nil || m.Body.CommandLine != "setblock 1 2 3 stone replace" {
		t.Fatalf("m=%+v err=%v", m, err)
	}

	b, _ = Encode(NewSubscribe(EventPlayerMessage))
	var pe *Error
	if _, err := DecodeCommand(b); !errors.As(err, &pe) || pe.Code != ErrMissingField {
		t.Fatalf("subscribe as command err=%v", err)
	}
	if _, err := DecodeCommand([]byte("{")); !errors.As(err, &pe) || pe.Code != ErrBadJSON {
		t.Fatalf("bad json err=%v", err)
	}
}
