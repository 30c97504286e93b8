package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"voxbridge/internal/protocol"
)

// mockgame plays the game side of a session: it waits for the bridge's
// subscription, types one chat line, then acknowledges and prints every
// command it receives.
func main() {
	var (
		url    = flag.String("url", "ws://127.0.0.1:33016/", "bridge ws url")
		sender = flag.String("sender", "Steve", "player name reported for the chat line")
		chat   = flag.String("chat", "build castle 0,64,0", "chat line to send after subscribing")
		echo   = flag.Bool("echo", true, "echo each command back as system chat, like the game does")
		idle   = flag.Duration("idle", 3*time.Second, "exit after this long without a command")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[mockgame] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interrupted"), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	subscribed := false
	commands := 0
	for {
		_ = conn.SetReadDeadline(time.Now().Add(*idle))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
				logger.Printf("idle after %d commands; closing", commands)
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(time.Second))
				return
			}
			logger.Printf("read: %v", err)
			return
		}

		if !subscribed {
			var sub protocol.SubscribeMsg
			if err := json.Unmarshal(msg, &sub); err != nil || sub.Header.MessagePurpose != protocol.PurposeSubscribe {
				logger.Printf("unexpected first frame: %s", msg)
				continue
			}
			subscribed = true
			logger.Printf("subscribed to %s", sub.Body.EventName)
			if strings.TrimSpace(*chat) != "" {
				if err := writeEvent(conn, protocol.NewChatEvent(*sender, *chat)); err != nil {
					logger.Fatalf("send chat: %v", err)
				}
				logger.Printf("<%s> %s", *sender, *chat)
			}
			continue
		}

		cmd, err := protocol.DecodeCommand(msg)
		if err != nil {
			logger.Printf("skip frame: %v", err)
			continue
		}
		commands++
		fmt.Println(cmd.Body.CommandLine)
		if err := writeEvent(conn, protocol.NewCommandResponse(cmd.Header.RequestID, 0, "")); err != nil {
			logger.Printf("ack: %v", err)
			return
		}
		if *echo {
			if err := writeEvent(conn, protocol.NewChatEvent(protocol.DefaultSystemSender, cmd.Body.CommandLine)); err != nil {
				logger.Printf("echo: %v", err)
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev protocol.Event) error {
	b, err := protocol.Encode(ev)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
