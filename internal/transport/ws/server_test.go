package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voxbridge/internal/bridge"
	"voxbridge/internal/build"
	"voxbridge/internal/palette"
	"voxbridge/internal/protocol"
	"voxbridge/internal/transport/ws"
	"voxbridge/internal/vox/voxtest"
)

func startBridge(t *testing.T) (*bridge.Bridge, *ws.Server, string) {
	t.Helper()
	root := t.TempDir()
	voxtest.WriteFile(t, filepath.Join(root, "vox", "castle.vox"), voxtest.TwoVoxelScene())
	pal, _ := json.Marshal([]palette.Entry{
		{Color: "128,128,128", Block: "stone"},
		{Color: "134,96,67", Block: "dirt"},
	})
	if err := os.WriteFile(filepath.Join(root, "palette.json"), pal, 0o644); err != nil {
		t.Fatal(err)
	}

	b := bridge.New(bridge.Config{Build: build.Config{Layout: build.Layout{Root: root}, Interval: time.Millisecond}}, nil, nil)
	srv := ws.NewServer(b, 8, nil)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return b, srv, "ws" + strings.TrimPrefix(hs.URL, "http")
}

func readJSON(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(msg, v); err != nil {
		t.Fatalf("unmarshal %s: %v", msg, err)
	}
}

func TestServer_SubscribeThenBuild(t *testing.T) {
	b, srv, url := startBridge(t)

	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	var sub protocol.SubscribeMsg
	readJSON(t, c, &sub)
	if sub.Header.MessagePurpose != protocol.PurposeSubscribe || sub.Body.EventName != protocol.EventPlayerMessage {
		t.Fatalf("first frame=%+v", sub)
	}

	chat := `{"header":{"messagePurpose":"event","requestId":"x"},"body":{"eventName":"PlayerMessage","properties":{"Sender":"Steve","Message":"build castle 100,64,200 e"}}}`
	if err := c.WriteMessage(websocket.TextMessage, []byte(chat)); err != nil {
		t.Fatalf("write: %v", err)
	}

	// East: x+(ey-lx), z+ly with ey=2.
	want := []string{"setblock 102 64 200 stone replace", "setblock 101 65 201 dirt replace"}
	for i, w := range want {
		var cmd protocol.CommandMsg
		readJSON(t, c, &cmd)
		if cmd.Header.MessagePurpose != protocol.PurposeCommandRequest || cmd.Body.CommandLine != w {
			t.Fatalf("command %d=%+v want %q", i, cmd, w)
		}
		if cmd.Body.Origin.Type != protocol.OriginPlayer {
			t.Fatalf("origin=%q", cmd.Body.Origin.Type)
		}
	}

	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	select {
	case <-srv.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not finish after close")
	}
	b.Wait()
	if b.State() != bridge.StateClosed {
		t.Fatalf("state=%v", b.State())
	}
	if m := b.Metrics(); m.BuildsDone != 1 || m.CommandsSent != 2 {
		t.Fatalf("metrics=%+v", m)
	}
}

func TestServer_SecondConnectionRefused(t *testing.T) {
	_, _, url := startBridge(t)

	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("second dial err=%v want bad handshake", err)
	}
	if resp == nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("second dial resp=%v want 409", resp)
	}
}

func TestServer_FailedUpgradeReleasesClaim(t *testing.T) {
	_, _, url := startBridge(t)

	resp, err := http.Get("http" + strings.TrimPrefix(url, "ws"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("plain GET status=%d want 400", resp.StatusCode)
	}

	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial after failed upgrade: %v", err)
	}
	c.Close()
}

func TestOutbox_SendAfterClose(t *testing.T) {
	o := ws.NewOutbox(1)
	if err := o.Send(context.Background(), []byte("a")); err != nil {
		t.Fatalf("send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := o.Send(ctx, []byte("b")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("full outbox err=%v want deadline", err)
	}

	o.Close()
	o.Close()
	if err := o.Send(context.Background(), []byte("c")); !errors.Is(err, ws.ErrClosed) {
		t.Fatalf("closed outbox err=%v want ErrClosed", err)
	}
	if o.Len() != 1 {
		t.Fatalf("len=%d", o.Len())
	}
}

func TestServer_CloseEndsSession(t *testing.T) {
	b, srv, url := startBridge(t)

	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	var sub protocol.SubscribeMsg
	readJSON(t, c, &sub)

	srv.Close()
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = c.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("client read err=%v want going away", err)
	}
	select {
	case <-srv.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not finish")
	}
	b.Wait()
	if b.State() != bridge.StateClosed {
		t.Fatalf("state=%v", b.State())
	}
	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil || resp == nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("dial after close: err=%v resp=%v", err, resp)
	}
}
