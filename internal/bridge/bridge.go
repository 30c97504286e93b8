package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"voxbridge/internal/build"
	"voxbridge/internal/protocol"
	"voxbridge/internal/trigger"
)

// SessionState is the lifecycle of the single game connection.
type SessionState int

const (
	StateWaiting SessionState = iota
	StateOpen
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "waiting"
	}
}

var ErrAlreadyOpen = errors.New("bridge: session already opened")

type Config struct {
	Build build.Config

	// SystemSender marks chat echoed back from the bridge's own commands.
	SystemSender   string
	SubscribeEvent string
}

// Bridge owns the session state and turns chat triggers into builds. Each
// trigger runs in its own goroutine; all builds share the session sender.
type Bridge struct {
	cfg Config
	obs build.Observer
	log *log.Logger

	mu         sync.Mutex
	state      SessionState
	ctx        context.Context
	dispatcher *build.Dispatcher

	builds sync.WaitGroup

	buildsStarted  atomic.Int64
	buildsDone     atomic.Int64
	buildsSkipped  atomic.Int64
	buildsFailed   atomic.Int64
	buildsActive   atomic.Int64
	commandsSent   atomic.Int64
	commandErrors  atomic.Int64
	protocolErrors atomic.Int64
	ignored        atomic.Int64
}

func New(cfg Config, obs build.Observer, logger *log.Logger) *Bridge {
	if cfg.SystemSender == "" {
		cfg.SystemSender = protocol.DefaultSystemSender
	}
	if cfg.SubscribeEvent == "" {
		cfg.SubscribeEvent = protocol.EventPlayerMessage
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Bridge{cfg: cfg, obs: obs, log: logger}
}

func (b *Bridge) State() SessionState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Open binds the session sender and subscribes to chat events. Builds
// started later inherit ctx.
func (b *Bridge) Open(ctx context.Context, out build.Sender) error {
	b.mu.Lock()
	if b.state != StateWaiting {
		b.mu.Unlock()
		return ErrAlreadyOpen
	}
	bl := log.New(b.log.Writer(), "[build] ", b.log.Flags())
	b.state = StateOpen
	b.ctx = ctx
	b.dispatcher = build.NewDispatcher(b.cfg.Build, out, b.obs, bl)
	b.mu.Unlock()

	b.log.Printf("session opened; subscribing to %s", b.cfg.SubscribeEvent)
	frame, err := protocol.Encode(protocol.NewSubscribe(b.cfg.SubscribeEvent))
	if err != nil {
		return err
	}
	if err := out.Send(ctx, frame); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// HandleMessage processes one inbound text frame. Malformed frames are
// logged and dropped; they never end the session.
func (b *Bridge) HandleMessage(frame []byte) {
	b.mu.Lock()
	state, ctx, d := b.state, b.ctx, b.dispatcher
	b.mu.Unlock()
	if state != StateOpen {
		b.ignored.Add(1)
		return
	}

	ev, err := protocol.DecodeEvent(frame)
	if err != nil {
		b.protocolErrors.Add(1)
		b.log.Printf("drop frame: %v", err)
		return
	}
	if res, ok := ev.CommandResult(); ok {
		if !res.OK() {
			b.commandErrors.Add(1)
			b.log.Printf("command %s failed: status=%d %s", res.RequestID, res.StatusCode, res.StatusMessage)
		}
		return
	}
	chat, ok := ev.Chat(b.cfg.SystemSender)
	if !ok {
		b.ignored.Add(1)
		return
	}
	req, ok := trigger.Parse(chat.Message)
	if !ok {
		b.ignored.Add(1)
		return
	}

	b.log.Printf("%s requested build %s at %v facing %v", chat.Sender, req.Model, req.Base, req.Direction)
	b.buildsStarted.Add(1)
	b.buildsActive.Add(1)
	b.builds.Add(1)
	go func() {
		defer b.builds.Done()
		defer b.buildsActive.Add(-1)
		b.run(ctx, d, req)
	}()
}

func (b *Bridge) run(ctx context.Context, d *build.Dispatcher, req trigger.Request) {
	res, err := d.Run(ctx, req)
	b.commandsSent.Add(int64(res.Sent))
	switch {
	case err != nil:
		b.buildsFailed.Add(1)
		b.log.Printf("build %s (%s) failed after %d/%d commands: %v", res.ID, req.Model, res.Sent, res.Voxels, err)
	case res.Skipped:
		b.buildsSkipped.Add(1)
		b.buildsDone.Add(1)
	default:
		b.buildsDone.Add(1)
		b.log.Printf("build %s (%s) done: %d commands in %v", res.ID, req.Model, res.Sent, res.Finished.Sub(res.Started))
	}
}

// Close records the end of the session. It does not stop running builds;
// they end once the transport cancels the session context or refuses the
// next send.
func (b *Bridge) Close(code int, reason string) {
	b.mu.Lock()
	prev := b.state
	b.state = StateClosed
	b.mu.Unlock()
	if prev != StateClosed {
		b.log.Printf("session closed (%d) %s", code, reason)
	}
}

func (b *Bridge) Error(err error) {
	b.log.Printf("session error: %v", err)
}

// Wait blocks until every spawned build has returned.
func (b *Bridge) Wait() {
	b.builds.Wait()
}

type Metrics struct {
	State          string `json:"state"`
	BuildsStarted  int64  `json:"builds_started"`
	BuildsDone     int64  `json:"builds_done"`
	BuildsSkipped  int64  `json:"builds_skipped"`
	BuildsFailed   int64  `json:"builds_failed"`
	BuildsActive   int64  `json:"builds_active"`
	CommandsSent   int64  `json:"commands_sent"`
	CommandErrors  int64  `json:"command_errors"`
	ProtocolErrors int64  `json:"protocol_errors"`
	Ignored        int64  `json:"ignored_frames"`
}

func (b *Bridge) Metrics() Metrics {
	return Metrics{
		State:          b.State().String(),
		BuildsStarted:  b.buildsStarted.Load(),
		BuildsDone:     b.buildsDone.Load(),
		BuildsSkipped:  b.buildsSkipped.Load(),
		BuildsFailed:   b.buildsFailed.Load(),
		BuildsActive:   b.buildsActive.Load(),
		CommandsSent:   b.commandsSent.Load(),
		CommandErrors:  b.commandErrors.Load(),
		ProtocolErrors: b.protocolErrors.Load(),
		Ignored:        b.ignored.Load(),
	}
}
