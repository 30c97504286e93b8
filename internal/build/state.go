package build

import (
	"time"

	"voxbridge/internal/transform"
	"voxbridge/internal/trigger"
)

// State tracks one build: Idle -> Loading -> Streaming -> Done|Failed.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateStreaming
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

type Result struct {
	ID      string
	Request trigger.Request
	State   State

	// Skipped is set when the model or palette file does not exist.
	Skipped bool

	Voxels int
	Sent   int

	Started  time.Time
	Finished time.Time

	Err error
}

type Placement struct {
	BuildID     string
	Seq         int
	RequestID   string
	Pos         transform.Vec
	Block       string
	Color       string
	CommandLine string
	At          time.Time
}

// Observer is notified after every sent command and once per build.
// Implementations must be safe for concurrent builds.
type Observer interface {
	Placed(p Placement)
	Finished(r Result)
}

type nopObserver struct{}

func (nopObserver) Placed(Placement) {}
func (nopObserver) Finished(Result)  {}

// Observers fans notifications out to each non-nil observer.
type Observers []Observer

func (o Observers) Placed(p Placement) {
	for _, x := range o {
		if x != nil {
			x.Placed(p)
		}
	}
}

func (o Observers) Finished(r Result) {
	for _, x := range o {
		if x != nil {
			x.Finished(r)
		}
	}
}
