package journal

import (
	"io"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"voxbridge/internal/build"
)

const (
	KindPlacement = "placement"
	KindBuild     = "build"
)

// Entry is one journal line. Placement lines carry Seq through Command;
// build lines carry Model through DurationMS.
type Entry struct {
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
	BuildID string    `json:"build_id"`

	Seq       int    `json:"seq,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	X         int    `json:"x,omitempty"`
	Y         int    `json:"y,omitempty"`
	Z         int    `json:"z,omitempty"`
	Block     string `json:"block,omitempty"`
	Color     string `json:"color,omitempty"`
	Command   string `json:"command,omitempty"`

	Model      string `json:"model,omitempty"`
	Direction  string `json:"direction,omitempty"`
	State      string `json:"state,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	Voxels     int    `json:"voxels,omitempty"`
	Sent       int    `json:"sent,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Journal records builds as a build.Observer. Write failures are logged
// and counted; they never affect the build.
type Journal struct {
	w    *Writer
	log  *log.Logger
	errs atomic.Int64
}

func New(dataDir string, logger *log.Logger) *Journal {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Journal{
		w:   NewWriter(filepath.Join(dataDir, "journal"), "builds"),
		log: logger,
	}
}

func (j *Journal) Placed(p build.Placement) {
	j.write(Entry{
		Kind:      KindPlacement,
		At:        p.At.UTC(),
		BuildID:   p.BuildID,
		Seq:       p.Seq,
		RequestID: p.RequestID,
		X:         p.Pos.X,
		Y:         p.Pos.Y,
		Z:         p.Pos.Z,
		Block:     p.Block,
		Color:     p.Color,
		Command:   p.CommandLine,
	})
}

func (j *Journal) Finished(r build.Result) {
	e := Entry{
		Kind:       KindBuild,
		At:         r.Finished.UTC(),
		BuildID:    r.ID,
		Model:      r.Request.Model,
		Direction:  r.Request.Direction.String(),
		State:      r.State.String(),
		Skipped:    r.Skipped,
		Voxels:     r.Voxels,
		Sent:       r.Sent,
		DurationMS: r.Finished.Sub(r.Started).Milliseconds(),
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	j.write(e)
}

func (j *Journal) write(e Entry) {
	if err := j.w.Write(e); err != nil {
		j.errs.Add(1)
		j.log.Printf("journal write: %v", err)
	}
}

func (j *Journal) Errors() int64 { return j.errs.Load() }

func (j *Journal) Path() string { return j.w.Path() }

func (j *Journal) Close() error { return j.w.Close() }
