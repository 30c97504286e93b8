package build

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"voxbridge/internal/palette"
	"voxbridge/internal/protocol"
	"voxbridge/internal/transform"
	"voxbridge/internal/trigger"
	"voxbridge/internal/vox"
)

const DefaultInterval = 100 * time.Millisecond

// Layout locates models and the palette under a configuration root:
// <root>/vox/<name>.vox and <root>/palette.json.
type Layout struct {
	Root string
}

func (l Layout) ModelPath(name string) string {
	return filepath.Join(l.Root, "vox", name+".vox")
}

func (l Layout) PalettePath() string {
	return filepath.Join(l.Root, "palette.json")
}

// Sender hands one encoded frame to the session. It must be safe for
// concurrent use by several builds.
type Sender interface {
	Send(ctx context.Context, frame []byte) error
}

type Config struct {
	Layout   Layout
	Interval time.Duration
}

type Dispatcher struct {
	cfg      Config
	sender   Sender
	observer Observer
	log      *log.Logger

	now func() time.Time
}

func NewDispatcher(cfg Config, sender Sender, obs Observer, logger *log.Logger) *Dispatcher {
	if cfg.Interval < 0 {
		cfg.Interval = 0
	}
	if obs == nil {
		obs = nopObserver{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dispatcher{
		cfg:      cfg,
		sender:   sender,
		observer: obs,
		log:      logger,
		now:      time.Now,
	}
}

// Block is one resolved placement.
type Block struct {
	Pos   transform.Vec
	Block string
	Color string
}

// Run executes one build to completion: Loading, then Streaming one
// setblock per voxel in decoded order with Interval between sends.
// A missing model or palette file ends in StateDone with nothing sent and no
// error. Every other failure ends in StateFailed.
func (d *Dispatcher) Run(ctx context.Context, req trigger.Request) (Result, error) {
	res := Result{
		ID:      uuid.NewString(),
		Request: req,
		State:   StateLoading,
		Started: d.now(),
	}

	plan, err := d.load(req)
	if err != nil {
		return d.finish(res, err), err
	}
	if plan == nil {
		res.Skipped = true
		d.log.Printf("build %s: %s not found under %s; nothing to do", res.ID, req.Model, d.cfg.Layout.Root)
		return d.finish(res, nil), nil
	}

	res.State = StateStreaming
	res.Voxels = len(plan)
	d.log.Printf("build %s: streaming %s (%d blocks) at %v facing %v", res.ID, req.Model, len(plan), req.Base, req.Direction)

	for i, b := range plan {
		if i > 0 {
			if err := wait(ctx, d.cfg.Interval); err != nil {
				return d.finish(res, err), err
			}
		}
		line := protocol.SetBlockLine(b.Pos.X, b.Pos.Y, b.Pos.Z, b.Block, protocol.ReplaceMode)
		msg := protocol.NewCommand(line)
		frame, err := protocol.Encode(msg)
		if err != nil {
			return d.finish(res, err), err
		}
		if err := d.sender.Send(ctx, frame); err != nil {
			terr := &TransportError{Sent: res.Sent, Err: err}
			return d.finish(res, terr), terr
		}
		res.Sent++
		d.observer.Placed(Placement{
			BuildID:     res.ID,
			Seq:         i,
			RequestID:   msg.Header.RequestID,
			Pos:         b.Pos,
			Block:       b.Block,
			Color:       b.Color,
			CommandLine: line,
			At:          d.now(),
		})
	}
	return d.finish(res, nil), nil
}

// Plan resolves every voxel of the model into a world placement without
// sending anything. It returns nil, nil when either source file is missing.
func (d *Dispatcher) Plan(req trigger.Request) ([]Block, error) {
	return d.load(req)
}

func (d *Dispatcher) load(req trigger.Request) ([]Block, error) {
	if !validModelName(req.Model) {
		return nil, nil
	}
	modelPath := d.cfg.Layout.ModelPath(req.Model)
	palettePath := d.cfg.Layout.PalettePath()
	if !exists(modelPath) || !exists(palettePath) {
		return nil, nil
	}

	scene, err := vox.Load(modelPath)
	if err != nil {
		return nil, err
	}
	pal, err := palette.Load(palettePath)
	if err != nil {
		return nil, err
	}

	model := scene.Model()
	plan := make([]Block, 0, len(model.Voxels))
	for _, v := range model.Voxels {
		color := scene.ColorKey(v.Index)
		block, ok := pal.Lookup(color)
		if !ok {
			return nil, &PaletteMissError{Color: color, Voxel: v}
		}
		plan = append(plan, Block{
			Pos:   transform.Apply(v, model.Size, req.Direction, req.Base),
			Block: block,
			Color: color,
		})
	}
	return plan, nil
}

func (d *Dispatcher) finish(res Result, err error) Result {
	res.Finished = d.now()
	if err != nil {
		res.State = StateFailed
		res.Err = err
	} else {
		res.State = StateDone
	}
	d.observer.Finished(res)
	return res
}

// validModelName rejects names that would resolve outside <root>/vox. Such
// names are treated like a missing file.
func validModelName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
