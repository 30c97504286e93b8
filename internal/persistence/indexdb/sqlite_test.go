package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"voxbridge/internal/build"
	"voxbridge/internal/transform"
	"voxbridge/internal/trigger"
)

func TestSQLiteIndex_RecordsBuildsAndPlacements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "builds.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	req := trigger.Request{Model: "castle", Base: transform.Vec{X: 100, Y: 64, Z: 200}, Direction: transform.South}
	idx.Placed(build.Placement{BuildID: "b1", Seq: 0, RequestID: "r0", Pos: transform.Vec{X: 100, Y: 64, Z: 200}, Block: "stone", Color: "128,128,128", At: start})
	idx.Placed(build.Placement{BuildID: "b1", Seq: 1, RequestID: "r1", Pos: transform.Vec{X: 101, Y: 65, Z: 201}, Block: "dirt", Color: "134,96,67", At: start.Add(100 * time.Millisecond)})
	idx.Finished(build.Result{ID: "b1", Request: req, State: build.StateDone, Voxels: 2, Sent: 2, Started: start, Finished: start.Add(time.Second)})
	idx.Finished(build.Result{ID: "b2", Request: trigger.Request{Model: "tower"}, State: build.StateFailed, Started: start.Add(time.Minute), Finished: start.Add(time.Minute), Err: errors.New("palette miss")})
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Writes after close are ignored.
	idx.Finished(build.Result{ID: "b3"})

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	all, err := ListBuilds(ctx, db, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].BuildID != "b2" || all[0].Error != "palette miss" || all[0].State != "failed" {
		t.Fatalf("builds=%+v", all)
	}
	castle, err := ListBuilds(ctx, db, "castle", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(castle) != 1 {
		t.Fatalf("castle builds=%+v", castle)
	}
	c := castle[0]
	if c.Direction != "south" || c.BaseX != 100 || c.BaseY != 64 || c.BaseZ != 200 || c.Sent != 2 || c.Skipped || c.Error != "" {
		t.Fatalf("castle=%+v", c)
	}

	ps, err := ListPlacements(ctx, db, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 || ps[1].Block != "dirt" || ps[1].X != 101 || ps[1].RequestID != "r1" {
		t.Fatalf("placements=%+v", ps)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqPlacement}

	s.Placed(build.Placement{BuildID: "x"})
	s.Finished(build.Result{ID: "x"})

	st := s.Stats()
	if st.DropPlacementsTotal != 1 || st.DropBuildsTotal != 1 {
		t.Fatalf("drops=%+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
