package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxbridge/internal/build"
)

// SQLiteIndex is a queryable secondary record of builds. Writes are queued
// to a single goroutine and batched into transactions; the journal stays
// the primary record, so a full queue drops rows instead of stalling builds.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropPlacements atomic.Int64
	dropBuilds     atomic.Int64
}

type reqKind int

const (
	reqPlacement reqKind = iota + 1
	reqBuild
)

type req struct {
	kind      reqKind
	placement build.Placement
	result    build.Result
}

const (
	commitEvery   = 500
	commitMaxWait = 500 * time.Millisecond
)

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{db: db, ch: make(chan req, queue)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
		`CREATE TABLE IF NOT EXISTS builds (
			build_id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			direction TEXT NOT NULL,
			base_x INTEGER NOT NULL,
			base_y INTEGER NOT NULL,
			base_z INTEGER NOT NULL,
			state TEXT NOT NULL,
			skipped INTEGER NOT NULL,
			voxels INTEGER NOT NULL,
			sent INTEGER NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_builds_model_started ON builds(model, started_at);`,
		`CREATE TABLE IF NOT EXISTS placements (
			build_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			request_id TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			block TEXT NOT NULL,
			color TEXT NOT NULL,
			placed_at TEXT NOT NULL,
			PRIMARY KEY (build_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_placements_pos ON placements(x, z, y);`,
		`CREATE INDEX IF NOT EXISTS idx_placements_request ON placements(request_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the queue, commits, and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Placed(p build.Placement) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqPlacement, placement: p}:
	default:
		s.dropPlacements.Add(1)
	}
}

func (s *SQLiteIndex) Finished(r build.Result) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqBuild, result: r}:
	default:
		s.dropBuilds.Add(1)
	}
}

type Stats struct {
	QueueDepth          int   `json:"queue_depth"`
	QueueCapacity       int   `json:"queue_capacity"`
	DropPlacementsTotal int64 `json:"drop_placements_total"`
	DropBuildsTotal     int64 `json:"drop_builds_total"`
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:          len(s.ch),
		QueueCapacity:       cap(s.ch),
		DropPlacementsTotal: s.dropPlacements.Load(),
		DropBuildsTotal:     s.dropBuilds.Load(),
	}
}

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertPlacement, _ := s.db.Prepare(`INSERT OR REPLACE INTO placements(build_id,seq,request_id,x,y,z,block,color,placed_at) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertBuild, _ := s.db.Prepare(`INSERT OR REPLACE INTO builds(build_id,model,direction,base_x,base_y,base_z,state,skipped,voxels,sent,error,started_at,finished_at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertPlacement != nil {
			_ = insertPlacement.Close()
		}
		if insertBuild != nil {
			_ = insertBuild.Close()
		}
	}()

	var (
		tx         *sql.Tx
		opCount    int
		lastCommit = time.Now()
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	// A quiet queue still commits its tail within commitMaxWait.
	tick := time.NewTicker(commitMaxWait)
	defer tick.Stop()

	for {
		var r req
		select {
		case <-tick.C:
			if tx != nil && time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
			continue
		case rr, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			r = rr
		}

		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqPlacement:
			p := r.placement
			if insertPlacement == nil {
				continue
			}
			if _, err := tx.Stmt(insertPlacement).Exec(
				p.BuildID, p.Seq, p.RequestID,
				p.Pos.X, p.Pos.Y, p.Pos.Z,
				p.Block, p.Color, ts(p.At),
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqBuild:
			b := r.result
			if insertBuild == nil {
				continue
			}
			var errText sql.NullString
			if b.Err != nil {
				errText = sql.NullString{String: b.Err.Error(), Valid: true}
			}
			skipped := 0
			if b.Skipped {
				skipped = 1
			}
			if _, err := tx.Stmt(insertBuild).Exec(
				b.ID, b.Request.Model, b.Request.Direction.String(),
				b.Request.Base.X, b.Request.Base.Y, b.Request.Base.Z,
				b.State.String(), skipped, b.Voxels, b.Sent, errText,
				ts(b.Started), ts(b.Finished),
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
}
