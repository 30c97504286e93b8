package indexdb

import (
	"context"
	"database/sql"
)

type BuildRow struct {
	BuildID    string `json:"build_id"`
	Model      string `json:"model"`
	Direction  string `json:"direction"`
	BaseX      int    `json:"base_x"`
	BaseY      int    `json:"base_y"`
	BaseZ      int    `json:"base_z"`
	State      string `json:"state"`
	Skipped    bool   `json:"skipped"`
	Voxels     int    `json:"voxels"`
	Sent       int    `json:"sent"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

type PlacementRow struct {
	BuildID   string `json:"build_id"`
	Seq       int    `json:"seq"`
	RequestID string `json:"request_id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Z         int    `json:"z"`
	Block     string `json:"block"`
	Color     string `json:"color"`
	PlacedAt  string `json:"placed_at"`
}

// ListBuilds returns the newest builds first. An empty model matches all.
func ListBuilds(ctx context.Context, db *sql.DB, model string, limit int) ([]BuildRow, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT build_id,model,direction,base_x,base_y,base_z,state,skipped,voxels,sent,error,started_at,finished_at FROM builds`
	args := []any{}
	if model != "" {
		q += ` WHERE model=?`
		args = append(args, model)
	}
	q += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BuildRow
	for rows.Next() {
		var r BuildRow
		var skipped int
		var errText sql.NullString
		if err := rows.Scan(&r.BuildID, &r.Model, &r.Direction, &r.BaseX, &r.BaseY, &r.BaseZ, &r.State, &skipped, &r.Voxels, &r.Sent, &errText, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.Skipped = skipped != 0
		r.Error = errText.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func ListPlacements(ctx context.Context, db *sql.DB, buildID string) ([]PlacementRow, error) {
	rows, err := db.QueryContext(ctx, `SELECT build_id,seq,request_id,x,y,z,block,color,placed_at FROM placements WHERE build_id=? ORDER BY seq`, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PlacementRow
	for rows.Next() {
		var r PlacementRow
		if err := rows.Scan(&r.BuildID, &r.Seq, &r.RequestID, &r.X, &r.Y, &r.Z, &r.Block, &r.Color, &r.PlacedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
