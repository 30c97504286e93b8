package main

import (
	"fmt"
	"net/http"

	"voxbridge/internal/bridge"
	"voxbridge/internal/persistence/indexdb"
	"voxbridge/internal/persistence/journal"
)

type metricsSource interface {
	Metrics() bridge.Metrics
}

// metricsHandler serves the minimal Prometheus text exposition format.
// jrnl and idx may be nil.
func metricsHandler(b metricsSource, jrnl *journal.Journal, idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := b.Metrics()

		fmt.Fprintf(rw, "# HELP voxbridge_session_open Whether a game session is connected.\n")
		fmt.Fprintf(rw, "# TYPE voxbridge_session_open gauge\n")
		open := 0
		if m.State == bridge.StateOpen.String() {
			open = 1
		}
		fmt.Fprintf(rw, "voxbridge_session_open{state=%q} %d\n", m.State, open)

		fmt.Fprintf(rw, "# HELP voxbridge_builds_total Builds by outcome.\n")
		fmt.Fprintf(rw, "# TYPE voxbridge_builds_total counter\n")
		fmt.Fprintf(rw, "voxbridge_builds_total{outcome=%q} %d\n", "started", m.BuildsStarted)
		fmt.Fprintf(rw, "voxbridge_builds_total{outcome=%q} %d\n", "done", m.BuildsDone)
		fmt.Fprintf(rw, "voxbridge_builds_total{outcome=%q} %d\n", "skipped", m.BuildsSkipped)
		fmt.Fprintf(rw, "voxbridge_builds_total{outcome=%q} %d\n", "failed", m.BuildsFailed)

		fmt.Fprintf(rw, "# HELP voxbridge_builds_active Builds currently streaming.\n")
		fmt.Fprintf(rw, "# TYPE voxbridge_builds_active gauge\n")
		fmt.Fprintf(rw, "voxbridge_builds_active %d\n", m.BuildsActive)

		fmt.Fprintf(rw, "# HELP voxbridge_commands_sent_total setblock commands handed to the session.\n")
		fmt.Fprintf(rw, "# TYPE voxbridge_commands_sent_total counter\n")
		fmt.Fprintf(rw, "voxbridge_commands_sent_total %d\n", m.CommandsSent)

		fmt.Fprintf(rw, "# HELP voxbridge_frames_total Inbound frames that did not start a build.\n")
		fmt.Fprintf(rw, "# TYPE voxbridge_frames_total counter\n")
		fmt.Fprintf(rw, "voxbridge_frames_total{kind=%q} %d\n", "command_error", m.CommandErrors)
		fmt.Fprintf(rw, "voxbridge_frames_total{kind=%q} %d\n", "protocol_error", m.ProtocolErrors)
		fmt.Fprintf(rw, "voxbridge_frames_total{kind=%q} %d\n", "ignored", m.Ignored)

		if jrnl != nil {
			fmt.Fprintf(rw, "# HELP voxbridge_journal_write_errors_total Failed journal writes.\n")
			fmt.Fprintf(rw, "# TYPE voxbridge_journal_write_errors_total counter\n")
			fmt.Fprintf(rw, "voxbridge_journal_write_errors_total %d\n", jrnl.Errors())
		}
		if idx != nil {
			st := idx.Stats()
			fmt.Fprintf(rw, "# HELP voxbridge_index_queue_depth Pending index writes.\n")
			fmt.Fprintf(rw, "# TYPE voxbridge_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "voxbridge_index_queue_depth %d\n", st.QueueDepth)
			fmt.Fprintf(rw, "# HELP voxbridge_index_dropped_total Index writes dropped on a full queue.\n")
			fmt.Fprintf(rw, "# TYPE voxbridge_index_dropped_total counter\n")
			fmt.Fprintf(rw, "voxbridge_index_dropped_total{table=%q} %d\n", "placements", st.DropPlacementsTotal)
			fmt.Fprintf(rw, "voxbridge_index_dropped_total{table=%q} %d\n", "builds", st.DropBuildsTotal)
		}
	}
}
