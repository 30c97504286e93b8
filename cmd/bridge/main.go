package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"voxbridge/internal/bridge"
	"voxbridge/internal/build"
	"voxbridge/internal/config"
	"voxbridge/internal/persistence/indexdb"
	"voxbridge/internal/persistence/journal"
	"voxbridge/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to bridge.yaml (optional)")
		addr       = flag.String("addr", "", "websocket listen address (overrides config)")
		root       = flag.String("root", "", "directory holding vox/ and palette.json (overrides config)")
		dataDir    = flag.String("data", "", "runtime data directory for journal and index (overrides config)")
		intervalMS = flag.Int("interval_ms", -1, "delay between setblock commands in ms (overrides config)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite build index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bridge] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if s := strings.TrimSpace(*addr); s != "" {
		cfg.Listen = s
	}
	if s := strings.TrimSpace(*root); s != "" {
		cfg.Root = s
	}
	if s := strings.TrimSpace(*dataDir); s != "" {
		cfg.DataDir = s
	}
	if *intervalMS >= 0 {
		cfg.CommandIntervalMS = *intervalMS
	}
	if *disableDB {
		cfg.Index = false
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.Printf("models from %s, palette %s", filepath.Join(cfg.Root, "vox"), filepath.Join(cfg.Root, "palette.json"))

	var observers build.Observers
	var jrnl *journal.Journal
	if cfg.Journal {
		jrnl = journal.New(cfg.DataDir, log.New(os.Stdout, "[journal] ", log.LstdFlags|log.Lmicroseconds))
		defer jrnl.Close()
		observers = append(observers, jrnl)
	}
	var idx *indexdb.SQLiteIndex
	if cfg.Index {
		idx, err = indexdb.OpenSQLite(filepath.Join(cfg.DataDir, "index", "builds.sqlite"))
		if err != nil {
			logger.Fatalf("index db: %v", err)
		}
		defer idx.Close()
		observers = append(observers, idx)
	}

	b := bridge.New(bridge.Config{
		Build: build.Config{
			Layout:   build.Layout{Root: cfg.Root},
			Interval: cfg.CommandInterval(),
		},
		SystemSender:   cfg.SystemSender,
		SubscribeEvent: cfg.SubscribeEvent,
	}, observers, logger)
	wsSrv := ws.NewServer(b, cfg.OutboxSize, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds))

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(b, jrnl, idx))
	mux.HandleFunc(cfg.Path, wsSrv.Handler())

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// One session per process: stop once it ends or on signal.
	go func() {
		select {
		case <-ctx.Done():
			wsSrv.Close()
		case <-wsSrv.Done():
			logger.Printf("game session ended; shutting down")
		}
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (connect from the game with /connect %s)", cfg.Listen, cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	b.Wait()
	m := b.Metrics()
	logger.Printf("stopped: %d builds (%d failed), %d commands sent", m.BuildsStarted, m.BuildsFailed, m.CommandsSent)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
