package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gemspace/gemmarket/internal/controlplane/server"
	"github.com/gemspace/gemmarket/pkg/config"
	"github.com/gemspace/gemmarket/pkg/logger"
	"github.com/gemspace/gemmarket/pkg/shutdown"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		configPath  = flag.String("config", getenv("GEMMARKET_CONFIG", ""), "YAML config file path (optional)")
		listenAddr  = flag.String("listen", getenv("GEMMARKET_LISTEN", ""), "HTTP listen address")
		registryURL = flag.String("registry-url", getenv("GEMMARKET_REGISTRY_URL", ""), "remote asset registry base URL (empty = built-in)")
	)
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}
	} else {
		cfg = config.Default()
	}
	if *listenAddr != "" {
		cfg.Server.Listen = *listenAddr
	}
	if *registryURL != "" {
		cfg.RegistryURL = *registryURL
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.OutputFile,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}

	srv, err := server.New(server.Config{
		Contract:    cfg.Contract,
		SalesDBPath: cfg.Storage.SalesDBPath,
		SnapshotDir: cfg.Storage.SnapshotDir,
		RegistryDir: cfg.Storage.RegistryDir,
		RegistryURL: cfg.RegistryURL,
	})
	if err != nil {
		log.Fatalf("init server failed: %v", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	mgr := shutdown.NewManager()
	mgr.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		_ = httpSrv.Shutdown(ctx)
	})
	mgr.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		_ = srv.Close()
	})

	go func() {
		logger.Infof("marketd listening on %s", cfg.Server.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mgr.Shutdown(ctx)

	fmt.Println("marketd stopped")
}
