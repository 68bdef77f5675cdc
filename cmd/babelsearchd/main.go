// Command babelsearchd runs the HTTP API as a long-lived daemon, restoring
// and periodically checkpointing its cache to a SQLite snapshot the way
// the teacher's spider/main.go persists crawl state to spider.db - this
// binary owns that surrounding control plane, not the pipeline itself.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deidaraiorek/babelsearch/internal/babel/cache"
	"github.com/deidaraiorek/babelsearch/internal/babel/checkpoint"
	"github.com/deidaraiorek/babelsearch/internal/babel/clock"
	babelconfig "github.com/deidaraiorek/babelsearch/internal/babel/config"
	"github.com/deidaraiorek/babelsearch/internal/babel/httpapi"
	"github.com/deidaraiorek/babelsearch/internal/babel/normalize"
	"github.com/deidaraiorek/babelsearch/internal/babel/pipeline"
	"github.com/deidaraiorek/babelsearch/internal/babel/remote"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgFile := flag.String("config", "", "config file (YAML)")
	remoteBaseURL := flag.String("remote-base-url", "", "base URL for remote/hybrid page retrieval")
	logPath := flag.String("log-file", "babelsearchd.log", "log file path; logs are written here and to stdout")
	checkpointPath := flag.String("checkpoint-db", "", "SQLite path for cache checkpointing; empty disables checkpointing")
	checkpointInterval := flag.Duration("checkpoint-interval", 5*time.Minute, "interval between periodic checkpoint saves")
	flag.Parse()

	// Mirrors the teacher's indexer/main.go and spider/main.go startup
	// sequence: open a log file, tee log output to it and stdout.
	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer logFile.Close()

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	logger := log.New(multiWriter, "babelsearchd: ", log.LstdFlags)

	cfg, err := babelconfig.Load(*cfgFile)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	realClock := clock.Real{}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second

	c, err := cache.New(cache.Config{MaxEntries: cfg.CacheMaxEntries, TTL: ttl, Clock: realClock})
	if err != nil {
		logger.Fatalf("build cache: %v", err)
	}

	var store *checkpoint.Store
	if *checkpointPath != "" {
		store, err = checkpoint.Open(*checkpointPath)
		if err != nil {
			logger.Fatalf("open checkpoint db: %v", err)
		}
		defer store.Close()

		restored, err := store.Load(realClock.Now(), ttl)
		if err != nil {
			logger.Printf("checkpoint restore failed, starting cold: %v", err)
		} else {
			c.Restore(restored)
			logger.Printf("restored %d cache entries from checkpoint", len(restored))
		}
	}

	var src remote.PageSource
	if *remoteBaseURL != "" {
		src = remote.NewHTTPPageSource(*remoteBaseURL, "BabelSearchBot/1.0", time.Duration(cfg.RemoteTimeoutSeconds*float64(time.Second)))
	}

	p, err := pipeline.New(cfg.PipelineConfig(), c, realClock, src, normalize.None, logger)
	if err != nil {
		logger.Fatalf("build pipeline: %v", err)
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      httpapi.NewServer(p, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if store != nil {
		go runCheckpointLoop(ctx, store, c, realClock, ttl, *checkpointInterval, logger)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Println("shutting down gracefully...")
		if store != nil {
			if err := store.Save(c.Snapshot()); err != nil {
				logger.Printf("final checkpoint save failed: %v", err)
			}
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
	<-ctx.Done()
	logger.Println("shutdown complete")
}

func runCheckpointLoop(ctx context.Context, store *checkpoint.Store, c *cache.Cache, clk clock.Clock, ttl, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Save(c.Snapshot()); err != nil {
				logger.Printf("periodic checkpoint save failed: %v", err)
				continue
			}
			if err := store.Prune(clk.Now(), ttl); err != nil {
				logger.Printf("checkpoint prune failed: %v", err)
			}
		}
	}
}
