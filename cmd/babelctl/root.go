package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deidaraiorek/babelsearch/internal/babel/cache"
	"github.com/deidaraiorek/babelsearch/internal/babel/clock"
	babelconfig "github.com/deidaraiorek/babelsearch/internal/babel/config"
	"github.com/deidaraiorek/babelsearch/internal/babel/normalize"
	"github.com/deidaraiorek/babelsearch/internal/babel/pipeline"
	"github.com/deidaraiorek/babelsearch/internal/babel/remote"
)

var (
	cfgFile   string
	remoteURL string
	logPath   string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "babelctl",
	Short: "babelctl drives a Babel-space coherence search pipeline from the command line.",
	Long: `babelctl exposes the core retrieval operations - search, generate, enumerate,
decode - directly, and can also run the HTTP API as a foreground server.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML); falls back to built-in defaults and BABEL_ env vars")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote-base-url", "", "base URL for remote/hybrid page retrieval")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "babelctl.log", "log file path; logs are written here and to stdout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger opens logPath and returns a *log.Logger that writes to both it
// and stdout, following the teacher's indexer/main.go and spider/main.go
// startup sequence (os.OpenFile, io.MultiWriter(os.Stdout, logFile),
// log.SetOutput). The returned closer must be deferred by the caller.
func newLogger() (*log.Logger, func(), error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("babelctl: open log file %s: %w", logPath, err)
	}
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	logger := log.New(multiWriter, "babelctl: ", log.LstdFlags)
	return logger, func() { logFile.Close() }, nil
}

// newPipeline builds a Pipeline from the resolved config, wiring in a
// remote page source only when --remote-base-url is set. It also returns
// the logger it built the pipeline with, so callers that layer more
// components (e.g. serve's HTTP server) share one log file and one
// io.MultiWriter. The caller must defer the returned closer.
func newPipeline() (*pipeline.Pipeline, *log.Logger, func(), error) {
	cfg, err := babelconfig.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("babelctl: load config: %w", err)
	}

	logger, closeLog, err := newLogger()
	if err != nil {
		return nil, nil, nil, err
	}

	c, err := cache.New(cache.Config{
		MaxEntries: cfg.CacheMaxEntries,
		TTL:        time.Duration(cfg.CacheTTLSeconds) * time.Second,
		Clock:      clock.Real{},
	})
	if err != nil {
		closeLog()
		return nil, nil, nil, fmt.Errorf("babelctl: build cache: %w", err)
	}

	var src remote.PageSource
	if remoteURL != "" {
		src = remote.NewHTTPPageSource(remoteURL, "BabelSearchBot/1.0", time.Duration(cfg.RemoteTimeoutSeconds*float64(time.Second)))
	}

	p, err := pipeline.New(cfg.PipelineConfig(), c, clock.Real{}, src, normalize.None, logger)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	return p, logger, closeLog, nil
}
