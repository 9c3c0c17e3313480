package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vidbrief/internal/api"
	"vidbrief/internal/cache"
	"vidbrief/internal/config"
	"vidbrief/internal/download"
	"vidbrief/internal/extractor"
	fileutil "vidbrief/internal/file"
	"vidbrief/internal/guard"
	"vidbrief/internal/summary"
	"vidbrief/internal/transcript"
)

func main() {

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load("config.yml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if err := fileutil.EnsureDir(cfg.DownloadDir); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DownloadDir).Msg("ensure download dir")
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())

	store, err := cache.New(cfg.Cache.Provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           cfg.Cache.TTL,
		RedisAddress:  cfg.Cache.RedisAddress,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Group:         "responses",
	})
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Cache.Provider).Msg("create cache")
	}
	defer func() { _ = store.Close() }()

	ex := buildExtractor(baseCtx, cfg, store)
	downloads := download.NewService(download.Options{
		Extractor: ex,
		Guard:     guard.New(cfg.GuardStaleAfter),
		Grace:     cfg.GracePeriod,
	})
	downloads.SetBaseContext(baseCtx)

	summarizer, closeSummarizer := buildSummarizer(baseCtx, cfg, store)
	defer closeSummarizer()

	router := setupRouter()
	apiHandler := api.NewAPI(api.Options{
		Downloads:        downloads,
		Extractor:        ex,
		Transcripts:      transcript.NewService(ex, cfg.CaptionLanguages, store),
		Summarizer:       summarizer,
		DownloadDir:      cfg.DownloadDir,
		ProgressInterval: cfg.ProgressInterval,
		SummaryPerMinute: cfg.Summary.RatePerMinute,
		CORSOrigins:      cfg.CORSOrigins,
	})
	apiHandler.RegisterRoutes(router)
	apiHandler.RegisterUIRoutes(router)

	const (
		readHeaderTimeout = 5 * time.Second
		shutdownTimeout   = 10 * time.Second
	)

	srv := newHTTPServer(baseCtx, cfg.Port, router, readHeaderTimeout)

	go func() {
		log.Info().Int("port", cfg.Port).Str("download_dir", cfg.DownloadDir).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdownSignal()

	gracefulShutdown(srv, baseCancel, downloads, shutdownTimeout)
}

func setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(api.ZerologLogger())
	return r
}

func buildExtractor(ctx context.Context, cfg config.Config, store cache.Cache) extractor.Extractor {
	binary := cfg.Extractor.Binary
	if cfg.Extractor.AutoInstall && binary == "" {
		resolved, err := ytdlp.Install(ctx, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("install yt-dlp")
		}
		binary = resolved.Executable
		log.Info().Str("path", binary).Str("version", resolved.Version).Msg("yt-dlp ready")
	}
	return extractor.NewCached(extractor.NewYTDLP(binary, cfg.Extractor.Format), store)
}

// buildSummarizer returns a nil Summarizer when no API key is configured; the
// summary endpoint then answers 503.
func buildSummarizer(ctx context.Context, cfg config.Config, store cache.Cache) (summary.Summarizer, func()) {
	if cfg.Summary.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, summaries disabled")
		return nil, func() {}
	}
	gemini, err := summary.NewGemini(ctx, summary.Options{
		APIKey:        cfg.Summary.APIKey,
		Model:         cfg.Summary.Model,
		MaxInputChars: cfg.Summary.MaxInputChars,
		MaxTokens:     cfg.Summary.MaxTokens,
		Temperature:   cfg.Summary.Temperature,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create summarizer")
	}
	return summary.NewCached(gemini, store), func() {
		if err := gemini.Close(); err != nil {
			log.Warn().Err(err).Msg("close summarizer")
		}
	}
}

// newHTTPServer derives request contexts from base so that cancelling it at
// shutdown also ends open progress streams.
func newHTTPServer(base context.Context, port int, handler http.Handler, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
}

func waitForShutdownSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")
}

func gracefulShutdown(srv *http.Server, cancelBase context.CancelFunc, downloads *download.Service, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cancelBase()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown warning")
	}

	if !downloads.WaitIdle(ctx) {
		log.Warn().Msg("active download did not finish before timeout")
	}
	log.Info().Msg("server exited cleanly")
}
