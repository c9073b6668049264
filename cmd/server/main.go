package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apihttp "streamverse/gateway/internal/api/http"
	"streamverse/gateway/internal/app"
	"streamverse/gateway/internal/catalog"
	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/gateway"
	"streamverse/gateway/internal/media"
	"streamverse/gateway/internal/metrics"
	"streamverse/gateway/internal/providers/anime"
	"streamverse/gateway/internal/providers/dramabox"
	"streamverse/gateway/internal/providers/flickreels"
	"streamverse/gateway/internal/providers/komik"
	"streamverse/gateway/internal/providers/melolo"
	"streamverse/gateway/internal/providers/netshort"
	"streamverse/gateway/internal/search"
	"streamverse/gateway/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("streamverse gateway failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run owns every resource of the process so that deferred cleanup also runs
// when the server fails.
func run() error {
	cfg, err := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), telemetry.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", telemetry.ServiceName),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("envFile", cfg.EnvFile),
		slog.String("gatewayBaseURL", cfg.GatewayBaseURL),
		slog.Duration("gatewayTimeout", cfg.GatewayTimeout),
		slog.Int("searchResultCap", cfg.SearchResultCap),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("tracing", strings.TrimSpace(cfg.OTLPEndpoint) != ""),
		slog.Duration("heroInterval", cfg.HeroInterval),
		slog.Int("sectionSize", cfg.SectionSize),
		slog.Bool("coverProxy", cfg.CoverProxy),
	)

	client := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.GatewayBaseURL,
		Timeout:   cfg.GatewayTimeout,
		UserAgent: cfg.GatewayUserAgent,
		Logger:    logger,
	})

	dramaBox := dramabox.NewProvider(client)
	netShort := netshort.NewProvider(client)
	meloloProvider := melolo.NewProvider(client, melolo.WithSearchLimit(cfg.MeloloSearchSize))
	flickReels := flickreels.NewProvider(client)
	animeProvider := anime.NewProvider(client, anime.WithResolution(cfg.AnimeResolution))
	komikProvider := komik.NewProvider(client, komik.WithComicType(cfg.ComicType))

	gate, closeGate := buildSearchGate(cfg, logger)
	defer closeGate()
	searchService := search.NewService([]search.Participant{
		{Provider: dramaBox, Label: "Drama"},
		{Provider: animeProvider, Label: "Anime"},
		{Provider: komikProvider, Label: "Komik"},
	},
		search.WithGate(gate),
		search.WithResultCap(cfg.SearchResultCap),
		search.WithMinQueryLength(cfg.SearchMinQuery),
		search.WithLogger(logger),
	)

	resolver := media.NewResolver(
		media.WithStream(domain.SourceAnime, animeProvider),
		media.WithStream(domain.SourceMelolo, meloloProvider),
		media.WithLogger(logger),
	)

	hero := catalog.NewHeroRotator(cfg.HeroInterval)
	defer hero.Stop()

	all := []catalog.SectionSource{dramaBox, netShort, meloloProvider, flickReels, animeProvider, komikProvider}
	catalogOpts := []catalog.Option{
		catalog.WithSections(catalog.DefaultSections(cfg.HeroSize, cfg.SectionSize)),
		catalog.WithComicSource(komikProvider),
		catalog.WithResolver(resolver),
		catalog.WithHero(hero),
		catalog.WithLogger(logger),
	}
	infos := make([]domain.ProviderInfo, 0, len(all))
	for _, p := range all {
		infos = append(infos, p.Info())
		catalogOpts = append(catalogOpts, catalog.WithSectionSource(p))
		if episodes, ok := p.(catalog.EpisodeSource); ok {
			catalogOpts = append(catalogOpts, catalog.WithEpisodeSource(episodes))
		}
	}
	catalogService := catalog.NewService(catalogOpts...)

	handler := apihttp.NewServer(searchService, catalogService,
		apihttp.WithLogger(logger),
		apihttp.WithHero(hero),
		apihttp.WithProviders(infos),
		apihttp.WithCoverProxy(cfg.CoverProxy),
	).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// SSE streaming (/api/search/stream) can legitimately exceed short write timeouts.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ctx, cancel := context.WithTimeout(rootCtx, cfg.GatewayTimeout)
		defer cancel()
		if err := catalogService.RefreshHero(ctx); err != nil {
			logger.Warn("initial hero load failed", slog.String("error", err.Error()))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("streamverse gateway started",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("upstream", client.BaseURL()),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("streamverse gateway stopped")
	return nil
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildSearchGate shares the in-flight search gate through Redis when
// configured, so replicas agree on who is searching. Without Redis, or when
// it is unreachable at startup, the gate is process-local.
func buildSearchGate(cfg app.Config, logger *slog.Logger) (search.Gate, func()) {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return search.NewMemoryGate(), func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	gate, err := search.NewRedisGateFromURL(ctx, redisURL, cfg.SearchGateTTL, logger)
	if err != nil {
		logger.Warn("redis search gate disabled, using in-memory gate", slog.String("error", err.Error()))
		return search.NewMemoryGate(), func() {}
	}
	logger.Info("redis search gate connected")
	return gate, func() {
		if err := gate.Close(); err != nil {
			logger.Warn("redis close failed", slog.String("error", err.Error()))
		}
	}
}
