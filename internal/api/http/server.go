package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"streamverse/gateway/internal/catalog"
	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/gateway"
	"streamverse/gateway/internal/providers/common"
	"streamverse/gateway/internal/search"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type SearchService interface {
	Search(ctx context.Context, request domain.SearchRequest) (domain.SearchResponse, error)
	SearchStream(ctx context.Context, request domain.SearchRequest) (<-chan domain.SearchEvent, error)
	Providers() []domain.ProviderInfo
	ProviderDiagnostics() []domain.ProviderDiagnostics
}

type CatalogService interface {
	LoadSections(ctx context.Context) []domain.Section
	LoadSection(ctx context.Context, id string, page int) (domain.Section, error)
	LoadList(ctx context.Context, source domain.SourceType, name string, page int) (domain.Section, error)
	OpenPlayer(ctx context.Context, source domain.SourceType, id string) (domain.PlayerView, error)
	PlayEpisode(ctx context.Context, source domain.SourceType, id string, index int) (domain.Playback, error)
	OpenReader(ctx context.Context, mangaID string) (domain.ReaderView, error)
	ChapterImages(ctx context.Context, chapterID string) ([]string, error)
}

type HeroService interface {
	State() domain.HeroState
	Select(index int) (domain.HeroState, error)
}

type Server struct {
	search    SearchService
	catalog   CatalogService
	hero      HeroService
	providers []domain.ProviderInfo
	logger    *slog.Logger

	// proxyCovers rewrites cover and thumbnail URLs in responses to the
	// image proxy.
	proxyCovers bool
	covers      *resty.Client
	// checkImageURL guards the image proxy against internal targets.
	checkImageURL func(ctx context.Context, target *url.URL) error
}

const (
	maxQueryLength = 200
	// clientIDHeader scopes the single in-flight search rule to one client.
	clientIDHeader = "X-Client-ID"
)

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithHero(hero HeroService) ServerOption {
	return func(s *Server) {
		s.hero = hero
	}
}

// WithProviders sets the provider list served by /api/providers. Without it the
// search participants are listed.
func WithProviders(infos []domain.ProviderInfo) ServerOption {
	return func(s *Server) {
		s.providers = append([]domain.ProviderInfo(nil), infos...)
	}
}

// WithCoverProxy serves every cover and episode thumbnail through /api/image.
func WithCoverProxy(enabled bool) ServerOption {
	return func(s *Server) {
		s.proxyCovers = enabled
	}
}

func NewServer(searchService SearchService, catalogService CatalogService, options ...ServerOption) *Server {
	server := &Server{
		search:        searchService,
		catalog:       catalogService,
		logger:        slog.Default(),
		checkImageURL: validateCoverURL,
	}
	server.covers = newCoverClient(func(ctx context.Context, target *url.URL) error {
		return server.checkImageURL(ctx, target)
	})
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/providers", s.handleProviders)
	mux.HandleFunc("GET /api/providers/health", s.handleProvidersHealth)
	mux.HandleFunc("GET /api/providers/{source}/lists/{name}", s.handleProviderList)
	mux.HandleFunc("GET /api/sections", s.handleSections)
	mux.HandleFunc("GET /api/sections/{id}", s.handleSection)
	mux.HandleFunc("GET /api/hero", s.handleHero)
	mux.HandleFunc("POST /api/hero/select", s.handleHeroSelect)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/search/stream", s.handleSearchStream)
	mux.HandleFunc("GET /api/play/{source}/{id}", s.handlePlayer)
	mux.HandleFunc("GET /api/play/{source}/{id}/episodes/{index}", s.handlePlayEpisode)
	mux.HandleFunc("GET /api/komik/{id}", s.handleReader)
	mux.HandleFunc("GET /api/komik/chapters/{chapterId}/images", s.handleChapterImages)
	mux.HandleFunc("GET /api/image", s.handleImageProxy)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "streamverse-gateway",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return requestIDMiddleware(recoveryMiddleware(s.logger, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	items := s.providers
	if len(items) == 0 && s.search != nil {
		items = s.search.Providers()
	}
	if items == nil {
		items = []domain.ProviderInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleProvidersHealth(w http.ResponseWriter, _ *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "search service is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"checkedAt": time.Now().UTC(),
		"items":     s.search.ProviderDiagnostics(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "search service is not configured")
		return
	}
	request, ok := parseSearchRequest(w, r)
	if !ok {
		return
	}

	response, err := s.search.Search(r.Context(), request)
	if err != nil {
		s.logger.Warn("search request failed",
			slog.String("query", truncate(request.Query, 80)),
			slog.String("gateKey", request.GateKey),
			slog.String("error", err.Error()),
		)
		s.writeServiceError(w, err)
		return
	}

	failed := make([]string, 0, len(response.Providers))
	for _, status := range response.Providers {
		if !status.OK {
			failed = append(failed, string(status.Name))
		}
	}
	s.logger.Info("search completed",
		slog.String("query", truncate(request.Query, 80)),
		slog.Int("groups", len(response.Groups)),
		slog.Int("totalItems", response.TotalItems),
		slog.Int64("elapsedMs", response.ElapsedMS),
		slog.Int("failedProviders", len(failed)),
	)
	if len(failed) > 0 {
		s.logger.Warn("search providers partially failed",
			slog.String("query", truncate(request.Query, 80)),
			slog.Any("failedProviders", failed),
		)
	}
	writeJSON(w, http.StatusOK, s.withSearch(response))
}

func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "search service is not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming is not supported")
		return
	}
	request, ok := parseSearchRequest(w, r)
	if !ok {
		return
	}

	events, err := s.search.SearchStream(r.Context(), request)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	if err := writeSSEEvent(w, flusher, "bootstrap", map[string]any{
		"phase":  "bootstrap",
		"final":  false,
		"query":  strings.TrimSpace(request.Query),
		"status": "started",
	}); err != nil {
		return // Client disconnected
	}

	for event := range events {
		select {
		case <-r.Context().Done():
			return // Client disconnected
		default:
		}
		if event.Final {
			var done any
			if event.Response != nil {
				done = s.withSearch(*event.Response)
			}
			_ = writeSSEEvent(w, flusher, "done", done)
			return
		}
		if event.Group == nil {
			continue
		}
		group := s.withGroup(*event.Group)
		event.Group = &group
		if err := writeSSEEvent(w, flusher, "group", event); err != nil {
			return // Client disconnected
		}
	}
}

func parseSearchRequest(w http.ResponseWriter, r *http.Request) (domain.SearchRequest, bool) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return domain.SearchRequest{}, false
	}
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("query too long (max %d characters)", maxQueryLength))
		return domain.SearchRequest{}, false
	}
	return domain.SearchRequest{Query: query, GateKey: gateKey(r)}, true
}

// gateKey identifies the caller for the in-flight search rule: the explicit
// client id header, else the client address.
func gateKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(clientIDHeader)); id != "" {
		return "client:" + truncate(id, 64)
	}
	return "ip:" + clientIP(r)
}

// writeServiceError maps service errors onto the JSON error envelope.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var transportErr *gateway.TransportError
	switch {
	case errors.Is(err, search.ErrQueryTooShort),
		errors.Is(err, catalog.ErrNotPlayable),
		errors.Is(err, catalog.ErrMissingID),
		errors.Is(err, common.ErrMissingID):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, search.ErrSearchInProgress):
		writeError(w, http.StatusConflict, "search_in_progress", err.Error())
	case errors.Is(err, catalog.ErrUnknownSection),
		errors.Is(err, catalog.ErrUnknownSource),
		errors.Is(err, common.ErrUnknownSection),
		errors.Is(err, catalog.ErrEpisodeNotFound),
		errors.Is(err, catalog.ErrHeroIndex):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, search.ErrNoProviders), errors.Is(err, catalog.ErrNoComicSource):
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
	case errors.As(err, &transportErr):
		writeError(w, http.StatusBadGateway, "upstream_error", "upstream gateway request failed")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "upstream_timeout", "upstream gateway timed out")
	default:
		s.logger.Error("unhandled service error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func parsePositiveInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid value")
	}
	return parsed, nil
}

func parseNonNegativeInt(raw string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed < 0 {
		return 0, errors.New("invalid value")
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err // Client disconnected
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err // Client disconnected
	}
	flusher.Flush()
	return nil
}
