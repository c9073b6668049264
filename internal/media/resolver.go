// Package media resolves a playable video URL for one episode. Resolution is a
// fixed pipeline: inline CDN, then provider indirection, then flat fields. An
// empty result means the episode is unavailable; it is never an error.
package media

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/metrics"
	"streamverse/gateway/internal/normalize"
	"streamverse/gateway/internal/telemetry"
)

const preferredQuality = 720

// FlatKeys are probed on the episode record when no other strategy produced a URL.
var FlatKeys = []string{"videoUrl", "url", "streamUrl", "video"}

// StreamFetcher performs the follow-up request of the indirection strategy.
// StreamKey names the episode field holding the identifier to send.
type StreamFetcher interface {
	StreamKey() string
	Stream(ctx context.Context, key string) (any, error)
}

type Resolver struct {
	streams map[domain.SourceType]StreamFetcher
	logger  *slog.Logger
}

type Option func(*Resolver)

func WithStream(source domain.SourceType, fetcher StreamFetcher) Option {
	return func(r *Resolver) {
		if fetcher != nil {
			r.streams[source] = fetcher
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		streams: make(map[domain.SourceType]StreamFetcher),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveVideoURL runs the pipeline for one episode. At most one network call is
// made, only by the indirection stage, and its failure yields the same empty
// result as "no strategy matched".
func (r *Resolver) ResolveVideoURL(ctx context.Context, episode domain.Episode, source domain.SourceType) domain.ResolvedMedia {
	media := r.resolve(ctx, episode.Raw, source)
	strategy := string(media.Strategy)
	if strategy == "" {
		strategy = "none"
	}
	metrics.MediaResolutionsTotal.WithLabelValues(string(source), strategy).Inc()
	return media
}

func (r *Resolver) resolve(ctx context.Context, record map[string]any, source domain.SourceType) domain.ResolvedMedia {
	if record == nil {
		return domain.ResolvedMedia{}
	}
	if url := InlineCDN(record); url != "" {
		return domain.ResolvedMedia{VideoURL: url, Strategy: domain.StrategyInlineCDN}
	}
	url, consumed := r.indirection(ctx, record, source)
	if url != "" {
		return domain.ResolvedMedia{VideoURL: url, Strategy: domain.StrategyIndirection}
	}
	if url := normalize.ResolveField(record, flatKeysWithout(consumed)); url != "" {
		return domain.ResolvedMedia{VideoURL: url, Strategy: domain.StrategyDirect}
	}
	return domain.ResolvedMedia{}
}

// indirection returns the followed-up URL and the episode field it consumed.
// The consumed field holds an identifier, not a media URL, so the flat stage
// must not return it.
func (r *Resolver) indirection(ctx context.Context, record map[string]any, source domain.SourceType) (string, string) {
	fetcher, ok := r.streams[source]
	if !ok {
		return "", ""
	}
	field := fetcher.StreamKey()
	key := normalize.ResolveField(record, []string{field})
	if key == "" {
		return "", ""
	}
	streamCtx, span := telemetry.Tracer("streamverse/media").Start(ctx, "media.indirection",
		trace.WithAttributes(attribute.String("provider", string(source))))
	defer span.End()

	payload, err := fetcher.Stream(streamCtx, key)
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("stream follow-up failed",
			slog.String("provider", string(source)),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return "", field
	}
	return StreamURL(payload), field
}

func flatKeysWithout(field string) []string {
	if field == "" {
		return FlatKeys
	}
	keys := make([]string, 0, len(FlatKeys))
	for _, key := range FlatKeys {
		if key != field {
			keys = append(keys, key)
		}
	}
	return keys
}

// StreamURL extracts the playable URL from a follow-up response: the first
// element (or root object), then its wrapped data.
func StreamURL(payload any) string {
	return normalize.ResolvePath(normalize.FirstRecord(payload), "url", "data.url", "data.main_url")
}

// InlineCDN picks the default CDN (else the first) and, within it, the 720p
// variant, else the default variant, else the first one.
func InlineCDN(record map[string]any) string {
	cdns := normalize.Records(normalize.ListAt(record, "cdnList"))
	if len(cdns) == 0 {
		return ""
	}
	cdn := pick(cdns, isDefault)
	variants := normalize.Records(normalize.ListAt(cdn, "videoPathList"))
	if len(variants) == 0 {
		return ""
	}
	variant := pick(variants, hasPreferredQuality, isDefault)
	return normalize.ResolveField(variant, []string{"videoPath"})
}

// pick returns the first record matching the earliest predicate, else the
// first record.
func pick(records []map[string]any, predicates ...func(map[string]any) bool) map[string]any {
	for _, match := range predicates {
		for _, record := range records {
			if match(record) {
				return record
			}
		}
	}
	return records[0]
}

func isDefault(record map[string]any) bool {
	if flag, ok := record["isDefault"].(bool); ok {
		return flag
	}
	value, ok := normalize.IntValue(record["isDefault"])
	return ok && value == 1
}

// hasPreferredQuality matches numeric 720 only: 720.5 and "720" do not count.
func hasPreferredQuality(record map[string]any) bool {
	switch v := record["quality"].(type) {
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == preferredQuality
	case float64:
		return v == preferredQuality
	case int:
		return v == preferredQuality
	case int64:
		return v == preferredQuality
	default:
		return false
	}
}
