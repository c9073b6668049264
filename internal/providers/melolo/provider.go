package melolo

import (
	"context"
	"net/url"
	"strconv"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/providers/common"
)

const (
	defaultSearchLimit = 10
	streamKey          = "vid"
)

var lists = common.Lists{
	"latest":   {Path: "/melolo/latest"},
	"trending": {Path: "/melolo/trending"},
}

type Provider struct {
	fetcher     common.Fetcher
	searchLimit int
}

type Option func(*Provider)

func WithSearchLimit(limit int) Option {
	return func(p *Provider) {
		if limit > 0 {
			p.searchLimit = limit
		}
	}
}

func NewProvider(fetcher common.Fetcher, opts ...Option) *Provider {
	p := &Provider{fetcher: fetcher, searchLimit: defaultSearchLimit}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() domain.SourceType {
	return domain.SourceMelolo
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:       p.Name(),
		Label:      "Melolo",
		Kind:       "microdrama",
		Searchable: true,
		Enabled:    true,
		Lists:      p.Sections(),
	}
}

func (p *Provider) Sections() []string {
	return lists.Names()
}

func (p *Provider) Section(ctx context.Context, name string, page int) (any, error) {
	return lists.Fetch(ctx, p.fetcher, name, page)
}

func (p *Provider) Search(ctx context.Context, query string) (any, error) {
	return common.FetchQuery(ctx, p.fetcher, "/melolo/search", query, url.Values{
		"limit":  {strconv.Itoa(p.searchLimit)},
		"offset": {"0"},
	})
}

// Episodes reads the detail record, which embeds the episode list.
func (p *Provider) Episodes(ctx context.Context, bookID string) (any, error) {
	return common.FetchByID(ctx, p.fetcher, "/melolo/detail", "bookId", bookID)
}

// StreamKey is the episode field carrying the video id for Stream.
func (p *Provider) StreamKey() string {
	return streamKey
}

func (p *Provider) Stream(ctx context.Context, videoID string) (any, error) {
	return common.FetchByID(ctx, p.fetcher, "/melolo/stream", "videoId", videoID)
}
