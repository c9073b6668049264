package anime

import (
	"context"
	"net/url"
	"strings"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/providers/common"
)

const (
	DefaultResolution = "720p"
	streamKey         = "url"
)

var lists = common.Lists{
	"latest":      {Path: "/anime/latest"},
	"recommended": {Path: "/anime/recommended", Paged: true},
	"movie":       {Path: "/anime/movie"},
}

type Provider struct {
	fetcher    common.Fetcher
	resolution string
}

type Option func(*Provider)

// WithResolution sets the reso requested from getvideo ("480p", "720p").
func WithResolution(reso string) Option {
	return func(p *Provider) {
		if value := strings.TrimSpace(reso); value != "" {
			p.resolution = value
		}
	}
}

func NewProvider(fetcher common.Fetcher, opts ...Option) *Provider {
	p := &Provider{fetcher: fetcher, resolution: DefaultResolution}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() domain.SourceType {
	return domain.SourceAnime
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:       p.Name(),
		Label:      "Anime",
		Kind:       "anime",
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
	return common.FetchQuery(ctx, p.fetcher, "/anime/search", query, nil)
}

// Episodes reads the detail record; episodes live under its chapter list.
func (p *Provider) Episodes(ctx context.Context, urlID string) (any, error) {
	return common.FetchByID(ctx, p.fetcher, "/anime/detail", "urlId", urlID)
}

func (p *Provider) StreamKey() string {
	return streamKey
}

// Stream resolves a chapter url into a playable video at the configured
// resolution.
func (p *Provider) Stream(ctx context.Context, chapterURLID string) (any, error) {
	value := strings.TrimSpace(chapterURLID)
	if value == "" {
		return nil, common.ErrMissingID
	}
	return p.fetcher.FetchJSON(ctx, "/anime/getvideo", url.Values{
		"chapterUrlId": {value},
		"reso":         {p.resolution},
	})
}
