package komik

import (
	"context"
	"net/url"
	"strings"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/providers/common"
)

const DefaultComicType = "manhwa"

type Provider struct {
	fetcher common.Fetcher
	lists   common.Lists
}

type Option func(*Provider)

// WithComicType sets the type sent to the recommended and latest lists.
func WithComicType(kind string) Option {
	return func(p *Provider) {
		if value := strings.TrimSpace(kind); value != "" {
			p.lists = buildLists(value)
		}
	}
}

func buildLists(kind string) common.Lists {
	typed := url.Values{"type": {kind}}
	return common.Lists{
		"recommended": {Path: "/komik/recommended", Params: typed},
		"latest":      {Path: "/komik/latest", Params: typed},
		"popular":     {Path: "/komik/popular", Paged: true},
	}
}

func NewProvider(fetcher common.Fetcher, opts ...Option) *Provider {
	p := &Provider{fetcher: fetcher, lists: buildLists(DefaultComicType)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() domain.SourceType {
	return domain.SourceKomik
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:       p.Name(),
		Label:      "Komik",
		Kind:       "comic",
		Searchable: true,
		Enabled:    true,
		Lists:      p.Sections(),
	}
}

func (p *Provider) Sections() []string {
	return p.lists.Names()
}

func (p *Provider) Section(ctx context.Context, name string, page int) (any, error) {
	return p.lists.Fetch(ctx, p.fetcher, name, page)
}

func (p *Provider) Search(ctx context.Context, query string) (any, error) {
	return common.FetchQuery(ctx, p.fetcher, "/komik/search", query, nil)
}

func (p *Provider) Detail(ctx context.Context, mangaID string) (any, error) {
	return common.FetchByID(ctx, p.fetcher, "/komik/detail", "manga_id", mangaID)
}

func (p *Provider) Chapters(ctx context.Context, mangaID string) (any, error) {
	return common.FetchByID(ctx, p.fetcher, "/komik/chapterlist", "manga_id", mangaID)
}

func (p *Provider) Images(ctx context.Context, chapterID string) (any, error) {
	return common.FetchByID(ctx, p.fetcher, "/komik/getimage", "chapter_id", chapterID)
}
