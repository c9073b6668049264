package dramabox

import (
	"context"
	"net/url"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/providers/common"
)

const defaultClassify = "terpopuler"

var lists = common.Lists{
	"vip":           {Path: "/dramabox/vip"},
	"dubindo":       {Path: "/dramabox/dubindo", Paged: true, Params: url.Values{"classify": {defaultClassify}}},
	"random":        {Path: "/dramabox/randomdrama"},
	"foryou":        {Path: "/dramabox/foryou"},
	"latest":        {Path: "/dramabox/latest"},
	"trending":      {Path: "/dramabox/trending"},
	"populersearch": {Path: "/dramabox/populersearch"},
}

type Provider struct {
	fetcher common.Fetcher
}

func NewProvider(fetcher common.Fetcher) *Provider {
	return &Provider{fetcher: fetcher}
}

func (p *Provider) Name() domain.SourceType {
	return domain.SourceDramaBox
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:       p.Name(),
		Label:      "DramaBox",
		Kind:       "drama",
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
	return common.FetchQuery(ctx, p.fetcher, "/dramabox/search", query, nil)
}

func (p *Provider) Detail(ctx context.Context, bookID string) (any, error) {
	return common.FetchByID(ctx, p.fetcher, "/dramabox/detail", "bookId", bookID)
}

func (p *Provider) Episodes(ctx context.Context, bookID string) (any, error) {
	return common.FetchByID(ctx, p.fetcher, "/dramabox/allepisode", "bookId", bookID)
}
