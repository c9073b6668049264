package netshort

import (
	"context"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/providers/common"
)

var lists = common.Lists{
	"theaters": {Path: "/netshort/theaters"},
	"foryou":   {Path: "/netshort/foryou", Paged: true},
}

type Provider struct {
	fetcher common.Fetcher
}

func NewProvider(fetcher common.Fetcher) *Provider {
	return &Provider{fetcher: fetcher}
}

func (p *Provider) Name() domain.SourceType {
	return domain.SourceNetShort
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:       p.Name(),
		Label:      "NetShort",
		Kind:       "short",
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
	return common.FetchQuery(ctx, p.fetcher, "/netshort/search", query, nil)
}

func (p *Provider) Episodes(ctx context.Context, shortPlayID string) (any, error) {
	return common.FetchByID(ctx, p.fetcher, "/netshort/allepisode", "shortPlayId", shortPlayID)
}
