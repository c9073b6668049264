package flickreels

import (
	"context"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/providers/common"
)

var lists = common.Lists{
	"latest":  {Path: "/flickreels/latest"},
	"foryou":  {Path: "/flickreels/foryou"},
	"hotrank": {Path: "/flickreels/hotrank"},
}

type Provider struct {
	fetcher common.Fetcher
}

func NewProvider(fetcher common.Fetcher) *Provider {
	return &Provider{fetcher: fetcher}
}

func (p *Provider) Name() domain.SourceType {
	return domain.SourceFlickReels
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:       p.Name(),
		Label:      "FlickReels",
		Kind:       "reels",
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
	return common.FetchQuery(ctx, p.fetcher, "/flickreels/search", query, nil)
}

// Episodes uses the combined detail endpoint; the episode list is nested in it.
func (p *Provider) Episodes(ctx context.Context, id string) (any, error) {
	return common.FetchByID(ctx, p.fetcher, "/flickreels/detailAndAllEpisode", "id", id)
}
