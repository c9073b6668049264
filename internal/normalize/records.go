package normalize

import (
	"strconv"
	"strings"

	"streamverse/gateway/internal/domain"
)

const (
	CardExcerptLength = 80
	HeroExcerptLength = 180
)

// NormalizeList extracts and converts the items of one provider response.
// Records without an id are dropped, everything else keeps upstream order.
// Items open with their display id.
func NormalizeList(raw any, keys KeySet, source domain.SourceType) []domain.CatalogItem {
	return normalizeList(raw, keys, source, nil)
}

// NormalizeSearchList is NormalizeList for search hits, which open with the
// per-kind id order of OpenKeys.
func NormalizeSearchList(raw any, keys KeySet, source domain.SourceType) []domain.CatalogItem {
	return normalizeList(raw, keys, source, OpenKeys(source))
}

func normalizeList(raw any, keys KeySet, source domain.SourceType, openKeys []string) []domain.CatalogItem {
	records := Records(ExtractList(raw, keys))
	items := make([]domain.CatalogItem, 0, len(records))
	for _, record := range records {
		item, ok := NormalizeItem(record, source)
		if !ok {
			continue
		}
		if openID := ResolveField(record, openKeys); openID != "" {
			item.OpenID = openID
		}
		items = append(items, item)
	}
	return items
}

func NormalizeItem(record map[string]any, source domain.SourceType) (domain.CatalogItem, bool) {
	id := ResolveField(record, IDKeys)
	if id == "" {
		return domain.CatalogItem{}, false
	}
	fields := ResolveDisplayFields(record)
	return domain.CatalogItem{
		ID:           id,
		OpenID:       id,
		Title:        fields.Title,
		CoverImage:   fields.Image,
		Description:  fields.Description,
		Excerpt:      Excerpt(fields.Description, CardExcerptLength),
		EpisodeCount: fields.EpisodeCount,
		Badge:        resolveBadge(record),
		SourceType:   source,
	}, true
}

// NormalizeEpisodes builds episodes from a list of raw episode records. The
// raw record is retained for media resolution.
func NormalizeEpisodes(list []any) []domain.Episode {
	episodes := make([]domain.Episode, 0, len(list))
	for _, record := range Records(list) {
		index := len(episodes)
		name := ResolveField(record, EpisodeNameKeys)
		if name == "" {
			name = "EP " + strconv.Itoa(index+1)
		}
		episodes = append(episodes, domain.Episode{
			Index:       index,
			DisplayName: name,
			Thumbnail:   ResolveField(record, EpisodeThumbKeys),
			Raw:         record,
		})
	}
	return episodes
}

func NormalizeChapters(list []any) []domain.Chapter {
	chapters := make([]domain.Chapter, 0, len(list))
	for _, record := range Records(list) {
		index := len(chapters)
		title := ResolveField(record, ChapterTitleKeys)
		if title == "" {
			title = "Chapter " + strconv.Itoa(index+1)
		}
		chapters = append(chapters, domain.Chapter{
			Index: index,
			ID:    ResolveField(record, ChapterIDKeys),
			Title: title,
		})
	}
	return chapters
}

// NormalizePages returns the image URL of every page. Pages are either bare
// strings or objects; pages without a URL are skipped.
func NormalizePages(list []any) []string {
	pages := make([]string, 0, len(list))
	for _, entry := range list {
		var url string
		switch value := entry.(type) {
		case string:
			url = value
		case map[string]any:
			url = ResolveField(value, PageImageKeys)
		}
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		pages = append(pages, url)
	}
	return pages
}

// Capped returns at most limit items. A non-positive limit keeps everything.
func Capped(items []domain.CatalogItem, limit int) []domain.CatalogItem {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[:limit]
}
