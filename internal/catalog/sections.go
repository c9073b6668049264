package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/metrics"
	"streamverse/gateway/internal/normalize"
)

const (
	HeroSectionID      = "hero"
	DefaultHeroSize    = 5
	DefaultSectionSize = 12

	maxConcurrentSections = 8
)

// SectionSpec binds a home section to one named list of one provider. Limit
// caps the items kept (0 keeps all).
type SectionSpec struct {
	ID     string
	Title  string
	Source domain.SourceType
	List   string
	Limit  int
}

// DefaultSections is the home page layout: the hero keeps heroSize items, every
// other section keeps sectionSize.
func DefaultSections(heroSize, sectionSize int) []SectionSpec {
	if heroSize <= 0 {
		heroSize = DefaultHeroSize
	}
	if sectionSize <= 0 {
		sectionSize = DefaultSectionSize
	}
	return []SectionSpec{
		{ID: HeroSectionID, Title: "Featured", Source: domain.SourceDramaBox, List: "trending", Limit: heroSize},
		{ID: "dramabox-trending", Title: "Trending Dramas", Source: domain.SourceDramaBox, List: "trending", Limit: sectionSize},
		{ID: "dramabox-latest", Title: "Latest Dramas", Source: domain.SourceDramaBox, List: "latest", Limit: sectionSize},
		{ID: "netshort-content", Title: "NetShort Theaters", Source: domain.SourceNetShort, List: "theaters", Limit: sectionSize},
		{ID: "melolo-trending", Title: "Trending on Melolo", Source: domain.SourceMelolo, List: "trending", Limit: sectionSize},
		{ID: "flickreels-content", Title: "FlickReels Latest", Source: domain.SourceFlickReels, List: "latest", Limit: sectionSize},
		{ID: "anime-latest", Title: "Latest Anime", Source: domain.SourceAnime, List: "latest", Limit: sectionSize},
		{ID: "anime-recommended", Title: "Recommended Anime", Source: domain.SourceAnime, List: "recommended", Limit: sectionSize},
		{ID: "komik-popular", Title: "Popular Comics", Source: domain.SourceKomik, List: "popular", Limit: sectionSize},
	}
}

// LoadSections loads every home section concurrently. A failing section comes
// back empty with its Error set; it never affects the others. The hero rotator
// is refreshed from the hero section when it produced items.
func (s *Service) LoadSections(ctx context.Context) []domain.Section {
	sections := make([]domain.Section, len(s.specs))
	sem := semaphore.NewWeighted(maxConcurrentSections)
	var wg sync.WaitGroup
	for i, spec := range s.specs {
		wg.Add(1)
		go func(index int, current SectionSpec) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				sections[index] = emptySection(current, 1, err)
				return
			}
			defer sem.Release(1)
			sections[index] = s.loadSpec(ctx, current, 1)
		}(i, spec)
	}
	wg.Wait()

	for _, section := range sections {
		if section.ID == HeroSectionID && s.hero != nil && len(section.Items) > 0 {
			s.hero.Replace(section.Items)
		}
	}
	return sections
}

// LoadSection loads one section at the given page. Transport failures are
// reported in the section, only an unknown id is an error.
func (s *Service) LoadSection(ctx context.Context, id string, page int) (domain.Section, error) {
	for _, spec := range s.specs {
		if spec.ID == id {
			return s.loadSpec(ctx, spec, page), nil
		}
	}
	return domain.Section{}, fmt.Errorf("%w: %s", ErrUnknownSection, id)
}

// LoadList loads any named list a provider exposes, home section or not. The
// list is not capped; paging is left to the caller.
func (s *Service) LoadList(ctx context.Context, source domain.SourceType, name string, page int) (domain.Section, error) {
	provider, ok := s.sections[source]
	if !ok {
		return domain.Section{}, unknownSource(source)
	}
	list := strings.ToLower(strings.TrimSpace(name))
	if !slices.Contains(provider.Sections(), list) {
		return domain.Section{}, fmt.Errorf("%w: %s/%s", ErrUnknownSection, source, name)
	}
	return s.loadSpec(ctx, SectionSpec{
		ID:     string(source) + "/" + list,
		Title:  s.label(source),
		Source: source,
		List:   list,
	}, page), nil
}

// RefreshHero reloads the hero section and hands its items to the rotator.
func (s *Service) RefreshHero(ctx context.Context) error {
	section, err := s.LoadSection(ctx, HeroSectionID, 1)
	if err != nil {
		return err
	}
	if section.Error != "" {
		return fmt.Errorf("hero section: %s", section.Error)
	}
	if s.hero != nil && len(section.Items) > 0 {
		s.hero.Replace(section.Items)
	}
	return nil
}

func (s *Service) loadSpec(ctx context.Context, spec SectionSpec, page int) domain.Section {
	startedAt := time.Now()
	source, ok := s.sections[spec.Source]
	if !ok {
		section := emptySection(spec, page, unknownSource(spec.Source))
		metrics.SectionLoadsTotal.WithLabelValues(spec.ID, "error").Inc()
		return section
	}

	raw, err := source.Section(ctx, spec.List, page)
	if err != nil {
		s.logger.Warn("section load failed",
			slog.String("section", spec.ID),
			slog.String("provider", string(spec.Source)),
			slog.String("error", err.Error()),
		)
		metrics.SectionLoadsTotal.WithLabelValues(spec.ID, "error").Inc()
		section := emptySection(spec, page, err)
		section.ElapsedMS = time.Since(startedAt).Milliseconds()
		return section
	}

	items := normalize.Capped(normalize.NormalizeList(raw, normalize.ItemKeys, spec.Source), spec.Limit)
	status := "ok"
	if len(items) == 0 {
		status = "empty"
	}
	metrics.SectionLoadsTotal.WithLabelValues(spec.ID, status).Inc()
	return domain.Section{
		ID:         spec.ID,
		Title:      spec.Title,
		SourceType: spec.Source,
		Page:       normalizePage(page),
		Items:      items,
		ElapsedMS:  time.Since(startedAt).Milliseconds(),
	}
}

func emptySection(spec SectionSpec, page int, err error) domain.Section {
	section := domain.Section{
		ID:         spec.ID,
		Title:      spec.Title,
		SourceType: spec.Source,
		Page:       normalizePage(page),
		Items:      []domain.CatalogItem{},
	}
	if err != nil {
		section.Error = err.Error()
	}
	return section
}

func normalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
