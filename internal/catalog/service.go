// Package catalog assembles the browse experience from the provider adapters:
// home sections, the player episode list, playback resolution, the comic reader
// and the rotating hero banner.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"streamverse/gateway/internal/domain"
)

var (
	ErrUnknownSection  = errors.New("unknown section")
	ErrUnknownSource   = errors.New("unknown source")
	ErrNotPlayable     = errors.New("source is not playable")
	ErrEpisodeNotFound = errors.New("episode not found")
	ErrNoComicSource   = errors.New("comic source not configured")
	ErrMissingID       = errors.New("id is required")
)

// SectionSource lists named catalog endpoints of one provider. Sections
// returns the list names Section accepts.
type SectionSource interface {
	Name() domain.SourceType
	Info() domain.ProviderInfo
	Sections() []string
	Section(ctx context.Context, name string, page int) (any, error)
}

// EpisodeSource returns the raw episode listing (or the detail record that
// embeds it) for one catalog item.
type EpisodeSource interface {
	Name() domain.SourceType
	Info() domain.ProviderInfo
	Episodes(ctx context.Context, id string) (any, error)
}

// DetailSource is implemented by episode sources whose listing carries no
// title; the player then takes the title from the detail record.
type DetailSource interface {
	Detail(ctx context.Context, id string) (any, error)
}

type ComicSource interface {
	Detail(ctx context.Context, mangaID string) (any, error)
	Chapters(ctx context.Context, mangaID string) (any, error)
	Images(ctx context.Context, chapterID string) (any, error)
}

type MediaResolver interface {
	ResolveVideoURL(ctx context.Context, episode domain.Episode, source domain.SourceType) domain.ResolvedMedia
}

type Service struct {
	sections map[domain.SourceType]SectionSource
	episodes map[domain.SourceType]EpisodeSource
	comics   ComicSource
	resolver MediaResolver
	specs    []SectionSpec
	hero     *HeroRotator
	logger   *slog.Logger
}

type Option func(*Service)

func WithSectionSource(source SectionSource) Option {
	return func(s *Service) {
		if source != nil {
			s.sections[source.Name()] = source
		}
	}
}

func WithEpisodeSource(source EpisodeSource) Option {
	return func(s *Service) {
		if source != nil && source.Name().Playable() {
			s.episodes[source.Name()] = source
		}
	}
}

func WithComicSource(source ComicSource) Option {
	return func(s *Service) {
		s.comics = source
	}
}

func WithResolver(resolver MediaResolver) Option {
	return func(s *Service) {
		s.resolver = resolver
	}
}

// WithSections replaces the home section layout.
func WithSections(specs []SectionSpec) Option {
	return func(s *Service) {
		s.specs = append([]SectionSpec(nil), specs...)
	}
}

func WithHero(hero *HeroRotator) Option {
	return func(s *Service) {
		s.hero = hero
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{
		sections: make(map[domain.SourceType]SectionSource),
		episodes: make(map[domain.SourceType]EpisodeSource),
		specs:    DefaultSections(DefaultHeroSize, DefaultSectionSize),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hero returns the rotator fed by the hero section, or nil.
func (s *Service) Hero() *HeroRotator {
	return s.hero
}

func (s *Service) label(source domain.SourceType) string {
	if provider, ok := s.episodes[source]; ok {
		if label := provider.Info().Label; label != "" {
			return label
		}
	}
	if provider, ok := s.sections[source]; ok {
		if label := provider.Info().Label; label != "" {
			return label
		}
	}
	return string(source)
}

func requireID(id string) (string, error) {
	value := strings.TrimSpace(id)
	if value == "" {
		return "", ErrMissingID
	}
	return value, nil
}

func unknownSource(source domain.SourceType) error {
	return fmt.Errorf("%w: %s", ErrUnknownSource, source)
}
