package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/normalize"
)

const unavailableNotice = "Video not available"

// OpenPlayer fetches the episode listing of one item. The listing location
// and the title differ per provider.
func (s *Service) OpenPlayer(ctx context.Context, source domain.SourceType, id string) (domain.PlayerView, error) {
	title, episodes, err := s.loadEpisodes(ctx, source, id)
	if err != nil {
		return domain.PlayerView{}, err
	}
	if title == "" {
		title = s.detailTitle(ctx, source, id)
	}
	if title == "" {
		title = s.label(source)
	}
	return domain.PlayerView{
		SourceType: source,
		ID:         id,
		Title:      title,
		Episodes:   episodes,
	}, nil
}

// PlayEpisode re-fetches the listing and resolves the media of one episode.
// An unavailable video is reported through Notice, not as an error.
func (s *Service) PlayEpisode(ctx context.Context, source domain.SourceType, id string, index int) (domain.Playback, error) {
	_, episodes, err := s.loadEpisodes(ctx, source, id)
	if err != nil {
		return domain.Playback{}, err
	}
	if index < 0 || index >= len(episodes) {
		return domain.Playback{}, fmt.Errorf("%w: index %d of %d", ErrEpisodeNotFound, index, len(episodes))
	}

	episode := episodes[index]
	playback := domain.Playback{
		SourceType: source,
		ID:         id,
		Episode:    episode,
	}
	if s.resolver != nil {
		playback.Media = s.resolver.ResolveVideoURL(ctx, episode, source)
	}
	if !playback.Media.Available() {
		playback.Notice = unavailableNotice
	}
	if index+1 < len(episodes) {
		playback.HasNext = true
		playback.NextIndex = index + 1
	}
	return playback, nil
}

func (s *Service) loadEpisodes(ctx context.Context, source domain.SourceType, id string) (string, []domain.Episode, error) {
	if !source.Playable() {
		return "", nil, fmt.Errorf("%w: %s", ErrNotPlayable, source)
	}
	provider, ok := s.episodes[source]
	if !ok {
		return "", nil, unknownSource(source)
	}
	value, err := requireID(id)
	if err != nil {
		return "", nil, err
	}
	raw, err := provider.Episodes(ctx, value)
	if err != nil {
		return "", nil, err
	}
	title, list := ExtractEpisodes(source, raw)
	return title, normalize.NormalizeEpisodes(list), nil
}

// detailTitle reads the show title from the detail record of sources that
// have one. A failing detail call leaves the title to the caller's default.
func (s *Service) detailTitle(ctx context.Context, source domain.SourceType, id string) string {
	provider, ok := s.episodes[source].(DetailSource)
	if !ok {
		return ""
	}
	raw, err := provider.Detail(ctx, strings.TrimSpace(id))
	if err != nil {
		s.logger.Debug("detail title unavailable",
			slog.String("provider", string(source)),
			slog.String("error", err.Error()),
		)
		return ""
	}
	record := normalize.FirstRecord(raw)
	if title := normalize.ResolveField(record, normalize.TitleKeys); title != "" {
		return title
	}
	if data, ok := record["data"].(map[string]any); ok {
		return normalize.ResolveField(data, normalize.TitleKeys)
	}
	return ""
}

// ExtractEpisodes locates the raw episode list and the show title in a
// provider response. Listing endpoints carry no title.
func ExtractEpisodes(source domain.SourceType, raw any) (string, []any) {
	switch source {
	case domain.SourceDramaBox, domain.SourceNetShort:
		return "", normalize.ExtractList(raw, normalize.EpisodeKeys)
	case domain.SourceMelolo, domain.SourceFlickReels:
		record := normalize.FirstRecord(raw)
		return normalize.ResolveField(record, []string{"bookName", "title"}),
			normalize.ListAt(record, "episodes", "data.episodes")
	case domain.SourceAnime:
		record := normalize.FirstRecord(raw)
		return normalize.ResolveField(record, []string{"title", "name"}),
			normalize.ListAt(record, "chapter", "data.chapter")
	default:
		return "", []any{}
	}
}
