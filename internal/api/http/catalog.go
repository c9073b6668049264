package apihttp

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"streamverse/gateway/internal/domain"
)

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "catalog service is not configured")
		return
	}
	sections := s.catalog.LoadSections(r.Context())
	failed := 0
	for _, section := range sections {
		if section.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		s.logger.Warn("home sections partially failed",
			slog.Int("sections", len(sections)),
			slog.Int("failed", failed),
		)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.withSections(sections)})
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "catalog service is not configured")
		return
	}
	page, err := parsePositiveInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return
	}
	section, err := s.catalog.LoadSection(r.Context(), r.PathValue("id"), page)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.withSection(section))
}

// handleProviderList serves any named list of one provider, including the
// ones no home section uses.
func (s *Server) handleProviderList(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "catalog service is not configured")
		return
	}
	source, ok := domain.ParseSourceType(r.PathValue("source"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("unknown source %q", truncate(r.PathValue("source"), 40)))
		return
	}
	page, err := parsePositiveInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return
	}
	section, err := s.catalog.LoadList(r.Context(), source, r.PathValue("name"), page)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.withSection(section))
}

func (s *Server) handleHero(w http.ResponseWriter, _ *http.Request) {
	if s.hero == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "hero rotation is not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.withHero(s.hero.State()))
}

func (s *Server) handleHeroSelect(w http.ResponseWriter, r *http.Request) {
	if s.hero == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "hero rotation is not configured")
		return
	}
	index, err := parseNonNegativeInt(r.URL.Query().Get("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid index")
		return
	}
	state, err := s.hero.Select(index)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.withHero(state))
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	source, ok := s.playableSource(w, r)
	if !ok {
		return
	}
	view, err := s.catalog.OpenPlayer(r.Context(), source, r.PathValue("id"))
	if err != nil {
		s.logPlayerFailure("open player failed", source, r.PathValue("id"), err)
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.withPlayer(view))
}

func (s *Server) handlePlayEpisode(w http.ResponseWriter, r *http.Request) {
	source, ok := s.playableSource(w, r)
	if !ok {
		return
	}
	index, err := parseNonNegativeInt(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid episode index")
		return
	}
	playback, err := s.catalog.PlayEpisode(r.Context(), source, r.PathValue("id"), index)
	if err != nil {
		s.logPlayerFailure("play episode failed", source, r.PathValue("id"), err)
		s.writeServiceError(w, err)
		return
	}
	if !playback.Media.Available() {
		s.logger.Info("episode has no playable media",
			slog.String("source", string(source)),
			slog.String("id", playback.ID),
			slog.Int("index", index),
		)
	}
	writeJSON(w, http.StatusOK, s.withPlayback(playback))
}

func (s *Server) playableSource(w http.ResponseWriter, r *http.Request) (domain.SourceType, bool) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "catalog service is not configured")
		return "", false
	}
	source, ok := domain.ParseSourceType(r.PathValue("source"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("unknown source %q", truncate(r.PathValue("source"), 40)))
		return "", false
	}
	if !source.Playable() {
		writeError(w, http.StatusBadRequest, "invalid_request", "source opens in the reader, not the player")
		return "", false
	}
	return source, true
}

func (s *Server) logPlayerFailure(message string, source domain.SourceType, id string, err error) {
	s.logger.Warn(message,
		slog.String("source", string(source)),
		slog.String("id", truncate(id, 80)),
		slog.String("error", err.Error()),
	)
}

func (s *Server) handleReader(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "catalog service is not configured")
		return
	}
	view, err := s.catalog.OpenReader(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleChapterImages(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "catalog service is not configured")
		return
	}
	chapterID := strings.TrimSpace(r.PathValue("chapterId"))
	images, err := s.catalog.ChapterImages(r.Context(), chapterID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if images == nil {
		images = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chapterId": chapterID,
		"items":     images,
	})
}
