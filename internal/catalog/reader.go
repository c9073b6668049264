package catalog

import (
	"context"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/normalize"
)

const defaultComicTitle = "Comic"

// OpenReader loads the chapter list, then the detail record for the title.
// A failed detail call keeps the chapters and falls back to the default title.
func (s *Service) OpenReader(ctx context.Context, mangaID string) (domain.ReaderView, error) {
	if s.comics == nil {
		return domain.ReaderView{}, ErrNoComicSource
	}
	id, err := requireID(mangaID)
	if err != nil {
		return domain.ReaderView{}, err
	}

	raw, err := s.comics.Chapters(ctx, id)
	if err != nil {
		return domain.ReaderView{}, err
	}
	chapters := normalize.NormalizeChapters(normalize.ExtractList(raw, normalize.ChapterKeys))

	title := defaultComicTitle
	if detail, err := s.comics.Detail(ctx, id); err == nil {
		if value := normalize.ResolvePath(normalize.FirstRecord(detail), "data.title", "title"); value != "" {
			title = value
		}
	}

	return domain.ReaderView{
		MangaID:  id,
		Title:    title,
		Chapters: chapters,
	}, nil
}

func (s *Service) ChapterImages(ctx context.Context, chapterID string) ([]string, error) {
	if s.comics == nil {
		return nil, ErrNoComicSource
	}
	id, err := requireID(chapterID)
	if err != nil {
		return nil, err
	}
	raw, err := s.comics.Images(ctx, id)
	if err != nil {
		return nil, err
	}
	return normalize.NormalizePages(normalize.ExtractList(raw, normalize.ImageKeys)), nil
}
