package normalize

import (
	"encoding/json"
	"strconv"

	"streamverse/gateway/internal/domain"
)

// Candidate key lists per semantic field. The order is the upstream convention
// and must not be changed: specific keys precede generic ones.
var (
	IDKeys           = []string{"id", "bookId", "shortPlayId", "manga_id", "urlId"}
	PlayerOpenKeys   = []string{"bookId", "id", "urlId"}
	ReaderOpenKeys   = []string{"manga_id", "id", "bookId"}
	TitleKeys        = []string{"bookName", "title", "name", "dramaname", "bookname", "animeName"}
	CoverKeys        = []string{"coverWap", "cover", "poster", "image", "thumbnail", "coverUrl", "img", "coverImage", "pic"}
	DescriptionKeys  = []string{"introduction", "description", "synopsis", "intro"}
	EpisodeCountKeys = []string{"serialCount", "episodes", "totalEpisode", "chapterCount"}

	EpisodeNameKeys  = []string{"chapterName", "title", "name"}
	EpisodeThumbKeys = []string{"chapterImg", "cover", "thumbnail"}

	ChapterIDKeys    = []string{"chapter_id", "id", "chapterId"}
	ChapterTitleKeys = []string{"title", "name"}
	PageImageKeys    = []string{"url", "src", "image"}
)

// ResolveField returns the first candidate whose value is non-empty, or "".
// Missing keys, null, "", numeric zero and false count as empty. Objects and
// arrays never satisfy a display field.
func ResolveField(record map[string]any, keys []string) string {
	if record == nil {
		return ""
	}
	for _, key := range keys {
		if value, ok := scalarString(record[key]); ok {
			return value
		}
	}
	return ""
}

// ResolvePath is ResolveField over dotted paths.
func ResolvePath(record map[string]any, paths ...string) string {
	for _, path := range paths {
		value, ok := Lookup(record, path)
		if !ok {
			continue
		}
		if text, ok := scalarString(value); ok {
			return text
		}
	}
	return ""
}

func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, v != ""
	case json.Number:
		f, err := v.Float64()
		if err == nil && f == 0 {
			return "", false
		}
		return v.String(), v.String() != ""
	case float64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		if v == 0 {
			return "", false
		}
		return strconv.Itoa(v), true
	case int64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatInt(v, 10), true
	case bool:
		if !v {
			return "", false
		}
		return "true", true
	default:
		return "", false
	}
}

// Truthy reports whether a flag value is set (1, true, "1", non-empty string).
func Truthy(value any) bool {
	_, ok := scalarString(value)
	return ok
}

// IntValue reads a numeric field, accepting numbers and numeric strings.
func IntValue(value any) (int, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		if f, err := v.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

// OpenKeys returns the id keys a search hit of source is opened with: the
// reader for comics, the player for everything else.
func OpenKeys(source domain.SourceType) []string {
	if source.Playable() {
		return PlayerOpenKeys
	}
	return ReaderOpenKeys
}

// ResolveDisplayFields extracts the canonical display fields of one item.
func ResolveDisplayFields(record map[string]any) domain.DisplayFields {
	return domain.DisplayFields{
		Title:        ResolveField(record, TitleKeys),
		Image:        ResolveField(record, CoverKeys),
		Description:  CleanText(ResolveField(record, DescriptionKeys)),
		EpisodeCount: ResolveField(record, EpisodeCountKeys),
	}
}

func resolveBadge(record map[string]any) string {
	switch {
	case Truthy(record["isVip"]):
		return "VIP"
	case Truthy(record["isNew"]):
		return "NEW"
	case Truthy(record["trending"]):
		return "TRENDING"
	default:
		return ""
	}
}
