package domain

import "strings"

type SourceType string

const (
	SourceDramaBox   SourceType = "dramabox"
	SourceNetShort   SourceType = "netshort"
	SourceMelolo     SourceType = "melolo"
	SourceFlickReels SourceType = "flickreels"
	SourceAnime      SourceType = "anime"
	SourceKomik      SourceType = "komik"
)

var AllSources = []SourceType{
	SourceDramaBox,
	SourceNetShort,
	SourceMelolo,
	SourceFlickReels,
	SourceAnime,
	SourceKomik,
}

func ParseSourceType(raw string) (SourceType, bool) {
	value := SourceType(strings.ToLower(strings.TrimSpace(raw)))
	for _, source := range AllSources {
		if source == value {
			return value, true
		}
	}
	return "", false
}

// Playable reports whether items of this source open in the video player.
// Komik items open in the reader instead.
func (s SourceType) Playable() bool {
	return s != SourceKomik && s != ""
}

// CatalogItem is a display-ready record built from one upstream item. ID is only
// unique within one provider response. OpenID is the id passed to the player
// or the reader when the item is opened.
type CatalogItem struct {
	ID           string     `json:"id"`
	OpenID       string     `json:"openId"`
	Title        string     `json:"title"`
	CoverImage   string     `json:"coverImage,omitempty"`
	Description  string     `json:"description,omitempty"`
	Excerpt      string     `json:"excerpt,omitempty"`
	EpisodeCount string     `json:"episodeCount,omitempty"`
	Badge        string     `json:"badge,omitempty"`
	SourceType   SourceType `json:"sourceType"`
}

type DisplayFields struct {
	Title        string `json:"title"`
	Image        string `json:"image"`
	Description  string `json:"description"`
	EpisodeCount string `json:"episodeCount"`
}

// Episode keeps the raw upstream record so the media resolver can apply the
// provider specific strategy lazily.
type Episode struct {
	Index       int            `json:"index"`
	DisplayName string         `json:"displayName"`
	Thumbnail   string         `json:"thumbnail,omitempty"`
	Raw         map[string]any `json:"-"`
}

type MediaStrategy string

const (
	StrategyNone        MediaStrategy = ""
	StrategyInlineCDN   MediaStrategy = "cdn"
	StrategyIndirection MediaStrategy = "indirection"
	StrategyDirect      MediaStrategy = "direct"
)

// ResolvedMedia with an empty VideoURL means the episode is unavailable.
type ResolvedMedia struct {
	VideoURL string        `json:"videoUrl"`
	Strategy MediaStrategy `json:"strategy,omitempty"`
}

func (m ResolvedMedia) Available() bool {
	return m.VideoURL != ""
}

type Chapter struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ProviderInfo struct {
	Name       SourceType `json:"name"`
	Label      string     `json:"label"`
	Kind       string     `json:"kind"`
	Searchable bool       `json:"searchable"`
	Enabled    bool       `json:"enabled"`
	Lists      []string   `json:"lists,omitempty"`
}
