package domain

import "time"

type Section struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	SourceType SourceType    `json:"sourceType"`
	Page       int           `json:"page,omitempty"`
	Items      []CatalogItem `json:"items"`
	Error      string        `json:"error,omitempty"`
	ElapsedMS  int64         `json:"elapsedMs"`
}

type PlayerView struct {
	SourceType SourceType `json:"sourceType"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Episodes   []Episode  `json:"episodes"`
}

type Playback struct {
	SourceType SourceType    `json:"sourceType"`
	ID         string        `json:"id"`
	Episode    Episode       `json:"episode"`
	Media      ResolvedMedia `json:"media"`
	HasNext    bool          `json:"hasNext"`
	NextIndex  int           `json:"nextIndex,omitempty"`
	Notice     string        `json:"notice,omitempty"`
}

type ReaderView struct {
	MangaID  string    `json:"mangaId"`
	Title    string    `json:"title"`
	Chapters []Chapter `json:"chapters"`
}

type HeroState struct {
	Index     int           `json:"index"`
	Item      *CatalogItem  `json:"item,omitempty"`
	Excerpt   string        `json:"excerpt,omitempty"`
	Items     []CatalogItem `json:"items"`
	RotatedAt time.Time     `json:"rotatedAt"`
}
