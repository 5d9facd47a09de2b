package engine

import (
	"fmt"
	"strings"
)

// --- Providers and categories ---

// Provider names one of the three external search services.
type Provider string

const (
	ProviderWeb     Provider = "web"
	ProviderVideo   Provider = "video"
	ProviderArticle Provider = "article"
)

// Providers lists every provider in display order.
var Providers = []Provider{ProviderWeb, ProviderVideo, ProviderArticle}

// Category selects which result list the presentation surface shows.
type Category string

const (
	CategoryWeb     Category = "WEB"
	CategoryVideo   Category = "VIDEO"
	CategoryArticle Category = "ARTICLE"
)

// ParseCategory accepts the category name in any case, plus the provider aliases
// ("web", "video", "article") and the legacy toggle values of the web client.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "web", "search-results":
		return CategoryWeb, nil
	case "video", "videos", "youtube-videos":
		return CategoryVideo, nil
	case "article", "articles":
		return CategoryArticle, nil
	}
	return "", fmt.Errorf("unknown category %q (want web, video or article)", s)
}

// --- Normalized results ---

type WebResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// VideoResult is a snippet record joined with its statistics record.
type VideoResult struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	URL          string `json:"url"`
	LikeCount    int64  `json:"like_count"`
	ViewCount    int64  `json:"view_count"`
}

type ArticleResult struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
	DOI      string `json:"doi,omitempty"`
}

// Display defaults for optional provider fields.
const (
	NoDescription = "No description available"
	NoAbstract    = "No abstract available"
)

// YouTubeWatchURL builds the public watch page URL for a video id.
func YouTubeWatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
