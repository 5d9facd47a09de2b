package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	GoogleAPIKey    string
	GoogleCX        string // custom search engine id
	YouTubeAPIKey   string
	CrossrefMailto  string // optional, joins the CrossRef polite pool
	WebSearchURL    string
	YouTubeAPIBase  string
	CrossrefURL     string
	VideoMaxResults int
	ArticleRows     int
	ProviderTimeout time.Duration // per adapter call; 0 = caller context only
	ProviderRPS     float64       // per provider; 0 = unlimited
	HTTPClient      *http.Client
}

// Provider endpoint defaults.
const (
	DefaultWebSearchURL   = "https://www.googleapis.com/customsearch/v1"
	DefaultYouTubeAPIBase = "https://www.googleapis.com/youtube/v3"
	DefaultCrossrefURL    = "https://api.crossref.org/works"
)

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, aggregate).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
// Empty endpoints fall back to the public provider URLs.
func Init(c Config) {
	if c.WebSearchURL == "" {
		c.WebSearchURL = DefaultWebSearchURL
	}
	if c.YouTubeAPIBase == "" {
		c.YouTubeAPIBase = DefaultYouTubeAPIBase
	}
	if c.CrossrefURL == "" {
		c.CrossrefURL = DefaultCrossrefURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	cfg = c
	Cfg = &cfg
	initLimiters(c.ProviderRPS)
}
