package sources

import (
	"bytes"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_unisearch/internal/engine"
)

// Provider payloads are decoded into the raw types below and converted to the
// normalized engine result types here, so every optional-field default lives in
// one place.
//
// Default table:
//
//	provider  field                       missing / empty  ->  value
//	web       items                                         ->  empty list
//	web       title, snippet, link                          ->  ""
//	video     items (search)                                ->  empty list, no statistics call
//	video     id.videoId                                    ->  record dropped
//	video     snippet.description                           ->  engine.NoDescription
//	video     snippet.thumbnails.high.url                   ->  ""
//	video     statistics record (no id match)               ->  likeCount 0, viewCount 0
//	video     statistics.likeCount / viewCount (absent/bad) ->  0
//	article   message / message.items                       ->  empty list
//	article   title (string or array)                       ->  parts joined with ", "
//	article   abstract                                      ->  engine.NoAbstract
//	article   URL, DOI                                      ->  ""

// --- Google Custom Search ---

type cseResponse struct {
	Items []cseItem `json:"items"`
}

type cseItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

func normalizeWeb(items []cseItem) []engine.WebResult {
	out := make([]engine.WebResult, 0, len(items))
	for _, it := range items {
		out = append(out, engine.WebResult{
			Title:   it.Title,
			Snippet: it.Snippet,
			Link:    it.Link,
		})
	}
	return out
}

// --- YouTube Data API v3 ---

type ytSearchResp struct {
	Items []ytSearchItem `json:"items"`
}

type ytSearchItem struct {
	ID      ytSearchItemID `json:"id"`
	Snippet ytSnippet      `json:"snippet"`
}

type ytSearchItemID struct {
	VideoID string `json:"videoId"`
}

type ytSnippet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnails  struct {
		High struct {
			URL string `json:"url"`
		} `json:"high"`
	} `json:"thumbnails"`
}

type ytStatsResp struct {
	Items []ytStatsItem `json:"items"`
}

type ytStatsItem struct {
	ID         string        `json:"id"`
	Statistics *ytStatistics `json:"statistics"`
}

type ytStatistics struct {
	LikeCount count `json:"likeCount"`
	ViewCount count `json:"viewCount"`
}

// count decodes a YouTube counter. The API sends counts as decimal strings;
// plain numbers are accepted too. Anything unparsable or negative is 0.
type count int64

func (c *count) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		*c = 0
		return nil
	}
	*c = count(n)
	return nil
}

// normalizeSnippets converts search items into videos without statistics.
// Items without a video id are dropped; repeated ids keep the first occurrence.
func normalizeSnippets(items []ytSearchItem) []engine.VideoResult {
	seen := make(map[string]bool, len(items))
	out := make([]engine.VideoResult, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ID.VideoID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		desc := engine.DecodeEntities(it.Snippet.Description)
		if desc == "" {
			desc = engine.NoDescription
		}
		out = append(out, engine.VideoResult{
			VideoID:      id,
			Title:        engine.DecodeEntities(it.Snippet.Title),
			Description:  desc,
			ThumbnailURL: it.Snippet.Thumbnails.High.URL,
			URL:          engine.YouTubeWatchURL(id),
		})
	}
	return out
}

func videoIDs(videos []engine.VideoResult) []string {
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.VideoID
	}
	return ids
}

// statisticsByID indexes statistics records; the first record for an id wins.
func statisticsByID(items []ytStatsItem) map[string]ytStatistics {
	m := make(map[string]ytStatistics, len(items))
	for _, it := range items {
		if it.ID == "" || it.Statistics == nil {
			continue
		}
		if _, ok := m[it.ID]; !ok {
			m[it.ID] = *it.Statistics
		}
	}
	return m
}

// joinStatistics fills like/view counts; videos without a match keep zero counts.
func joinStatistics(videos []engine.VideoResult, stats map[string]ytStatistics) []engine.VideoResult {
	out := make([]engine.VideoResult, len(videos))
	for i, v := range videos {
		if st, ok := stats[v.VideoID]; ok {
			v.LikeCount = int64(st.LikeCount)
			v.ViewCount = int64(st.ViewCount)
		}
		out[i] = v
	}
	return out
}

// filterEngaged drops videos with neither likes nor views.
func filterEngaged(videos []engine.VideoResult) []engine.VideoResult {
	out := make([]engine.VideoResult, 0, len(videos))
	for _, v := range videos {
		if v.LikeCount > 0 || v.ViewCount > 0 {
			out = append(out, v)
		}
	}
	return out
}

// sortByViews orders videos by view count, highest first; ties keep input order.
func sortByViews(videos []engine.VideoResult) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].ViewCount > videos[j].ViewCount
	})
}

// --- CrossRef ---

type crossrefResponse struct {
	Message *struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	Title    titleParts `json:"title"`
	Abstract string     `json:"abstract"`
	URL      string     `json:"URL"`
	DOI      string     `json:"DOI"`
}

// titleParts accepts either a JSON array of strings or a single string.
type titleParts []string

func (t *titleParts) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = titleParts{s}
		return nil
	}
	var parts []string
	if err := json.Unmarshal(b, &parts); err != nil {
		return err
	}
	*t = parts
	return nil
}

func (t titleParts) String() string {
	return strings.Join(t, ", ")
}

func normalizeArticles(resp crossrefResponse) []engine.ArticleResult {
	if resp.Message == nil {
		return []engine.ArticleResult{}
	}
	out := make([]engine.ArticleResult, 0, len(resp.Message.Items))
	for _, it := range resp.Message.Items {
		abstract := it.Abstract
		if abstract == "" {
			abstract = engine.NoAbstract
		}
		out = append(out, engine.ArticleResult{
			Title:    it.Title.String(),
			Abstract: abstract,
			URL:      it.URL,
			DOI:      it.DOI,
		})
	}
	return out
}

// buildURL merges params into base, keeping any query already present on base.
func buildURL(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
