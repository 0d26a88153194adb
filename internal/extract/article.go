package extract

import (
	"time"
)

const (
	ExtractorVersion = "1.0.0"

	defaultTitle  = "无标题"
	defaultAuthor = "未知作者"
)

// RawArticle is what a strategy returns before standardization.
type RawArticle struct {
	Title       string
	Author      string
	PublishDate string
	ContentHTML string
	ContentText string
	Images      []string
	Videos      []string
	Strategy    string
	Note        string
}

// Article is the standardized output shared by every strategy.
type Article struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	PublishDate string          `json:"publish_date"`
	OriginalURL string          `json:"original_url"`
	ContentHTML string          `json:"content_html"`
	ContentText string          `json:"content_text"`
	Images      []string        `json:"images"`
	Videos      []string        `json:"videos"`
	Metadata    ArticleMetadata `json:"metadata"`
}

type ArticleMetadata struct {
	Strategy         string    `json:"strategy"`
	Note             string    `json:"note,omitempty"`
	ExtractedAt      time.Time `json:"extracted_at"`
	WordCount        int       `json:"word_count"`
	ExtractorVersion string    `json:"extractor_version"`
	Standardized     bool      `json:"standardized"`
}

// Standardize fills defaults and computes metadata. Word count is the rune
// count of the plain text.
func Standardize(raw *RawArticle, url string, now time.Time) *Article {
	a := &Article{
		Title:       orDefault(raw.Title, defaultTitle),
		Author:      orDefault(raw.Author, defaultAuthor),
		PublishDate: orDefault(raw.PublishDate, now.UTC().Format(time.RFC3339)),
		OriginalURL: url,
		ContentHTML: raw.ContentHTML,
		ContentText: raw.ContentText,
		Images:      raw.Images,
		Videos:      raw.Videos,
		Metadata: ArticleMetadata{
			Strategy:         raw.Strategy,
			Note:             raw.Note,
			ExtractedAt:      now.UTC(),
			WordCount:        len([]rune(raw.ContentText)),
			ExtractorVersion: ExtractorVersion,
			Standardized:     true,
		},
	}
	if a.Images == nil {
		a.Images = []string{}
	}
	if a.Videos == nil {
		a.Videos = []string{}
	}
	return a
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
