// Package series manages the on-disk state of a content series: metadata,
// outline, generated Markdown files and the per-series error log.
package series

import (
	"errors"
	"time"
)

const (
	StatusOutlinePending     = "outline_pending"
	StatusPublished          = "published"
	StatusPartiallyPublished = "partially_published"
	StatusUnknown            = "unknown"
	NewsSourcePending        = "pending"
)

var (
	ErrSeriesNotFound  = errors.New("series not found")
	ErrOutlineNotFound = errors.New("outline not found")
	ErrArticleNotFound = errors.New("article not found in outline")
	ErrFileNotFound    = errors.New("article file not found")
)

type Metadata struct {
	ID              string         `json:"id"`
	Topic           string         `json:"topic"`
	CreatedAt       time.Time      `json:"created_at"`
	ArticlesCount   int            `json:"articles_count"`
	WordsPerArticle int            `json:"words_per_article"`
	Style           string         `json:"style"`
	Status          string         `json:"status"`
	NewsSource      string         `json:"news_source"`
	PublishedURLs   []PublishedURL `json:"published_urls,omitempty"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
}

type PublishedURL struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

type Outline struct {
	Title    string           `json:"title,omitempty"`
	Articles []OutlineArticle `json:"articles"`
}

type OutlineArticle struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	KeyPoints   []string `json:"key_points,omitempty"`
	TargetWords int      `json:"target_words,omitempty"`
}

// ArticleInfo is what the generation agent needs to write one article.
type ArticleInfo struct {
	SeriesID      string   `json:"series_id"`
	ArticleNumber int      `json:"article_number"`
	Title         string   `json:"article_title"`
	Subtitle      string   `json:"article_subtitle"`
	KeyPoints     []string `json:"key_points"`
	TargetWords   int      `json:"target_words"`
	Style         string   `json:"style"`
}

type GeneratedArticle struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
}

type Status struct {
	Metadata
	Outline           int                `json:"outline"`
	Generated         int                `json:"generated"`
	GeneratedArticles []GeneratedArticle `json:"generatedArticles"`
}

// Validation is the result of checking an article's length against its target.
type Validation struct {
	Valid       bool    `json:"valid"`
	WordCount   int     `json:"wordCount"`
	TargetWords int     `json:"targetWords"`
	MinWords    float64 `json:"minWords"`
	MaxWords    float64 `json:"maxWords"`
}

// ValidateArticle counts runes, which approximates word count for Chinese text.
func ValidateArticle(content string, targetWords int, tolerance float64) Validation {
	count := len([]rune(content))
	min := float64(targetWords) * (1 - tolerance)
	max := float64(targetWords) * (1 + tolerance)
	return Validation{
		Valid:       float64(count) >= min && float64(count) <= max,
		WordCount:   count,
		TargetWords: targetWords,
		MinWords:    min,
		MaxWords:    max,
	}
}

// MergePublished replaces entries with the same article number and appends the rest.
func (m *Metadata) MergePublished(urls []PublishedURL) {
	for _, u := range urls {
		replaced := false
		for i := range m.PublishedURLs {
			if m.PublishedURLs[i].Number == u.Number {
				m.PublishedURLs[i] = u
				replaced = true
				break
			}
		}
		if !replaced {
			m.PublishedURLs = append(m.PublishedURLs, u)
		}
	}
}
