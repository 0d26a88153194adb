// Package publish uploads generated series articles to a blog platform,
// retrying each article with exponential backoff.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/julienpequegnot/seriesgen/internal/history"
	"github.com/julienpequegnot/seriesgen/internal/retry"
	"github.com/julienpequegnot/seriesgen/internal/series"
)

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrNoArticles          = errors.New("no articles to publish")
)

const (
	reasonFileNotFound = "File not found"
	reasonRetriesSpent = "Publish API failed after retries"
)

// Publisher performs a single publish attempt and returns the article URL.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, title, path string) (string, error)
}

// Recorder stores per-article outcomes. *history.Repository satisfies it.
type Recorder interface {
	RecordPublish(a history.PublishAttempt) (int64, error)
}

type Request struct {
	SeriesID string
	Platform string
	// Article selects a single outline number; zero publishes every article.
	Article int
}

type FailedArticle struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

type Result struct {
	Success        bool                  `json:"success"`
	SeriesID       string                `json:"series_id"`
	PublishedCount int                   `json:"published_count"`
	FailedCount    int                   `json:"failed_count"`
	TotalArticles  int                   `json:"total_articles"`
	URLs           []series.PublishedURL `json:"urls"`
	FailedArticles []FailedArticle       `json:"failed_articles,omitempty"`
}

type Service struct {
	store      *series.Store
	publishers map[string]Publisher
	policy     retry.Policy
	recorder   Recorder
	logger     *slog.Logger
	sleep      func(time.Duration)
	now        func() time.Time
}

func NewService(store *series.Store, policy retry.Policy, recorder Recorder, logger *slog.Logger, publishers ...Publisher) *Service {
	s := &Service{
		store:      store,
		publishers: make(map[string]Publisher, len(publishers)),
		policy:     policy,
		recorder:   recorder,
		logger:     logger,
		sleep:      time.Sleep,
		now:        time.Now,
	}
	for _, p := range publishers {
		s.publishers[p.Name()] = p
	}
	return s
}

// PublishSeries publishes the selected articles in outline order. A failing
// article is logged to the series error log and the batch moves on; the
// metadata is updated with every URL obtained.
func (s *Service) PublishSeries(ctx context.Context, req Request) (*Result, error) {
	pub, ok := s.publishers[req.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, req.Platform)
	}

	meta, err := s.store.LoadMetadata(req.SeriesID)
	if err != nil {
		return nil, err
	}
	outline, err := s.store.LoadOutline(req.SeriesID)
	if err != nil {
		return nil, err
	}

	articles := outline.Articles
	if req.Article != 0 {
		articles = nil
		for _, a := range outline.Articles {
			if a.Number == req.Article {
				articles = append(articles, a)
			}
		}
	}
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}

	runID := uuid.NewString()
	logger := s.logger.With(slog.String("series", req.SeriesID), slog.String("run_id", runID))
	logger.Info("publishing articles",
		slog.Int("count", len(articles)),
		slog.String("platform", req.Platform))

	executor := &retry.Executor{Policy: s.policy, Sleep: s.sleep, Logger: logger}

	result := &Result{
		SeriesID:      req.SeriesID,
		TotalArticles: len(articles),
		URLs:          []series.PublishedURL{},
	}

	for _, a := range articles {
		filename, err := s.store.FindArticleFile(req.SeriesID, a.Title)
		if err != nil {
			logger.Warn("skipping article, file not found",
				slog.Int("article", a.Number),
				slog.String("title", a.Title))
			result.FailedArticles = append(result.FailedArticles, FailedArticle{Number: a.Number, Title: a.Title, Reason: reasonFileNotFound})
			s.record(runID, req, a, history.StatusSkipped, "", reasonFileNotFound)
			continue
		}

		path := filepath.Join(s.store.SeriesDir(req.SeriesID), filename)
		logger.Info("publishing article", slog.Int("article", a.Number), slog.String("title", a.Title))

		url, err := retry.Do(executor, func() (string, error) {
			return pub.Publish(ctx, a.Title, path)
		})
		if err != nil {
			if logErr := s.store.AppendLog(req.SeriesID, fmt.Sprintf("Failed to publish %q: %v", a.Title, err)); logErr != nil {
				logger.Error("failed to write error log", slog.Any("error", logErr))
			}
			logger.Error("publish failed", slog.Int("article", a.Number), slog.Any("error", err))
			result.FailedArticles = append(result.FailedArticles, FailedArticle{Number: a.Number, Title: a.Title, Reason: reasonRetriesSpent})
			s.record(runID, req, a, history.StatusFailed, "", err.Error())
			continue
		}

		logger.Info("published", slog.Int("article", a.Number), slog.String("url", url))
		result.URLs = append(result.URLs, series.PublishedURL{
			Number:   a.Number,
			Title:    a.Title,
			URL:      url,
			Filename: filename,
		})
		s.record(runID, req, a, history.StatusSuccess, url, "")
	}

	meta.MergePublished(result.URLs)
	if len(result.FailedArticles) == 0 {
		meta.Status = series.StatusPublished
	} else {
		meta.Status = series.StatusPartiallyPublished
	}
	publishedAt := s.now().UTC()
	meta.PublishedAt = &publishedAt
	if err := s.store.SaveMetadata(meta); err != nil {
		return nil, err
	}

	result.PublishedCount = len(result.URLs)
	result.FailedCount = len(result.FailedArticles)
	result.Success = result.FailedCount == 0
	return result, nil
}

func (s *Service) record(runID string, req Request, a series.OutlineArticle, status, url, errMsg string) {
	if s.recorder == nil {
		return
	}
	_, err := s.recorder.RecordPublish(history.PublishAttempt{
		RunID:         runID,
		SeriesID:      req.SeriesID,
		ArticleNumber: a.Number,
		Title:         a.Title,
		Platform:      req.Platform,
		Status:        status,
		URL:           url,
		Error:         errMsg,
	})
	if err != nil {
		s.logger.Warn("failed to record publish history", slog.Any("error", err))
	}
}
