// Package extract pulls WeChat articles through a chain of extraction strategies.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/julienpequegnot/seriesgen/internal/config"
	"github.com/julienpequegnot/seriesgen/internal/fallback"
	"github.com/julienpequegnot/seriesgen/internal/history"
	"github.com/julienpequegnot/seriesgen/internal/logging"
	"github.com/julienpequegnot/seriesgen/internal/retry"
)

var unsafeFilename = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// Recorder stores extraction outcomes.
type Recorder interface {
	RecordExtraction(e history.Extraction) (int64, error)
}

// Options select the strategy for one call. With DisableFallback only the
// named strategy runs. Attempted carries the set of an enclosing chain.
type Options struct {
	Strategy        string
	DisableFallback bool
	Attempted       *fallback.Attempted
}

type Extractor struct {
	strategies      map[string]Strategy
	defaultStrategy string
	fallbacks       []string
	policy          retry.Policy
	outputDir       string
	errorLog        string
	interval        time.Duration
	recorder        Recorder
	logger          *slog.Logger
	sleep           func(time.Duration)
	now             func() time.Time
}

// Settings holds the parts of the extractor configuration that are not strategies.
type Settings struct {
	DefaultStrategy string
	Fallbacks       []string
	Policy          retry.Policy
	OutputDir       string
	ErrorLogFile    string
	Interval        time.Duration
}

func New(s Settings, recorder Recorder, logger *slog.Logger, strategies ...Strategy) *Extractor {
	e := &Extractor{
		strategies:      make(map[string]Strategy, len(strategies)),
		defaultStrategy: s.DefaultStrategy,
		fallbacks:       s.Fallbacks,
		policy:          s.Policy,
		outputDir:       s.OutputDir,
		errorLog:        s.ErrorLogFile,
		interval:        s.Interval,
		recorder:        recorder,
		logger:          logger,
		sleep:           time.Sleep,
		now:             time.Now,
	}
	if e.defaultStrategy == "" {
		e.defaultStrategy = StrategyCookie
	}
	for _, st := range strategies {
		e.strategies[st.Name()] = st
	}
	return e
}

// NewFromConfig builds every strategy from cfg. The manual strategy writes its
// template in the working directory and reads confirmation from in.
func NewFromConfig(cfg config.ExtractorConfig, in io.Reader, out io.Writer, recorder Recorder, logger *slog.Logger) *Extractor {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return New(Settings{
		DefaultStrategy: cfg.Strategy,
		Fallbacks:       cfg.FallbackStrategies,
		Policy:          retry.NewPolicy(cfg.MaxAttempts, cfg.BaseDelayMS),
		OutputDir:       cfg.OutputDir,
		ErrorLogFile:    cfg.ErrorLogFile,
		Interval:        time.Duration(cfg.RateLimitMS) * time.Millisecond,
	}, recorder, logger,
		NewCookie(cfg.Cookie, cfg.Token, cfg.UserAgent, timeout),
		Playwright{},
		NewProxy(cfg.ProxyURL, cfg.UserAgent, timeout),
		NewManual(".", in, out),
	)
}

// ExtractArticle runs the selected strategy and, unless disabled, the
// configured fallbacks after it fails. Nested calls share one attempted set
// so no strategy runs twice.
func (e *Extractor) ExtractArticle(ctx context.Context, url string, opts Options) (*Article, error) {
	name := opts.Strategy
	if name == "" {
		name = e.defaultStrategy
	}
	logger := e.logger.With(slog.String("url", url))
	ctx = logging.WithLogger(ctx, logger)

	logger.Info("extracting article", slog.String("strategy", name))
	raw, err := e.run(ctx, name, url)
	if err == nil {
		article := Standardize(raw, url, e.now())
		logger.Info("article extracted",
			slog.String("strategy", name),
			slog.String("title", article.Title),
			slog.Int("word_count", article.Metadata.WordCount))
		return article, nil
	}

	e.logError(fmt.Sprintf("strategy %s failed for %s: %v", name, url, err))
	if opts.DisableFallback {
		return nil, err
	}

	article, err := fallback.Run(ctx, fallback.Request{
		Primary:    name,
		Candidates: e.fallbacks,
		Cause:      err,
		Attempted:  opts.Attempted,
	}, func(strategy string, attempted *fallback.Attempted) (*Article, error) {
		return e.ExtractArticle(ctx, url, Options{Strategy: strategy, DisableFallback: true, Attempted: attempted})
	})
	if err != nil {
		e.logError(fmt.Sprintf("all strategies failed for %s: %v", url, err))
		return nil, err
	}
	return article, nil
}

// run invokes one strategy under the retry policy. Strategies that report
// themselves unavailable fail without spending attempts.
func (e *Extractor) run(ctx context.Context, name, url string) (*RawArticle, error) {
	st, ok := e.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStrategy, name)
	}
	if c, ok := st.(checker); ok {
		if err := c.Available(); err != nil {
			return nil, err
		}
	}
	if name == StrategyManual {
		return st.Extract(ctx, url)
	}

	executor := &retry.Executor{Policy: e.policy, Sleep: e.sleep, Logger: logging.FromContext(ctx)}
	return retry.Do(executor, func() (*RawArticle, error) {
		return st.Extract(ctx, url)
	})
}

// SaveToFile writes article as indented JSON under dir, or the configured
// output directory when dir is empty, and returns the path.
func (e *Extractor) SaveToFile(article *Article, dir string) (string, error) {
	if dir == "" {
		dir = e.outputDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, ArticleFilename(article.Title, e.now()))
	data, err := json.MarshalIndent(article, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save article: %w", err)
	}
	e.logger.Info("article saved", slog.String("path", path))
	return path, nil
}

// ArticleFilename derives a JSON file name from the title and a timestamp.
func ArticleFilename(title string, ts time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(ts.UTC().Format("2006-01-02T15:04:05.000Z"))
	stem := unsafeFilename.ReplaceAllString(title+"_"+stamp, "_")
	return stem + ".json"
}

// BatchItem is the outcome for one URL of a batch.
type BatchItem struct {
	URL      string   `json:"url"`
	Success  bool     `json:"success"`
	Title    string   `json:"title,omitempty"`
	Strategy string   `json:"strategy,omitempty"`
	SavedTo  string   `json:"saved_to,omitempty"`
	Error    string   `json:"error,omitempty"`
	Article  *Article `json:"-"`
}

type BatchResult struct {
	RunID     string      `json:"run_id"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}

// ExtractBatch extracts urls one after another, starting at most one per
// configured interval. A failing URL is recorded and the batch continues.
// When save is set each article is written under outputDir.
func (e *Extractor) ExtractBatch(ctx context.Context, urls []string, save bool, outputDir string) (*BatchResult, error) {
	limit := rate.Inf
	if e.interval > 0 {
		limit = rate.Every(e.interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	result := &BatchResult{RunID: uuid.NewString(), Total: len(urls), Items: []BatchItem{}}
	logger := e.logger.With(slog.String("run_id", result.RunID))
	logger.Info("batch extraction started", slog.Int("urls", len(urls)))

	for i, url := range urls {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}
		logger.Info("batch progress", slog.Int("index", i+1), slog.Int("total", len(urls)))

		item := BatchItem{URL: url}
		article, err := e.ExtractArticle(ctx, url, Options{})
		if err == nil && save {
			item.SavedTo, err = e.SaveToFile(article, outputDir)
		}
		if err != nil {
			item.Error = err.Error()
			result.Failed++
		} else {
			item.Success = true
			item.Title = article.Title
			item.Strategy = article.Metadata.Strategy
			item.Article = article
			result.Succeeded++
		}
		e.record(result.RunID, item)
		result.Items = append(result.Items, item)
	}

	logger.Info("batch extraction finished",
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed))
	return result, nil
}

// Record stores a single extraction outcome outside of a batch.
func (e *Extractor) Record(article *Article, url, savedTo string, err error) {
	item := BatchItem{URL: url, SavedTo: savedTo}
	if err != nil {
		item.Error = err.Error()
	} else {
		item.Success = true
		item.Title = article.Title
		item.Strategy = article.Metadata.Strategy
	}
	e.record(uuid.NewString(), item)
}

func (e *Extractor) record(runID string, item BatchItem) {
	if e.recorder == nil {
		return
	}
	status := history.StatusSuccess
	if !item.Success {
		status = history.StatusFailed
	}
	_, err := e.recorder.RecordExtraction(history.Extraction{
		RunID:      runID,
		URL:        item.URL,
		Strategy:   item.Strategy,
		Status:     status,
		Title:      item.Title,
		OutputPath: item.SavedTo,
		Error:      item.Error,
	})
	if err != nil {
		e.logger.Warn("failed to record extraction history", slog.Any("error", err))
	}
}

// logError appends "[ERROR] <timestamp> - msg" to the error log file.
func (e *Extractor) logError(msg string) {
	if e.errorLog == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(e.errorLog), 0755); err != nil {
		e.logger.Warn("failed to create error log directory", slog.Any("error", err))
		return
	}
	f, err := os.OpenFile(e.errorLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		e.logger.Warn("failed to open error log", slog.Any("error", err))
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "[ERROR] %s - %s\n", e.now().UTC().Format(time.RFC3339), msg)
}

// ReadURLList reads one URL per line, skipping blanks and lines that are not
// http(s) links.
func ReadURLList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			urls = append(urls, line)
		}
	}
	if len(urls) == 0 {
		return nil, errors.New("no URLs found in " + path)
	}
	return urls, nil
}
