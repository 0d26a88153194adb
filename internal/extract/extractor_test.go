package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julienpequegnot/seriesgen/internal/fallback"
	"github.com/julienpequegnot/seriesgen/internal/history"
	"github.com/julienpequegnot/seriesgen/internal/retry"
)

type stubStrategy struct {
	name  string
	errs  []error
	fail  error
	avail error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Available() error { return s.avail }

func (s *stubStrategy) Extract(_ context.Context, url string) (*RawArticle, error) {
	s.calls++
	if s.fail != nil {
		return nil, s.fail
	}
	if n := s.calls - 1; n < len(s.errs) && s.errs[n] != nil {
		return nil, s.errs[n]
	}
	return &RawArticle{Title: s.name + " title", ContentText: "正文内容", Strategy: s.name}, nil
}

type memRecorder struct {
	items []history.Extraction
}

func (m *memRecorder) RecordExtraction(e history.Extraction) (int64, error) {
	m.items = append(m.items, e)
	return int64(len(m.items)), nil
}

type harness struct {
	ext    *Extractor
	rec    *memRecorder
	delays []time.Duration
	logs   string
	dir    string
}

func newHarness(t *testing.T, primary string, strategies ...Strategy) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{rec: &memRecorder{}, dir: dir, logs: filepath.Join(dir, "logs", "errors.log")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.ext = New(Settings{
		DefaultStrategy: primary,
		Fallbacks:       []string{StrategyCookie, StrategyPlaywright, StrategyProxy, StrategyManual},
		Policy:          retry.NewPolicy(2, 1000),
		OutputDir:       filepath.Join(dir, "out"),
		ErrorLogFile:    h.logs,
	}, h.rec, logger, strategies...)
	h.ext.sleep = func(d time.Duration) { h.delays = append(h.delays, d) }
	h.ext.now = func() time.Time { return time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC) }
	return h
}

func TestExtractArticle_PrimarySucceeds(t *testing.T) {
	cookie := &stubStrategy{name: StrategyCookie}
	h := newHarness(t, StrategyCookie, cookie)

	article, err := h.ext.ExtractArticle(context.Background(), "https://mp.weixin.qq.com/s/a", Options{})
	require.NoError(t, err)

	assert.Equal(t, "cookie title", article.Title)
	assert.Equal(t, defaultAuthor, article.Author)
	assert.Equal(t, "https://mp.weixin.qq.com/s/a", article.OriginalURL)
	assert.Equal(t, StrategyCookie, article.Metadata.Strategy)
	assert.Equal(t, 4, article.Metadata.WordCount)
	assert.Equal(t, ExtractorVersion, article.Metadata.ExtractorVersion)
	assert.True(t, article.Metadata.Standardized)
	assert.Equal(t, []string{}, article.Images)
	assert.NoFileExists(t, h.logs)
}

func TestExtractArticle_FallsBackInOrder(t *testing.T) {
	cookie := &stubStrategy{name: StrategyCookie, fail: errors.New("cookie expired")}
	playwright := &stubStrategy{name: StrategyPlaywright, avail: ErrStrategyUnavailable}
	proxy := &stubStrategy{name: StrategyProxy}
	manual := &stubStrategy{name: StrategyManual}
	h := newHarness(t, StrategyCookie, cookie, playwright, proxy, manual)

	article, err := h.ext.ExtractArticle(context.Background(), "https://mp.weixin.qq.com/s/a", Options{})
	require.NoError(t, err)

	assert.Equal(t, StrategyProxy, article.Metadata.Strategy)
	assert.Equal(t, 2, cookie.calls)
	assert.Zero(t, playwright.calls)
	assert.Equal(t, 1, proxy.calls)
	assert.Zero(t, manual.calls)
	assert.Equal(t, []time.Duration{time.Second}, h.delays)

	data, err := os.ReadFile(h.logs)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[ERROR] 2024-03-01T08:30:00Z - strategy cookie failed"))
	assert.Contains(t, lines[1], "strategy playwright failed")
}

func TestExtractArticle_AllFail(t *testing.T) {
	cause := errors.New("cookie expired")
	h := newHarness(t, StrategyCookie,
		&stubStrategy{name: StrategyCookie, fail: cause},
		&stubStrategy{name: StrategyProxy, fail: errors.New("proxy down")},
	)

	_, err := h.ext.ExtractArticle(context.Background(), "https://mp.weixin.qq.com/s/a", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var exhausted *fallback.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	var tried []string
	for _, f := range exhausted.Failures {
		tried = append(tried, f.Strategy)
	}
	if diff := cmp.Diff([]string{StrategyPlaywright, StrategyProxy, StrategyManual}, tried); diff != "" {
		t.Errorf("fallback order mismatch (-want +got):\n%s", diff)
	}
	assert.ErrorIs(t, exhausted.Failures[0].Err, ErrUnsupportedStrategy)

	data, err := os.ReadFile(h.logs)
	require.NoError(t, err)
	assert.Contains(t, string(data), "all strategies failed for https://mp.weixin.qq.com/s/a")
}

func TestExtractArticle_DisableFallback(t *testing.T) {
	proxy := &stubStrategy{name: StrategyProxy}
	h := newHarness(t, StrategyCookie, &stubStrategy{name: StrategyCookie, fail: errors.New("nope")}, proxy)

	_, err := h.ext.ExtractArticle(context.Background(), "u", Options{DisableFallback: true})
	require.Error(t, err)
	assert.Zero(t, proxy.calls)
}

func TestExtractArticle_ExplicitStrategy(t *testing.T) {
	cookie := &stubStrategy{name: StrategyCookie}
	manual := &stubStrategy{name: StrategyManual}
	h := newHarness(t, StrategyCookie, cookie, manual)

	article, err := h.ext.ExtractArticle(context.Background(), "u", Options{Strategy: StrategyManual})
	require.NoError(t, err)
	assert.Equal(t, StrategyManual, article.Metadata.Strategy)
	assert.Zero(t, cookie.calls)
}

func TestExtractArticle_RetriesFlakyStrategy(t *testing.T) {
	cookie := &stubStrategy{name: StrategyCookie, errs: []error{errors.New("timeout")}}
	h := newHarness(t, StrategyCookie, cookie)

	_, err := h.ext.ExtractArticle(context.Background(), "u", Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, cookie.calls)
	assert.Equal(t, []time.Duration{time.Second}, h.delays)
}

func TestExtractArticle_SharedAttemptedSet(t *testing.T) {
	proxy := &stubStrategy{name: StrategyProxy, fail: errors.New("down")}
	manual := &stubStrategy{name: StrategyManual}
	h := newHarness(t, StrategyCookie, proxy, manual)

	attempted := fallback.NewAttempted(StrategyCookie, h.ext.fallbacks)
	attempted.Add(StrategyCookie)
	attempted.Add(StrategyManual)

	_, err := h.ext.ExtractArticle(context.Background(), "u", Options{Strategy: StrategyProxy, Attempted: attempted})
	require.Error(t, err)
	assert.Zero(t, manual.calls)
	assert.Equal(t, []string{StrategyCookie, StrategyManual, StrategyProxy, StrategyPlaywright}, attempted.Names())
}

func TestSaveToFile(t *testing.T) {
	h := newHarness(t, StrategyCookie, &stubStrategy{name: StrategyCookie})
	article, err := h.ext.ExtractArticle(context.Background(), "u", Options{})
	require.NoError(t, err)

	path, err := h.ext.SaveToFile(article, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.dir, "out", "cookie_title_2024-03-01T08-30-00-000Z.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"title\": \"cookie title\"")
}

func TestArticleFilename(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, "Go_并发_入门_2024-03-01T08-30-00-000Z.json", ArticleFilename("Go 并发: 入门", ts))
}

func TestExtractBatch(t *testing.T) {
	cookie := &stubStrategy{name: StrategyCookie}
	h := newHarness(t, StrategyCookie, cookie)
	h.ext.strategies[StrategyCookie] = &urlStrategy{fail: map[string]bool{"https://bad": true}}

	res, err := h.ext.ExtractBatch(context.Background(), []string{"https://good", "https://bad", "https://good2"}, true, filepath.Join(h.dir, "batch"))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.NotEmpty(t, res.Items[0].SavedTo)
	assert.FileExists(t, res.Items[0].SavedTo)
	assert.False(t, res.Items[1].Success)

	require.Len(t, h.rec.items, 3)
	assert.Equal(t, history.StatusFailed, h.rec.items[1].Status)
	assert.Equal(t, res.RunID, h.rec.items[2].RunID)
}

func TestExtractBatch_StopsWhenContextEnds(t *testing.T) {
	h := newHarness(t, StrategyCookie, &stubStrategy{name: StrategyCookie})
	h.ext.interval = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := h.ext.ExtractBatch(ctx, []string{"https://a", "https://b"}, false, "")
	require.Error(t, err)
	assert.Len(t, res.Items, 1)
}

func TestReadURLList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://a\n\n# note\n  http://b  \nftp://c\n"), 0644))

	urls, err := ReadURLList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a", "http://b"}, urls)

	require.NoError(t, os.WriteFile(path, []byte("\n"), 0644))
	_, err = ReadURLList(path)
	assert.Error(t, err)
}

type urlStrategy struct {
	fail map[string]bool
}

func (u *urlStrategy) Name() string { return StrategyCookie }

func (u *urlStrategy) Extract(_ context.Context, url string) (*RawArticle, error) {
	if u.fail[url] {
		return nil, errors.New("404")
	}
	return &RawArticle{Title: strings.TrimPrefix(url, "https://"), ContentText: "x", Strategy: StrategyCookie}, nil
}

func TestManual_Extract(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	in := &fillingReader{path: filepath.Join(dir, ManualTemplateFile), content: "# 并发模式\n\n**作者:** 张三\n**发布时间:** 2024-01-02\n\n---\n\n第一段\n第二段 <b>\n"}
	m := NewManual(dir, in, &out)

	raw, err := m.Extract(context.Background(), "https://mp.weixin.qq.com/s/a")
	require.NoError(t, err)

	assert.Equal(t, "并发模式", raw.Title)
	assert.Equal(t, "张三", raw.Author)
	assert.Equal(t, "2024-01-02", raw.PublishDate)
	assert.Equal(t, "第一段\n第二段 <b>", raw.ContentText)
	assert.Equal(t, "<p>第一段</p><p>第二段 &lt;b&gt;</p>", raw.ContentHTML)
	assert.Equal(t, StrategyManual, raw.Strategy)
	assert.Contains(t, out.String(), ManualTemplateFile)
	assert.NoFileExists(t, m.TemplatePath())
}

func TestManual_UnfilledTemplate(t *testing.T) {
	m := NewManual(t.TempDir(), strings.NewReader("\n"), io.Discard)
	_, err := m.Extract(context.Background(), "https://mp.weixin.qq.com/s/a")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestParseManual_Placeholders(t *testing.T) {
	raw := ParseManual("# 请粘贴文章标题在这里\n**作者:** 请填写作者\n---\n正文")
	assert.Empty(t, raw.Title)
	assert.Empty(t, raw.Author)
	assert.Equal(t, "正文", raw.ContentText)
}

// fillingReader overwrites the template with content on the first read, as
// an operator would before pressing Enter.
type fillingReader struct {
	path    string
	content string
	done    bool
}

func (f *fillingReader) Read(p []byte) (int, error) {
	if f.done {
		return 0, io.EOF
	}
	f.done = true
	if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
		return 0, err
	}
	return copy(p, "\n"), nil
}
