package extract

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	ManualTemplateFile = "temp_wechat_input.md"

	manualTitlePlaceholder = "请粘贴文章标题在这里"
	manualNote             = "manually extracted"
)

const manualTemplate = `# %s

**作者:** 请填写作者
**发布时间:** 请填写发布时间
**原文链接:** %s

---

请将文章正文粘贴在这一行下方，保存文件后回到终端按回车。

`

// Manual asks the operator to paste the article into a template file.
type Manual struct {
	dir string
	in  *bufio.Reader
	out io.Writer
}

// NewManual writes its template in dir and waits for a line on in.
func NewManual(dir string, in io.Reader, out io.Writer) *Manual {
	return &Manual{dir: dir, in: bufio.NewReader(in), out: out}
}

func (m *Manual) Name() string { return StrategyManual }

func (m *Manual) TemplatePath() string {
	return filepath.Join(m.dir, ManualTemplateFile)
}

func (m *Manual) Extract(ctx context.Context, url string) (*RawArticle, error) {
	path := m.TemplatePath()
	if err := os.WriteFile(path, []byte(fmt.Sprintf(manualTemplate, manualTitlePlaceholder, url)), 0644); err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	defer os.Remove(path)

	fmt.Fprintf(m.out, "Manual extraction for %s\n", url)
	fmt.Fprintln(m.out, "  1. Open the article in WeChat or a browser")
	fmt.Fprintf(m.out, "  2. Paste the title, author, date and body into %s\n", path)
	fmt.Fprintln(m.out, "  3. Save the file and press Enter here")

	if err := m.waitForEnter(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	raw := ParseManual(string(data))
	if raw.ContentText == "" {
		return nil, ErrEmptyContent
	}
	raw.Strategy = StrategyManual
	raw.Note = manualNote
	return raw, nil
}

func (m *Manual) waitForEnter(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		_, err := m.in.ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// ParseManual reads a filled template. The heading is the title, labelled
// lines give author and date, and everything after the rule is the body.
func ParseManual(content string) *RawArticle {
	raw := &RawArticle{}
	var body []string
	inBody := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if inBody {
			if strings.HasPrefix(trimmed, "请将文章正文粘贴") {
				continue
			}
			body = append(body, line)
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "# "):
			if title := strings.TrimSpace(trimmed[2:]); title != manualTitlePlaceholder {
				raw.Title = title
			}
		case strings.HasPrefix(trimmed, "**作者:**"):
			raw.Author = labelValue(trimmed, "**作者:**", "请填写作者")
		case strings.HasPrefix(trimmed, "**发布时间:**"):
			raw.PublishDate = labelValue(trimmed, "**发布时间:**", "请填写发布时间")
		case trimmed == "---":
			inBody = true
		}
	}

	raw.ContentText = normalizeText(strings.Join(body, "\n"))
	if raw.ContentText != "" {
		var b strings.Builder
		for _, p := range strings.Split(raw.ContentText, "\n") {
			b.WriteString("<p>")
			b.WriteString(html.EscapeString(p))
			b.WriteString("</p>")
		}
		raw.ContentHTML = b.String()
	}
	return raw
}

func labelValue(line, label, placeholder string) string {
	v := strings.TrimSpace(strings.TrimPrefix(line, label))
	if v == placeholder {
		return ""
	}
	return v
}
