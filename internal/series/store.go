package series

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type Store struct {
	dataDir string
	now     func() time.Time
}

func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir, now: time.Now}
}

func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) SeriesDir(id string) string {
	return filepath.Join(s.dataDir, id)
}

func (s *Store) MetadataPath(id string) string {
	return filepath.Join(s.SeriesDir(id), "metadata.json")
}

func (s *Store) OutlinePath(id string) string {
	return filepath.Join(s.SeriesDir(id), "outline.json")
}

func (s *Store) ErrorLogPath(id string) string {
	return filepath.Join(s.SeriesDir(id), "errors.log")
}

func (s *Store) ArticlePath(id, title string, ts time.Time) string {
	return filepath.Join(s.SeriesDir(id), DescriptiveFilename(title, ts))
}

// ResearchPath holds the news research gathered before outlining.
func (s *Store) ResearchPath(id string) string {
	return filepath.Join(s.SeriesDir(id), "research.json")
}

func (s *Store) SaveResearch(id string, report any) error {
	return saveJSON(s.ResearchPath(id), report)
}

// ArticlePathByNumber is the legacy NN.md layout.
func (s *Store) ArticlePathByNumber(id string, number int) string {
	return filepath.Join(s.SeriesDir(id), fmt.Sprintf("%02d.md", number))
}

// Init creates the series directory and its initial metadata.
func (s *Store) Init(topic string, articles, words int, style string) (*Metadata, error) {
	now := s.now()
	meta := &Metadata{
		ID:              GenerateID(now),
		Topic:           topic,
		CreatedAt:       now.UTC(),
		ArticlesCount:   articles,
		WordsPerArticle: words,
		Style:           style,
		Status:          StatusOutlinePending,
		NewsSource:      NewsSourcePending,
	}

	if err := os.MkdirAll(s.SeriesDir(meta.ID), 0755); err != nil {
		return nil, fmt.Errorf("failed to create series directory: %w", err)
	}
	if err := s.SaveMetadata(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (s *Store) LoadMetadata(id string) (*Metadata, error) {
	var meta Metadata
	found, err := loadJSON(s.MetadataPath(id), &meta)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, id)
	}
	return &meta, nil
}

func (s *Store) SaveMetadata(meta *Metadata) error {
	if err := saveJSON(s.MetadataPath(meta.ID), meta); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

// LoadOutline fails with ErrOutlineNotFound when the file is missing or has no articles list.
func (s *Store) LoadOutline(id string) (*Outline, error) {
	var outline Outline
	found, err := loadJSON(s.OutlinePath(id), &outline)
	if err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}
	if !found || outline.Articles == nil {
		return nil, fmt.Errorf("%w: %s", ErrOutlineNotFound, id)
	}
	return &outline, nil
}

func (s *Store) SaveOutline(id string, outline *Outline) error {
	return saveJSON(s.OutlinePath(id), outline)
}

// ArticleInfo looks up one outline entry. Target words default to the series setting.
func (s *Store) ArticleInfo(id string, number int) (*ArticleInfo, error) {
	meta, err := s.LoadMetadata(id)
	if err != nil {
		return nil, err
	}
	outline, err := s.LoadOutline(id)
	if err != nil {
		return nil, err
	}

	for _, a := range outline.Articles {
		if a.Number != number {
			continue
		}
		target := a.TargetWords
		if target == 0 {
			target = meta.WordsPerArticle
		}
		return &ArticleInfo{
			SeriesID:      id,
			ArticleNumber: number,
			Title:         a.Title,
			Subtitle:      a.Subtitle,
			KeyPoints:     a.KeyPoints,
			TargetWords:   target,
			Style:         meta.Style,
		}, nil
	}
	return nil, fmt.Errorf("%w: article %d", ErrArticleNotFound, number)
}

// FindArticleFile returns the first Markdown file in the series directory
// whose name carries the title's leading characters.
func (s *Store) FindArticleFile(id, title string) (string, error) {
	entries, err := os.ReadDir(s.SeriesDir(id))
	if err != nil {
		return "", fmt.Errorf("failed to read series directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if matchesArticle(e.Name(), title) {
			return e.Name(), nil
		}
	}
	return "", ErrFileNotFound
}

// ListAll returns the metadata of every series directory. Directories
// without readable metadata are reported with status unknown.
func (s *Store) ListAll() ([]Metadata, error) {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, err
	}

	var all []Metadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.LoadMetadata(e.Name())
		if err != nil {
			all = append(all, Metadata{ID: e.Name(), Status: StatusUnknown})
			continue
		}
		all = append(all, *meta)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID > all[j].ID
	})
	return all, nil
}

// Status reports outline size and which outline articles already have a file.
func (s *Store) Status(id string) (*Status, error) {
	meta, err := s.LoadMetadata(id)
	if err != nil {
		return nil, err
	}

	st := &Status{Metadata: *meta, GeneratedArticles: []GeneratedArticle{}}

	outline, err := s.LoadOutline(id)
	if errors.Is(err, ErrOutlineNotFound) {
		return st, nil
	}
	if err != nil {
		return nil, err
	}

	st.Outline = len(outline.Articles)
	for _, a := range outline.Articles {
		name, err := s.FindArticleFile(id, a.Title)
		if err != nil {
			continue
		}
		st.GeneratedArticles = append(st.GeneratedArticles, GeneratedArticle{
			Number:   a.Number,
			Title:    a.Title,
			Filename: name,
		})
	}
	st.Generated = len(st.GeneratedArticles)
	return st, nil
}

// AppendLog adds a timestamped line to the series error log.
func (s *Store) AppendLog(id, message string) error {
	if err := os.MkdirAll(s.SeriesDir(id), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.ErrorLogPath(id), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s\n", s.now().UTC().Format(time.RFC3339), strings.TrimRight(message, "\n"))
	_, err = f.WriteString(line)
	return err
}

func loadJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

func saveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
