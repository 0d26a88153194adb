package series

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
)

var (
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateID returns series-YYYYMMDD-xxxx with four random base36 characters.
func GenerateID(now time.Time) string {
	var suffix [4]byte
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}
	return fmt.Sprintf("series-%s-%s", now.UTC().Format("20060102"), suffix[:])
}

// DescriptiveFilename builds {title}_{YYYYMMDD}_{HHMMSS}.md. The title loses
// filesystem-invalid characters, whitespace runs become underscores and it is
// cut to 50 characters.
func DescriptiveFilename(title string, ts time.Time) string {
	return fmt.Sprintf("%s_%s.md", sanitizeTitle(title), ts.Format("20060102_150405"))
}

func sanitizeTitle(title string) string {
	s := invalidFilenameChars.ReplaceAllString(title, "")
	s = whitespaceRun.ReplaceAllString(s, "_")
	return truncateRunes(s, 50)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// titlePrefix is the part of a title used to match a generated file name.
func titlePrefix(title string) string {
	return truncateRunes(title, 20)
}

// matchesArticle accepts files named from either the raw or the sanitized title.
func matchesArticle(filename, title string) bool {
	if !strings.HasSuffix(filename, ".md") {
		return false
	}
	return strings.Contains(filename, titlePrefix(title)) ||
		strings.Contains(filename, titlePrefix(sanitizeTitle(title)))
}
