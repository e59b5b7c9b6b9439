// Package htmlsanitize cleans user-authored text before it leaves the
// service.
//
// Template item text may carry light formatting and goes through Sanitize.
// Essay answers are plain text and go through StripTags, which removes all
// markup and returns unescaped text suitable for JSON.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize keeps safe formatting markup and drops scripts, event handlers
// and dangerous URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugc.Sanitize(s)
}

// maxStripPasses bounds entity-decoding rounds in StripTags.
const maxStripPasses = 8

// StripTags removes every tag (and the contents of script and style
// elements) and returns the remaining text unescaped. Entity-encoded markup
// is decoded and stripped again until the text is stable, so the result
// never contains a tag in any encoding. Input still changing after
// maxStripPasses rounds is returned escaped.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	cur := s
	for i := 0; i < maxStripPasses; i++ {
		cleaned := strict.Sanitize(cur)
		plain := html.UnescapeString(cleaned)
		if plain == cur {
			return plain
		}
		cur = plain
	}
	return strict.Sanitize(cur)
}

// IsPlainText reports whether s contains no tag-like sequences.
func IsPlainText(s string) bool {
	i := strings.IndexByte(s, '<')
	return i < 0 || !strings.ContainsRune(s[i:], '>')
}
