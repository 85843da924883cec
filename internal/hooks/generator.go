// Package hooks turns leading transcript phrases into short promotional
// opening lines.
package hooks

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/astowny/monteur-ia/internal/transcript"
)

type Style string

const (
	StyleBusiness Style = "business"
	StylePodcast  Style = "podcast"
	StyleStory    Style = "story"
	StyleGeneric  Style = "generic"
)

var stylePrefixes = map[Style][]string{
	StyleBusiness: {"Les 3 erreurs", "Ce que personne ne te dit", "Le système qui"},
	StylePodcast:  {"Moment clé du podcast", "L'avis qui va diviser", "La phrase à retenir"},
	StyleStory:    {"J'ai fait cette erreur", "Le déclic qui m'a tout appris", "Ce qui a tout changé"},
	StyleGeneric:  {"Tu fais sûrement ça aussi", "Le point clé en 20 secondes", "À ne pas manquer"},
}

var ErrUnsupportedStyle = errors.New("unsupported hook style")

// ParseStyle accepts only the known styles.
func ParseStyle(s string) (Style, error) {
	style := Style(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := stylePrefixes[style]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnsupportedStyle, s)
	}
	return style, nil
}

// Prefixes returns the templates used for style, falling back to generic.
func Prefixes(style Style) []string {
	if p, ok := stylePrefixes[style]; ok {
		return p
	}
	return stylePrefixes[StyleGeneric]
}

// Generate builds at most limit hooks from the first segments, in input
// order. Segments are not re-ranked; callers pass them pre-sorted. An
// unknown style falls back to generic; only callers that skip ParseStyle
// can hit that path.
func Generate(segments []transcript.Segment, style Style, limit int) []string {
	if limit < 1 || len(segments) == 0 {
		return []string{}
	}
	n := min(limit, len(segments))
	prefixes := Prefixes(style)

	ret := make([]string, 0, n)
	for i, seg := range segments[:n] {
		ret = append(ret, prefixes[i%len(prefixes)]+" : "+leadingClause(seg.Text))
	}
	return ret
}

// leadingClause keeps the text before the first comma without surrounding
// blanks or periods.
func leadingClause(text string) string {
	base, _, _ := strings.Cut(text, ",")
	return strings.TrimFunc(base, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})
}
