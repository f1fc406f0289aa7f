// Package semantic resolves free-text subdivision mentions against the
// reference directory: exact alias lookup first, nearest-neighbor embedding
// search as the fallback. All reference data and embeddings live in an
// immutable Context built once at startup and shared read-only afterwards.
package semantic

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"

	"github.com/benderprog/analiz-svodok/internal/reference"
)

// Encoder is the external embedding capability.
type Encoder interface {
	Encode(ctx context.Context, texts []string, normalize bool) ([][]float32, error)
}

// Context holds the reference entities, their precomputed embeddings, the
// normalized exact-match index and the numeric-designator index. Immutable
// after Build; safe for concurrent readers.
type Context struct {
	entities   []reference.Subdivision
	texts      []string
	owners     []int // embedding row -> entity index
	embeddings [][]float32
	exact      map[string]int // normalized key -> entity index
	numbers    [][]string     // per entity: numeric tokens across its names
}

// BuildContext embeds every short name, full name and alias of the directory
// and builds the lookup indexes. An unreachable encoder is a hard failure so
// the caller can abort instead of silently matching nothing.
func BuildContext(ctx context.Context, entities []reference.Subdivision, enc Encoder) (*Context, error) {
	rc := &Context{
		entities: entities,
		exact:    make(map[string]int),
		numbers:  make([][]string, len(entities)),
	}
	for i, entity := range entities {
		numbers := map[string]struct{}{}
		for _, text := range entityTexts(entity) {
			key := NormalizeKey(text)
			if key == "" {
				continue
			}
			if _, taken := rc.exact[key]; !taken {
				rc.exact[key] = i
			}
			rc.texts = append(rc.texts, text)
			rc.owners = append(rc.owners, i)
			for _, n := range numericTokens(text) {
				numbers[n] = struct{}{}
			}
		}
		for n := range numbers {
			rc.numbers[i] = append(rc.numbers[i], n)
		}
	}

	if len(rc.texts) == 0 {
		return rc, nil
	}
	embeddings, err := enc.Encode(ctx, rc.texts, true)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "embed reference directory")
	}
	if len(embeddings) != len(rc.texts) {
		return nil, derrors.New(derrors.CodeInternal, "embedding count mismatch for reference directory")
	}
	rc.embeddings = embeddings
	return rc, nil
}

// Empty reports whether the directory has no usable entries.
func (c *Context) Empty() bool {
	return len(c.entities) == 0 || len(c.embeddings) == 0
}

// entityTexts lists the strings an entity can be recognized by. Normalization
// collapses whitespace, hyphens and № symbols to nothing, so the written
// variants "пз-3", "пз 3", "пз№3" all land on the one generated key "пз3".
func entityTexts(entity reference.Subdivision) []string {
	texts := make([]string, 0, 2+len(entity.Aliases))
	if entity.ShortName != "" {
		texts = append(texts, entity.ShortName)
	}
	if entity.FullName != "" && entity.FullName != entity.ShortName {
		texts = append(texts, entity.FullName)
	}
	for _, alias := range entity.Aliases {
		if strings.TrimSpace(alias) != "" {
			texts = append(texts, alias)
		}
	}
	return texts
}

// NormalizeKey reduces a mention to its exact-index form: casefold, ё→е, and
// every rune that is not a letter or digit dropped outright.
func NormalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == 'ё' {
			b.WriteRune('е')
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var numberRe = regexp.MustCompile(`\d+`)

func numericTokens(s string) []string {
	return numberRe.FindAllString(s, -1)
}
