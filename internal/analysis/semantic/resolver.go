package semantic

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"

	"github.com/benderprog/analiz-svodok/internal/embedding"
	"github.com/benderprog/analiz-svodok/internal/reference"
)

// Match is the resolver verdict. Similarity is 1.0 for an exact alias hit,
// a cosine score in [0,1] for an embedding hit, 0.0 with a nil subdivision
// when the directory is empty, and -1 when the input produced no candidates.
type Match struct {
	Subdivision *reference.Subdivision
	Similarity  float64
}

// Resolver resolves subdivision mentions against an immutable Context.
type Resolver struct {
	refctx  *Context
	encoder Encoder
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver constructs a Resolver over a prebuilt Context.
func NewResolver(refctx *Context, encoder Encoder, opts ...Option) (*Resolver, error) {
	if refctx == nil {
		return nil, derrors.New(derrors.CodeInternal, "resolver context is required")
	}
	if encoder == nil {
		return nil, derrors.New(derrors.CodeInternal, "encoder is required")
	}
	r := &Resolver{refctx: refctx, encoder: encoder, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Match resolves one mention: exact normalized lookup first, then embedding
// search over candidate substrings, optionally restricted to entities whose
// names carry all numeric designators of the input.
func (r *Resolver) Match(ctx context.Context, text string) (Match, error) {
	if r.refctx.Empty() {
		return Match{Similarity: 0.0}, nil
	}

	if key := NormalizeKey(text); key != "" {
		if idx, ok := r.refctx.exact[key]; ok {
			return Match{Subdivision: &r.refctx.entities[idx], Similarity: 1.0}, nil
		}
	}

	candidates := candidateStrings(text)
	if len(candidates) == 0 {
		return Match{Similarity: -1}, nil
	}

	vectors, err := r.encoder.Encode(ctx, candidates, true)
	if err != nil {
		return Match{}, derrors.Wrap(err, derrors.CodeUnavailable, "embed subdivision mention")
	}

	rows := r.rowsForNumbers(numericTokens(text))
	best := Match{Similarity: -1}
	for _, vec := range vectors {
		for _, row := range rows {
			score := embedding.CosSim(vec, r.refctx.embeddings[row])
			if score > best.Similarity {
				best.Similarity = score
				best.Subdivision = &r.refctx.entities[r.refctx.owners[row]]
			}
		}
	}
	if best.Subdivision != nil {
		r.logger.DebugContext(ctx, "subdivision resolved by embedding",
			"mention", text,
			"subdivision", best.Subdivision.FullName,
			"similarity", best.Similarity,
		)
	}
	return best, nil
}

// rowsForNumbers restricts the search to entities containing every numeric
// token of the input, unless that leaves nothing — adjacent unit numbers with
// near-identical names are the main confusion source this prevents.
func (r *Resolver) rowsForNumbers(numbers []string) []int {
	all := make([]int, len(r.refctx.owners))
	for i := range all {
		all[i] = i
	}
	if len(numbers) == 0 {
		return all
	}
	var restricted []int
	for row, owner := range r.refctx.owners {
		if containsAll(r.refctx.numbers[owner], numbers) {
			restricted = append(restricted, row)
		}
	}
	if len(restricted) == 0 {
		return all
	}
	return restricted
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// candidateStrings generates the substrings tried against the directory: the
// whole mention, a letter/digit-split variant for glued codes like "ПЗ1", and
// progressively longer leading-token windows.
func candidateStrings(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(text)
	add(splitLetterDigit(text))

	tokens := strings.Fields(text)
	for _, n := range []int{1, 2, 3, 4, 8} {
		if n >= len(tokens) {
			break
		}
		add(strings.Join(tokens[:n], " "))
	}
	return out
}

// splitLetterDigit inserts a space at every letter↔digit boundary, so "ПЗ1"
// becomes "ПЗ 1".
func splitLetterDigit(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 {
			boundary := (unicode.IsLetter(prev) && unicode.IsDigit(r)) ||
				(unicode.IsDigit(prev) && unicode.IsLetter(r))
			if boundary {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
