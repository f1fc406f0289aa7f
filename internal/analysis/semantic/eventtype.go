package semantic

import (
	"context"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"

	"github.com/benderprog/analiz-svodok/internal/embedding"
	"github.com/benderprog/analiz-svodok/internal/reference"
)

// TypeMatch is one event-type classification verdict.
type TypeMatch struct {
	EventType  *reference.EventType
	Similarity float64
}

// TypeClassifier matches paragraph text against event-type pattern phrases by
// embedding similarity. Like the subdivision Context it is built once and
// read-only afterwards.
type TypeClassifier struct {
	types      []reference.EventType
	owners     []int
	embeddings [][]float32
	encoder    Encoder
	threshold  float64
}

// NewTypeClassifier embeds every pattern phrase of the event-type catalog.
func NewTypeClassifier(ctx context.Context, types []reference.EventType, enc Encoder, threshold float64) (*TypeClassifier, error) {
	tc := &TypeClassifier{types: types, encoder: enc, threshold: threshold}
	var texts []string
	for i, t := range types {
		for _, pattern := range t.Patterns {
			if pattern == "" {
				continue
			}
			texts = append(texts, pattern)
			tc.owners = append(tc.owners, i)
		}
	}
	if len(texts) == 0 {
		return tc, nil
	}
	embeddings, err := enc.Encode(ctx, texts, true)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "embed event type patterns")
	}
	tc.embeddings = embeddings
	return tc, nil
}

// Classify returns the best-scoring event type, or a nil EventType when the
// score stays under the threshold or no patterns are configured.
func (tc *TypeClassifier) Classify(ctx context.Context, text string) (TypeMatch, error) {
	if len(tc.embeddings) == 0 || text == "" {
		return TypeMatch{}, nil
	}
	vectors, err := tc.encoder.Encode(ctx, []string{text}, true)
	if err != nil {
		return TypeMatch{}, derrors.Wrap(err, derrors.CodeUnavailable, "embed paragraph for event type")
	}
	best := TypeMatch{Similarity: -1}
	for row := range tc.embeddings {
		score := embedding.CosSim(vectors[0], tc.embeddings[row])
		if score > best.Similarity {
			best.Similarity = score
			best.EventType = &tc.types[tc.owners[row]]
		}
	}
	if best.Similarity < tc.threshold {
		return TypeMatch{Similarity: best.Similarity}, nil
	}
	return best, nil
}
