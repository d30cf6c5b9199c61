// Package rerank re-scores a retrieval shortlist with a joint pairwise
// relevance model. Scoring the (query, document) pair together captures
// interaction effects a plain similarity metric misses.
package rerank

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/hrtools/hr-matcher/internal/domain"
	"github.com/hrtools/hr-matcher/internal/vectorstore"
)

// Blend weights between the original vector score and the pairwise model score.
const (
	weightOriginal = 0.4
	weightRerank   = 0.6
)

// PairScorer is the cross-encoder collaborator: it returns a raw relevance
// logit for a pair of texts.
type PairScorer interface {
	Score(ctx context.Context, textA, textB string) (float64, error)
}

// Reranker blends cross-encoder scores into an already vector-ranked list.
type Reranker struct {
	scorer PairScorer
	logger *zap.Logger
}

// New creates a reranker using the given pair scorer.
func New(scorer PairScorer, logger *zap.Logger) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reranker{scorer: scorer, logger: logger}
}

// Rerank scores the first topK items of the already ranked list against the
// query, squashes the raw logits to [0, 1], blends them with the original
// scores and re-sorts the sublist. Reranking the full set would be too
// costly. Any model failure returns the sublist unmodified: reranking is an
// enhancement, never a hard dependency.
func (r *Reranker) Rerank(ctx context.Context, query string, results []vectorstore.SearchResult, topK int) []vectorstore.SearchResult {
	if len(results) == 0 {
		return results
	}

	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}
	sublist := make([]vectorstore.SearchResult, topK)
	copy(sublist, results[:topK])

	for i := range sublist {
		logit, err := r.scorer.Score(ctx, query, sublist[i].Document)
		if err != nil {
			r.logger.Warn("reranking failed, keeping original order", zap.Error(err))
			return sublist
		}

		rerankScore := sigmoid(logit)
		sublist[i].RerankScore = rerankScore
		sublist[i].Score = domain.Clamp01(weightOriginal*sublist[i].Score + weightRerank*rerankScore)
	}

	sort.SliceStable(sublist, func(i, j int) bool {
		return sublist[i].Score > sublist[j].Score
	})

	r.logger.Info("reranked candidates", zap.Int("count", len(sublist)))

	return sublist
}

// sigmoid squashes a raw model logit into [0, 1].
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
