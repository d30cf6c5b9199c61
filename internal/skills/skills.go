// Package skills compares skill lists by semantic similarity of their
// embeddings, with an exact-intersection fallback when the embedding service
// is unavailable.
package skills

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hrtools/hr-matcher/internal/embedding"
)

// DefaultThreshold is the cosine similarity above which a required skill
// counts as matched.
const DefaultThreshold = 0.7

const defaultCacheLimit = 4096

// Match describes one (required, offered) skill pair that met the threshold.
type Match struct {
	Required   string  `json:"required"`
	Matched    string  `json:"matched"`
	Similarity float64 `json:"similarity"`
}

// Report is the outcome of comparing a required skill list against an
// offered one.
type Report struct {
	MatchScore float64  `json:"match_score"`
	Matched    []string `json:"matched_skills"`
	Unmatched  []string `json:"unmatched_skills"`
	Semantic   []Match  `json:"semantic_matches"`
}

// Engine embeds skill strings and scores pairwise similarity. Embeddings are
// cached by normalized skill string; the cache is guarded for concurrent use
// and bounded to avoid unbounded growth in long-running processes.
type Engine struct {
	embedder   embedding.Embedder
	logger     *zap.Logger
	cacheLimit int

	mu    sync.Mutex
	cache map[string][]float32
}

// NewEngine creates a skill similarity engine using the given embedder.
func NewEngine(embedder embedding.Embedder, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		embedder:   embedder,
		logger:     logger,
		cacheLimit: defaultCacheLimit,
		cache:      make(map[string][]float32),
	}
}

// Compare embeds both lists and matches every required skill against the
// offered skill with the highest cosine similarity. A required skill counts
// as matched when that maximum is at least threshold. The returned error
// signals embedding failure; callers fall back to ExactMatch.
func (e *Engine) Compare(ctx context.Context, required, offered []string, threshold float64) (*Report, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if len(required) == 0 {
		return &Report{MatchScore: 1.0, Matched: []string{}, Unmatched: []string{}, Semantic: []Match{}}, nil
	}
	if len(offered) == 0 {
		return &Report{MatchScore: 0.0, Matched: []string{}, Unmatched: append([]string{}, required...), Semantic: []Match{}}, nil
	}

	requiredVectors, err := e.vectors(ctx, required)
	if err != nil {
		return nil, err
	}
	offeredVectors, err := e.vectors(ctx, offered)
	if err != nil {
		return nil, err
	}

	report := &Report{Matched: []string{}, Unmatched: []string{}, Semantic: []Match{}}

	for i, skill := range required {
		best := -1.0
		bestIdx := 0
		for j := range offered {
			sim := cosine(requiredVectors[i], offeredVectors[j])
			if sim > best {
				best = sim
				bestIdx = j
			}
		}

		if best >= threshold {
			report.Matched = append(report.Matched, skill)
			report.Semantic = append(report.Semantic, Match{
				Required:   skill,
				Matched:    offered[bestIdx],
				Similarity: best,
			})
		} else {
			report.Unmatched = append(report.Unmatched, skill)
		}
	}

	report.MatchScore = float64(len(report.Matched)) / float64(len(required))

	e.logger.Debug("semantic skill matching",
		zap.Int("matched", len(report.Matched)),
		zap.Int("required", len(required)),
		zap.Float64("score", report.MatchScore),
	)

	return report, nil
}

// ExactMatch is the degraded path: case-insensitive set intersection of the
// two skill lists. It never fails and is used when embedding is unavailable.
func ExactMatch(required, offered []string) *Report {
	if len(required) == 0 {
		return &Report{MatchScore: 1.0, Matched: []string{}, Unmatched: []string{}, Semantic: []Match{}}
	}

	offeredSet := make(map[string]struct{}, len(offered))
	for _, skill := range offered {
		offeredSet[normalize(skill)] = struct{}{}
	}

	report := &Report{Matched: []string{}, Unmatched: []string{}, Semantic: []Match{}}
	seen := make(map[string]struct{}, len(required))
	total := 0
	for _, skill := range required {
		key := normalize(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		total++

		if _, ok := offeredSet[key]; ok {
			report.Matched = append(report.Matched, skill)
		} else {
			report.Unmatched = append(report.Unmatched, skill)
		}
	}

	report.MatchScore = float64(len(report.Matched)) / float64(total)
	return report
}

// ExactIntersection returns the case-insensitive intersection of two skill
// lists, normalized. Used by screening for the exact-match bonus.
func ExactIntersection(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, skill := range b {
		set[normalize(skill)] = struct{}{}
	}

	out := []string{}
	seen := make(map[string]struct{}, len(a))
	for _, skill := range a {
		key := normalize(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := set[key]; ok {
			out = append(out, key)
		}
	}
	return out
}

func (e *Engine) vectors(ctx context.Context, skillList []string) ([][]float32, error) {
	out := make([][]float32, len(skillList))
	for i, skill := range skillList {
		vector, err := e.embed(ctx, skill)
		if err != nil {
			return nil, fmt.Errorf("embedding skill %q: %w", skill, err)
		}
		out[i] = vector
	}
	return out, nil
}

func (e *Engine) embed(ctx context.Context, skill string) ([]float32, error) {
	key := normalize(skill)

	e.mu.Lock()
	cached, ok := e.cache[key]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}

	vector, err := e.embedder.Embed(ctx, key)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if len(e.cache) >= e.cacheLimit {
		// Evict an arbitrary entry to keep the cache bounded.
		for k := range e.cache {
			delete(e.cache, k)
			break
		}
	}
	e.cache[key] = vector
	e.mu.Unlock()

	return vector, nil
}

// CacheLen reports how many skill embeddings are cached.
func (e *Engine) CacheLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

// ClearCache drops all cached skill embeddings.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string][]float32)
}

func normalize(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
