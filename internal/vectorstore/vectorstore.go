// Package vectorstore provides the vector index contract used for
// retrieval: entities are embedded on write and queried by text similarity.
package vectorstore

import "context"

// Collection identifies one of the two indexed entity kinds.
type Collection string

const (
	// Vacancies is the collection holding vacancy embeddings.
	Vacancies Collection = "vacancies"
	// Candidates is the collection holding candidate embeddings.
	Candidates Collection = "candidates"
)

// SearchResult is one retrieval hit. Score is a similarity in [0, 1],
// monotonically decreasing with embedding distance. RerankScore is zero until
// the reranking engine fills it in.
type SearchResult struct {
	ID          string
	Document    string
	Metadata    map[string]string
	Score       float64
	RerankScore float64
}

// Index is the vector search collaborator contract.
type Index interface {
	Add(ctx context.Context, collection Collection, id, text string, metadata map[string]string) error
	Search(ctx context.Context, collection Collection, query string, topK int) ([]SearchResult, error)
}
