package vectorstore

import (
	"context"
	"fmt"
	"strings"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hrtools/hr-matcher/internal/embedding"
)

const payloadTextKey = "text"

// Qdrant is an Index backed by a Qdrant server over gRPC. Texts are embedded
// with the injected Embedder both on write and on query.
type Qdrant struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	embedder    embedding.Embedder
	prefix      string
	vectorSize  uint64
	logger      *zap.Logger
}

// QdrantConfig holds connection settings for the Qdrant index.
type QdrantConfig struct {
	Host       string
	Port       int
	Prefix     string
	VectorSize int
}

// NewQdrant connects to Qdrant and ensures both entity collections exist.
func NewQdrant(ctx context.Context, cfg QdrantConfig, embedder embedding.Embedder, logger *zap.Logger) (*Qdrant, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "hr_matching"
	}
	if cfg.VectorSize == 0 {
		cfg.VectorSize = 384
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s: %w", addr, err)
	}

	q := &Qdrant{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		embedder:    embedder,
		prefix:      cfg.Prefix,
		vectorSize:  uint64(cfg.VectorSize),
		logger:      logger,
	}

	for _, collection := range []Collection{Vacancies, Candidates} {
		if err := q.ensureCollection(ctx, q.collectionName(collection)); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// Close releases the underlying gRPC connection.
func (q *Qdrant) Close() error {
	return q.conn.Close()
}

func (q *Qdrant) collectionName(c Collection) string {
	return q.prefix + "_" + string(c)
}

func (q *Qdrant) ensureCollection(ctx context.Context, name string) error {
	list, err := q.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("listing qdrant collections: %w", err)
	}

	for _, col := range list.GetCollections() {
		if col.GetName() == name {
			return nil
		}
	}

	q.logger.Info("creating qdrant collection", zap.String("collection", name))

	_, err = q.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     q.vectorSize,
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating qdrant collection %s: %w", name, err)
	}

	return nil
}

// Add embeds the text and upserts it into the collection with its metadata.
func (q *Qdrant) Add(ctx context.Context, collection Collection, id, text string, metadata map[string]string) error {
	vector, err := q.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding document %s: %w", id, err)
	}

	payload := map[string]*qdrantclient.Value{
		payloadTextKey: {Kind: &qdrantclient.Value_StringValue{StringValue: text}},
	}
	for key, value := range metadata {
		if key == payloadTextKey {
			continue
		}
		payload[key] = &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: value}}
	}

	point := &qdrantclient.PointStruct{
		Id: &qdrantclient.PointId{
			PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: id},
		},
		Vectors: &qdrantclient.Vectors{
			VectorsOptions: &qdrantclient.Vectors_Vector{
				Vector: &qdrantclient.Vector{Data: vector},
			},
		},
		Payload: payload,
	}

	_, err = q.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: q.collectionName(collection),
		Points:         []*qdrantclient.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upserting point %s: %w", id, err)
	}

	q.logger.Debug("indexed document",
		zap.String("collection", q.collectionName(collection)),
		zap.String("id", id),
	)

	return nil
}

// Search embeds the query and returns the nearest documents with their
// payload metadata, ordered by descending similarity.
func (q *Qdrant) Search(ctx context.Context, collection Collection, query string, topK int) ([]SearchResult, error) {
	vector, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	resp, err := q.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: q.collectionName(collection),
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", q.collectionName(collection), err)
	}

	results := make([]SearchResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		metadata := make(map[string]string, len(point.GetPayload()))
		document := ""
		for key, value := range point.GetPayload() {
			if key == payloadTextKey {
				document = value.GetStringValue()
				continue
			}
			metadata[key] = value.GetStringValue()
		}

		results = append(results, SearchResult{
			ID:       pointID(point.GetId()),
			Document: document,
			Metadata: metadata,
			Score:    float64(point.GetScore()),
		})
	}

	q.logger.Debug("vector search completed",
		zap.String("collection", q.collectionName(collection)),
		zap.Int("hits", len(results)),
	)

	return results, nil
}

func pointID(id *qdrantclient.PointId) string {
	if id == nil {
		return ""
	}
	if uid := id.GetUuid(); uid != "" {
		return uid
	}
	return strings.TrimSpace(fmt.Sprintf("%d", id.GetNum()))
}
