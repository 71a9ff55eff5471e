// Package index publishes TODO findings to a Qdrant collection so they can
// be searched semantically.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	qdrantpb "github.com/qdrant/go-client/qdrant"

	"todoscan/internal/models"
	"todoscan/internal/qdrant"
	"todoscan/internal/todo"
)

const (
	defaultCollectionName = "todoscan_default"
	collectionPrefix      = "todoscan_"
	scrollPage            = 256

	// BatchSize is the number of findings embedded per request.
	BatchSize = 64
)

// CollectionName returns the Qdrant collection name for a given project ID.
// If projectID is empty, the shared default collection is used.
func CollectionName(projectID string) string {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return defaultCollectionName
	}
	return collectionPrefix + projectID
}

// Store is the subset of the Qdrant client the publisher needs.
type Store interface {
	EnsureCollection(ctx context.Context, name string, vectorSize uint64) (bool, error)
	Upsert(ctx context.Context, collection string, points []*qdrantpb.PointStruct) error
	Search(ctx context.Context, collection string, vector []float32, limit uint64) ([]*qdrantpb.ScoredPoint, error)
	Scroll(ctx context.Context, collection string, limit uint32, offset *qdrantpb.PointId) ([]*qdrantpb.RetrievedPoint, *qdrantpb.PointId, error)
	DeleteByKeyword(ctx context.Context, collection, key, value string) error
	DeleteCollection(ctx context.Context, name string) error
}

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchHit is one result of Search.
type SearchHit struct {
	Score   float32            `json:"score"`
	Payload models.TodoPayload `json:"payload"`
}

// Publisher writes findings to one project's collection and queries it.
type Publisher struct {
	store      Store
	embeddings Embedder
	collection string
	log        *log.Logger
}

// NewPublisher returns a publisher for the collection of projectID.
func NewPublisher(store Store, embeddings Embedder, projectID string, logger *log.Logger) *Publisher {
	return &Publisher{
		store:      store,
		embeddings: embeddings,
		collection: CollectionName(projectID),
		log:        logger,
	}
}

// Collection returns the collection the publisher writes to.
func (p *Publisher) Collection() string {
	return p.collection
}

// Publish replaces the indexed findings of every report's file. Reports with
// an error are skipped so a transient parse failure keeps the old points.
// It returns the number of points written.
func (p *Publisher) Publish(ctx context.Context, reports []models.FileReport) (int, error) {
	var payloads []models.TodoPayload
	for _, r := range reports {
		if r.Error != "" {
			p.log.Warn("Skipping file with errors", "path", r.Path, "err", r.Error)
			continue
		}
		if err := p.deleteFile(ctx, r.Path); err != nil {
			return 0, fmt.Errorf("failed to delete points for %s: %w", r.Path, err)
		}
		for _, f := range r.Todos {
			payloads = append(payloads, newPayload(r, f))
		}
	}

	written := 0
	ensured := false
	for start := 0; start < len(payloads); start += BatchSize {
		end := start + BatchSize
		if end > len(payloads) {
			end = len(payloads)
		}
		batch := payloads[start:end]

		texts := make([]string, len(batch))
		for i, pl := range batch {
			texts[i] = embeddingText(pl)
		}
		vectors, err := p.embeddings.EmbedBatch(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("failed to embed findings: %w", err)
		}
		if len(vectors) != len(batch) || len(vectors[0]) == 0 {
			return written, fmt.Errorf("no embedding vectors returned")
		}

		// The collection is sized by the first batch's embedding dimension.
		if !ensured {
			created, err := p.store.EnsureCollection(ctx, p.collection, uint64(len(vectors[0])))
			if err != nil {
				return written, err
			}
			if created {
				p.log.Info("Created collection", "collection", p.collection, "dim", len(vectors[0]))
			}
			ensured = true
		}

		points := make([]*qdrantpb.PointStruct, len(batch))
		for i, pl := range batch {
			points[i] = qdrant.NumericPoint(pointID(pl), vectors[i], pl.ToMap())
		}
		if err := p.store.Upsert(ctx, p.collection, points); err != nil {
			return written, fmt.Errorf("failed to upsert findings: %w", err)
		}
		written += len(points)
		p.log.Debug("Upserted batch", "points", len(points))
	}

	p.log.Info("Indexing completed", "collection", p.collection, "points", written)
	return written, nil
}

// Search returns the topK findings closest to query.
func (p *Publisher) Search(ctx context.Context, query string, topK int) ([]SearchHit, error) {
	if topK <= 0 {
		topK = 10
	}
	vector, err := p.embeddings.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	points, err := p.store.Search(ctx, p.collection, vector, uint64(topK))
	if qdrant.IsNotFound(err) {
		return []SearchHit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", p.collection, err)
	}

	hits := make([]SearchHit, 0, len(points))
	for _, pt := range points {
		hits = append(hits, SearchHit{
			Score:   pt.GetScore(),
			Payload: models.TodoPayloadFromMap(qdrant.PayloadToMap(pt.GetPayload())),
		})
	}
	return hits, nil
}

// Sync publishes reports and then removes the points of indexed files that
// no longer appear in reports. reports must cover the whole project.
func (p *Publisher) Sync(ctx context.Context, reports []models.FileReport) (int, error) {
	written, err := p.Publish(ctx, reports)
	if err != nil {
		return written, err
	}

	_, indexed, err := p.indexedFiles(ctx)
	if err != nil {
		return written, err
	}
	for _, r := range reports {
		delete(indexed, r.Path)
	}
	for path := range indexed {
		if err := p.deleteFile(ctx, path); err != nil {
			return written, fmt.Errorf("failed to delete points for removed file %s: %w", path, err)
		}
		p.log.Info("Deleted points for removed file", "path", path)
	}
	return written, nil
}

// Count scrolls the collection and returns the number of points and the
// number of distinct files they belong to.
func (p *Publisher) Count(ctx context.Context) (points int, files int, err error) {
	points, indexed, err := p.indexedFiles(ctx)
	if err != nil {
		return 0, 0, err
	}
	return points, len(indexed), nil
}

func (p *Publisher) indexedFiles(ctx context.Context) (int, map[string]struct{}, error) {
	points := 0
	seen := make(map[string]struct{})
	var offset *qdrantpb.PointId
	for {
		page, next, err := p.store.Scroll(ctx, p.collection, scrollPage, offset)
		if qdrant.IsNotFound(err) {
			// Nothing has been indexed yet.
			return 0, seen, nil
		}
		if err != nil {
			return 0, nil, fmt.Errorf("failed to scroll %s: %w", p.collection, err)
		}
		for _, pt := range page {
			points++
			if v := pt.GetPayload()["file_path"]; v != nil {
				seen[v.GetStringValue()] = struct{}{}
			}
		}
		if next == nil || len(page) == 0 {
			break
		}
		offset = next
	}
	return points, seen, nil
}

// Drop deletes the collection.
func (p *Publisher) Drop(ctx context.Context) error {
	if err := p.store.DeleteCollection(ctx, p.collection); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", p.collection, err)
	}
	return nil
}

// deleteFile removes the points of path. A missing collection holds no
// points, so there is nothing to remove.
func (p *Publisher) deleteFile(ctx context.Context, path string) error {
	err := p.store.DeleteByKeyword(ctx, p.collection, "file_path", path)
	if qdrant.IsNotFound(err) {
		return nil
	}
	return err
}

func newPayload(r models.FileReport, f todo.Finding) models.TodoPayload {
	return models.TodoPayload{
		FilePath: r.Path,
		Language: r.Language,
		Text:     f.Text,
		Line:     f.Loc.Line,
		Col:      f.Loc.Col,
		FileHash: r.Hash,
	}
}

func embeddingText(pl models.TodoPayload) string {
	return fmt.Sprintf("%s:%d: %s", pl.FilePath, pl.Line, pl.Text)
}

// pointID derives a stable numeric id from the finding's location and text:
// the first 8 bytes of its SHA-256, big-endian.
func pointID(pl models.TodoPayload) uint64 {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d:%s", pl.FilePath, pl.Line, pl.Col, pl.Text)))
	return binary.BigEndian.Uint64(h[:8])
}
