package document

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/chunker"
	"github.com/saulo-duarte/docquiz/internal/config"
	"github.com/saulo-duarte/docquiz/internal/embedding"
	"github.com/saulo-duarte/docquiz/internal/parser"
	"github.com/saulo-duarte/docquiz/internal/storage"
)

var ErrProcessingInProgress = errors.New("document is already being processed")

// embedBatchSize bounds how many chunks go to the provider per call.
const embedBatchSize = 64

// Embedder is the slice of the embedding client the pipeline needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]embedding.Result, error)
}

// Pipeline runs a document through parse, chunk, embed and persist, then
// flips the processed flag. A run is all-or-nothing with respect to that
// flag: any step failure leaves processed=false, and the next explicit
// Process call starts by discarding whatever chunk set a previous run left
// behind.
type Pipeline struct {
	repo     Repository
	bucket   storage.Bucket
	parser   parser.Parser
	embedder Embedder
	splitter *chunker.Splitter

	mu     sync.Mutex
	active map[uuid.UUID]struct{}
}

func NewPipeline(repo Repository, bucket storage.Bucket, p parser.Parser, embedder Embedder, splitter *chunker.Splitter) *Pipeline {
	return &Pipeline{
		repo:     repo,
		bucket:   bucket,
		parser:   p,
		embedder: embedder,
		splitter: splitter,
		active:   make(map[uuid.UUID]struct{}),
	}
}

// Process is idempotent: re-invoking it for an unchanged document rebuilds an
// identical chunk set. Concurrent runs for the same document are rejected.
func (p *Pipeline) Process(ctx context.Context, documentID uuid.UUID) (int, error) {
	log := config.WithContext(ctx).WithField("document_id", documentID)

	if !p.tryLock(documentID) {
		return 0, ErrProcessingInProgress
	}
	defer p.unlock(documentID)

	doc, err := p.repo.FindByID(documentID)
	if err != nil {
		return 0, err
	}
	if doc == nil {
		return 0, ErrDocumentNotFound
	}

	key := storage.ObjectKey(doc.UserID.String(), doc.ID.String(), doc.Name)
	data, err := p.bucket.Download(ctx, key)
	if err != nil {
		log.WithError(err).Error("Failed to download document from storage")
		return 0, fmt.Errorf("failed to fetch document bytes: %w", err)
	}

	text, err := p.parser.Parse(ctx, data, doc.ContentType)
	if err != nil {
		log.WithError(err).Error("Failed to parse document")
		return 0, err
	}

	texts := p.splitter.Split(text)

	// Invalidate the previous chunk set wholesale before persisting the new
	// one, so stale chunks never accumulate across reprocess runs.
	if err := p.repo.DeleteChunksByDocumentID(doc.ID); err != nil {
		log.WithError(err).Error("Failed to delete previous chunk set")
		return 0, err
	}

	persisted := 0
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		results, err := p.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			log.WithError(err).Error("Embedding call failed")
			return 0, fmt.Errorf("failed to embed chunks: %w", err)
		}

		batch := make([]*DocumentChunk, 0, len(results))
		for i, res := range results {
			if res.Err != nil {
				// One unembeddable chunk fails the whole run; a partially
				// persisted set must never be reported as processed.
				log.WithError(res.Err).WithField("ordinal", start+i).Error("Chunk embedding failed")
				return 0, fmt.Errorf("failed to embed chunk %d: %w", start+i, res.Err)
			}
			batch = append(batch, &DocumentChunk{
				ID:         uuid.New(),
				DocumentID: doc.ID,
				Ordinal:    start + i,
				Content:    texts[start+i],
				Embedding:  Vector(res.Vector),
			})
		}

		if err := p.repo.CreateChunks(batch); err != nil {
			log.WithError(err).Error("Failed to persist chunks")
			return 0, err
		}
		persisted += len(batch)
	}

	if err := p.repo.SetProcessed(doc.ID, true); err != nil {
		log.WithError(err).Error("Failed to mark document as processed")
		return 0, err
	}

	log.WithField("chunks", persisted).Info("Document processed")
	return persisted, nil
}

func (p *Pipeline) tryLock(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.active[id]; busy {
		return false
	}
	p.active[id] = struct{}{}
	return true
}

func (p *Pipeline) unlock(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, id)
}
