package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/common"
)

// BatchStats aggregates the outcome of one batch run across documents.
type BatchStats struct {
	Processed int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// DocumentRef identifies one document to run through the pipelines.
type DocumentRef struct {
	Category   string
	DocumentID string
	SourceFile string
}

// BatchRunner drives ProcessingPipeline then IndexingPipeline over a set
// of documents, with a bounded worker pool per spec §4.6 / Workers config.
type BatchRunner struct {
	processing    *ProcessingPipeline
	indexing      *IndexingPipeline
	concurrency   int
	skipOnFailure bool
	logger        arbor.ILogger
}

// NewBatchRunner builds a BatchRunner. concurrency <= 0 defaults to 1.
func NewBatchRunner(processing *ProcessingPipeline, indexing *IndexingPipeline, concurrency int, skipOnFailure bool, logger arbor.ILogger) *BatchRunner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchRunner{
		processing:    processing,
		indexing:      indexing,
		concurrency:   concurrency,
		skipOnFailure: skipOnFailure,
		logger:        logger,
	}
}

// Run processes every document in docs, running the processing pipeline
// followed by the indexing pipeline, bounded to concurrency workers at a
// time. A per-document failure is logged and counted; it aborts the whole
// run only if skipOnFailure is false.
func (b *BatchRunner) Run(ctx context.Context, docs []DocumentRef, force bool) (BatchStats, error) {
	start := time.Now()

	var (
		mu       sync.Mutex
		stats    BatchStats
		wg       sync.WaitGroup
		sem      = make(chan struct{}, b.concurrency)
		fatalErr error
	)

	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}

		mu.Lock()
		abort := fatalErr != nil
		mu.Unlock()
		if abort {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		doc := doc
		common.SafeGo(b.logger, fmt.Sprintf("pipeline-document:%s/%s", doc.Category, doc.DocumentID), func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := b.runOne(doc, force)

			mu.Lock()
			stats.Processed++
			if err != nil {
				stats.Failed++
				b.logger.Error().Err(err).Str("category", doc.Category).Str("document_id", doc.DocumentID).
					Msg("document pipeline run failed")
				if !b.skipOnFailure && fatalErr == nil {
					fatalErr = err
				}
			} else {
				stats.Succeeded++
			}
			mu.Unlock()
		})
	}

	wg.Wait()
	stats.Duration = time.Since(start)

	return stats, fatalErr
}

func (b *BatchRunner) runOne(doc DocumentRef, force bool) error {
	if _, err := b.processing.Run(doc.Category, doc.DocumentID, doc.SourceFile, force); err != nil {
		return err
	}
	if _, err := b.indexing.Run(doc.Category, doc.DocumentID, force); err != nil {
		return err
	}
	return nil
}
