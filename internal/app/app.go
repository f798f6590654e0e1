// Package app wires the full dependency graph shared by the CLI and MCP
// server binaries: config, logger, LLM/embedder/reranker clients, vector
// store, lexical corpus, and the processing/indexing pipelines.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/uit-ai/knowledge-core/internal/chunker"
	"github.com/uit-ai/knowledge-core/internal/common"
	"github.com/uit-ai/knowledge-core/internal/embedder"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/llm"
	"github.com/uit-ai/knowledge-core/internal/markdownfix"
	"github.com/uit-ai/knowledge-core/internal/metadatagen"
	"github.com/uit-ai/knowledge-core/internal/pipeline"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stages"
	"github.com/uit-ai/knowledge-core/internal/pipeline/state"
	"github.com/uit-ai/knowledge-core/internal/reranker"
	"github.com/uit-ai/knowledge-core/internal/retrieval"
	"github.com/uit-ai/knowledge-core/internal/retrieval/lexical"
	"github.com/uit-ai/knowledge-core/internal/retrieval/router"
	"github.com/uit-ai/knowledge-core/internal/scraper"
	"github.com/uit-ai/knowledge-core/internal/services/kv"
	"github.com/uit-ai/knowledge-core/internal/storage/badger"
	"github.com/uit-ai/knowledge-core/internal/vectorstore/localvector"
	"github.com/uit-ai/knowledge-core/internal/vectorstore/qdrantstore"
	"github.com/uit-ai/knowledge-core/pkg/docparse"
)

var categories = []string{"regulation", "curriculum"}

// App holds every collaborator the CLI and MCP binaries share.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	KVStorage  interfaces.KeyValueStorage
	Kv         *kv.Service
	States     *state.Store
	Completer  interfaces.Completer
	Embedder   interfaces.Embedder
	Reranker   interfaces.Reranker
	Codes      *metadatagen.RegulationCodeTable
	VectorStore interfaces.VectorStore
	Parser     interfaces.DocumentParser
	Fixer      *markdownfix.Fixer
	Scraper    *scraper.PortalScraper

	Processing map[string]*pipeline.ProcessingPipeline
	Indexing   map[string]*pipeline.IndexingPipeline
	Scheduler  *pipeline.Scheduler

	Corpus    *lexical.Corpus
	Router    router.Router
	Retriever *retrieval.Retriever

	closers []func() error
}

// New loads configuration from configPaths, initializes logging, and
// builds the full dependency graph. Callers must defer Close.
func New(configPaths []string) (*App, error) {
	a := &App{}

	bootLogger := arbor.NewLogger()
	db, err := badger.NewBadgerDB(bootLogger, "./data/kv")
	var kvStorage interfaces.KeyValueStorage
	if err != nil {
		bootLogger.Warn().Err(err).Msg("failed to open key/value store, proceeding without KV-backed config replacement")
	} else {
		kvStorage = badger.NewKVStorage(db, bootLogger)
		a.closers = append(a.closers, func() error { return db.Close() })
	}

	cfg, err := common.LoadFromFiles(kvStorage, configPaths...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a.Config = cfg
	a.KVStorage = kvStorage

	a.Logger = common.SetupLogger(cfg)
	common.InitLogger(a.Logger)
	common.PrintBanner(cfg, a.Logger)

	if kvStorage != nil {
		a.Kv = kv.NewService(kvStorage, a.Logger)
	}

	a.States = state.NewStore(cfg.Storage.StagesRoot, a.Logger)

	factory := llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, kvStorage, a.Logger)
	a.Completer = llm.NewCompleter(factory)
	a.closers = append(a.closers, factory.Close)

	a.Embedder = embedder.NewService(cfg.Retrieval.EmbedURL, cfg.Retrieval.EmbedModel, cfg.Retrieval.EmbedDimension, a.Logger)
	a.Reranker = reranker.NewClient(cfg.Retrieval.RerankerURL, cfg.Retrieval.RerankerTimeout, a.Logger)

	codes, err := metadatagen.LoadRegulationCodeTable(cfg.Storage.RegulationCodes)
	if err != nil {
		return nil, fmt.Errorf("load regulation codes: %w", err)
	}
	a.Codes = codes

	switch cfg.VectorStore.Backend {
	case common.VectorStoreQdrant:
		vs, err := qdrantstore.New(cfg.VectorStore.Address, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("connect qdrant: %w", err)
		}
		a.VectorStore = vs
		a.closers = append(a.closers, vs.Close)
	default:
		vs, err := localvector.New(cfg.Storage.VectorStoreRoot, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("open local vector store: %w", err)
		}
		a.VectorStore = vs
		a.closers = append(a.closers, vs.Close)
	}

	a.Parser = docparse.New(a.Logger)
	a.Fixer = markdownfix.NewFixer(a.Completer, cfg.Pipeline.FixModel, cfg.Pipeline.FixRPM, a.Logger)

	portalTimeout, err := time.ParseDuration(cfg.Portal.Timeout)
	if err != nil {
		portalTimeout = 15 * time.Second
	}
	a.Scraper = scraper.NewPortalScraper(cfg.Portal.BaseURL, cfg.Portal.GradesPath, cfg.Portal.SchedulePath, portalTimeout, a.Logger)

	if err := a.buildPipelines(); err != nil {
		return nil, err
	}

	if err := a.buildRetrieval(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) buildPipelines() error {
	cfg := a.Config
	a.Processing = make(map[string]*pipeline.ProcessingPipeline, len(categories))
	a.Indexing = make(map[string]*pipeline.IndexingPipeline, len(categories))

	chunkOpts := chunker.Options{
		MaxTokens:       cfg.Chunking.MaxTokens,
		SubChunkSize:    cfg.Chunking.SubChunkSize,
		SubChunkOverlap: cfg.Chunking.SubChunkOverlap,
		MaxHeaderLevel:  cfg.Chunking.MaxHeaderLevel,
		Encoding:        cfg.Chunking.Encoding,
	}

	for _, category := range categories {
		generator, err := metadatagen.NewGenerator(category, a.Completer, "", a.Codes, a.Logger)
		if err != nil {
			return fmt.Errorf("build metadata generator for %s: %w", category, err)
		}

		var c chunker.Chunker
		if category == "regulation" {
			c = chunker.NewRegulationChunker(chunkOpts)
		} else {
			c = chunker.NewCurriculumChunker(chunkOpts)
		}

		processingStages := []*stage.Stage{
			stages.NewParseStage(a.Parser, cfg.Pipeline.ParseUnitCostUSD, a.States, a.Logger),
			stages.NewCleanStage(a.States, a.Logger),
			stages.NewNormalizeStage(a.States, a.Logger),
			stages.NewFilterStage(a.States, cfg.Storage.RejectedRoot, a.Logger),
			stages.NewFixStage(a.Fixer, category, a.States, a.Logger),
			stages.NewMetadataStage(generator, a.States, a.Logger),
		}
		a.Processing[category] = pipeline.NewProcessingPipeline(processingStages, a.States, a.Logger)

		chunkStage := stages.NewChunkStage(c, a.States, a.Logger)
		embedStage := stages.NewEmbedIndexStage(a.VectorStore, a.Embedder, cfg.Pipeline.EmbedUnitPriceUSD, a.States, a.Logger)
		a.Indexing[category] = pipeline.NewIndexingPipeline(chunkStage, embedStage, a.States, a.Logger)
	}

	return nil
}

func (a *App) buildRetrieval() error {
	cfg := a.Config

	corpus, err := lexical.Build(cfg.Storage.StagesRoot, categories, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("lexical corpus build failed, starting empty")
		corpus = &lexical.Corpus{}
	}
	a.Corpus = corpus

	a.Retriever = retrieval.New(a.VectorStore, a.Embedder, a.Reranker, a.Completer, corpus, cfg.Retrieval, a.Logger)

	if cfg.Retrieval.RoutingStrategy == common.RoutingLLMClassification {
		descriptions := map[string]string{
			"regulation":  "university policy, regulations, fees, administrative procedure",
			"curriculum":  "majors, programs, courses, curricula",
		}
		a.Router = &router.LLMClassificationRouter{
			Completer:    a.Completer,
			Model:        cfg.Retrieval.RouterModel,
			Collections:  cfg.Retrieval.AvailableCollections,
			Descriptions: descriptions,
			Logger:       a.Logger,
		}
	} else {
		a.Router = &router.QueryAllRouter{Collections: cfg.Retrieval.AvailableCollections}
	}

	return nil
}

// PipelineFor resolves the category-scoped processing/indexing pipeline
// pair. The pipelines are generic over documents within the category;
// per-document identity flows through models.PipelineState at Run time.
func (a *App) PipelineFor(category string) (*pipeline.ProcessingPipeline, *pipeline.IndexingPipeline, error) {
	proc, ok := a.Processing[category]
	if !ok {
		return nil, nil, fmt.Errorf("no pipeline configured for category %q", category)
	}
	return proc, a.Indexing[category], nil
}

// DiscoverDocuments walks sourceRoot/{category}/ and returns one
// DocumentRef per file found, deriving documentID from the filename.
func DiscoverDocuments(sourceRoot string, categories []string) ([]pipeline.DocumentRef, error) {
	var refs []pipeline.DocumentRef
	for _, category := range categories {
		dir := filepath.Join(sourceRoot, category)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read source dir %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			documentID := name[:len(name)-len(filepath.Ext(name))]
			refs = append(refs, pipeline.DocumentRef{
				Category:   category,
				DocumentID: documentID,
				SourceFile: filepath.Join(dir, name),
			})
		}
	}
	return refs, nil
}

// Close releases every resource opened by New, in reverse order.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RunBatch groups refs by category and drives a BatchRunner per category,
// bounded by Workers.CategoryConcurrency.
func (a *App) RunBatch(ctx context.Context, refs []pipeline.DocumentRef, force bool) (pipeline.BatchStats, error) {
	byCategory := make(map[string][]pipeline.DocumentRef)
	for _, ref := range refs {
		byCategory[ref.Category] = append(byCategory[ref.Category], ref)
	}

	var total pipeline.BatchStats
	start := time.Now()
	for category, docs := range byCategory {
		proc, idx, err := a.PipelineFor(category)
		if err != nil {
			return total, err
		}
		runner := pipeline.NewBatchRunner(proc, idx, a.Config.Workers.CategoryConcurrency, a.Config.Pipeline.SkipOnFailure, a.Logger)
		stats, err := runner.Run(ctx, docs, force)
		total.Processed += stats.Processed
		total.Succeeded += stats.Succeeded
		total.Failed += stats.Failed
		if err != nil && !a.Config.Pipeline.SkipOnFailure {
			return total, err
		}
	}
	total.Duration = time.Since(start)
	return total, nil
}
