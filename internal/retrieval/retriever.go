// Package retrieval orchestrates blended dense+lexical retrieval,
// reranking, and program disambiguation, per spec §4.9.
package retrieval

import (
	"context"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/text/unicode/norm"

	"github.com/uit-ai/knowledge-core/internal/common"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/retrieval/lexical"
)

// Retriever runs the blended retrieval pipeline against one vector
// collection at a time; the ToolHost calls it once per collection the
// Router selected and concatenates results.
type Retriever struct {
	vectorStore interfaces.VectorStore
	embedder    interfaces.Embedder
	reranker    interfaces.Reranker
	completer   interfaces.Completer
	corpus      *lexical.Corpus
	config      common.RetrievalConfig
	logger      arbor.ILogger
}

// New builds a Retriever. reranker and completer may be nil: a nil
// reranker disables reranking (raw-score order is kept); a nil completer
// disables HyDE regardless of config.UseHyDE.
func New(vectorStore interfaces.VectorStore, embedder interfaces.Embedder, reranker interfaces.Reranker, completer interfaces.Completer, corpus *lexical.Corpus, config common.RetrievalConfig, logger arbor.ILogger) *Retriever {
	return &Retriever{
		vectorStore: vectorStore,
		embedder:    embedder,
		reranker:    reranker,
		completer:   completer,
		corpus:      corpus,
		config:      config,
		logger:      logger,
	}
}

// Retrieve runs the full pipeline against collection for query.
func (r *Retriever) Retrieve(ctx context.Context, query, collection string) (*models.RetrievalResult, error) {
	normalized := norm.NFC.String(query)

	embedText := normalized
	if r.config.UseHyDE && r.completer != nil {
		embedText = expandHyDE(ctx, r.completer, r.config.HyDEModel, normalized, r.logger)
	}

	topK := r.config.RetrievalTopK
	if topK <= 0 {
		topK = 20
	}
	minScore := r.config.MinScoreThreshold
	if minScore <= 0 {
		minScore = 0.25
	}

	dense, err := r.denseRetrieve(ctx, embedText, collection, topK, minScore)
	if err != nil {
		return nil, err
	}

	lexicalNodes := r.corpus.Search(normalized, collection, topK)

	merged := mergeDedup(dense, lexicalNodes)
	totalRetrieved := len(merged)

	reranked := false
	if r.reranker != nil && len(merged) > 0 {
		reranked = r.rerank(ctx, normalized, merged)
	}

	threshold := r.config.RerankScoreThreshold
	if threshold <= 0 {
		threshold = 0.7
	}
	filtered := thresholdFilter(merged, threshold)

	slug := detectProgramSlug(normalized, r.config.UniversityNames, r.config.ProgramKeywords)
	afterProgram, emptied := applyProgramFilter(filtered, slug)
	if emptied {
		r.logger.Warn().Str("query", normalized).Str("program_slug", slug).
			Msg("program filter emptied result set, falling back to unfiltered")
	}

	topKFinal := r.config.TopK
	if topKFinal <= 0 {
		topKFinal = 3
	}
	if len(afterProgram) > topKFinal {
		afterProgram = afterProgram[:topKFinal]
	}

	return &models.RetrievalResult{
		Query:           normalized,
		Nodes:           afterProgram,
		RetrievalMethod: "dense+lexical",
		Reranked:        reranked,
		TotalRetrieved:  totalRetrieved,
		FinalCount:      len(afterProgram),
	}, nil
}

func (r *Retriever) denseRetrieve(ctx context.Context, text, collection string, topK int, minScore float64) ([]models.RetrievalNode, error) {
	vectors, err := r.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, &RemoteFailure{Call: "embed", Err: err}
	}

	points, err := r.vectorStore.Search(ctx, collection, vectors[0], topK)
	if err != nil {
		return nil, &RemoteFailure{Call: "vector search", Err: err}
	}

	nodes := make([]models.RetrievalNode, 0, len(points))
	for _, p := range points {
		if p.Score < minScore {
			continue
		}
		nodes = append(nodes, models.RetrievalNode{
			NodeID:   p.ID,
			Text:     p.Text,
			Metadata: p.Metadata,
			RawScore: p.Score,
			Score:    p.Score,
		})
	}
	return nodes, nil
}

// mergeDedup unions dense and lexical candidates by NodeID, keeping the
// higher raw score on ties, then sorts by raw score descending so that a
// failed rerank still returns a sensible order.
func mergeDedup(dense, lexicalNodes []models.RetrievalNode) []models.RetrievalNode {
	byID := make(map[string]models.RetrievalNode, len(dense)+len(lexicalNodes))
	order := make([]string, 0, len(dense)+len(lexicalNodes))

	add := func(n models.RetrievalNode) {
		existing, ok := byID[n.NodeID]
		if !ok {
			byID[n.NodeID] = n
			order = append(order, n.NodeID)
			return
		}
		if n.RawScore > existing.RawScore {
			byID[n.NodeID] = n
		}
	}

	for _, n := range dense {
		add(n)
	}
	for _, n := range lexicalNodes {
		add(n)
	}

	merged := make([]models.RetrievalNode, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].RawScore > merged[j].RawScore })
	return merged
}

// rerank scores nodes against query with a 120s timeout, overwriting
// Score and sorting descending on success. On timeout or failure the
// raw-score order (already applied by mergeDedup) is kept and false is
// returned.
func (r *Retriever) rerank(ctx context.Context, query string, nodes []models.RetrievalNode) bool {
	rerankCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = n.Text
	}

	scores, err := r.reranker.Score(rerankCtx, query, texts)
	if err != nil {
		r.logger.Warn().Err(err).Msg("reranker call failed, keeping raw-score order")
		return false
	}
	if len(scores) != len(nodes) {
		r.logger.Warn().Int("scores", len(scores)).Int("nodes", len(nodes)).
			Msg("reranker returned mismatched score count, keeping raw-score order")
		return false
	}

	for i := range nodes {
		nodes[i].Score = scores[i]
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Score > nodes[j].Score })
	return true
}

// thresholdFilter drops nodes below threshold, falling back to the
// single best node rather than ever returning empty when the input was
// non-empty.
func thresholdFilter(nodes []models.RetrievalNode, threshold float64) []models.RetrievalNode {
	if len(nodes) == 0 {
		return nodes
	}

	filtered := make([]models.RetrievalNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Score >= threshold {
			filtered = append(filtered, n)
		}
	}
	if len(filtered) == 0 {
		return nodes[:1]
	}
	return filtered
}
