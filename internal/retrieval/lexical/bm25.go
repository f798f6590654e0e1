// Package lexical implements an in-memory BM25 corpus built once at
// startup from every chunks.json file under the stages root. There is no
// BM25 library in the dependency set this module draws on; the scoring
// formula and tokenization are implemented directly against unicode/strings.
package lexical

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/models"
)

const (
	k1 = 1.2
	b  = 0.75
)

type document struct {
	documentID string
	category   string
	chunk      models.Chunk
	terms      map[string]int
	length     int
}

// Corpus is a BM25 index over every chunk text in the stages root,
// scoped per category at query time.
type Corpus struct {
	docs      []document
	df        map[string]int
	avgLength float64
	logger    arbor.ILogger
}

// Build walks stagesRoot/{category}/{document_id}/chunks.json for every
// category and constructs the BM25 index. A category directory that
// doesn't exist, or a document with no chunks.json yet, is skipped.
func Build(stagesRoot string, categories []string, logger arbor.ILogger) (*Corpus, error) {
	c := &Corpus{df: make(map[string]int), logger: logger}

	for _, category := range categories {
		categoryDir := filepath.Join(stagesRoot, category)
		entries, err := os.ReadDir(categoryDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read category dir %s: %w", categoryDir, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			documentID := entry.Name()
			chunksPath := filepath.Join(categoryDir, documentID, "chunks.json")
			data, err := os.ReadFile(chunksPath)
			if err != nil {
				continue
			}

			var chunks []models.Chunk
			if err := json.Unmarshal(data, &chunks); err != nil {
				logger.Warn().Err(err).Str("path", chunksPath).Msg("skipping unreadable chunks.json")
				continue
			}

			for _, chunk := range chunks {
				terms := tokenize(chunk.Text)
				freq := make(map[string]int, len(terms))
				for _, t := range terms {
					freq[t]++
				}
				for t := range freq {
					c.df[t]++
				}
				c.docs = append(c.docs, document{
					documentID: documentID,
					category:   category,
					chunk:      chunk,
					terms:      freq,
					length:     len(terms),
				})
			}
		}
	}

	var total int
	for _, d := range c.docs {
		total += d.length
	}
	if len(c.docs) > 0 {
		c.avgLength = float64(total) / float64(len(c.docs))
	}

	logger.Info().Int("documents", len(c.docs)).Int("vocabulary", len(c.df)).Msg("built lexical corpus")
	return c, nil
}

// Search scores every chunk in category against query and returns the
// topK highest-scoring nodes, descending. An empty category searches
// the full corpus across categories.
func (c *Corpus) Search(query, category string, topK int) []models.RetrievalNode {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 || len(c.docs) == 0 {
		return nil
	}

	scored := make([]models.RetrievalNode, 0, len(c.docs))
	n := float64(len(c.docs))

	for _, d := range c.docs {
		if category != "" && d.category != category {
			continue
		}

		var score float64
		for _, term := range queryTerms {
			tf, ok := d.terms[term]
			if !ok {
				continue
			}
			df := c.df[term]
			idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
			denom := float64(tf) + k1*(1-b+b*float64(d.length)/c.avgLength)
			score += idf * (float64(tf) * (k1 + 1)) / denom
		}
		if score <= 0 {
			continue
		}

		scored = append(scored, models.RetrievalNode{
			NodeID:   d.chunk.ID,
			Text:     d.chunk.Text,
			Metadata: d.chunk.Metadata,
			RawScore: score,
			Score:    score,
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// tokenize lowercases and splits on runs of non-letter, non-digit runes,
// preserving Vietnamese diacritics (unicode.IsLetter covers combined
// Latin+diacritic code points). Single-character tokens are dropped as
// noise.
func tokenize(text string) []string {
	var tokens []string
	var b strings.Builder

	flush := func() {
		if utf8.RuneCountInString(b.String()) > 1 {
			tokens = append(tokens, b.String())
		}
		b.Reset()
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}
