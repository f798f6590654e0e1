package retrieval

import (
	"strings"

	"github.com/uit-ai/knowledge-core/internal/models"
)

// detectProgramSlug finds the program mention in query, if any, per
// §4.9 step 8: strip known university-name strings, then scan the
// alias->slug table for matches, picking the earliest-position match and
// breaking ties on longest alias.
func detectProgramSlug(query string, universityNames []string, programKeywords map[string]string) string {
	normalized := strings.ToLower(query)
	for _, name := range universityNames {
		normalized = strings.ReplaceAll(normalized, strings.ToLower(name), "")
	}

	bestPos := -1
	bestLen := -1
	bestSlug := ""

	for alias, slug := range programKeywords {
		aliasLower := strings.ToLower(alias)
		pos := strings.Index(normalized, aliasLower)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos || (pos == bestPos && len(aliasLower) > bestLen) {
			bestPos = pos
			bestLen = len(aliasLower)
			bestSlug = slug
		}
	}

	return bestSlug
}

// applyProgramFilter drops nodes whose document_id metadata doesn't
// contain slug. If slug is empty (no program mentioned) or filtering
// would empty the list, the input is returned unchanged (with a warning
// logged by the caller in the latter case).
func applyProgramFilter(nodes []models.RetrievalNode, slug string) ([]models.RetrievalNode, bool) {
	if slug == "" {
		return nodes, false
	}

	filtered := make([]models.RetrievalNode, 0, len(nodes))
	for _, n := range nodes {
		docID, _ := n.Metadata["document_id"].(string)
		if strings.Contains(docID, slug) {
			filtered = append(filtered, n)
		}
	}

	if len(filtered) == 0 {
		return nodes, true
	}
	return filtered, false
}
