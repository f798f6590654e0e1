package localvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	_ "modernc.org/sqlite"
)

// Store is a file-backed VectorStore for single-machine use: vectors
// are stored as JSON text in SQLite, one table per collection, and
// similarity search is a brute-force cosine scan. Not meant for
// production-scale collections.
type Store struct {
	db     *sql.DB
	logger arbor.ILogger
}

var _ interfaces.VectorStore = (*Store)(nil)

// New opens (creating if necessary) a SQLite database at path.
func New(path string, logger arbor.ILogger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local vector store %s: %w", path, err)
	}
	return &Store{db: db, logger: logger}, nil
}

func tableName(collection string) string {
	return "vec_" + strings.ReplaceAll(collection, "-", "_")
}

// GetOrCreateCollection creates the backing table for collection if absent.
func (s *Store) GetOrCreateCollection(ctx context.Context, collection string, dimension int) error {
	table := tableName(collection)
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			vector TEXT NOT NULL,
			text TEXT NOT NULL,
			metadata TEXT NOT NULL
		)`, table))
	if err != nil {
		return fmt.Errorf("create table for collection %s: %w", collection, err)
	}

	s.logger.Debug().Str("collection", collection).Int("dimension", dimension).Msg("local vector collection ready")
	return nil
}

// Upsert inserts or replaces points in collection.
func (s *Store) Upsert(ctx context.Context, collection string, points []interfaces.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	table := tableName(collection)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, vector, text, metadata) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET vector=excluded.vector, text=excluded.text, metadata=excluded.metadata`, table))
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		vecJSON, err := json.Marshal(p.Vector)
		if err != nil {
			return fmt.Errorf("marshal vector for %s: %w", p.ID, err)
		}
		metaJSON, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, string(vecJSON), p.Text, string(metaJSON)); err != nil {
			return fmt.Errorf("upsert point %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteByFilter removes points whose metadata matches every key/value
// pair in filter.
func (s *Store) DeleteByFilter(ctx context.Context, collection string, filter map[string]string) error {
	if len(filter) == 0 {
		return nil
	}

	table := tableName(collection)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, metadata FROM %s`, table))
	if err != nil {
		if isNoSuchTable(err) {
			return nil
		}
		return fmt.Errorf("scan for delete in %s: %w", collection, err)
	}

	var toDelete []string
	for rows.Next() {
		var id, metaJSON string
		if err := rows.Scan(&id, &metaJSON); err != nil {
			rows.Close()
			return fmt.Errorf("scan row: %w", err)
		}
		var meta map[string]interface{}
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			continue
		}
		if matchesFilter(meta, filter) {
			toDelete = append(toDelete, id)
		}
	}
	rows.Close()

	if len(toDelete) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table))
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range toDelete {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Search returns the topK nearest points to vector by cosine similarity.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, topK int) ([]interfaces.ScoredPoint, error) {
	table := tableName(collection)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, vector, text, metadata FROM %s`, table))
	if err != nil {
		if isNoSuchTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("search scan %s: %w", collection, err)
	}
	defer rows.Close()

	var candidates []interfaces.ScoredPoint
	for rows.Next() {
		var id, vecJSON, text, metaJSON string
		if err := rows.Scan(&id, &vecJSON, &text, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		var candidateVec []float32
		if err := json.Unmarshal([]byte(vecJSON), &candidateVec); err != nil {
			continue
		}
		var meta map[string]interface{}
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			meta = map[string]interface{}{}
		}

		candidates = append(candidates, interfaces.ScoredPoint{
			ID:       id,
			Text:     text,
			Metadata: meta,
			Score:    cosineSimilarity(vector, candidateVec),
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func matchesFilter(meta map[string]interface{}, filter map[string]string) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

func cosineSimilarity(a, b []float32) float64 {
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
