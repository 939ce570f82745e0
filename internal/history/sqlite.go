package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	hberrors "github.com/seiforesti/searchhub/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS query_history (
	caller_id TEXT NOT NULL,
	query     TEXT NOT NULL,
	count     INTEGER NOT NULL DEFAULT 1,
	last_seen TIMESTAMP NOT NULL,
	PRIMARY KEY (caller_id, query)
);
CREATE INDEX IF NOT EXISTS idx_history_query ON query_history(query);

CREATE TABLE IF NOT EXISTS result_clicks (
	result_id TEXT PRIMARY KEY,
	count     INTEGER NOT NULL DEFAULT 0
);
`

// popularitySaturation controls how fast click counts approach 1.0:
// score = clicks / (clicks + popularitySaturation).
const popularitySaturation = 10.0

// Store is a SQLite-backed Provider with an LRU read cache over
// popularity lookups.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	cache *lru.Cache[string, float64]
}

var _ Provider = (*Store)(nil)

// Open opens or creates the history database at path.
func Open(path string, cacheSize int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, hberrors.New(hberrors.ErrCodeHistoryStore, "create history dir", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, hberrors.New(hberrors.ErrCodeHistoryStore, "open history db", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, hberrors.New(hberrors.ErrCodeHistoryStore, "migrate history db", err)
	}

	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, float64](cacheSize)
	if err != nil {
		db.Close()
		return nil, hberrors.InternalError("popularity cache", err)
	}

	return &Store{db: db, cache: cache}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RecordQuery(ctx context.Context, callerID, queryText string) error {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" || callerID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history (caller_id, query, count, last_seen)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (caller_id, query)
		DO UPDATE SET count = count + 1, last_seen = excluded.last_seen`,
		callerID, queryText, time.Now().UTC())
	if err != nil {
		return hberrors.New(hberrors.ErrCodeHistoryStore, "record query", err)
	}
	return nil
}

func (s *Store) RecordClick(ctx context.Context, resultID string) error {
	if resultID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO result_clicks (result_id, count) VALUES (?, 1)
		ON CONFLICT (result_id) DO UPDATE SET count = count + 1`,
		resultID)
	if err != nil {
		return hberrors.New(hberrors.ErrCodeHistoryStore, "record click", err)
	}

	s.mu.Lock()
	s.cache.Remove(resultID)
	s.mu.Unlock()
	return nil
}

func (s *Store) RecentQueries(ctx context.Context, callerID, prefix string, limit int) ([]QueryStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, count FROM query_history
		WHERE caller_id = ? AND query LIKE ? ESCAPE '\'
		ORDER BY last_seen DESC
		LIMIT ?`,
		callerID, likePrefix(prefix), limit)
	if err != nil {
		return nil, hberrors.New(hberrors.ErrCodeHistoryStore, "recent queries", err)
	}
	defer rows.Close()
	return scanStats(rows)
}

func (s *Store) PopularQueries(ctx context.Context, prefix string, limit int) ([]QueryStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, SUM(count) AS total FROM query_history
		WHERE query LIKE ? ESCAPE '\'
		GROUP BY query
		ORDER BY total DESC, query ASC
		LIMIT ?`,
		likePrefix(prefix), limit)
	if err != nil {
		return nil, hberrors.New(hberrors.ErrCodeHistoryStore, "popular queries", err)
	}
	defer rows.Close()
	return scanStats(rows)
}

func (s *Store) Popularity(ctx context.Context, resultIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(resultIDs))
	var misses []string

	s.mu.Lock()
	for _, id := range resultIDs {
		if score, ok := s.cache.Get(id); ok {
			out[id] = score
		} else {
			misses = append(misses, id)
		}
	}
	s.mu.Unlock()

	if len(misses) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(misses)), ",")
	args := make([]any, len(misses))
	for i, id := range misses {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT result_id, count FROM result_clicks WHERE result_id IN (%s)`,
		placeholders), args...)
	if err != nil {
		return nil, hberrors.New(hberrors.ErrCodeHistoryStore, "popularity lookup", err)
	}
	defer rows.Close()

	clicks := make(map[string]int, len(misses))
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, hberrors.New(hberrors.ErrCodeHistoryStore, "popularity scan", err)
		}
		clicks[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, hberrors.New(hberrors.ErrCodeHistoryStore, "popularity rows", err)
	}

	s.mu.Lock()
	for _, id := range misses {
		score := popularityScore(clicks[id])
		out[id] = score
		s.cache.Add(id, score)
	}
	s.mu.Unlock()

	return out, nil
}

// popularityScore maps a raw click count to [0,1) with diminishing
// returns, so a handful of clicks cannot dominate relevance.
func popularityScore(clicks int) float64 {
	if clicks <= 0 {
		return 0
	}
	return float64(clicks) / (float64(clicks) + popularitySaturation)
}

// likePrefix builds a LIKE pattern matching the prefix literally.
func likePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	esc := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return esc + "%"
}

func scanStats(rows *sql.Rows) ([]QueryStat, error) {
	var stats []QueryStat
	for rows.Next() {
		var s QueryStat
		if err := rows.Scan(&s.Text, &s.Count); err != nil {
			return nil, hberrors.New(hberrors.ErrCodeHistoryStore, "scan query stat", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, hberrors.New(hberrors.ErrCodeHistoryStore, "query stats", err)
	}
	return stats, nil
}
