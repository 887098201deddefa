// Package memory implements solvy's persistent semantic memory.
//
// Records live in SQLite with an FTS5 index over their context and request
// text. A query first gathers a candidate pool by full-text match and then,
// when an embedder is configured, reranks the pool by cosine similarity.
// Records are partitioned into domains: past solutions and the two kinds
// of resources.
package memory

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/solvy/internal/embedding"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level var for testability.
var timeNow = time.Now

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("memory: record not found")

// ─── Types ───────────────────────────────────────────────────────────────────

// Domain partitions records by what they hold.
type Domain string

const (
	DomainSolutions     Domain = "solutions"
	DomainTextResources Domain = "resources_text"
	DomainCodeResources Domain = "resources_code"
)

var validDomains = map[Domain]bool{
	DomainSolutions:     true,
	DomainTextResources: true,
	DomainCodeResources: true,
}

// Domains returns every domain in display order.
func Domains() []Domain {
	return []Domain{DomainSolutions, DomainTextResources, DomainCodeResources}
}

// ValidateDomain returns an error if d is not a known domain.
func ValidateDomain(d Domain) error {
	if !validDomains[d] {
		return fmt.Errorf("memory: invalid domain %q: must be one of: solutions, resources_text, resources_code", d)
	}
	return nil
}

// Record is one stored memory entry. Context and Request are indexed for
// search; Body is an opaque JSON payload owned by the caller.
type Record struct {
	ID        string    `json:"id"`
	Domain    Domain    `json:"domain"`
	Context   string    `json:"context"`
	Request   string    `json:"request"`
	Body      string    `json:"body"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt string    `json:"created_at"`
}

// Hit is a Record with its query score. Higher is better.
type Hit struct {
	Record
	Score float64 `json:"score"`
}

// DomainCount is a per-domain record count.
type DomainCount struct {
	Domain Domain `json:"domain"`
	Count  int    `json:"count"`
}

// Stats holds aggregate memory statistics.
type Stats struct {
	TotalRecords    int           `json:"total_records"`
	EmbeddedRecords int           `json:"embedded_records"`
	Domains         []DomainCount `json:"domains"`
	Embedder        string        `json:"embedder,omitempty"`
}

// ExportData is the full serializable dump of the memory database.
type ExportData struct {
	Version    string   `json:"version"`
	ExportedAt string   `json:"exported_at"`
	Records    []Record `json:"records"`
}

// ImportResult holds counts of imported records.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds memory store configuration.
type Config struct {
	DataDir          string
	MaxContentLength int
	MaxSearchResults int
	CandidatePool    int
}

// DefaultConfig returns the default configuration for the memory store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".solvy"),
		MaxContentLength: 20000,
		MaxSearchResults: 20,
		CandidatePool:    25,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent memory engine backed by SQLite + FTS5.
type Store struct {
	db       *sql.DB
	cfg      Config
	hooks    storeHooks
	embedder embedding.Embedder
	logger   *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithEmbedder enables embedding-based reranking. A nil embedder is ignored.
func WithEmbedder(e embedding.Embedder) Option {
	return func(s *Store) { s.embedder = e }
}

// WithLogger sets the logger used for degraded operations.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

type storeHooks struct {
	exec  func(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error)
	query func(ctx context.Context, db *sql.DB, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execHook(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(ctx, s.db, query, args...)
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Store) queryHook(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.hooks.query != nil {
		return s.hooks.query(ctx, s.db, query, args...)
	}
	return s.db.QueryContext(ctx, query, args...)
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config, opts ...Option) (*Store, error) {
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 20
	}
	if cfg.CandidatePool <= 0 {
		cfg.CandidatePool = 25
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "memory.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT    NOT NULL UNIQUE,
			domain     TEXT    NOT NULL,
			context    TEXT    NOT NULL,
			request    TEXT    NOT NULL,
			body       TEXT    NOT NULL,
			embedding  BLOB,
			created_at TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_domain  ON records(domain);
		CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			context,
			request,
			content='records',
			content_rowid='seq'
		);

		CREATE TRIGGER IF NOT EXISTS records_fts_insert AFTER INSERT ON records BEGIN
			INSERT INTO records_fts(rowid, context, request)
			VALUES (new.seq, new.context, new.request);
		END;

		CREATE TRIGGER IF NOT EXISTS records_fts_delete AFTER DELETE ON records BEGIN
			INSERT INTO records_fts(records_fts, rowid, context, request)
			VALUES ('delete', old.seq, old.context, old.request);
		END;
	`
	_, err := s.execHook(ctx, schema)
	return err
}

// ─── Records ─────────────────────────────────────────────────────────────────

// Add persists rec and returns its id. A missing id is generated. When an
// embedder is configured the record is embedded first; an embedding
// failure is logged and the record is stored without a vector.
func (s *Store) Add(ctx context.Context, rec Record) (string, error) {
	if err := ValidateDomain(rec.Domain); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = timeNow().UTC().Format(time.RFC3339Nano)
	}
	rec.Context = s.clip(rec.Context)
	rec.Request = s.clip(rec.Request)

	if rec.Embedding == nil && s.embedder != nil {
		vecs, err := s.embedder.Embed(ctx, []string{queryText(rec.Context, rec.Request)})
		if err != nil {
			s.logger.Warn("embedding failed; storing without vector",
				zap.String("domain", string(rec.Domain)), zap.Error(err))
		} else if len(vecs) == 1 {
			rec.Embedding = vecs[0]
		}
	}

	_, err := s.execHook(ctx,
		`INSERT INTO records (id, domain, context, request, body, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Domain), rec.Context, rec.Request, rec.Body, encodeVector(rec.Embedding), rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("memory: add: %w", err)
	}
	return rec.ID, nil
}

// Get returns the record with id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	recs, err := s.scanRecords(ctx, `
		SELECT id, domain, context, request, body, embedding, created_at, 0
		FROM records WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return &recs[0].Record, nil
}

// Delete removes the record with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.execHook(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("memory: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Query ───────────────────────────────────────────────────────────────────

// Query returns up to k records of domain ranked by relevance to the given
// context and request. Full-text matching selects a candidate pool; the
// pool is reranked by embedding similarity when vectors are available. An
// empty query falls back to the most recent records.
func (s *Store) Query(ctx context.Context, domain Domain, queryContext, request string, k int) ([]Hit, error) {
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 3
	}
	if k > s.cfg.MaxSearchResults {
		k = s.cfg.MaxSearchResults
	}

	ftsQuery := sanitizeFTS(queryText(queryContext, request))
	if ftsQuery == "" {
		return s.Recent(ctx, domain, k)
	}

	pool := max(s.cfg.CandidatePool, k)
	hits, err := s.scanRecords(ctx, `
		SELECT r.id, r.domain, r.context, r.request, r.body, r.embedding, r.created_at,
		       -bm25(records_fts)
		FROM records_fts
		JOIN records r ON r.seq = records_fts.rowid
		WHERE records_fts MATCH ? AND r.domain = ?
		ORDER BY bm25(records_fts)
		LIMIT ?`, ftsQuery, string(domain), pool)
	if err != nil {
		return nil, fmt.Errorf("memory: query: %w", err)
	}

	hits = s.rerank(ctx, queryText(queryContext, request), hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Recent returns the most recent records of domain, newest first.
func (s *Store) Recent(ctx context.Context, domain Domain, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	args := []any{}
	q := `SELECT id, domain, context, request, body, embedding, created_at, 0 FROM records`
	if domain != "" {
		q += ` WHERE domain = ?`
		args = append(args, string(domain))
	}
	q += ` ORDER BY created_at DESC, seq DESC LIMIT ?`
	args = append(args, limit)

	hits, err := s.scanRecords(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: recent: %w", err)
	}
	return hits, nil
}

// rerank orders hits by cosine similarity to text when every hit carries a
// vector. Otherwise the full-text order is kept.
func (s *Store) rerank(ctx context.Context, text string, hits []Hit) []Hit {
	if s.embedder == nil || len(hits) < 2 {
		return hits
	}
	for _, h := range hits {
		if len(h.Embedding) == 0 {
			return hits
		}
	}
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil || len(vecs) != 1 {
		s.logger.Warn("query embedding failed; keeping full-text order", zap.Error(err))
		return hits
	}
	for i := range hits {
		hits[i].Score = embedding.Cosine(vecs[0], hits[i].Embedding)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

func (s *Store) scanRecords(ctx context.Context, query string, args ...any) ([]Hit, error) {
	rows, err := s.queryHook(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Hit
	for rows.Next() {
		var h Hit
		var domain string
		var vec []byte
		if err := rows.Scan(&h.ID, &domain, &h.Context, &h.Request, &h.Body, &vec, &h.CreatedAt, &h.Score); err != nil {
			return nil, err
		}
		h.Domain = Domain(domain)
		h.Embedding = decodeVector(vec)
		out = append(out, h)
	}
	return out, rows.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate memory statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if s.embedder != nil {
		stats.Embedder = s.embedder.Name()
	}

	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&stats.TotalRecords)
	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE embedding IS NOT NULL").Scan(&stats.EmbeddedRecords)

	counts := map[Domain]int{}
	rows, err := s.queryHook(ctx, "SELECT domain, COUNT(*) FROM records GROUP BY domain")
	if err != nil {
		return nil, fmt.Errorf("memory: stats: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var d string
		var n int
		if err := rows.Scan(&d, &n); err == nil {
			counts[Domain(d)] = n
		}
	}
	for _, d := range Domains() {
		stats.Domains = append(stats.Domains, DomainCount{Domain: d, Count: counts[d]})
	}
	return stats, rows.Err()
}

// ─── Export / Import ─────────────────────────────────────────────────────────

// Export dumps every record, oldest first.
func (s *Store) Export(ctx context.Context) (*ExportData, error) {
	hits, err := s.scanRecords(ctx, `
		SELECT id, domain, context, request, body, embedding, created_at, 0
		FROM records ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("memory: export: %w", err)
	}
	data := &ExportData{
		Version:    "1",
		ExportedAt: timeNow().UTC().Format(time.RFC3339),
		Records:    make([]Record, 0, len(hits)),
	}
	for _, h := range hits {
		data.Records = append(data.Records, h.Record)
	}
	return data, nil
}

// Import loads exported records in one transaction. Records whose id
// already exists are skipped.
func (s *Store) Import(ctx context.Context, data *ExportData) (*ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("memory: import: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res := &ImportResult{}
	for _, r := range data.Records {
		if err := ValidateDomain(r.Domain); err != nil {
			return nil, fmt.Errorf("memory: import record %s: %w", r.ID, err)
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt == "" {
			r.CreatedAt = timeNow().UTC().Format(time.RFC3339Nano)
		}
		out, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO records (id, domain, context, request, body, embedding, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, string(r.Domain), r.Context, r.Request, r.Body, encodeVector(r.Embedding), r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("memory: import record %s: %w", r.ID, err)
		}
		if n, _ := out.RowsAffected(); n == 0 {
			res.Skipped++
		} else {
			res.Imported++
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("memory: import: commit: %w", err)
	}
	return res, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Store) clip(text string) string {
	if s.cfg.MaxContentLength > 0 && len(text) > s.cfg.MaxContentLength {
		return cutAtRune(text, s.cfg.MaxContentLength) + "... [truncated]"
	}
	return text
}

func queryText(queryContext, request string) string {
	return strings.TrimSpace(queryContext + "\n" + request)
}

// sanitizeFTS turns free text into an FTS5 OR-query of quoted terms so
// that any shared word makes a record a candidate. Very short words and
// duplicates are dropped.
func sanitizeFTS(query string) string {
	seen := map[string]bool{}
	var terms []string
	for _, w := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	}) {
		if len(w) < 2 || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}

// Truncate shortens a string to max length with ellipsis.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return cutAtRune(s, max) + "..."
}

// cutAtRune returns at most n bytes of s without splitting a rune.
func cutAtRune(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
