package knowledge

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ppiankov/truthguard/internal/knowledge/migrations"
	"github.com/ppiankov/truthguard/internal/model"
)

// DatabaseFile is the SQLite file created inside the data directory
const DatabaseFile = "news_detector.db"

// SQLiteStore is the default knowledge store
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the store in dataDir.
// If dataDir is empty, defaults to ~/.truthguard/data.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".truthguard", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// migrate applies NNN_name.up.sql files newer than the recorded schema version
func (s *SQLiteStore) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// FindExactMatch checks known-true examples before known-false ones
func (s *SQLiteStore) FindExactMatch(ctx context.Context, text string) (model.KnowledgeMatch, error) {
	snippet := Snippet(text)
	if snippet == "" {
		return model.MatchNone, nil
	}

	for _, candidate := range []struct {
		table string
		match model.KnowledgeMatch
	}{
		{"known_true_news", model.MatchKnownTrue},
		{"known_false_news", model.MatchKnownFalse},
	} {
		var id int64
		err := s.db.QueryRowContext(ctx,
			"SELECT id FROM "+candidate.table+" WHERE instr(content, ?) > 0 LIMIT 1", snippet).Scan(&id)
		if err == nil {
			return candidate.match, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return model.MatchNone, fmt.Errorf("%w: query %s: %v", ErrStorageUnavailable, candidate.table, err)
		}
	}

	return model.MatchNone, nil
}

// DomainCredibility returns the stored rating for domain
func (s *SQLiteStore) DomainCredibility(ctx context.Context, domain string) (float64, bool, error) {
	if domain == "" {
		return 0, false, nil
	}

	var score float64
	err := s.db.QueryRowContext(ctx,
		"SELECT credibility_score FROM credibility_sources WHERE domain = ?", domain).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: query credibility: %v", ErrStorageUnavailable, err)
	}

	return score, true, nil
}

// AddExample stores a labelled article
func (s *SQLiteStore) AddExample(ctx context.Context, ex Example) error {
	if strings.TrimSpace(ex.Content) == "" {
		return fmt.Errorf("%w: example content is empty", model.ErrInvalidInput)
	}

	table := "known_false_news"
	if ex.IsTrue {
		table = "known_true_news"
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO "+table+" (title, content, source) VALUES (?, ?, ?)",
		ex.Title, ex.Content, ex.Source)
	if err != nil {
		return fmt.Errorf("insert example: %w", err)
	}
	return nil
}

// UpsertCredibility inserts or replaces a domain rating
func (s *SQLiteStore) UpsertCredibility(ctx context.Context, domain string, score float64) error {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return fmt.Errorf("%w: empty domain", model.ErrInvalidInput)
	}
	if err := ValidateScore(score); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credibility_sources (domain, credibility_score) VALUES (?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			credibility_score = excluded.credibility_score,
			date_updated = CURRENT_TIMESTAMP`,
		domain, score)
	if err != nil {
		return fmt.Errorf("upsert credibility: %w", err)
	}
	return nil
}

// RecordFeedback stores feedback keyed by content hash; repeats increment the count
func (s *SQLiteStore) RecordFeedback(ctx context.Context, fb Feedback) error {
	if strings.TrimSpace(fb.Content) == "" {
		return fmt.Errorf("%w: feedback content is empty", model.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_feedback (content_hash, user_verdict, system_verdict, confidence)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			feedback_count = feedback_count + 1,
			user_verdict = excluded.user_verdict,
			system_verdict = excluded.system_verdict,
			confidence = excluded.confidence`,
		ContentHash(fb.Content), fb.UserVerdict, fb.SystemVerdict, fb.Confidence)
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}

// FeedbackCount returns how many times feedback was given for content
func (s *SQLiteStore) FeedbackCount(ctx context.Context, content string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT feedback_count FROM user_feedback WHERE content_hash = ?", ContentHash(content)).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query feedback: %w", err)
	}
	return count, nil
}

// Stats counts rows in every knowledge table
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	for _, q := range []struct {
		table string
		dst   *int64
	}{
		{"known_true_news", &st.KnownTrue},
		{"known_false_news", &st.KnownFalse},
		{"credibility_sources", &st.Domains},
		{"user_feedback", &st.Feedback},
	} {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return st, nil
}
