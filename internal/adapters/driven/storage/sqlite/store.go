package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// the campaign and run stores through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.campaign-rag/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".campaign-rag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CampaignStore returns a CampaignStore interface backed by this store.
func (s *Store) CampaignStore() driven.CampaignStore {
	return &campaignStore{store: s}
}

// IndexRunStore returns an IndexRunStore interface backed by this store.
func (s *Store) IndexRunStore() driven.IndexRunStore {
	return &indexRunStore{store: s}
}

// migrate runs all pending up migrations in version order and records each
// applied version.
func (s *Store) migrate(fsys fs.FS) error {
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
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
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
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Campaign Store ====================

// campaignStore implements driven.CampaignStore.
type campaignStore struct {
	store *Store
}

var _ driven.CampaignStore = (*campaignStore)(nil)

// Save stores or replaces campaigns by ID in a single transaction.
func (s *campaignStore) Save(ctx context.Context, campaigns []domain.Campaign) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO campaigns (id, title, description, terms, benefits, cleaned_text, url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			terms = excluded.terms,
			benefits = excluded.benefits,
			cleaned_text = excluded.cleaned_text,
			url = excluded.url,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range campaigns {
		if c.ID == "" {
			return fmt.Errorf("%w: campaign without id", domain.ErrInvalidInput)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Title, c.Description, c.Terms,
			c.Benefits, c.CleanedText, c.URL, now); err != nil {
			return fmt.Errorf("saving campaign %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a campaign by ID.
func (s *campaignStore) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, description, terms, benefits, cleaned_text, url
		FROM campaigns WHERE id = ?
	`, id)

	var c domain.Campaign
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Terms,
		&c.Benefits, &c.CleanedText, &c.URL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning campaign: %w", err)
	}
	return &c, nil
}

// List returns all campaigns ordered by ID.
func (s *campaignStore) List(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, description, terms, benefits, cleaned_text, url
		FROM campaigns ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []domain.Campaign{}
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Terms,
			&c.Benefits, &c.CleanedText, &c.URL); err != nil {
			return nil, fmt.Errorf("scanning campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating campaigns: %w", err)
	}
	return campaigns, nil
}

// Delete removes a campaign.
func (s *campaignStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM campaigns WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting campaign: %w", err)
	}
	return nil
}

// Count returns the number of stored campaigns.
func (s *campaignStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM campaigns").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting campaigns: %w", err)
	}
	return n, nil
}

// ==================== Index Run Store ====================

// indexRunStore implements driven.IndexRunStore.
type indexRunStore struct {
	store *Store
}

var _ driven.IndexRunStore = (*indexRunStore)(nil)

// Record stores or updates a run.
func (s *indexRunStore) Record(ctx context.Context, run domain.IndexRun) error {
	if run.ID == "" {
		return fmt.Errorf("%w: run without id", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO index_runs (id, version_name, strategy, campaign_count, chunk_count,
			status, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version_name = excluded.version_name,
			strategy = excluded.strategy,
			campaign_count = excluded.campaign_count,
			chunk_count = excluded.chunk_count,
			status = excluded.status,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`, run.ID, run.VersionName, string(run.Strategy), run.CampaignCount, run.ChunkCount,
		string(run.Status), run.Error, run.StartedAt.UTC(), nullTime(run.CompletedAt))
	if err != nil {
		return fmt.Errorf("saving index run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. Zero limit returns all.
func (s *indexRunStore) List(ctx context.Context, limit int) ([]domain.IndexRun, error) {
	query := `
		SELECT id, version_name, strategy, campaign_count, chunk_count,
			status, error, started_at, completed_at
		FROM index_runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying index runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.IndexRun{}
	for rows.Next() {
		var run domain.IndexRun
		var strategy, status string
		var startedAt, completedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.VersionName, &strategy, &run.CampaignCount, &run.ChunkCount,
			&status, &run.Error, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning index run: %w", err)
		}
		run.Strategy = domain.ChunkingStrategy(strategy)
		run.Status = domain.IndexRunStatus(status)
		if startedAt.Valid {
			run.StartedAt = startedAt.Time
		}
		if completedAt.Valid {
			run.CompletedAt = completedAt.Time
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index runs: %w", err)
	}
	return runs, nil
}

// nullTime converts a zero time to NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
