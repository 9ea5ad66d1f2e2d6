package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	internalErrors "github.com/gcbaptista/pubsearch/internal/errors"
	"github.com/gcbaptista/pubsearch/model"
	"github.com/gcbaptista/pubsearch/services"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the SQL-backed publication store. It holds the crawled
// publication records and crawl history that the in-memory index is built
// from.
type Store struct {
	db     *sql.DB
	driver string
}

var _ services.PublicationStore = (*Store)(nil)

// Open connects to the configured database and ensures the schema exists.
// For SQLite the DSN is a file path and the parent directory is created;
// WAL mode and a busy timeout are applied unless the DSN already carries
// options.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if !strings.Contains(dsn, "?") && !strings.HasPrefix(dsn, ":memory:") {
			if dir := filepath.Dir(dsn); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return nil, fmt.Errorf("creating data directory: %w", err)
				}
			}
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == DriverSQLite {
		// modernc sqlite allows one writer; a single pooled connection
		// avoids SQLITE_BUSY between the crawler and the API
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: driver}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS publications (
			id %s,
			title TEXT NOT NULL,
			authors TEXT NOT NULL DEFAULT '',
			year TEXT NOT NULL DEFAULT '',
			abstract TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '',
			publication_link TEXT NOT NULL UNIQUE,
			profile_link TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, idColumn),
		`CREATE INDEX IF NOT EXISTS idx_publications_year ON publications (year)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS crawl_logs (
			id %s,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP,
			documents_added INTEGER NOT NULL DEFAULT 0,
			profiles_crawled INTEGER NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT ''
		)`, idColumn),
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind converts ?-style placeholders to the $N form PostgreSQL expects.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UpsertPublication inserts the publication or, when a record with the same
// publication link exists, updates it in place. The link is the crawl's
// stable identity for a publication. On return pub carries the stored ID
// and timestamps; created reports whether a new row was inserted.
func (s *Store) UpsertPublication(ctx context.Context, pub *model.Publication) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var id int64
	var createdAt time.Time
	err = tx.QueryRowContext(ctx,
		s.rebind(`SELECT id, created_at FROM publications WHERE publication_link = ?`),
		pub.PublicationLink,
	).Scan(&id, &createdAt)

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		pub.CreatedAt = now
		pub.UpdatedAt = now
		err = tx.QueryRowContext(ctx, s.rebind(`
			INSERT INTO publications
				(title, authors, year, abstract, keywords, publication_link, profile_link, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`), pub.Title, pub.Authors, pub.Year, pub.Abstract, pub.Keywords,
			pub.PublicationLink, pub.ProfileLink, pub.CreatedAt, pub.UpdatedAt,
		).Scan(&pub.ID)
		if err != nil {
			return false, fmt.Errorf("inserting publication: %w", err)
		}
		created = true
	case err != nil:
		return false, fmt.Errorf("looking up publication: %w", err)
	default:
		pub.ID = id
		pub.CreatedAt = createdAt
		pub.UpdatedAt = now
		_, err = tx.ExecContext(ctx, s.rebind(`
			UPDATE publications
			SET title = ?, authors = ?, year = ?, abstract = ?, keywords = ?, profile_link = ?, updated_at = ?
			WHERE id = ?
		`), pub.Title, pub.Authors, pub.Year, pub.Abstract, pub.Keywords,
			pub.ProfileLink, pub.UpdatedAt, pub.ID)
		if err != nil {
			return false, fmt.Errorf("updating publication: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return created, nil
}

const publicationColumns = `id, title, authors, year, abstract, keywords, publication_link, profile_link, created_at, updated_at`

// GetPublication retrieves a publication by its numeric ID.
func (s *Store) GetPublication(ctx context.Context, id int64) (*model.Publication, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+publicationColumns+` FROM publications WHERE id = ?`), id)

	pub, err := scanPublication(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, internalErrors.NewPublicationNotFoundError(fmt.Sprintf("pub_%d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("scanning publication: %w", err)
	}
	return pub, nil
}

// HasPublicationLink reports whether a publication with the given link is
// already stored. The crawler uses this to skip pages it has seen.
func (s *Store) HasPublicationLink(ctx context.Context, link string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*) FROM publications WHERE publication_link = ?`), link,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking publication link: %w", err)
	}
	return count > 0, nil
}

// ListPublications returns a page of publications ordered by newest first.
func (s *Store) ListPublications(ctx context.Context, offset, limit int) ([]model.Publication, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+publicationColumns+`
		FROM publications
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	return collectPublications(rows)
}

// AllPublications returns every stored publication, oldest first, for index
// rebuilds.
func (s *Store) AllPublications(ctx context.Context) ([]model.Publication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+publicationColumns+` FROM publications ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	return collectPublications(rows)
}

// RecentPublications returns the most recently added publications.
func (s *Store) RecentPublications(ctx context.Context, limit int) ([]model.Publication, error) {
	return s.ListPublications(ctx, 0, limit)
}

// CountPublications returns the total number of stored publications.
func (s *Store) CountPublications(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM publications`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting publications: %w", err)
	}
	return count, nil
}

// YearDistribution returns publication counts grouped by year, most common
// years first.
func (s *Store) YearDistribution(ctx context.Context, limit int) ([]model.YearCount, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT year, COUNT(*) AS count
		FROM publications
		GROUP BY year
		ORDER BY count DESC, year DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("querying year distribution: %w", err)
	}
	defer rows.Close()

	var counts []model.YearCount
	for rows.Next() {
		var yc model.YearCount
		if err := rows.Scan(&yc.Year, &yc.Count); err != nil {
			return nil, fmt.Errorf("scanning year count: %w", err)
		}
		counts = append(counts, yc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating year counts: %w", err)
	}
	return counts, nil
}

// CreateCrawlLog opens a new crawl log entry in the running state.
func (s *Store) CreateCrawlLog(ctx context.Context) (*model.CrawlLog, error) {
	log := &model.CrawlLog{
		Status:    model.CrawlStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO crawl_logs (status, started_at, documents_added, profiles_crawled, error_message)
		VALUES (?, ?, 0, 0, '')
		RETURNING id
	`), string(log.Status), log.StartedAt).Scan(&log.ID)
	if err != nil {
		return nil, fmt.Errorf("creating crawl log: %w", err)
	}
	return log, nil
}

// FinishCrawlLog writes the crawl's final status and counters back to its
// log entry.
func (s *Store) FinishCrawlLog(ctx context.Context, log *model.CrawlLog) error {
	var endedAt any
	if log.EndedAt != nil {
		endedAt = *log.EndedAt
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE crawl_logs
		SET status = ?, ended_at = ?, documents_added = ?, profiles_crawled = ?, error_message = ?
		WHERE id = ?
	`), string(log.Status), endedAt, log.DocumentsAdded, log.ProfilesCrawled, log.ErrorMessage, log.ID)
	if err != nil {
		return fmt.Errorf("finishing crawl log: %w", err)
	}
	return nil
}

// RecentCrawlLogs returns the most recent crawl log entries, newest first.
func (s *Store) RecentCrawlLogs(ctx context.Context, limit int) ([]model.CrawlLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, status, started_at, ended_at, documents_added, profiles_crawled, error_message
		FROM crawl_logs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("querying crawl logs: %w", err)
	}
	defer rows.Close()

	var logs []model.CrawlLog
	for rows.Next() {
		var log model.CrawlLog
		var status string
		var endedAt sql.NullTime
		if err := rows.Scan(&log.ID, &status, &log.StartedAt, &endedAt,
			&log.DocumentsAdded, &log.ProfilesCrawled, &log.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning crawl log: %w", err)
		}
		log.Status = model.CrawlStatus(status)
		if endedAt.Valid {
			log.EndedAt = &endedAt.Time
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating crawl logs: %w", err)
	}
	return logs, nil
}

func scanPublication(scan func(dest ...any) error) (*model.Publication, error) {
	var pub model.Publication
	if err := scan(&pub.ID, &pub.Title, &pub.Authors, &pub.Year, &pub.Abstract,
		&pub.Keywords, &pub.PublicationLink, &pub.ProfileLink,
		&pub.CreatedAt, &pub.UpdatedAt); err != nil {
		return nil, err
	}
	return &pub, nil
}

func collectPublications(rows *sql.Rows) ([]model.Publication, error) {
	var pubs []model.Publication
	for rows.Next() {
		pub, err := scanPublication(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning publication: %w", err)
		}
		pubs = append(pubs, *pub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating publications: %w", err)
	}
	return pubs, nil
}
