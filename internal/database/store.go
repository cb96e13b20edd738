package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gramflow/gramflow/internal/model"
)

// ErrInvalidTransition is returned when a job status update violates the
// pending → in_progress → {completed, failed} state machine.
var ErrInvalidTransition = errors.New("invalid job status transition")

// Store provides SQLite-backed storage for the follow graph and the
// crawl job queue. It manages connection pooling and provides methods
// for all CRUD operations the pipeline needs.
//
// Design decision: The graph and job namespaces share one database file
// but are exposed as separate method groups. Splitting them across two
// files would complicate the completed-following-but-unclassified query
// without buying anything.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "gramflow.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; the pipeline is single-threaded
	// anyway, so one connection is enough.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Accounts: created on first sighting, never deleted
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		full_name TEXT DEFAULT '',
		bio TEXT DEFAULT '',
		profile_pic_url TEXT DEFAULT '',
		follower_count INTEGER DEFAULT 0,
		following_count INTEGER DEFAULT 0,
		is_private INTEGER DEFAULT 0,
		last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

	-- Follower edges: other account follows the target
	CREATE TABLE IF NOT EXISTS followers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(user_id),
		follower_id TEXT NOT NULL REFERENCES users(user_id),
		follow_date DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, follower_id)
	);

	CREATE INDEX IF NOT EXISTS idx_followers_user ON followers(user_id);

	-- Following edges: the target follows another account
	CREATE TABLE IF NOT EXISTS following (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(user_id),
		following_id TEXT NOT NULL REFERENCES users(user_id),
		follow_date DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, following_id)
	);

	CREATE INDEX IF NOT EXISTS idx_following_user ON following(user_id);

	-- Mutual edges: derived, append-only
	CREATE TABLE IF NOT EXISTS mutuals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(user_id),
		mutual_id TEXT NOT NULL REFERENCES users(user_id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, mutual_id)
	);

	-- Interest taxonomy: seeded once at startup, two-level tree
	CREATE TABLE IF NOT EXISTS interest_categories (
		category_id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_name TEXT NOT NULL UNIQUE,
		parent_category_id INTEGER REFERENCES interest_categories(category_id),
		description TEXT DEFAULT ''
	);

	-- Classification scores: one row per (account, category), last write wins
	CREATE TABLE IF NOT EXISTS interests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(user_id),
		category_id INTEGER NOT NULL REFERENCES interest_categories(category_id),
		confidence_score REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, category_id)
	);

	CREATE INDEX IF NOT EXISTS idx_interests_user ON interests(user_id);

	-- Crawl job queue
	CREATE TABLE IF NOT EXISTS scrape_jobs (
		job_id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_username TEXT NOT NULL,
		job_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		started_at DATETIME,
		completed_at DATETIME,
		last_cursor TEXT,
		total_items INTEGER,
		processed_items INTEGER DEFAULT 0,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON scrape_jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_target ON scrape_jobs(target_username);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertProfile inserts or fully overwrites an account from a profile
// snapshot. Every attribute is replaced and last_updated is refreshed.
func (s *Store) UpsertProfile(ctx context.Context, p *model.Profile) error {
	query := `
	INSERT INTO users (user_id, username, full_name, bio, profile_pic_url, follower_count, following_count, is_private)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		full_name = excluded.full_name,
		bio = excluded.bio,
		profile_pic_url = excluded.profile_pic_url,
		follower_count = excluded.follower_count,
		following_count = excluded.following_count,
		is_private = excluded.is_private,
		last_updated = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Username,
		p.FullName,
		p.Bio,
		p.ProfilePicURL,
		p.FollowerCount,
		p.FollowingCount,
		boolToInt(p.IsPrivate),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// UpsertAccountRef inserts a minimal account record from a listing
// entry. Insert-if-absent: an existing row, possibly holding richer
// data from an earlier full profile fetch, is left untouched.
func (s *Store) UpsertAccountRef(ctx context.Context, ref *model.AccountRef) error {
	query := `
	INSERT INTO users (user_id, username, full_name, profile_pic_url, is_private)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		ref.ID,
		ref.Username,
		ref.FullName,
		ref.ProfilePicURL,
		boolToInt(ref.IsPrivate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// accountColumns is the SELECT list shared by the account readers.
const accountColumns = `user_id, username, full_name, bio, profile_pic_url, follower_count, following_count, is_private, last_updated`

// GetAccount retrieves an account by its stable ID.
// Returns (nil, nil) if the account is unknown.
func (s *Store) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return s.getAccount(ctx, `SELECT `+accountColumns+` FROM users WHERE user_id = ?`, id)
}

// GetAccountByUsername retrieves an account by its current handle.
// Returns (nil, nil) if no account carries the handle.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	return s.getAccount(ctx, `SELECT `+accountColumns+` FROM users WHERE username = ?`, username)
}

func (s *Store) getAccount(ctx context.Context, query string, arg any) (*model.Account, error) {
	var a model.Account
	var isPrivate int
	var lastUpdated string

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID,
		&a.Username,
		&a.FullName,
		&a.Bio,
		&a.ProfilePicURL,
		&a.FollowerCount,
		&a.FollowingCount,
		&isPrivate,
		&lastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	a.IsPrivate = isPrivate != 0
	a.LastUpdated = parseTimestamp(lastUpdated)
	return &a, nil
}

// InsertFollowEdge records that otherID is a follower of accountID
// (DirectionFollower) or that accountID follows otherID
// (DirectionFollowing). Duplicate inserts are no-ops.
func (s *Store) InsertFollowEdge(ctx context.Context, accountID, otherID string, dir model.EdgeDirection) error {
	var query string
	switch dir {
	case model.DirectionFollower:
		query = `INSERT INTO followers (user_id, follower_id) VALUES (?, ?) ON CONFLICT(user_id, follower_id) DO NOTHING`
	case model.DirectionFollowing:
		query = `INSERT INTO following (user_id, following_id) VALUES (?, ?) ON CONFLICT(user_id, following_id) DO NOTHING`
	default:
		return fmt.Errorf("unknown edge direction %q", dir)
	}

	if _, err := s.db.ExecContext(ctx, query, accountID, otherID); err != nil {
		return fmt.Errorf("failed to insert %s edge: %w", dir, err)
	}
	return nil
}

// FollowerIDs returns the IDs of accounts following accountID.
func (s *Store) FollowerIDs(ctx context.Context, accountID string) ([]string, error) {
	return s.idColumn(ctx, `SELECT follower_id FROM followers WHERE user_id = ? ORDER BY id`, accountID)
}

// FollowingIDs returns the IDs of accounts accountID follows.
func (s *Store) FollowingIDs(ctx context.Context, accountID string) ([]string, error) {
	return s.idColumn(ctx, `SELECT following_id FROM following WHERE user_id = ? ORDER BY id`, accountID)
}

// MutualIDs returns the IDs of accountID's derived mutual connections.
func (s *Store) MutualIDs(ctx context.Context, accountID string) ([]string, error) {
	return s.idColumn(ctx, `SELECT mutual_id FROM mutuals WHERE user_id = ? ORDER BY id`, accountID)
}

func (s *Store) idColumn(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertMutualEdge records a derived mutual connection. Returns true if
// a new row was inserted, false if the pair was already present.
func (s *Store) InsertMutualEdge(ctx context.Context, accountID, mutualID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO mutuals (user_id, mutual_id) VALUES (?, ?) ON CONFLICT(user_id, mutual_id) DO NOTHING`,
		accountID, mutualID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert mutual edge: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// TaxonomyEntry is one category to seed, with its parent referenced by
// name. Top-level entries have an empty ParentName.
type TaxonomyEntry struct {
	Name        string
	ParentName  string
	Description string
}

// SeedTaxonomy inserts the interest taxonomy. Existing categories keep
// their IDs; descriptions are refreshed. Entries must be ordered so a
// parent appears before its subcategories.
func (s *Store) SeedTaxonomy(ctx context.Context, entries []TaxonomyEntry) error {
	for _, e := range entries {
		var parentID any
		if e.ParentName != "" {
			var id int64
			err := s.db.QueryRowContext(ctx,
				`SELECT category_id FROM interest_categories WHERE category_name = ?`, e.ParentName,
			).Scan(&id)
			if err == sql.ErrNoRows {
				return fmt.Errorf("parent category %q not seeded before %q", e.ParentName, e.Name)
			}
			if err != nil {
				return fmt.Errorf("failed to look up parent category: %w", err)
			}
			parentID = id
		}

		_, err := s.db.ExecContext(ctx, `
		INSERT INTO interest_categories (category_name, parent_category_id, description)
		VALUES (?, ?, ?)
		ON CONFLICT(category_name) DO UPDATE SET description = excluded.description
		`, e.Name, parentID, e.Description)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", e.Name, err)
		}
	}
	return nil
}

// Categories returns the full taxonomy ordered by ID.
func (s *Store) Categories(ctx context.Context) ([]model.InterestCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id, category_name, parent_category_id, description FROM interest_categories ORDER BY category_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var cats []model.InterestCategory
	for rows.Next() {
		var c model.InterestCategory
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &parent, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if parent.Valid {
			c.ParentID = parent.Int64
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CategoryIDs returns the name to ID mapping for the seeded taxonomy.
// Lookups against this map are case-sensitive.
func (s *Store) CategoryIDs(ctx context.Context) (map[string]int64, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(cats))
	for _, c := range cats {
		ids[c.Name] = c.ID
	}
	return ids, nil
}

// UpsertInterestScore stores a classification score with last-write-wins
// semantics: a later write unconditionally replaces the confidence and
// timestamp for the (account, category) pair.
func (s *Store) UpsertInterestScore(ctx context.Context, accountID string, categoryID int64, confidence float64) error {
	query := `
	INSERT INTO interests (user_id, category_id, confidence_score)
	VALUES (?, ?, ?)
	ON CONFLICT(user_id, category_id) DO UPDATE SET
		confidence_score = excluded.confidence_score,
		created_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, accountID, categoryID, confidence); err != nil {
		return fmt.Errorf("failed to upsert interest score: %w", err)
	}
	return nil
}

// InterestScores returns all classification scores for an account.
func (s *Store) InterestScores(ctx context.Context, accountID string) ([]model.InterestScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, category_id, confidence_score, created_at FROM interests WHERE user_id = ? ORDER BY category_id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query interest scores: %w", err)
	}
	defer rows.Close()

	var scores []model.InterestScore
	for rows.Next() {
		var sc model.InterestScore
		var created string
		if err := rows.Scan(&sc.AccountID, &sc.CategoryID, &sc.Confidence, &created); err != nil {
			return nil, fmt.Errorf("failed to scan interest score: %w", err)
		}
		sc.CreatedAt = parseTimestamp(created)
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// FollowingAccounts returns the accounts that accountID follows, with
// whatever attributes the store holds for them. These are the subjects
// of interest classification.
func (s *Store) FollowingAccounts(ctx context.Context, accountID string) ([]model.Account, error) {
	query := `
	SELECT u.user_id, u.username, u.full_name, u.bio, u.profile_pic_url,
	       u.follower_count, u.following_count, u.is_private, u.last_updated
	FROM following f
	JOIN users u ON f.following_id = u.user_id
	WHERE f.user_id = ?
	ORDER BY f.id
	`
	return s.queryAccounts(ctx, query, accountID)
}

// AccountsPendingClassification returns up to limit accounts that have a
// completed following crawl job but none of whose followed accounts
// carry an interest score yet. Scores are keyed by the followed subject,
// so an account leaves this backlog once its following set has been
// classified.
func (s *Store) AccountsPendingClassification(ctx context.Context, limit int) ([]model.Account, error) {
	query := `
	SELECT DISTINCT u.user_id, u.username, u.full_name, u.bio, u.profile_pic_url,
	       u.follower_count, u.following_count, u.is_private, u.last_updated
	FROM users u
	JOIN scrape_jobs sj ON u.username = sj.target_username
		AND sj.job_type = 'following' AND sj.status = 'completed'
	WHERE NOT EXISTS (
		SELECT 1 FROM following f
		JOIN interests i ON f.following_id = i.user_id
		WHERE f.user_id = u.user_id
	)
	ORDER BY u.user_id
	LIMIT ?
	`
	return s.queryAccounts(ctx, query, limit)
}

func (s *Store) queryAccounts(ctx context.Context, query string, args ...any) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		var isPrivate int
		var lastUpdated string
		if err := rows.Scan(
			&a.ID, &a.Username, &a.FullName, &a.Bio, &a.ProfilePicURL,
			&a.FollowerCount, &a.FollowingCount, &isPrivate, &lastUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.IsPrivate = isPrivate != 0
		a.LastUpdated = parseTimestamp(lastUpdated)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// CreateJob enqueues a new pending crawl job and returns its ID.
func (s *Store) CreateJob(ctx context.Context, targetUsername string, jobType model.JobType) (int64, error) {
	if !jobType.Valid() {
		return 0, fmt.Errorf("unknown job type %q", jobType)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO scrape_jobs (target_username, job_type, status) VALUES (?, ?, 'pending')`,
		targetUsername, jobType,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create job: %w", err)
	}
	return result.LastInsertId()
}

// GetJob retrieves a crawl job by ID. Returns (nil, nil) if unknown.
func (s *Store) GetJob(ctx context.Context, jobID int64) (*model.CrawlJob, error) {
	query := `
	SELECT job_id, target_username, job_type, status, started_at, completed_at,
	       last_cursor, total_items, processed_items, error_message
	FROM scrape_jobs
	WHERE job_id = ?
	`

	var j model.CrawlJob
	var startedAt, completedAt, cursor, errMsg sql.NullString
	var totalItems sql.NullInt64

	err := s.db.QueryRowContext(ctx, query, jobID).Scan(
		&j.ID,
		&j.TargetUsername,
		&j.Type,
		&j.Status,
		&startedAt,
		&completedAt,
		&cursor,
		&totalItems,
		&j.ProcessedItems,
		&errMsg,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if startedAt.Valid {
		j.StartedAt = parseTimestamp(startedAt.String)
	}
	if completedAt.Valid {
		j.CompletedAt = parseTimestamp(completedAt.String)
	}
	j.Cursor = cursor.String
	if totalItems.Valid {
		j.TotalItems = int(totalItems.Int64)
	}
	j.ErrorMessage = errMsg.String
	return &j, nil
}

// StartJob transitions a pending job to in_progress and stamps
// started_at. Returns ErrInvalidTransition if the job is not pending.
func (s *Store) StartJob(ctx context.Context, jobID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE scrape_jobs SET status = 'in_progress', started_at = CURRENT_TIMESTAMP WHERE job_id = ? AND status = 'pending'`,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to start job: %w", err)
	}
	return requireTransition(result)
}

// UpdateJobProgress checkpoints the running item count and pagination
// cursor of an in_progress job.
func (s *Store) UpdateJobProgress(ctx context.Context, jobID int64, processed int, cursor string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scrape_jobs SET processed_items = ?, last_cursor = ? WHERE job_id = ? AND status = 'in_progress'`,
		processed, cursor, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// CompleteJob transitions an in_progress job to completed, setting
// completed_at and total_items = processed_items = total.
// Returns ErrInvalidTransition if the job is not in_progress.
func (s *Store) CompleteJob(ctx context.Context, jobID int64, total int) error {
	result, err := s.db.ExecContext(ctx, `
	UPDATE scrape_jobs
	SET status = 'completed', completed_at = CURRENT_TIMESTAMP, total_items = ?, processed_items = ?
	WHERE job_id = ? AND status = 'in_progress'
	`, total, total, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return requireTransition(result)
}

// FailJob marks a job failed with the given message. Permitted from
// pending and in_progress; a job already in a terminal state is left
// untouched so the first recorded failure survives.
func (s *Store) FailJob(ctx context.Context, jobID int64, message string) error {
	_, err := s.db.ExecContext(ctx, `
	UPDATE scrape_jobs
	SET status = 'failed', completed_at = CURRENT_TIMESTAMP, error_message = ?
	WHERE job_id = ? AND status IN ('pending', 'in_progress')
	`, message, jobID)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	return nil
}

// PendingJobs returns up to limit pending jobs in creation (FIFO) order.
func (s *Store) PendingJobs(ctx context.Context, limit int) ([]model.CrawlJob, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT job_id, target_username, job_type, processed_items
	FROM scrape_jobs
	WHERE status = 'pending'
	ORDER BY job_id
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.CrawlJob
	for rows.Next() {
		j := model.CrawlJob{Status: model.StatusPending}
		if err := rows.Scan(&j.ID, &j.TargetUsername, &j.Type, &j.ProcessedItems); err != nil {
			return nil, fmt.Errorf("failed to scan pending job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// HasRecentJob reports whether the target has any job that is still
// queued or running, or that was started after since. Pending jobs have
// no started_at yet but must still block re-enrollment, otherwise a
// target could be enqueued twice before its first dispatch.
func (s *Store) HasRecentJob(ctx context.Context, targetUsername string, since time.Time) (bool, error) {
	query := `
	SELECT COUNT(*) FROM scrape_jobs
	WHERE target_username = ?
	AND (status IN ('pending', 'in_progress') OR started_at > ?)
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, targetUsername, since.UTC().Format("2006-01-02 15:04:05")).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent jobs: %w", err)
	}
	return count > 0, nil
}

// CompletedFollowJobs returns how many of the target's followers and
// following jobs are completed. Both being done (count == 2) is the
// trigger for mutual derivation.
func (s *Store) CompletedFollowJobs(ctx context.Context, targetUsername string) (int, error) {
	query := `
	SELECT COUNT(DISTINCT job_type) FROM scrape_jobs
	WHERE target_username = ?
	AND job_type IN ('followers', 'following')
	AND status = 'completed'
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, targetUsername).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed follow jobs: %w", err)
	}
	return count, nil
}

// requireTransition converts a zero-row UPDATE into ErrInvalidTransition.
func requireTransition(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending
// on configuration. Returns zero time if no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
