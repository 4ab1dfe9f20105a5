package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// JobStatus tracks an analysis job through its lifecycle.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobReady      JobStatus = "ready"
	JobFailed     JobStatus = "failed"
)

// Job is the persisted state of one analysis request. The uploaded image
// itself is never persisted, only the tracking state and the final result.
type Job struct {
	ID         string
	Status     JobStatus
	Progress   int
	Message    string
	Filename   string
	ResultJSON string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ErrNoEncryptionKey is returned by secret methods when the store was
// opened without a key.
var ErrNoEncryptionKey = errors.New("no encryption key configured")

// Store defines the persistence interface for jobs, listings, secrets and
// the vision response cache. Lookup methods report a missing row as a zero
// value with nil error.
type Store interface {
	CreateJob(job *Job) error
	GetJob(id string) (*Job, error)
	UpdateJobProgress(id string, progress int, message string) error
	CompleteJob(id string, message, resultJSON string) error
	FailJob(id string, errMsg string) error

	SaveListing(listing *Listing) error
	GetListing(id string) (*Listing, error)
	SetPublished(id string) error

	// Vision cache methods
	GetVisionCache(hash string) (string, error)
	SetVisionCache(hash, response string) error

	// Secret methods (encrypted at rest)
	SetSecret(name, value string) error
	GetSecret(name string) (string, error)

	Ping() error
	Close() error
}

// SQLiteStore implements Store using SQLite with encrypted secrets.
type SQLiteStore struct {
	db            *sql.DB
	encryptionKey []byte
	mu            sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the SQLite database at dbPath.
// encryptionKey protects the secrets table and may be nil, in which case
// secret methods fail with ErrNoEncryptionKey.
func NewSQLiteStore(dbPath string, encryptionKey []byte) (*SQLiteStore, error) {
	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set file permissions (only works on creation)
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		// Ignore error if file doesn't exist yet
	}

	store := &SQLiteStore{
		db:            db,
		encryptionKey: encryptionKey,
	}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	jobsQuery := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		message TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL DEFAULT '',
		result_json TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(jobsQuery)
	if err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}

	listingsQuery := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		draft_json TEXT NOT NULL,
		published INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	`
	_, err = s.db.Exec(listingsQuery)
	if err != nil {
		return fmt.Errorf("failed to create listings table: %w", err)
	}

	visionCacheQuery := `
	CREATE TABLE IF NOT EXISTS vision_cache (
		hash TEXT PRIMARY KEY,
		response TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err = s.db.Exec(visionCacheQuery)
	if err != nil {
		return fmt.Errorf("failed to create vision_cache table: %w", err)
	}

	secretsQuery := `
	CREATE TABLE IF NOT EXISTS secrets (
		name TEXT PRIMARY KEY,
		encrypted_value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err = s.db.Exec(secretsQuery)
	if err != nil {
		return fmt.Errorf("failed to create secrets table: %w", err)
	}

	return nil
}

// CreateJob inserts a new job row. Status defaults to queued.
func (s *SQLiteStore) CreateJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.Status == "" {
		job.Status = JobQueued
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO jobs (id, status, progress, message, filename, result_json, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Status, job.Progress, job.Message, job.Filename, job.ResultJSON, job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID. Returns nil, nil if the job doesn't exist.
func (s *SQLiteStore) GetJob(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job := &Job{ID: id}
	err := s.db.QueryRow(
		"SELECT status, progress, message, filename, result_json, error, created_at, updated_at FROM jobs WHERE id = ?",
		id,
	).Scan(&job.Status, &job.Progress, &job.Message, &job.Filename, &job.ResultJSON, &job.Error, &job.CreatedAt, &job.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query job: %w", err)
	}
	return job, nil
}

// UpdateJobProgress moves a job to processing with a new progress value and
// user-facing message.
func (s *SQLiteStore) UpdateJobProgress(id string, progress int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE jobs SET status = ?, progress = ?, message = ?, updated_at = ? WHERE id = ?
	`, JobProcessing, progress, message, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// CompleteJob marks a job ready and stores its result document.
func (s *SQLiteStore) CompleteJob(id string, message, resultJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE jobs SET status = ?, progress = 100, message = ?, result_json = ?, updated_at = ? WHERE id = ?
	`, JobReady, message, resultJSON, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// FailJob marks a job failed with an error description.
func (s *SQLiteStore) FailJob(id string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, JobFailed, errMsg, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// GetVisionCache retrieves a cached raw model response by input hash.
// Returns "" with nil error on a miss.
func (s *SQLiteStore) GetVisionCache(hash string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var response string
	err := s.db.QueryRow("SELECT response FROM vision_cache WHERE hash = ?", hash).Scan(&response)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query vision cache: %w", err)
	}
	return response, nil
}

// SetVisionCache stores a raw model response under its input hash.
func (s *SQLiteStore) SetVisionCache(hash, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO vision_cache (hash, response)
		VALUES (?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			response = excluded.response,
			created_at = CURRENT_TIMESTAMP
	`, hash, response)
	if err != nil {
		return fmt.Errorf("failed to cache vision response: %w", err)
	}
	return nil
}

// SetSecret stores a named secret encrypted with the store key.
func (s *SQLiteStore) SetSecret(name, value string) error {
	if len(s.encryptionKey) == 0 {
		return ErrNoEncryptionKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted, err := Encrypt([]byte(value), s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO secrets (name, encrypted_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			encrypted_value = excluded.encrypted_value,
			updated_at = excluded.updated_at
	`, name, encrypted, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save secret: %w", err)
	}
	return nil
}

// GetSecret retrieves and decrypts a named secret. Returns "" with nil
// error if the secret doesn't exist.
func (s *SQLiteStore) GetSecret(name string) (string, error) {
	if len(s.encryptionKey) == 0 {
		return "", ErrNoEncryptionKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var encrypted string
	err := s.db.QueryRow("SELECT encrypted_value FROM secrets WHERE name = ?", name).Scan(&encrypted)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query secret: %w", err)
	}

	value, err := Decrypt(encrypted, s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}
	return string(value), nil
}

// Ping checks database connectivity for health reporting.
func (s *SQLiteStore) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
