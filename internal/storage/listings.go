package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Listing is a persisted draft that can later be marked published.
type Listing struct {
	ID        string
	JobID     string
	DraftJSON string
	Published bool
	CreatedAt time.Time
}

// SaveListing stores or updates a listing. A missing ID is generated.
func (s *SQLiteStore) SaveListing(listing *Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO listings (id, job_id, draft_json, published, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			draft_json = excluded.draft_json,
			published = excluded.published
	`, listing.ID, listing.JobID, listing.DraftJSON, listing.Published, listing.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}
	return nil
}

// GetListing retrieves a listing by ID. Returns nil, nil if it doesn't exist.
func (s *SQLiteStore) GetListing(id string) (*Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing := &Listing{ID: id}
	err := s.db.QueryRow(
		"SELECT job_id, draft_json, published, created_at FROM listings WHERE id = ?",
		id,
	).Scan(&listing.JobID, &listing.DraftJSON, &listing.Published, &listing.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query listing: %w", err)
	}
	return listing, nil
}

// SetPublished marks a listing as published.
func (s *SQLiteStore) SetPublished(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE listings SET published = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to publish listing: %w", err)
	}
	return nil
}
