package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T, key []byte) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), key)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestJobLifecycle(t *testing.T) {
	store := newTestStore(t, nil)

	err := store.CreateJob(&Job{ID: "job-1", Filename: "lampe.jpg"})
	assert.Nil(t, err)

	job, err := store.GetJob("job-1")
	assert.Nil(t, err)
	assert.Equal(t, JobQueued, job.Status)
	assert.Equal(t, "lampe.jpg", job.Filename)
	assert.Equal(t, 0, job.Progress)
	assert.False(t, job.CreatedAt.IsZero())

	err = store.UpdateJobProgress("job-1", 60, "Marktdaten werden gesammelt...")
	assert.Nil(t, err)

	job, err = store.GetJob("job-1")
	assert.Nil(t, err)
	assert.Equal(t, JobProcessing, job.Status)
	assert.Equal(t, 60, job.Progress)
	assert.Equal(t, "Marktdaten werden gesammelt...", job.Message)

	err = store.CompleteJob("job-1", "Analyse abgeschlossen", `{"draft": {}}`)
	assert.Nil(t, err)

	job, err = store.GetJob("job-1")
	assert.Nil(t, err)
	assert.Equal(t, JobReady, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, `{"draft": {}}`, job.ResultJSON)
	assert.Empty(t, job.Error)
}

func TestFailJob(t *testing.T) {
	store := newTestStore(t, nil)

	err := store.CreateJob(&Job{ID: "job-2"})
	assert.Nil(t, err)
	err = store.FailJob("job-2", "queue full")
	assert.Nil(t, err)

	job, err := store.GetJob("job-2")
	assert.Nil(t, err)
	assert.Equal(t, JobFailed, job.Status)
	assert.Equal(t, "queue full", job.Error)
}

func TestGetJobMissing(t *testing.T) {
	store := newTestStore(t, nil)

	job, err := store.GetJob("nope")
	assert.Nil(t, err)
	assert.Nil(t, job)
}

func TestListingRoundtrip(t *testing.T) {
	store := newTestStore(t, nil)

	listing := &Listing{JobID: "job-1", DraftJSON: `{"listing_title": "Lampe"}`}
	err := store.SaveListing(listing)
	assert.Nil(t, err)
	assert.NotEmpty(t, listing.ID)

	got, err := store.GetListing(listing.ID)
	assert.Nil(t, err)
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, `{"listing_title": "Lampe"}`, got.DraftJSON)
	assert.False(t, got.Published)

	listing.DraftJSON = `{"listing_title": "Stehlampe"}`
	err = store.SaveListing(listing)
	assert.Nil(t, err)

	got, err = store.GetListing(listing.ID)
	assert.Nil(t, err)
	assert.Equal(t, `{"listing_title": "Stehlampe"}`, got.DraftJSON)
}

func TestSetPublished(t *testing.T) {
	store := newTestStore(t, nil)

	listing := &Listing{JobID: "job-1", DraftJSON: `{}`}
	assert.Nil(t, store.SaveListing(listing))
	assert.Nil(t, store.SetPublished(listing.ID))

	got, err := store.GetListing(listing.ID)
	assert.Nil(t, err)
	assert.True(t, got.Published)
}

func TestGetListingMissing(t *testing.T) {
	store := newTestStore(t, nil)

	listing, err := store.GetListing("nope")
	assert.Nil(t, err)
	assert.Nil(t, listing)
}

func TestVisionCacheRoundtrip(t *testing.T) {
	store := newTestStore(t, nil)

	cached, err := store.GetVisionCache("abc123")
	assert.Nil(t, err)
	assert.Empty(t, cached)

	err = store.SetVisionCache("abc123", `{"product_name": "Lampe"}`)
	assert.Nil(t, err)

	cached, err = store.GetVisionCache("abc123")
	assert.Nil(t, err)
	assert.Equal(t, `{"product_name": "Lampe"}`, cached)

	err = store.SetVisionCache("abc123", `{"product_name": "Stehlampe"}`)
	assert.Nil(t, err)

	cached, err = store.GetVisionCache("abc123")
	assert.Nil(t, err)
	assert.Equal(t, `{"product_name": "Stehlampe"}`, cached)
}

func TestSecretsRoundtrip(t *testing.T) {
	store := newTestStore(t, bytes.Repeat([]byte{7}, 32))

	value, err := store.GetSecret("openai_api_key")
	assert.Nil(t, err)
	assert.Empty(t, value)

	err = store.SetSecret("openai_api_key", "sk-test-123")
	assert.Nil(t, err)

	value, err = store.GetSecret("openai_api_key")
	assert.Nil(t, err)
	assert.Equal(t, "sk-test-123", value)

	err = store.SetSecret("openai_api_key", "sk-test-456")
	assert.Nil(t, err)

	value, err = store.GetSecret("openai_api_key")
	assert.Nil(t, err)
	assert.Equal(t, "sk-test-456", value)
}

func TestSecretsRequireKey(t *testing.T) {
	store := newTestStore(t, nil)

	err := store.SetSecret("name", "value")
	assert.Equal(t, ErrNoEncryptionKey, err)

	_, err = store.GetSecret("name")
	assert.Equal(t, ErrNoEncryptionKey, err)
}

func TestPing(t *testing.T) {
	store := newTestStore(t, nil)
	assert.Nil(t, store.Ping())
}
