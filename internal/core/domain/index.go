package domain

import "time"

// IndexVersion describes a persisted index version.
type IndexVersion struct {
	// Name is the timestamp-derived version name (e.g. index_20250101_120000_000000000).
	Name string `json:"name"`

	// Path is the directory holding the version files.
	Path string `json:"path"`

	// ChunkCount is the number of chunks (and vectors) in the version.
	ChunkCount int `json:"chunk_count"`

	// Dimension is the vector length.
	Dimension int `json:"dimension"`

	// CreatedAt is when the version was built.
	CreatedAt time.Time `json:"created_at"`

	// ModifiedAt is the storage modification time used to pick "latest".
	ModifiedAt time.Time `json:"modified_at"`

	// Legacy marks the unversioned pair in the index base directory.
	Legacy bool `json:"legacy,omitempty"`

	// Current marks the version readers are using.
	Current bool `json:"current,omitempty"`
}

// IndexRunStatus is the outcome of an indexing run.
type IndexRunStatus string

// Available run statuses.
const (
	// IndexRunCompleted means a new version was saved and activated.
	IndexRunCompleted IndexRunStatus = "completed"

	// IndexRunSkipped means the run produced no chunks and persisted nothing.
	IndexRunSkipped IndexRunStatus = "skipped"

	// IndexRunFailed means the run stopped on an error.
	IndexRunFailed IndexRunStatus = "failed"
)

// IndexRun records one execution of the indexing service.
type IndexRun struct {
	ID            string           `json:"id"`
	VersionName   string           `json:"version_name"`
	Strategy      ChunkingStrategy `json:"strategy"`
	CampaignCount int              `json:"campaign_count"`
	ChunkCount    int              `json:"chunk_count"`
	Status        IndexRunStatus   `json:"status"`
	Error         string           `json:"error,omitempty"`
	StartedAt     time.Time        `json:"started_at"`
	CompletedAt   time.Time        `json:"completed_at"`
}

// Duration returns how long the run took.
func (r IndexRun) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
