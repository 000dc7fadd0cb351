package model

// ExportedBy and the descriptions are the static strings stamped into exports.
const (
	ExportedBy               = "ACM Transit"
	ContestExportDescription = "ACM contest record export"
	ProblemExportDescription = "ACM problem record export"
	BackupCreatedBy          = "ACM Transit automatic backup"
)

// ContestCollection is the persisted and exported envelope for contests.
type ContestCollection struct {
	Contests     []Contest          `json:"contests"`
	Version      string             `json:"version"`
	LastModified string             `json:"lastModified"`
	Metadata     CollectionMetadata `json:"metadata"`
}

// ProblemCollection is the persisted and exported envelope for problems.
type ProblemCollection struct {
	Problems     []Problem          `json:"problems"`
	Version      string             `json:"version"`
	LastModified string             `json:"lastModified"`
	Metadata     CollectionMetadata `json:"metadata"`
}

type CollectionMetadata struct {
	TotalContests *int   `json:"totalContests,omitempty"`
	TotalProblems *int   `json:"totalProblems,omitempty"`
	ExportedBy    string `json:"exportedBy,omitempty"`
	CreatedBy     string `json:"createdBy,omitempty"`
	Description   string `json:"description,omitempty"`
	ExportedAt    string `json:"exportedAt,omitempty"`
}

// Backup holds both collections in one document.
type Backup struct {
	Contests   []Contest          `json:"contests"`
	Problems   []Problem          `json:"problems"`
	Version    string             `json:"version"`
	BackupType string             `json:"backupType"`
	BackupTime string             `json:"backupTime"`
	Metadata   CollectionMetadata `json:"metadata"`
}

// ImportEnvelope is whatever a user-supplied file contained. Either list may
// be absent; nil means the key was missing.
type ImportEnvelope struct {
	Contests []Contest `json:"contests"`
	Problems []Problem `json:"problems"`
	Version  string    `json:"version"`
}

// ImportResult reports how a merge went for one collection.
type ImportResult struct {
	Success    bool `json:"success"`
	AddedCount int  `json:"addedCount"`
	TotalCount int  `json:"totalCount"`
}
