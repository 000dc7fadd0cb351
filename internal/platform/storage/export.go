package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

// Backup types.
const (
	BackupManual = "manual"
	BackupAuto   = "auto"
)

const exportedAtLayout = "2006/1/2 15:04:05"

// ExportContests renders the pretty-printed contests envelope.
func (a *Adapter) ExportContests(contests []model.Contest) ([]byte, error) {
	now := a.now()
	total := len(contests)
	coll := model.ContestCollection{
		Contests:     nonNil(contests),
		Version:      model.DataVersion,
		LastModified: model.FormatTimestamp(now),
		Metadata: model.CollectionMetadata{
			TotalContests: &total,
			ExportedBy:    model.ExportedBy,
			Description:   model.ContestExportDescription,
			ExportedAt:    now.Format(exportedAtLayout),
		},
	}
	return marshalExport(coll)
}

func (a *Adapter) ExportProblems(problems []model.Problem) ([]byte, error) {
	now := a.now()
	total := len(problems)
	coll := model.ProblemCollection{
		Problems:     nonNil(problems),
		Version:      model.DataVersion,
		LastModified: model.FormatTimestamp(now),
		Metadata: model.CollectionMetadata{
			TotalProblems: &total,
			ExportedBy:    model.ExportedBy,
			Description:   model.ProblemExportDescription,
			ExportedAt:    now.Format(exportedAtLayout),
		},
	}
	return marshalExport(coll)
}

// CreateBackup renders both collections into one document and names the
// file acm-backup-{type}-{date}.json.
func (a *Adapter) CreateBackup(contests []model.Contest, problems []model.Problem, backupType string) (string, []byte, error) {
	backupType = strings.TrimSpace(backupType)
	if backupType == "" {
		backupType = BackupManual
	}
	now := a.now()
	tc, tp := len(contests), len(problems)
	b := model.Backup{
		Contests:   nonNil(contests),
		Problems:   nonNil(problems),
		Version:    model.DataVersion,
		BackupType: backupType,
		BackupTime: model.FormatTimestamp(now),
		Metadata: model.CollectionMetadata{
			TotalContests: &tc,
			TotalProblems: &tp,
			CreatedBy:     model.BackupCreatedBy,
			Description:   fmt.Sprintf("%s backup - %s", backupType, now.Format(exportedAtLayout)),
		},
	}
	body, err := marshalExport(b)
	if err != nil {
		return "", nil, err
	}
	return BackupFileName(backupType, now.UTC().Format(model.DateLayout)), body, nil
}

func BackupFileName(backupType, date string) string {
	return fmt.Sprintf("acm-backup-%s-%s.json", backupType, date)
}

// ParseImport decodes a user-supplied file. Collections that are present
// must be arrays; a missing collection stays nil.
func ParseImport(raw []byte) (model.ImportEnvelope, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return model.ImportEnvelope{}, fmt.Errorf("storage.ParseImport: %w: file is not valid JSON", common.ErrValidation)
	}
	for _, field := range []string{"contests", "problems"} {
		if v, ok := doc[field]; ok && !isArray(v) {
			return model.ImportEnvelope{}, fmt.Errorf("storage.ParseImport: %w: %q must be an array", common.ErrValidation, field)
		}
	}
	if _, ok := doc["contests"]; !ok {
		if _, ok := doc["problems"]; !ok {
			return model.ImportEnvelope{}, fmt.Errorf("storage.ParseImport: %w: file holds neither contests nor problems", common.ErrValidation)
		}
	}

	var env model.ImportEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return model.ImportEnvelope{}, fmt.Errorf("storage.ParseImport: %w: %v", common.ErrValidation, err)
	}
	if _, ok := doc["contests"]; ok && env.Contests == nil {
		env.Contests = []model.Contest{}
	}
	if _, ok := doc["problems"]; ok && env.Problems == nil {
		env.Problems = []model.Problem{}
	}
	return env, nil
}

func marshalExport(v any) ([]byte, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("storage.export: %w", err)
	}
	return body, nil
}
