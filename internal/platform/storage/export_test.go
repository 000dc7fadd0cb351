package storage

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/kv"
)

func TestExportContests_Envelope(t *testing.T) {
	a := newAdapter(kv.NewMemoryStore(), nil)
	body, err := a.ExportContests([]model.Contest{{ID: "c1", Name: "Round", Platform: "AtCoder", Date: "2024-01-01"}})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "\n  \"contests\""), "pretty printed")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "1.0", doc["version"])
	assert.Equal(t, "2024-03-15T12:00:00.000Z", doc["lastModified"])
	meta := doc["metadata"].(map[string]any)
	assert.Equal(t, 1.0, meta["totalContests"])
	assert.Equal(t, model.ExportedBy, meta["exportedBy"])
	assert.Equal(t, model.ContestExportDescription, meta["description"])
	assert.NotContains(t, meta, "totalProblems")
}

func TestExportImportRoundTrip(t *testing.T) {
	a := newAdapter(kv.NewMemoryStore(), nil)
	problems := []model.Problem{{
		ID: "p1", Title: "Sum", Platform: "Codeforces", Difficulty: model.IntPtr(1200),
		Status: model.ProblemFailed, Tags: []string{"math"}, SolvedTime: nil,
		Files: &model.ProblemFiles{Solutions: map[string]model.AuthorSolution{
			model.OfficialAuthor: {Path: "./files/problems/p1/solution/official/solution.pdf", Author: "official", Status: model.ArtifactPending},
		}},
	}}

	body, err := a.ExportProblems(problems)
	require.NoError(t, err)
	env, err := ParseImport(body)
	require.NoError(t, err)
	assert.Nil(t, env.Contests)
	assert.Empty(t, cmp.Diff(problems, env.Problems))
}

func TestCreateBackup(t *testing.T) {
	a := newAdapter(kv.NewMemoryStore(), nil)
	name, body, err := a.CreateBackup([]model.Contest{{ID: "c1"}}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "acm-backup-manual-2024-03-15.json", name)

	var b model.Backup
	require.NoError(t, json.Unmarshal(body, &b))
	assert.Equal(t, BackupManual, b.BackupType)
	assert.Len(t, b.Contests, 1)
	assert.NotNil(t, b.Problems)
	assert.Equal(t, 0, *b.Metadata.TotalProblems)
	assert.Equal(t, model.BackupCreatedBy, b.Metadata.CreatedBy)
}

func TestParseImport_Rejects(t *testing.T) {
	for _, raw := range []string{`nope`, `[1,2]`, `{"contests": 3}`, `{"version":"1.0"}`} {
		_, err := ParseImport([]byte(raw))
		assert.ErrorIs(t, err, common.ErrValidation, raw)
	}

	env, err := ParseImport([]byte(`{"contests": []}`))
	require.NoError(t, err)
	assert.NotNil(t, env.Contests)
	assert.Nil(t, env.Problems)
}
