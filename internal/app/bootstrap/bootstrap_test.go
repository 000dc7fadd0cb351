package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyn-615/ACM-Transit-Template/internal/common/events"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "problems.json"), []byte(`{"problems": [
		{"id": "p1", "title": "Two Sum", "platform": "LeetCode", "tags": ["array"]}
	]}`), 0o644))
	return &config.Config{
		APIPort:       "0",
		CORSOrigin:    []string{"*"},
		StoreBackend:  "memory",
		DataDir:       dataDir,
		FilesRoot:     t.TempDir(),
		ProbeBackend:  "fs",
		ProbeTimeout:  time.Second,
		ProbeCacheTTL: time.Minute,
		BackupDir:     t.TempDir(),
	}
}

func TestNew_LoadsBundledData(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer app.Close()

	assert.Len(t, app.Problems.All(), 1)
	assert.Empty(t, app.Contests.All())
	require.NotEmpty(t, app.Search.Search("two"))

	rr := httptest.NewRecorder()
	app.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = "floppy"
	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestImportFile(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer app.Close()

	path := filepath.Join(t.TempDir(), "more.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"problems": [
		{"id": "p1", "title": "Two Sum", "platform": "LeetCode"},
		{"id": "p2", "title": "Three Sum", "platform": "LeetCode"}
	]}`), 0o644))

	report, err := app.ImportFile(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, report.Problems)
	assert.Equal(t, 1, report.Problems.AddedCount)
	assert.Nil(t, report.Contests)
	assert.Len(t, app.Problems.All(), 2)

	_, err = app.ImportFile(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestForwarded(t *testing.T) {
	assert.True(t, forwarded(events.Message{Type: repository.EventAdded}))
	assert.False(t, forwarded(events.Message{Type: repository.EventReloaded}))
	assert.False(t, forwarded(events.Message{Type: repository.EventInitialized}))
}

func TestServe_StopsOnCancel(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
