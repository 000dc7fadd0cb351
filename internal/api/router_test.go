package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/hub"
	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/common/events"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
	"github.com/zyn-615/ACM-Transit-Template/internal/metrics"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/kv"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/probe"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/storage"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type testApp struct {
	store    *kv.MemoryStore
	contests repository.ContestRepository
	problems repository.ProblemRepository
	hub      *hub.Hub
	handler  http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := zerolog.Nop()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	store := kv.NewMemoryStore()
	adapter := storage.NewAdapter(store, fstest.MapFS{}, logger, storage.WithClock(fixedClock))
	contests := repository.NewContestRepository(adapter, repository.WithClock(fixedClock))
	problems := repository.NewProblemRepository(adapter, repository.WithClock(fixedClock))
	ctx := context.Background()
	require.NoError(t, contests.Initialize(ctx))
	require.NoError(t, problems.Initialize(ctx))

	generator := service.NewGenerator()
	generator.SetClock(fixedClock)
	search := service.NewSearchIndex(m)
	t.Cleanup(search.Watch(contests, problems))

	files := service.NewFileService(probe.Func(func(ctx context.Context, path string) (bool, error) {
		return strings.HasSuffix(path, "contest.pdf"), nil
	}), service.FileServiceConfig{BaseDir: t.TempDir()}, logger, m)

	h := hub.New(logger, m)
	t.Cleanup(h.Close)
	t.Cleanup(hub.Follow(contests, problems, fixedClock, h.Broadcast))

	svc := Services{
		Contests:    service.NewContestService(contests, problems, generator, logger),
		Problems:    service.NewProblemService(problems, logger),
		Solutions:   service.NewSolutionService(contests, problems, logger),
		Scoreboards: service.NewScoreboardService(contests),
		Dashboard:   service.NewDashboardService(adapter, adapter, logger, m),
		Search:      search,
		Generator:   generator,
		Files:       files,
		Data:        service.NewDataService(adapter, contests, problems, logger, m),
		Hub:         h,
	}
	return &testApp{
		store:    store,
		contests: contests,
		problems: problems,
		hub:      h,
		handler: NewRouter(svc, RouterConfig{
			CORSOrigins: []string{"*"},
			Metrics:     m,
			Gatherer:    reg,
			Logger:      logger,
		}),
	}
}

func (a *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = app.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `acm_http_requests_total{route="/health",status="200"} 1`)
}

func TestContestLifecycle(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/v1/contests", map[string]any{
		"name":             "Codeforces Round 900 (Div. 2)",
		"platform":         "Codeforces",
		"date":             "2024-03-01",
		"url":              "https://codeforces.com/contest/1875",
		"totalProblems":    3,
		"generateProblems": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[service.CreateContestResult](t, rec)
	assert.Len(t, created.Generated, 3)
	id := created.Contest.ID

	rec = app.do(t, http.MethodGet, "/api/v1/contests/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Codeforces Round 900 (Div. 2)", decode[model.Contest](t, rec).Name)

	rec = app.do(t, http.MethodPost, "/api/v1/contests", map[string]any{"name": "codeforces round 900 (div. 2)", "date": "2024-03-02"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/contests?platform=Codeforces&sortBy=date", nil)
	assert.Len(t, decode[[]model.Contest](t, rec), 1)

	rec = app.do(t, http.MethodPut, "/api/v1/contests/"+id+"/problems/B", map[string]any{"status": "solved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[model.Contest](t, rec).Solved)

	rec = app.do(t, http.MethodGet, "/api/v1/contests/"+id+"/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "Codeforces Round 900")

	rec = app.do(t, http.MethodGet, "/api/v1/contests/"+id+"/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	files := decode[service.ContestFileStatus](t, rec)
	assert.True(t, files.Statement.Exists)
	assert.False(t, files.Summary.Exists)

	rec = app.do(t, http.MethodDelete, "/api/v1/contests/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodGet, "/api/v1/contests/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, app.problems.All(), 3, "generated problems stay in the library")
}

func TestContestCreate_StorageWarning(t *testing.T) {
	app := newTestApp(t)
	app.store.SetFailWrites(errors.New("quota exceeded"))

	rec := app.do(t, http.MethodPost, "/api/v1/contests", map[string]any{"name": "Offline", "date": "2024-01-01"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(common.WarningHeader))
	assert.Len(t, app.contests.All(), 1)
}

func TestScoreboardRoutes(t *testing.T) {
	app := newTestApp(t)
	id, err := app.contests.Add(context.Background(), repository.ContestInput{Name: "Board", Date: "2024-02-02", TotalProblems: 2})
	require.NoError(t, err)

	rec := app.do(t, http.MethodPut, "/api/v1/contests/"+id+"/scoreboard/a", map[string]any{"status": "AC", "attempts": 2, "acTime": 30, "penalty": 20})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	board := decode[service.Scoreboard](t, rec)
	assert.Equal(t, 1, board.SolvedCount)
	assert.Equal(t, 50, board.TotalPenalty)

	rec = app.do(t, http.MethodGet, "/api/v1/contests/"+id+"/scoreboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"A", "B"}, decode[service.Scoreboard](t, rec).Letters)

	rec = app.do(t, http.MethodPut, "/api/v1/contests/"+id+"/scoreboard/B", map[string]any{"attempts": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/contests/missing/scoreboard", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProblemRoutes(t *testing.T) {
	app := newTestApp(t)
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		rec := app.do(t, http.MethodPost, "/api/v1/problems", map[string]any{"title": title, "platform": "AtCoder", "tags": "dp, graphs"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := app.do(t, http.MethodGet, "/api/v1/problems?pageSize=2&page=2&sortBy=title&sortOrder=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[service.ProblemPage](t, rec)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Problems, 1)
	assert.Equal(t, "Gamma", page.Problems[0].Title)

	rec = app.do(t, http.MethodGet, "/api/v1/problems/tags", nil)
	assert.Equal(t, []string{"dp", "graphs"}, decode[[]string](t, rec))

	id := page.Problems[0].ID
	rec = app.do(t, http.MethodPost, "/api/v1/problems/"+id+"/solutions", map[string]any{"title": "Editorial", "type": "official"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sol := decode[model.Solution](t, rec)

	rec = app.do(t, http.MethodPut, "/api/v1/problems/"+id+"/solutions/"+sol.ID, map[string]any{"title": "Editorial v2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Editorial v2", decode[model.Solution](t, rec).Title)

	rec = app.do(t, http.MethodPut, "/api/v1/problems/"+id+"/solutions/Bob", map[string]any{"uploaded": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[model.Problem](t, rec)
	require.NotNil(t, p.Files)
	assert.Contains(t, p.Files.Solutions, "bob")

	rec = app.do(t, http.MethodDelete, "/api/v1/problems/"+id+"/solutions/official", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = app.do(t, http.MethodDelete, "/api/v1/problems/"+id+"/solutions/bob", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodDelete, "/api/v1/problems/"+id+"/solutions/"+sol.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/search?q=gamma", nil)
	results := decode[[]service.SearchResult](t, rec)
	require.NotEmpty(t, results)
	assert.Equal(t, id, results[0].ID)

	rec = app.do(t, http.MethodPost, "/api/v1/problems", `{"title": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardAndData(t *testing.T) {
	app := newTestApp(t)
	_, err := app.problems.Add(context.Background(), repository.ProblemInput{Title: "Solved one", Platform: "AtCoder", Status: model.ProblemSolved})
	require.NoError(t, err)

	rec := app.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[service.Snapshot](t, rec)
	assert.EqualValues(t, 1, snap.Generation)
	assert.Equal(t, 1, snap.Statistics.Problems.Solved)

	rec = app.do(t, http.MethodGet, "/api/v1/data/export/problems", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="problems-2024-03-15.json"`, rec.Header().Get("Content-Disposition"))

	rec = app.do(t, http.MethodGet, "/api/v1/data/export/users", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/v1/data/import", `{"contests": [{"id": "c9", "name": "Imported", "date": "2023-12-01", "platform": "ICPC"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[service.ImportReport](t, rec)
	require.NotNil(t, report.Contests)
	assert.Equal(t, 1, report.Contests.AddedCount)

	rec = app.do(t, http.MethodPost, "/api/v1/data/backup?type=manual", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "acm-backup-manual-2024-03-15.json")

	rec = app.do(t, http.MethodPut, "/api/v1/settings", map[string]any{"theme": "dark"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark", decode[model.Settings](t, rec)["theme"])
}

func TestGeneratorFilesAndStandings(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/v1/generator/preview", map[string]any{
		"contest": map[string]any{"name": "ABC 300", "platform": "AtCoder", "date": "2024-01-01", "url": "https://atcoder.jp/contests/abc300"},
		"count":   2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[service.Preview](t, rec)
	require.Len(t, preview.Problems, 2)
	assert.True(t, preview.Summary.HasURLs)

	rec = app.do(t, http.MethodGet, "/api/v1/files/guidance", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/v1/files/check", map[string]any{"paths": []string{
		"./files/contests/c1/statement/contest.pdf",
		"./files/contests/c1/summary/summary.md",
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	checked := decode[map[string]service.FileStatus](t, rec)
	assert.True(t, checked["./files/contests/c1/statement/contest.pdf"].Exists)
	assert.False(t, checked["./files/contests/c1/summary/summary.md"].Exists)

	rec = app.do(t, http.MethodGet, "/api/v1/files/script?contestId=c1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "#!/bin/bash"))

	rec = app.do(t, http.MethodPost, "/api/v1/standings", map[string]any{
		"letters": []string{"A", "B"},
		"contestants": []map[string]any{
			{"id": "u1", "name": "Ann", "problems": map[string]any{"A": map[string]any{"status": "solved", "time": 10, "attempts": 1}}},
			{"id": "u2", "name": "Ben", "problems": map[string]any{
				"A": map[string]any{"status": "solved", "time": 20, "attempts": 2},
				"B": map[string]any{"status": "solved", "time": 50, "attempts": 1},
			}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	standings := decode[service.Standings](t, rec)
	require.Len(t, standings.Rows, 2)
	assert.Equal(t, "u2", standings.Rows[0].Contestant.ID)
	assert.Equal(t, 90, standings.Rows[0].Contestant.Penalty)
}

func TestEventStream(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.handler)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/events", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return app.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	id, err := app.contests.Add(context.Background(), repository.ContestInput{Name: "Live", Date: "2024-03-03"})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := events.ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, hub.SourceContests, msg.Source)
	assert.Equal(t, repository.EventAdded, msg.Type)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, "2024-03-15T12:00:00.000Z", msg.At)
}
