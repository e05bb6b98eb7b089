package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"hackathon-scoreboard/internal/auth"
	"hackathon-scoreboard/internal/db"
	"hackathon-scoreboard/internal/events"
	"hackathon-scoreboard/internal/logging"
	"hackathon-scoreboard/internal/schemas"
	"hackathon-scoreboard/internal/teams"
	"hackathon-scoreboard/internal/worker"
)

type fakeMirror struct {
	mu      sync.Mutex
	teams   []teams.Team
	reports []db.Report

	// delay holds ReplaceTeams open to expose overlapping writers.
	delay       time.Duration
	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func (f *fakeMirror) Ping(context.Context) error { return nil }

func (f *fakeMirror) ReplaceTeams(_ context.Context, ts []teams.Team) error {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxInflight.Load()
		if n <= m || f.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.teams = ts
	return nil
}

func (f *fakeMirror) InsertReport(_ context.Context, r db.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakeMirror) ListReports(context.Context, int) ([]db.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports, nil
}

func (f *fakeMirror) GetReport(_ context.Context, id string) (db.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return db.Report{}, db.ErrReportNotFound
}

type fakeObjects map[string]string

func (f fakeObjects) Get(_ context.Context, ref string) ([]byte, error) {
	b, ok := f[ref]
	if !ok {
		return nil, errors.New("no such object")
	}
	return []byte(b), nil
}

type fakeQueue struct {
	tasks []*asynq.Task
}

func (f *fakeQueue) EnqueueContext(_ context.Context, t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, t)
	return &asynq.TaskInfo{ID: "t1"}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type harness struct {
	srv    *Server
	h      http.Handler
	dir    string
	mirror *fakeMirror
	pub    *recordingPublisher
}

func newHarness(t *testing.T, mod func(*Server)) *harness {
	t.Helper()
	dir := t.TempDir()
	hs := &harness{dir: dir, mirror: &fakeMirror{}, pub: &recordingPublisher{}}
	hs.srv = &Server{
		Teams:      teams.NewRegistry(),
		DB:         hs.mirror,
		Events:     hs.pub,
		Log:        logging.Discard(),
		DataPath:   filepath.Join(dir, "teams.csv"),
		ReportPath: filepath.Join(dir, "report.txt"),
	}
	if mod != nil {
		mod(hs.srv)
	}
	hs.h = hs.srv.Routes()
	return hs
}

func (hs *harness) do(t *testing.T, method, path string, role auth.Role, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if role != "" {
		req.Header.Set(RoleHeader, string(role))
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRegisterAssignsIDAndRejectsDuplicates(t *testing.T) {
	hs := newHarness(t, nil)

	rec := hs.do(t, http.MethodPost, "/teams", auth.Competitor,
		`{"name":"Byte Me","university":"MIT","category":"Cybersecurity","scores":[5,4,3,5]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decodeBody[schemas.TeamOut](t, rec)
	assert.Equal(t, 1, got.ID)
	assert.InDelta(t, 4.2, got.Overall, 1e-9)
	assert.Equal(t, "TID 1 (BM) has an overall score of 4.20", got.Summary)

	rec = hs.do(t, http.MethodPost, "/teams", auth.Clerk,
		`{"name":"byte me","university":"Other","category":"CYBERSECURITY"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = hs.do(t, http.MethodPost, "/teams", auth.Admin,
		`{"id":1,"name":"Fresh","university":"UCL","category":"Data Science"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = hs.do(t, http.MethodPost, "/teams", auth.Admin,
		`{"id":10,"name":"Fresh","university":"UCL","category":"Data Science"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 11, hs.srv.Teams.NextID())
}

func TestRegisterValidation(t *testing.T) {
	hs := newHarness(t, nil)
	for name, body := range map[string]string{
		"short scores": `{"name":"A","university":"U","category":"C","scores":[1,2,3]}`,
		"score range":  `{"name":"A","university":"U","category":"C","scores":[1,2,3,6]}`,
		"blank name":   `{"name":"   ","university":"U","category":"C"}`,
		"bad json":     `{"name":`,
		"zero id":      `{"id":0,"name":"A","university":"U","category":"C"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := hs.do(t, http.MethodPost, "/teams", auth.Admin, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Equal(t, 0, hs.srv.Teams.Len())
}

func TestRegisterSuggestsCategory(t *testing.T) {
	hs := newHarness(t, nil)
	rec := hs.do(t, http.MethodPost, "/teams", auth.Admin,
		`{"name":"A","university":"U","category":"Cybersecurty"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, decodeBody[schemas.TeamOut](t, rec).Warning, `did you mean "Cybersecurity"`)
}

func TestRolesAreEnforced(t *testing.T) {
	hs := newHarness(t, nil)
	hs.srv.Teams.Add(teams.NewTeam(1, "A", "U", "Data Science", nil))

	body := `{"name":"B","university":"U","category":"Data Science"}`
	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodPost, "/teams", auth.Judge, body).Code)
	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodPost, "/teams", "", body).Code)

	scores := `{"scores":[1,2,3,4]}`
	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodPut, "/teams/1/scores", auth.Competitor, scores).Code)
	assert.Equal(t, http.StatusOK, hs.do(t, http.MethodPut, "/teams/1/scores", auth.Judge, scores).Code)

	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodDelete, "/teams/1", auth.Judge, "").Code)
	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodPost, "/admin/load", auth.Clerk, "").Code)
	assert.Equal(t, http.StatusBadRequest, hs.do(t, http.MethodGet, "/teams", "Sponsor", "").Code)
}

func TestSetScores(t *testing.T) {
	hs := newHarness(t, nil)
	hs.srv.Teams.Add(teams.NewTeam(1, "A", "U", "Artificial Intelligence", nil))

	rec := hs.do(t, http.MethodPut, "/teams/1/scores", auth.Judge, `{"scores":[2,5,4,1]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 3.0, decodeBody[schemas.TeamOut](t, rec).Overall, 1e-9)

	rec = hs.do(t, http.MethodPut, "/teams/1/scores", auth.Judge, `{"scores":[1,2,3]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got, _ := hs.srv.Teams.Get(1)
	assert.Equal(t, [4]int{2, 5, 4, 1}, got.Scores)

	assert.Equal(t, http.StatusNotFound, hs.do(t, http.MethodPut, "/teams/9/scores", auth.Judge, `{"scores":[1,1,1,1]}`).Code)
	assert.Equal(t, http.StatusBadRequest, hs.do(t, http.MethodPut, "/teams/x/scores", auth.Judge, `{"scores":[1,1,1,1]}`).Code)
}

func TestUpdateTeam(t *testing.T) {
	hs := newHarness(t, nil)
	hs.srv.Teams.Add(teams.NewTeam(1, "A", "U", "Data Science", []int{2, 5, 4, 1}))

	rec := hs.do(t, http.MethodPatch, "/teams/1", auth.Organizer, `{"category":"Cybersecurity","name":" Renamed "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[schemas.TeamOut](t, rec)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "Cybersecurity", got.Category)
	// The formula bound at registration is kept.
	assert.InDelta(t, 3.0, got.Overall, 1e-9)

	rec = hs.do(t, http.MethodPatch, "/teams/1", auth.Organizer, `{"university":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	stored, _ := hs.srv.Teams.Get(1)
	assert.Equal(t, "U", stored.University)
}

func TestMutationsAutoSaveMirrorAndPublish(t *testing.T) {
	hs := newHarness(t, nil)
	rec := hs.do(t, http.MethodPost, "/teams", auth.Clerk, `{"name":"Quote \"Me\", Please","university":"U","category":"Web Development"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	b, err := os.ReadFile(hs.srv.DataPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `1,"Quote ""Me"", Please",U,Web Development,0,0,0,0`)
	assert.Len(t, hs.mirror.teams, 1)

	require.Equal(t, http.StatusOK, hs.do(t, http.MethodDelete, "/teams/1", auth.Clerk, "").Code)
	assert.Equal(t, http.StatusNotFound, hs.do(t, http.MethodDelete, "/teams/1", auth.Clerk, "").Code)
	assert.Empty(t, hs.mirror.teams)

	require.Len(t, hs.pub.events, 2)
	assert.Equal(t, events.TeamRegistered, hs.pub.events[0].Type)
	assert.Equal(t, string(auth.Clerk), hs.pub.events[0].Role)
	assert.Equal(t, events.TeamRemoved, hs.pub.events[1].Type)
	assert.Equal(t, 1, hs.pub.events[1].TeamID)
}

func TestConcurrentMutationsMirrorLatestSnapshot(t *testing.T) {
	hs := newHarness(t, nil)
	hs.mirror.delay = 5 * time.Millisecond

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := fmt.Sprintf(`{"name":"Team %d","university":"U","category":"Data Science"}`, i)
			assert.Equal(t, http.StatusCreated, hs.do(t, http.MethodPost, "/teams", auth.Clerk, body).Code)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), hs.mirror.maxInflight.Load())
	assert.Equal(t, hs.srv.Teams.Snapshot(), hs.mirror.teams)
	assert.Len(t, hs.mirror.teams, n)

	b, err := os.ReadFile(hs.srv.DataPath)
	require.NoError(t, err)
	assert.Equal(t, n+1, strings.Count(string(b), "\n"))
}

func TestListAndLeaderboard(t *testing.T) {
	hs := newHarness(t, nil)
	hs.srv.Teams.Add(teams.NewTeam(1, "Charlie", "U", "Cybersecurity", []int{5, 4, 3, 5}))
	hs.srv.Teams.Add(teams.NewTeam(2, "alpha", "U", "Cybersecurity", []int{3, 3, 3, 3}))
	hs.srv.Teams.Add(teams.NewTeam(3, "Bravo", "U", "Cybersecurity", []int{3, 5, 5, 3}))
	hs.srv.Teams.Add(teams.NewTeam(4, "Delta", "U", "Data Science", []int{5, 5, 5, 5}))

	rec := hs.do(t, http.MethodGet, "/leaderboard?category=Cybersecurity", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	board := decodeBody[[]schemas.TeamOut](t, rec)
	require.Len(t, board, 3)
	assert.Equal(t, []int{1, 3, 2}, []int{board[0].ID, board[1].ID, board[2].ID})
	assert.Equal(t, []int{1, 2, 3}, []int{board[0].Rank, board[1].Rank, board[2].Rank})

	rec = hs.do(t, http.MethodGet, "/teams?sort=name", "", "")
	list := decodeBody[[]schemas.TeamOut](t, rec)
	assert.Equal(t, "alpha", list[0].Name)

	assert.Equal(t, http.StatusBadRequest, hs.do(t, http.MethodGet, "/teams?sort=university", "", "").Code)

	rec = hs.do(t, http.MethodGet, "/teams/4", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody[schemas.TeamDetailOut](t, rec).Details, "Data Science")
	assert.Equal(t, http.StatusNotFound, hs.do(t, http.MethodGet, "/teams/99", "", "").Code)
}

func TestStatsAndCategories(t *testing.T) {
	hs := newHarness(t, nil)
	rec := hs.do(t, http.MethodGet, "/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[map[string]any](t, rec)
	assert.Equal(t, 0.0, stats["average"])
	assert.Nil(t, stats["highest"])

	rec = hs.do(t, http.MethodGet, "/categories", "", "")
	cats := decodeBody[[]schemas.CategoryOut](t, rec)
	require.Len(t, cats, 6)
	assert.Equal(t, "weighted_technical", cats[0].Policy)
}

func TestReports(t *testing.T) {
	q := &fakeQueue{}
	hs := newHarness(t, func(s *Server) { s.Asynq = q })
	hs.srv.Teams.Add(teams.NewTeam(1, "A", "U", "Data Science", []int{1, 2, 3, 4}))

	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodPost, "/reports", auth.Judge, "").Code)
	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodPost, "/reports", auth.Public, "").Code)
	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodGet, "/report", auth.Judge, "").Code)

	rec := hs.do(t, http.MethodPost, "/reports", auth.Competitor, "")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decodeBody[schemas.ReportResponse](t, rec)
	assert.True(t, resp.Queued)

	b, err := os.ReadFile(hs.srv.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Total Teams: 1")

	require.Len(t, q.tasks, 1)
	p, err := worker.ParseReportPayload(q.tasks[0].Payload())
	require.NoError(t, err)
	assert.Equal(t, resp.ReportID, p.ReportID)
	assert.Equal(t, "Competitor", p.RequestedBy)
	require.Len(t, hs.mirror.reports, 1)
	assert.Equal(t, db.ReportPending, hs.mirror.reports[0].Status)

	rec = hs.do(t, http.MethodGet, "/reports", auth.Admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]db.Report](t, rec), 1)
	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodGet, "/reports", auth.Competitor, "").Code)

	rec = hs.do(t, http.MethodGet, "/report", auth.Organizer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
}

func TestReportLookup(t *testing.T) {
	objects := fakeObjects{"s3://reports/reports/r1.txt": "Hackathon Final Report"}
	hs := newHarness(t, nil)
	hs.mirror.reports = []db.Report{
		{ID: "r1", Status: db.ReportDone, ObjectRef: "s3://reports/reports/r1.txt"},
		{ID: "r2", Status: db.ReportPending},
	}

	rec := hs.do(t, http.MethodGet, "/reports/r1", auth.Organizer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", decodeBody[db.Report](t, rec).ID)
	assert.Equal(t, http.StatusNotFound, hs.do(t, http.MethodGet, "/reports/nope", auth.Organizer, "").Code)
	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodGet, "/reports/r1", auth.Judge, "").Code)

	// Without object storage the text cannot be fetched.
	assert.Equal(t, http.StatusServiceUnavailable, hs.do(t, http.MethodGet, "/reports/r1/text", auth.Organizer, "").Code)

	hs = newHarness(t, func(s *Server) { s.Objects = objects })
	hs.mirror.reports = []db.Report{
		{ID: "r1", Status: db.ReportDone, ObjectRef: "s3://reports/reports/r1.txt"},
		{ID: "r2", Status: db.ReportPending},
	}
	rec = hs.do(t, http.MethodGet, "/reports/r1/text", auth.Admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hackathon Final Report", rec.Body.String())
	assert.Equal(t, http.StatusConflict, hs.do(t, http.MethodGet, "/reports/r2/text", auth.Admin, "").Code)
}

func TestAdminSaveAndLoad(t *testing.T) {
	hs := newHarness(t, nil)
	csv := "teamID,teamName,university,category,score1,score2,score3,score4\n" +
		"1,A,U,Data Science,1,2,3,4\n" +
		"2,B,U,Data Science,1\n"
	require.NoError(t, os.WriteFile(hs.srv.DataPath, []byte(csv), 0o644))

	rec := hs.do(t, http.MethodPost, "/admin/load", auth.Organizer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[schemas.LoadResponse](t, rec)
	assert.Equal(t, 1, resp.Loaded)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 3, resp.Errors[0].Line)
	assert.Equal(t, events.RegistryLoaded, hs.pub.events[0].Type)

	require.Equal(t, http.StatusOK, hs.do(t, http.MethodPost, "/admin/save", auth.Clerk, "").Code)
	b, err := os.ReadFile(hs.srv.DataPath)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "2,B")
}

func TestAPITokenGuardsStaffRoutes(t *testing.T) {
	hs := newHarness(t, func(s *Server) { s.APIToken = "s3cret" })
	hs.srv.Teams.Add(teams.NewTeam(1, "A", "U", "C", nil))

	assert.Equal(t, http.StatusUnauthorized, hs.do(t, http.MethodDelete, "/teams/1", auth.Admin, "").Code)
	assert.Equal(t, http.StatusUnauthorized, hs.do(t, http.MethodDelete, "/teams/1", auth.Admin, "", "Authorization", "Bearer nope").Code)
	assert.Equal(t, http.StatusOK, hs.do(t, http.MethodDelete, "/teams/1", auth.Admin, "", "Authorization", "Bearer s3cret").Code)

	// Registration stays open to competitors.
	assert.Equal(t, http.StatusCreated, hs.do(t, http.MethodPost, "/teams", auth.Competitor, `{"name":"B","university":"U","category":"C"}`).Code)
}

func TestAPITokenGuardsScoring(t *testing.T) {
	hs := newHarness(t, func(s *Server) { s.APIToken = "s3cret" })
	hs.srv.Teams.Add(teams.NewTeam(1, "A", "U", "Data Science", []int{0, 0, 0, 0}))
	body := `{"scores":[5,5,5,5]}`

	assert.Equal(t, http.StatusUnauthorized, hs.do(t, http.MethodPut, "/teams/1/scores", auth.Judge, body).Code)
	assert.Equal(t, http.StatusUnauthorized, hs.do(t, http.MethodPut, "/teams/1/scores", auth.Judge, body, "Authorization", "Bearer nope").Code)
	stored, _ := hs.srv.Teams.Get(1)
	assert.Equal(t, [4]int{0, 0, 0, 0}, stored.Scores)

	rec := hs.do(t, http.MethodPut, "/teams/1/scores", auth.Judge, body, "Authorization", "Bearer s3cret")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored, _ = hs.srv.Teams.Get(1)
	assert.Equal(t, [4]int{5, 5, 5, 5}, stored.Scores)

	// A valid token does not lift the role check.
	assert.Equal(t, http.StatusForbidden, hs.do(t, http.MethodPut, "/teams/1/scores", auth.Competitor, body, "Authorization", "Bearer s3cret").Code)
}

func TestRateLimit(t *testing.T) {
	hs := newHarness(t, func(s *Server) { s.Limiter = rate.NewLimiter(0, 1) })
	body := `{"name":"A","university":"U","category":"C"}`
	assert.Equal(t, http.StatusCreated, hs.do(t, http.MethodPost, "/teams", auth.Admin, body).Code)
	assert.Equal(t, http.StatusTooManyRequests, hs.do(t, http.MethodPost, "/teams", auth.Admin, body).Code)
	assert.Equal(t, http.StatusOK, hs.do(t, http.MethodGet, "/teams", auth.Admin, "").Code)
}

func TestHealthz(t *testing.T) {
	hs := newHarness(t, nil)
	rec := hs.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]any](t, rec)["status"])
}
