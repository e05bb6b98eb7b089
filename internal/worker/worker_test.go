package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackathon-scoreboard/internal/db"
	"hackathon-scoreboard/internal/logging"
	"hackathon-scoreboard/internal/teams"
)

type fakeUploader struct {
	mu       sync.Mutex
	reports  map[string]string
	snapshot map[string][]teams.Team
	err      error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{reports: map[string]string{}, snapshot: map[string][]teams.Team{}}
}

func (f *fakeUploader) PutReport(_ context.Context, id, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[id] = text
	return "s3://bucket/reports/" + id + ".txt", nil
}

func (f *fakeUploader) PutSnapshot(_ context.Context, id string, ts []teams.Team) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot[id] = ts
	return "s3://bucket/snapshots/" + id + ".csv", nil
}

type fakeStore struct {
	finished []db.Report
}

func (f *fakeStore) FinishReport(_ context.Context, r db.Report) error {
	f.finished = append(f.finished, r)
	return nil
}

func payload() ReportPayload {
	return ReportPayload{
		ReportID:    "r-1",
		RequestedBy: "Organizer",
		Teams: []teams.Team{
			teams.NewTeam(1, "Byte Me", "MIT", "Cybersecurity", []int{5, 4, 3, 5}),
			teams.NewTeam(2, "Neural Nomads", "UCL", "Artificial Intelligence", []int{2, 5, 4, 1}),
		},
	}
}

func TestReportTaskRoundTrip(t *testing.T) {
	task, err := NewReportTask(payload())
	require.NoError(t, err)
	assert.Equal(t, TypeReportGenerate, task.Type())

	got, err := ParseReportPayload(task.Payload())
	require.NoError(t, err)
	assert.Equal(t, payload(), got)
}

func TestReportPayloadValidation(t *testing.T) {
	_, err := NewReportTask(ReportPayload{RequestedBy: "Admin"})
	assert.Error(t, err)

	p := payload()
	p.Teams[0].Scores[2] = 9
	_, err = NewReportTask(p)
	assert.Error(t, err)

	_, err = ParseReportPayload([]byte("{"))
	assert.Error(t, err)
}

func TestHandleReportUploadsAndRecords(t *testing.T) {
	up, store := newFakeUploader(), &fakeStore{}
	s := &Server{Store: store, S3: up, Log: logging.Discard()}
	task, err := NewReportTask(payload())
	require.NoError(t, err)

	require.NoError(t, s.handleReport(context.Background(), task))

	assert.Contains(t, up.reports["r-1"], "Total Teams: 2")
	assert.Len(t, up.snapshot["r-1"], 2)
	require.Len(t, store.finished, 1)
	rec := store.finished[0]
	assert.Equal(t, db.ReportDone, rec.Status)
	assert.Equal(t, 2, rec.TeamCount)
	assert.True(t, strings.HasSuffix(rec.ObjectRef, "r-1.txt"))
	assert.True(t, strings.HasSuffix(rec.SnapshotRef, "r-1.csv"))
}

func TestHandleReportRecordsUploadFailure(t *testing.T) {
	up, store := newFakeUploader(), &fakeStore{}
	up.err = errors.New("bucket missing")
	s := &Server{Store: store, S3: up, Log: logging.Discard()}
	task, _ := NewReportTask(payload())

	err := s.handleReport(context.Background(), task)
	require.Error(t, err)
	require.Len(t, store.finished, 1)
	assert.Equal(t, db.ReportFailed, store.finished[0].Status)
	assert.Contains(t, store.finished[0].Error, "bucket missing")
}

func TestHandleReportSkipsRetryOnBadPayload(t *testing.T) {
	s := &Server{S3: newFakeUploader(), Log: logging.Discard()}
	err := s.handleReport(context.Background(), asynq.NewTask(TypeReportGenerate, []byte(`{"report_id":""}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
