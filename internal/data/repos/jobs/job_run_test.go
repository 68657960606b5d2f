package jobs

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos/testutil"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
)

func TestJobRunRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	repo := NewJobRunRepo(db, testutil.Logger(t))

	job, err := repo.Create(dbc, &types.JobRun{JobType: domainjobs.TypeCreateDashboard, VideoID: "dC9yOuhiNrk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID == uuid.Nil || job.Status != domainjobs.StatusPending {
		t.Fatalf("Create: got id=%v status=%q", job.ID, job.Status)
	}

	ok, err := repo.Transition(dbc, job.ID, domainjobs.StatusCompleted, nil)
	if err != nil || ok {
		t.Fatalf("pending->completed: got ok=%v err=%v want ok=false", ok, err)
	}

	claimed, err := repo.ClaimNextPending(dbc)
	if err != nil {
		t.Fatalf("ClaimNextPending: %v", err)
	}
	if claimed == nil || claimed.ID != job.ID || claimed.Status != domainjobs.StatusRunning {
		t.Fatalf("ClaimNextPending: got=%+v", claimed)
	}
	if again, err := repo.ClaimNextPending(dbc); err != nil || again != nil {
		t.Fatalf("second claim: got=%v err=%v want nil", again, err)
	}

	ok, err = repo.Transition(dbc, job.ID, domainjobs.StatusCompleted, map[string]interface{}{"progress": 100})
	if err != nil || !ok {
		t.Fatalf("running->completed: got ok=%v err=%v", ok, err)
	}
	ok, err = repo.Transition(dbc, job.ID, domainjobs.StatusFailed, map[string]interface{}{"error": "late"})
	if err != nil || ok {
		t.Fatalf("completed->failed: got ok=%v err=%v want ok=false", ok, err)
	}

	got, err := repo.Get(dbc, job.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: got=%v err=%v", got, err)
	}
	if got.Status != domainjobs.StatusCompleted || got.Error != "" || got.CompletedAt == nil {
		t.Fatalf("Get: status=%q error=%q completed_at=%v", got.Status, got.Error, got.CompletedAt)
	}

	missing, err := repo.Get(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("Get missing: got=%v err=%v", missing, err)
	}
}

func TestJobRunRepoCreateDeduped(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	repo := NewJobRunRepo(db, testutil.Logger(t))

	first, existed, err := repo.CreateDeduped(dbc, &types.JobRun{JobType: domainjobs.TypeCreateDashboard, DedupKey: "dashboard:abc"})
	if err != nil || existed {
		t.Fatalf("first: existed=%v err=%v", existed, err)
	}
	second, existed, err := repo.CreateDeduped(dbc, &types.JobRun{JobType: domainjobs.TypeCreateDashboard, DedupKey: "dashboard:abc"})
	if err != nil || !existed {
		t.Fatalf("second: existed=%v err=%v", existed, err)
	}
	if second.ID != first.ID {
		t.Fatalf("second: got=%v want=%v", second.ID, first.ID)
	}

	if ok, err := repo.Transition(dbc, first.ID, domainjobs.StatusFailed, map[string]interface{}{"error": "boom"}); err != nil || !ok {
		t.Fatalf("fail first: ok=%v err=%v", ok, err)
	}
	third, existed, err := repo.CreateDeduped(dbc, &types.JobRun{JobType: domainjobs.TypeCreateDashboard, DedupKey: "dashboard:abc"})
	if err != nil || existed {
		t.Fatalf("after terminal: existed=%v err=%v", existed, err)
	}
	if third.ID == first.ID {
		t.Fatalf("after terminal: reused terminal job %v", first.ID)
	}
}

func TestJobRunRepoReaperQueries(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now()
	stale := &types.JobRun{
		JobType:     domainjobs.TypeCreateDashboard,
		Status:      domainjobs.StatusRunning,
		Stage:       "transcribe",
		HeartbeatAt: ptrTime(now.Add(-2 * time.Hour)),
	}
	fresh := &types.JobRun{
		JobType:     domainjobs.TypeCreateDashboard,
		Status:      domainjobs.StatusRunning,
		Stage:       "download",
		HeartbeatAt: ptrTime(now),
	}
	old := &types.JobRun{
		JobType:     domainjobs.TypeAnalyzeRelevance,
		Status:      domainjobs.StatusCompleted,
		Stage:       "completed",
		CompletedAt: ptrTime(now.Add(-200 * time.Hour)),
	}
	for _, j := range []*types.JobRun{stale, fresh, old} {
		if _, err := repo.Create(dbc, j); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := repo.FailStaleRunning(dbc, now.Add(-30*time.Minute), "job timed out")
	if err != nil || n != 1 {
		t.Fatalf("FailStaleRunning: got=%d err=%v want=1", n, err)
	}
	got, _ := repo.Get(dbc, stale.ID)
	if got.Status != domainjobs.StatusFailed || got.Error != "job timed out" {
		t.Fatalf("stale job: status=%q error=%q", got.Status, got.Error)
	}
	got, _ = repo.Get(dbc, fresh.ID)
	if got.Status != domainjobs.StatusRunning {
		t.Fatalf("fresh job: status=%q want=running", got.Status)
	}

	counts, err := repo.CountByStatus(dbc)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[domainjobs.StatusRunning] < 1 || counts[domainjobs.StatusFailed] < 1 {
		t.Fatalf("CountByStatus: got=%v", counts)
	}

	n, err = repo.DeleteTerminalBefore(dbc, now.Add(-168*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("DeleteTerminalBefore: got=%d err=%v want=1", n, err)
	}
	if got, _ := repo.Get(dbc, old.ID); got != nil {
		t.Fatalf("old job still present: %+v", got)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
