package worker

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	"github.com/simpliearn/simpliearn-backend/internal/data/repos/testutil"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/jobs/runtime"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/redis"
)

type funcHandler struct {
	typ string
	run func(*runtime.Context) error
}

func (h funcHandler) Type() string                  { return h.typ }
func (h funcHandler) Run(jc *runtime.Context) error { return h.run(jc) }

func setup(t *testing.T, cfg Config, handlers ...runtime.Handler) (*Worker, repos.JobRunRepo, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	reg := runtime.NewRegistry()
	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	repo := repos.NewJobRunRepo(db, testutil.Logger(t))
	return NewWorker(testutil.Logger(t), repo, reg, redis.NewLocalBus(), cfg), repo, tx
}

func enqueue(t *testing.T, repo repos.JobRunRepo, dbc dbctx.Context, jobType string) *types.JobRun {
	t.Helper()
	job, err := repo.Create(dbc, &types.JobRun{JobType: jobType})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func runOne(t *testing.T, w *Worker, repo repos.JobRunRepo, dbc dbctx.Context, jobType string) *types.JobRun {
	t.Helper()
	job := enqueue(t, repo, dbc, jobType)
	ran, err := w.ProcessNext(dbc)
	if err != nil || !ran {
		t.Fatalf("ProcessNext: ran=%v err=%v", ran, err)
	}
	got, err := repo.Get(dbc, job.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: got=%v err=%v", got, err)
	}
	return got
}

func TestWorkerOutcomes(t *testing.T) {
	w, repo, tx := setup(t, Config{},
		funcHandler{"ok", func(jc *runtime.Context) error {
			jc.Succeed("completed", map[string]string{"identifier": "aapl_x"})
			return nil
		}},
		funcHandler{"err", func(jc *runtime.Context) error {
			jc.Progress("transcribe", 40, "Transcribing")
			return errors.New("speech: quota exceeded")
		}},
		funcHandler{"panics", func(*runtime.Context) error { panic("nil transcript") }},
		funcHandler{"forgets", func(*runtime.Context) error { return nil }},
	)
	dbc := testutil.DBC(tx)

	if got := runOne(t, w, repo, dbc, "ok"); got.Status != domainjobs.StatusCompleted || got.Progress != 100 {
		t.Fatalf("ok: status=%q progress=%d", got.Status, got.Progress)
	}

	got := runOne(t, w, repo, dbc, "err")
	if got.Status != domainjobs.StatusFailed || got.Error != "speech: quota exceeded" || got.Stage != "transcribe" {
		t.Fatalf("err: status=%q stage=%q error=%q", got.Status, got.Stage, got.Error)
	}

	got = runOne(t, w, repo, dbc, "panics")
	if got.Status != domainjobs.StatusFailed || !strings.Contains(got.Error, "nil transcript") {
		t.Fatalf("panics: status=%q error=%q", got.Status, got.Error)
	}

	if got = runOne(t, w, repo, dbc, "forgets"); got.Status != domainjobs.StatusFailed {
		t.Fatalf("forgets: status=%q want failed", got.Status)
	}

	got = runOne(t, w, repo, dbc, "unknown_type")
	if got.Status != domainjobs.StatusFailed || got.Stage != "dispatch" {
		t.Fatalf("unknown: status=%q stage=%q", got.Status, got.Stage)
	}

	if ran, err := w.ProcessNext(dbc); err != nil || ran {
		t.Fatalf("empty queue: ran=%v err=%v", ran, err)
	}
}

func TestWorkerJobTimeout(t *testing.T) {
	w, repo, tx := setup(t, Config{JobTimeout: 50 * time.Millisecond},
		funcHandler{"slow", func(jc *runtime.Context) error {
			jc.Progress("download", 15, "Downloading audio")
			<-jc.Ctx.Done()
			return jc.Ctx.Err()
		}},
	)
	got := runOne(t, w, repo, testutil.DBC(tx), "slow")
	if got.Status != domainjobs.StatusFailed || got.Error != ErrJobTimedOut.Error() || got.Stage != "download" {
		t.Fatalf("timeout: status=%q stage=%q error=%q", got.Status, got.Stage, got.Error)
	}
}

func TestWorkerRunJobStartsPendingJob(t *testing.T) {
	w, repo, tx := setup(t, Config{},
		funcHandler{"ok", func(jc *runtime.Context) error {
			if jc.Job.Status != domainjobs.StatusRunning {
				return errors.New("not running")
			}
			jc.Succeed("completed", nil)
			return nil
		}},
	)
	dbc := testutil.DBC(tx)
	job := enqueue(t, repo, dbc, "ok")
	w.RunJob(dbc, job)
	got, _ := repo.Get(dbc, job.ID)
	if got == nil || got.Status != domainjobs.StatusCompleted || got.StartedAt == nil {
		t.Fatalf("RunJob: got=%+v", got)
	}
}

func TestWorkerReap(t *testing.T) {
	w, repo, tx := setup(t, Config{JobTimeout: 30 * time.Minute, Retention: 24 * time.Hour})
	dbc := testutil.DBC(tx)

	stale := enqueue(t, repo, dbc, "x")
	if _, err := repo.ClaimNextPending(dbc); err != nil {
		t.Fatalf("claim: %v", err)
	}
	old := enqueue(t, repo, dbc, "y")
	if ok, err := repo.Transition(dbc, old.ID, domainjobs.StatusFailed, map[string]interface{}{"error": "boom"}); err != nil || !ok {
		t.Fatalf("fail old: ok=%v err=%v", ok, err)
	}

	if err := w.Reap(dbc, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Reap: %v", err)
	}
	got, _ := repo.Get(dbc, stale.ID)
	if got == nil || got.Status != domainjobs.StatusFailed || got.Error != "job timed out" {
		t.Fatalf("stale: got=%+v", got)
	}
	if kept, _ := repo.Get(dbc, old.ID); kept == nil {
		t.Fatalf("terminal job inside retention: got=nil want kept")
	}

	if err := w.Reap(dbc, time.Now().Add(48*time.Hour)); err != nil {
		t.Fatalf("Reap: %v", err)
	}
	if gone, _ := repo.Get(dbc, old.ID); gone != nil {
		t.Fatalf("old terminal job: got=%+v want deleted", gone)
	}
}
