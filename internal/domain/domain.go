package domain

import (
	"github.com/simpliearn/simpliearn-backend/internal/domain/chat"
	"github.com/simpliearn/simpliearn-backend/internal/domain/dashboard"
	"github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/domain/sentiment"
)

type DashboardRecord = dashboard.Record
type DashboardMetadata = dashboard.Metadata

type JobRun = jobs.JobRun

type ProcessingJob = sentiment.ProcessingJob

type ChatTurn = chat.Turn

const (
	JobStatusPending   = jobs.StatusPending
	JobStatusRunning   = jobs.StatusRunning
	JobStatusCompleted = jobs.StatusCompleted
	JobStatusFailed    = jobs.StatusFailed
)

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&DashboardRecord{},
		&JobRun{},
		&ProcessingJob{},
		&ChatTurn{},
	}
}
