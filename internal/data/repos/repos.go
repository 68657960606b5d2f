package repos

import (
	"gorm.io/gorm"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos/chat"
	"github.com/simpliearn/simpliearn-backend/internal/data/repos/dashboard"
	"github.com/simpliearn/simpliearn-backend/internal/data/repos/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/data/repos/sentiment"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type DashboardRecordRepo = dashboard.RecordRepo
type JobRunRepo = jobs.JobRunRepo
type ProcessingJobRepo = sentiment.ProcessingJobRepo
type ChatTurnRepo = chat.TurnRepo

func NewDashboardRecordRepo(db *gorm.DB, baseLog *logger.Logger) DashboardRecordRepo {
	return dashboard.NewRecordRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}

func NewProcessingJobRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingJobRepo {
	return sentiment.NewProcessingJobRepo(db, baseLog)
}

func NewChatTurnRepo(db *gorm.DB, baseLog *logger.Logger) ChatTurnRepo {
	return chat.NewTurnRepo(db, baseLog)
}
