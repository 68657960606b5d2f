package app

import (
	"gorm.io/gorm"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type Repos struct {
	Jobs       repos.JobRunRepo
	Records    repos.DashboardRecordRepo
	Processing repos.ProcessingJobRepo
	Turns      repos.ChatTurnRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Jobs:       repos.NewJobRunRepo(db, log),
		Records:    repos.NewDashboardRecordRepo(db, log),
		Processing: repos.NewProcessingJobRepo(db, log),
		Turns:      repos.NewChatTurnRepo(db, log),
	}
}
