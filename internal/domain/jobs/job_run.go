package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	TypeCreateDashboard    = "create_dashboard"
	TypeAnalyzeRelevance   = "analyze_relevance"
	TypeAnalyzeSpecificity = "analyze_specificity"
)

// ActiveStatuses are the states in which a job still owns its dedup key.
var ActiveStatuses = []string{StatusPending, StatusRunning}

type JobRun struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"job_id"`
	JobType      string         `gorm:"column:job_type;not null;index" json:"job_type"`
	Status       string         `gorm:"column:status;not null;index" json:"status"`
	Stage        string         `gorm:"column:stage;not null" json:"stage"`
	Progress     int            `gorm:"column:progress;not null;default:0" json:"progress"`
	Message      string         `gorm:"column:message" json:"message,omitempty"`
	Error        string         `gorm:"column:error" json:"error,omitempty"`
	DedupKey     string         `gorm:"column:dedup_key;index" json:"-"`
	VideoID      string         `gorm:"column:video_id;index" json:"video_id,omitempty"`
	AnalysisType string         `gorm:"column:analysis_type" json:"analysis_type,omitempty"`
	InputFile    string         `gorm:"column:input_file" json:"input_file,omitempty"`
	OutputFile   string         `gorm:"column:output_file" json:"output_file,omitempty"`
	Payload      datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	Result       datatypes.JSON `gorm:"column:result" json:"result,omitempty"`
	StartedAt    *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	HeartbeatAt  *time.Time     `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
	CompletedAt  *time.Time     `gorm:"column:completed_at;index" json:"completed_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (JobRun) TableName() string { return "job_run" }

func (j *JobRun) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// CanTransition reports whether from -> to is a legal lifecycle move.
// pending -> running -> {completed | failed}; a pending job may also fail
// (dispatch errors, timeouts before start). Terminal states never move.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusFailed
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// SourcesFor returns the states a job must be in to move to `to`.
func SourcesFor(to string) []string {
	out := []string{}
	for _, from := range []string{StatusPending, StatusRunning, StatusCompleted, StatusFailed} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}
