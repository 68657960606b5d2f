package sentiment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProcessingJob is the optional audit row written when an analysis request sets track_metadata.
type ProcessingJob struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	JobID         *uuid.UUID `gorm:"type:uuid;column:job_id;index" json:"job_id,omitempty"`
	InputFile     string     `gorm:"column:input_file;not null" json:"input_file"`
	OutputFile    string     `gorm:"column:output_file;not null" json:"output_file"`
	Model         string     `gorm:"column:model;not null" json:"model"`
	SentenceCount int        `gorm:"column:sentence_count;not null" json:"sentence_count"`
	ProcessedAt   time.Time  `gorm:"column:processed_at;not null;index" json:"processed_at"`
	Status        string     `gorm:"column:status;not null" json:"status"`
}

func (ProcessingJob) TableName() string { return "processing_jobs" }

func (p *ProcessingJob) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
