package dashboard

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const UnknownTicker = "UNKNOWN"

type Metadata struct {
	Title       string `json:"title"`
	Ticker      string `json:"ticker"`
	UploadDate  string `json:"upload_date"`
	Description string `json:"description"`
}

// Record is one processed earnings call. Artifact filenames are keys in the transcripts and
// sentiment buckets; an empty filename means that artifact was never produced.
type Record struct {
	ID                  uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	VideoIdentifier     string                       `gorm:"column:video_identifier;not null;uniqueIndex" json:"video_identifier"`
	TranscriptFilename  string                       `gorm:"column:transcript_filename" json:"transcript_filename"`
	RelevanceFilename   string                       `gorm:"column:relevance_filename" json:"relevance_filename"`
	SpecificityFilename string                       `gorm:"column:specificity_filename" json:"specificity_filename"`
	Metadata            datatypes.JSONType[Metadata] `gorm:"column:metadata" json:"metadata"`
	CreatedAt           time.Time                    `gorm:"not null;index" json:"created_at"`
	UpdatedAt           time.Time                    `gorm:"not null" json:"updated_at"`
}

func (Record) TableName() string { return "video_analyses" }

func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Record) Meta() Metadata {
	if r == nil {
		return Metadata{}
	}
	return r.Metadata.Data()
}

// HasSentiment reports whether both sentiment artifacts exist. A record without them is still
// processing (or was interrupted) and is not an error.
func (r *Record) HasSentiment() bool {
	return r != nil && r.RelevanceFilename != "" && r.SpecificityFilename != ""
}
