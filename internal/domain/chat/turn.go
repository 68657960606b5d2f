package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Turn is one question/answer exchange about a single earnings call.
type Turn struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VideoIdentifier string    `gorm:"column:video_identifier;not null;index" json:"video_identifier"`
	Question        string    `gorm:"column:question;not null" json:"question"`
	Answer          string    `gorm:"column:answer;not null" json:"answer"`
	CreatedAt       time.Time `gorm:"not null;index" json:"created_at"`
}

func (Turn) TableName() string { return "chat_turn" }

func (t *Turn) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
