package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Patient struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string    `gorm:"not null" json:"firstName"`
	LastName  string    `gorm:"not null" json:"lastName"`
	DOB       time.Time `gorm:"column:dob" json:"dob"`
	Address   string    `json:"address,omitempty"`
	MRN       string    `gorm:"column:mrn;index" json:"mrn,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Patient) TableName() string { return "patient" }

// Note is one clinical encounter record: its audio segments, transcript,
// summary, and generated forms. Forms is a JSON object keyed by form id;
// a null value means generation was requested but has not completed.
type Note struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID int64          `gorm:"not null;index" json:"patientId"`
	Title     *string        `json:"title,omitempty"`
	Summary   *string        `json:"summary,omitempty"`
	Status    NoteStatus     `gorm:"not null;index" json:"status"`
	Forms     datatypes.JSON `gorm:"type:jsonb" json:"forms"`
	Audios    []Audio        `gorm:"foreignKey:NoteID" json:"audios"`
	CreatedAt time.Time      `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null" json:"updatedAt"`
}

func (Note) TableName() string { return "note" }

type Audio struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	NoteID     int64     `gorm:"not null;index" json:"noteId"`
	Path       string    `gorm:"not null" json:"path"`
	MimeType   string    `gorm:"column:mime_type" json:"mimetype,omitempty"`
	Transcript *string   `json:"transcript,omitempty"`
	CreatedAt  time.Time `gorm:"not null;index" json:"createdAt"`
}

func (Audio) TableName() string { return "audio" }

var AllowedAudioMimeTypes = []string{
	"audio/mpeg",
	"audio/mp3",
	"audio/wav",
	"audio/x-wav",
	"audio/wave",
	"audio/x-wave",
	"audio/mp4",
	"audio/x-m4a",
}

const MaxAudioFileSize = 25 * 1024 * 1024

func MimeTypeAllowed(mime string) bool {
	for _, m := range AllowedAudioMimeTypes {
		if m == mime {
			return true
		}
	}
	return false
}
