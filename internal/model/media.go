package model

import (
	"time"

	"gorm.io/gorm"
)

// Media represents an uploaded binary object. The bytes live in the
// external object store; this row carries the derived URL and metadata.
type Media struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Filename  string         `json:"filename" gorm:"type:varchar(255);not null"`
	MimeType  string         `json:"mimeType" gorm:"type:varchar(100)"`
	Size      int64          `json:"filesize"`
	Key       string         `json:"-" gorm:"type:varchar(512);uniqueIndex;not null"`
	URL       string         `json:"url" gorm:"type:varchar(1024);not null"`
	Alt       string         `json:"alt,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
