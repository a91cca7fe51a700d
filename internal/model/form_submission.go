package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SubmissionValue is one submitted field/value pair
type SubmissionValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SubmissionData is the ordered list of submitted values, stored as jsonb
type SubmissionData []SubmissionValue

// Value implements driver.Valuer
func (d SubmissionData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *SubmissionData) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported type for SubmissionData: %T", value)
	}
}

// FormSubmission represents one submitted form. The tenant always mirrors
// the submission's effective tenant at creation time; the stamping hook
// resolves it even when the client omits it.
type FormSubmission struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	FormID         uint           `json:"form" gorm:"index;not null"`
	TenantID       uint           `json:"tenant" gorm:"index;not null"`
	SubmissionData SubmissionData `json:"submissionData" gorm:"type:jsonb"`
	FileID         *uint          `json:"file,omitempty" gorm:"index"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Form *Form  `json:"-" gorm:"foreignKey:FormID"`
	File *Media `json:"-" gorm:"foreignKey:FileID"`
}

// OwnerTenantID implements tenancy.TenantScoped
func (s *FormSubmission) OwnerTenantID() *uint {
	if s.TenantID == 0 {
		return nil
	}
	id := s.TenantID
	return &id
}
