package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// FormField describes one input of a form. Fields have no lifecycle of
// their own, so the ordered list is serialized into the form row.
type FormField struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	BlockType string `json:"blockType"` // email, text, textarea, ...
	Required  bool   `json:"required,omitempty"`
}

// FormFields is an ordered field list stored as jsonb
type FormFields []FormField

// Value implements driver.Valuer
func (f FormFields) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner
func (f *FormFields) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported type for FormFields: %T", value)
	}
}

// RichText is opaque rich-text content (lexical-style JSON). The service
// never interprets it beyond plain-text extraction on the client side.
type RichText json.RawMessage

// Value implements driver.Valuer
func (r RichText) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return []byte(r), nil
}

// Scan implements sql.Scanner
func (r *RichText) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*r = append((*r)[0:0], v...)
		return nil
	case string:
		*r = RichText(v)
		return nil
	default:
		return fmt.Errorf("unsupported type for RichText: %T", value)
	}
}

// MarshalJSON passes the raw content through
func (r RichText) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON stores the raw content as-is
func (r *RichText) UnmarshalJSON(data []byte) error {
	*r = append((*r)[0:0], data...)
	return nil
}

// Form represents a tenant-owned form definition
type Form struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	Title               string         `json:"title" gorm:"type:varchar(255);not null"`
	Type                string         `json:"type" gorm:"type:varchar(50);not null;default:'contact'"`
	Fields              FormFields     `json:"fields" gorm:"type:jsonb"`
	HasAttachment       bool           `json:"hasAttachment" gorm:"default:false"`
	HasAttatchmentLabel string         `json:"hasAttatchmentLabel,omitempty" gorm:"type:varchar(255)"`
	ConfirmationMessage RichText       `json:"confirmationMessage,omitempty" gorm:"type:jsonb"`
	TenantID            uint           `json:"tenant" gorm:"index;not null"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Tenant *Tenant `json:"-" gorm:"foreignKey:TenantID"`
}

// OwnerTenantID implements tenancy.TenantScoped
func (f *Form) OwnerTenantID() *uint {
	if f.TenantID == 0 {
		return nil
	}
	id := f.TenantID
	return &id
}
