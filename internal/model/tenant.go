package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Form types a tenant may allow
const (
	FormTypeContact      = "contact"
	FormTypeRegistration = "registration"
	FormTypeSurvey       = "survey"
)

// TenantSettings holds per-tenant form policy, stored as a jsonb column
type TenantSettings struct {
	AllowedFormTypes      []string `json:"allowed_form_types,omitempty"`
	MaxSubmissionsPerForm *int     `json:"max_submissions_per_form,omitempty"`
	CustomEmailTemplate   string   `json:"custom_email_template,omitempty"`
}

// Value implements driver.Valuer so gorm can persist settings as jsonb
func (s TenantSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for reading settings back from jsonb
func (s *TenantSettings) Scan(value interface{}) error {
	if value == nil {
		*s = TenantSettings{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type for TenantSettings: %T", value)
	}
}

// AllowsFormType reports whether the tenant accepts forms of the given type.
// An empty allow-list means every type is accepted.
func (s TenantSettings) AllowsFormType(formType string) bool {
	if len(s.AllowedFormTypes) == 0 {
		return true
	}
	for _, t := range s.AllowedFormTypes {
		if t == formType {
			return true
		}
	}
	return false
}

// Tenant represents an isolated customer scope. Every form and submission
// belongs to exactly one tenant; the unique domain drives host-based lookup.
type Tenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Domain    string         `json:"domain" gorm:"type:varchar(255);uniqueIndex;not null"`
	Settings  TenantSettings `json:"settings" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// OwnerTenantID implements tenancy.TenantScoped; a tenant is scoped to itself
func (t *Tenant) OwnerTenantID() *uint {
	if t.ID == 0 {
		return nil
	}
	id := t.ID
	return &id
}
