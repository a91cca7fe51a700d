package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowsFormType(t *testing.T) {
	t.Run("empty allow-list accepts everything", func(t *testing.T) {
		s := TenantSettings{}
		assert.True(t, s.AllowsFormType(FormTypeContact))
		assert.True(t, s.AllowsFormType(FormTypeSurvey))
	})

	t.Run("restricted allow-list", func(t *testing.T) {
		s := TenantSettings{AllowedFormTypes: []string{FormTypeContact, FormTypeRegistration}}
		assert.True(t, s.AllowsFormType(FormTypeContact))
		assert.True(t, s.AllowsFormType(FormTypeRegistration))
		assert.False(t, s.AllowsFormType(FormTypeSurvey))
	})
}

func TestTenantSettingsScan(t *testing.T) {
	var s TenantSettings
	err := s.Scan([]byte(`{"allowed_form_types":["contact"],"max_submissions_per_form":100}`))
	assert.NoError(t, err)
	assert.Equal(t, []string{"contact"}, s.AllowedFormTypes)
	if assert.NotNil(t, s.MaxSubmissionsPerForm) {
		assert.Equal(t, 100, *s.MaxSubmissionsPerForm)
	}

	err = s.Scan(nil)
	assert.NoError(t, err)
	assert.Empty(t, s.AllowedFormTypes)
}
