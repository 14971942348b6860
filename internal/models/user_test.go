package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Password(t *testing.T) {
	u := &User{Username: "risk"}
	require.NoError(t, u.SetPassword("s3cret"))

	assert.NotEqual(t, "s3cret", u.Password)
	assert.True(t, u.CheckPassword("s3cret"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestUser_HasPermission(t *testing.T) {
	tests := []struct {
		role   Role
		action string
		want   bool
	}{
		{RoleAdmin, "manage_rules", true},
		{RoleAnalyst, "compose_rules", true},
		{RoleAnalyst, "manage_rules", false},
		{RoleViewer, "view_alerts", true},
		{RoleViewer, "compose_rules", false},
		{Role("ghost"), "view_alerts", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.action, func(t *testing.T) {
			u := &User{Role: tt.role}
			assert.Equal(t, tt.want, u.HasPermission(tt.action))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("name", "must not be blank")
	assert.True(t, IsValidation(err))
	assert.Equal(t, "name: must not be blank", err.Error())
	assert.False(t, IsLoadError(err))

	le := &LoadError{Table: "alerts", Column: "Alert Id"}
	assert.True(t, IsLoadError(le))
	assert.Contains(t, le.Error(), `"Alert Id"`)
}

func TestSeverityAndWorkflowValid(t *testing.T) {
	assert.True(t, SeverityHigh.Valid())
	assert.False(t, Severity("Severe").Valid())
	assert.True(t, WorkflowCritical.Valid())
	assert.False(t, Workflow("").Valid())
}
