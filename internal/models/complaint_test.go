package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidStatus(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, IsValidStatus(s), "expected %q to be valid", s)
	}

	assert.False(t, IsValidStatus("Pending"))
	assert.False(t, IsValidStatus("submitted")) // case matters, values are display strings
	assert.False(t, IsValidStatus(""))
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusResolved.IsTerminal())
	assert.True(t, StatusDismissed.IsTerminal())

	assert.False(t, StatusSubmitted.IsTerminal())
	assert.False(t, StatusViewed.IsTerminal())
	assert.False(t, StatusUnderReview.IsTerminal())
	assert.False(t, StatusWorking.IsTerminal())
	assert.False(t, StatusInvestigation.IsTerminal())
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleAdmin))
	assert.True(t, IsValidRole(RoleDeveloper))
	assert.True(t, IsValidRole(RoleCommittee))
	assert.True(t, IsValidRole(RoleActionTaker))

	assert.False(t, IsValidRole("superuser"))
	assert.False(t, IsValidRole(""))
}

func TestPasscodeProtected(t *testing.T) {
	open := &Complaint{ID: "CMP-23456789"}
	assert.False(t, open.PasscodeProtected())

	locked := &Complaint{ID: "CMP-23456789", PasscodeHash: "abc123"}
	assert.True(t, locked.PasscodeProtected())
}
