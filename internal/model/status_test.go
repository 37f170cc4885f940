package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ContractStatus
		want     bool
	}{
		{StatusDraft, StatusPending, true},
		{StatusPending, StatusApproved, true},
		{StatusApproved, StatusDraft, true},
		{StatusApproved, StatusIssued, true},
		{StatusIssued, StatusConfirmed, true},
		{StatusDraft, StatusApproved, false},
		{StatusPending, StatusDraft, false},
		{StatusIssued, StatusDraft, false},
		{StatusConfirmed, StatusIssued, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestStatusAtLeast(t *testing.T) {
	assert.True(t, StatusIssued.AtLeast(StatusApproved))
	assert.True(t, StatusApproved.AtLeast(StatusApproved))
	assert.False(t, StatusPending.AtLeast(StatusApproved))
}

func TestClientCodeFromCorporateNumber(t *testing.T) {
	assert.Equal(t, "12345678", ClientCodeFromCorporateNumber("1234567890123"))
	assert.Equal(t, "12345678", ClientCodeFromCorporateNumber("1234-5678-90123"))
	assert.Equal(t, "", ClientCodeFromCorporateNumber(""))
	assert.Equal(t, "12345678-202504-0002", FormatContractNumber("12345678", "202504", 2))
}
