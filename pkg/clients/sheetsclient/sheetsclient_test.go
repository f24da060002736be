package sheetsclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

func TestParseVolunteers(t *testing.T) {
	raw := [][]interface{}{
		{"Email", "First name", "Notes", "Last name", " Phone "},
		{"ada@example.org", "Ada", "keyholder", "Lovelace", "07700 900123"},
		{},
		{"", "", "left blank"},
		{"grace@example.org", " Grace ", "", "Hopper"},
	}

	volunteers, err := parseVolunteers(raw)
	require.NoError(t, err)
	require.Len(t, volunteers, 2)

	assert.Equal(t, model.Volunteer{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.org",
		Phone:     "07700 900123",
	}, volunteers[0])
	assert.Equal(t, "Grace", volunteers[1].FirstName)
	assert.Empty(t, volunteers[1].Phone)
}

func TestParseVolunteers_PhoneColumnOptional(t *testing.T) {
	raw := [][]interface{}{
		{"First name", "Last name", "Email"},
		{"Ada", "Lovelace", "ada@example.org"},
	}

	volunteers, err := parseVolunteers(raw)
	require.NoError(t, err)
	require.Len(t, volunteers, 1)
	assert.Empty(t, volunteers[0].Phone)
}

func TestParseVolunteers_MissingHeader(t *testing.T) {
	raw := [][]interface{}{
		{"First name", "Last name"},
		{"Ada", "Lovelace"},
	}

	_, err := parseVolunteers(raw)
	assert.ErrorContains(t, err, "missing required field in header: Email")

	_, err = parseVolunteers(nil)
	assert.Error(t, err)
}

func TestTimesheetValues(t *testing.T) {
	values := timesheetValues([]model.TimesheetRow{
		{
			VolunteerName: "Ada Lovelace",
			Email:         "ada@example.org",
			EventName:     "Food bank",
			PeriodStart:   "2025-03-15",
			PeriodEnd:     "2025-03-15",
			TotalHours:    3,
			ApprovedBy:    "admin-1",
		},
	})

	require.Len(t, values, 2)
	assert.Equal(t, timesheetHeader, values[0])
	assert.Equal(t, []interface{}{"Ada Lovelace", "ada@example.org", "Food bank", "2025-03-15", "2025-03-15", 3.0, "admin-1"}, values[1])
}

func TestTimesheetValues_HeaderOnly(t *testing.T) {
	values := timesheetValues(nil)
	assert.Equal(t, [][]interface{}{timesheetHeader}, values)
}
