package sheetsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// Expected column names in the volunteers sheet. Phone is optional.
var volunteerFields = []string{
	"First name",
	"Last name",
	"Email",
}

const phoneField = "Phone"

// VolunteerSheet reads volunteer rows from one tab of a spreadsheet
type VolunteerSheet struct {
	client        *Client
	spreadsheetID string
	tab           string
}

// NewVolunteerSheet creates a reader for the given spreadsheet tab
func NewVolunteerSheet(client *Client, spreadsheetID, tab string) *VolunteerSheet {
	return &VolunteerSheet{client: client, spreadsheetID: spreadsheetID, tab: tab}
}

// ListVolunteers retrieves and parses volunteer rows from the tab
func (s *VolunteerSheet) ListVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	values, err := s.client.GetValues(ctx, s.spreadsheetID, s.tab)
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	volunteers, err := parseVolunteers(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse volunteers: %w", err)
	}

	return volunteers, nil
}

// parseVolunteers converts raw spreadsheet data into Volunteer structs
func parseVolunteers(raw [][]interface{}) ([]model.Volunteer, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	// Build field index map from header row
	fieldIndexes := make(map[string]int)
	headerRow := raw[0]
	findColumn := func(field string) int {
		for i, cell := range headerRow {
			if cellStr, ok := cell.(string); ok && strings.TrimSpace(cellStr) == field {
				return i
			}
		}
		return -1
	}

	for _, field := range volunteerFields {
		index := findColumn(field)
		if index == -1 {
			return nil, fmt.Errorf("missing required field in header: %s", field)
		}
		fieldIndexes[field] = index
	}
	if index := findColumn(phoneField); index != -1 {
		fieldIndexes[phoneField] = index
	}

	getField := func(field string, row []interface{}) string {
		index, ok := fieldIndexes[field]
		if !ok || index >= len(row) {
			return ""
		}
		if str, ok := row[index].(string); ok {
			return strings.TrimSpace(str)
		}
		return ""
	}

	volunteers := make([]model.Volunteer, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		// Skip blank rows
		if getField("First name", row) == "" && getField("Email", row) == "" {
			continue
		}

		volunteers = append(volunteers, model.Volunteer{
			FirstName: getField("First name", row),
			LastName:  getField("Last name", row),
			Email:     getField("Email", row),
			Phone:     getField(phoneField, row),
		})
	}

	return volunteers, nil
}
