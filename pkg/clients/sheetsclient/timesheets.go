package sheetsclient

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

var timesheetHeader = []interface{}{
	"Volunteer", "Email", "Event", "Period start", "Period end", "Hours", "Approved by",
}

// TimesheetSheet publishes approved timesheets to tabs of a spreadsheet
type TimesheetSheet struct {
	client        *Client
	spreadsheetID string
}

// NewTimesheetSheet creates a publisher for the given spreadsheet
func NewTimesheetSheet(client *Client, spreadsheetID string) *TimesheetSheet {
	return &TimesheetSheet{client: client, spreadsheetID: spreadsheetID}
}

// PublishTimesheets writes rows under a header to the named tab.
// The tab is created if missing; an existing tab is cleared and rewritten.
func (s *TimesheetSheet) PublishTimesheets(ctx context.Context, tabTitle string, rows []model.TimesheetRow) error {
	exists, err := s.client.HasSheet(ctx, s.spreadsheetID, tabTitle)
	if err != nil {
		return err
	}

	if exists {
		if err := s.client.ClearValues(ctx, s.spreadsheetID, tabTitle); err != nil {
			return fmt.Errorf("failed to clear tab %s: %w", tabTitle, err)
		}
	} else {
		if _, err := s.client.CreateSheet(ctx, s.spreadsheetID, tabTitle); err != nil {
			return fmt.Errorf("failed to create tab %s: %w", tabTitle, err)
		}
	}

	if err := s.client.WriteValues(ctx, s.spreadsheetID, fmt.Sprintf("'%s'!A1", tabTitle), timesheetValues(rows)); err != nil {
		return fmt.Errorf("failed to write tab %s: %w", tabTitle, err)
	}

	return nil
}

// timesheetValues lays out the header and one sheet row per timesheet
func timesheetValues(rows []model.TimesheetRow) [][]interface{} {
	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, timesheetHeader)
	for _, row := range rows {
		values = append(values, []interface{}{
			row.VolunteerName,
			row.Email,
			row.EventName,
			row.PeriodStart,
			row.PeriodEnd,
			row.TotalHours,
			row.ApprovedBy,
		})
	}
	return values
}
