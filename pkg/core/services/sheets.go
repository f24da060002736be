package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// VolunteerSheet reads volunteer rows from an external sheet
type VolunteerSheet interface {
	ListVolunteers(ctx context.Context) ([]model.Volunteer, error)
}

// TimesheetSheet writes published timesheet rows to a new tab
type TimesheetSheet interface {
	PublishTimesheets(ctx context.Context, tabTitle string, rows []model.TimesheetRow) error
}

// ImportSkip records a sheet row that was not registered
type ImportSkip struct {
	Email  string
	Kind   string
	Reason string
}

// ImportResult summarises a volunteer import
type ImportResult struct {
	Imported []model.Volunteer
	Skipped  []ImportSkip
}

// ImportVolunteers registers every row of the sheet through the registry.
// Rows rejected with Validation or Conflict are skipped and reported, any
// other failure stops the import.
func ImportVolunteers(ctx context.Context, registry *VolunteerRegistry, sheet VolunteerSheet, session model.Session, logger *zap.Logger) (*ImportResult, error) {
	rows, err := sheet.ListVolunteers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read volunteer sheet: %w", err)
	}

	result := &ImportResult{}
	for _, row := range rows {
		v, err := registry.Register(ctx, session, row)
		if errors.Is(err, model.ErrValidation) || errors.Is(err, model.ErrConflict) {
			result.Skipped = append(result.Skipped, ImportSkip{Email: row.Email, Kind: model.ErrorKind(err), Reason: err.Error()})
			logger.Debug("Volunteer row skipped", zap.String("email", row.Email), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Imported = append(result.Imported, *v)
	}

	logger.Info("Volunteers imported",
		zap.Int("imported", len(result.Imported)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

// PublishResult summarises a timesheet publication
type PublishResult struct {
	TabTitle string
	Rows     []model.TimesheetRow
}

// PublishTimesheets writes every APPROVED timesheet whose period ends within
// the given period to a new sheet tab
func PublishTimesheets(ctx context.Context, engine *AccrualEngine, volunteers VolunteerLister, sheet TimesheetSheet, logger *zap.Logger, period ReportingPeriod) (*PublishResult, error) {
	sheets, err := engine.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	all, err := volunteers.List(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Volunteer, len(all))
	for _, v := range all {
		byID[v.ID] = v
	}

	rows := timesheetRows(sheets, byID, period)
	result := &PublishResult{
		TabTitle: "Timesheets " + period.String(),
		Rows:     rows,
	}
	if len(rows) == 0 {
		logger.Info("No approved timesheets to publish", zap.String("period", period.String()))
		return result, nil
	}

	if err := sheet.PublishTimesheets(ctx, result.TabTitle, rows); err != nil {
		return nil, fmt.Errorf("failed to publish timesheets: %w", err)
	}

	logger.Info("Timesheets published",
		zap.String("tab", result.TabTitle),
		zap.Int("rows", len(rows)))

	return result, nil
}

// timesheetRows builds published rows ordered by volunteer name then period
func timesheetRows(sheets []model.Timesheet, volunteers map[string]model.Volunteer, period ReportingPeriod) []model.TimesheetRow {
	type keyed struct {
		row   model.TimesheetRow
		start time.Time
	}

	var selected []keyed
	for _, ts := range sheets {
		if ts.ApprovalStatus != model.TimesheetApproved {
			continue
		}
		if ts.PeriodEnd.Before(period.Start) || ts.PeriodEnd.After(period.End) {
			continue
		}

		name := ts.VolunteerID
		email := ""
		if v, ok := volunteers[ts.VolunteerID]; ok {
			name = v.FullName()
			email = v.Email
		}
		eventName := ts.EventName
		if eventName == "" {
			eventName = "All events"
		}

		selected = append(selected, keyed{
			start: ts.PeriodStart,
			row: model.TimesheetRow{
				VolunteerName: name,
				Email:         email,
				EventName:     eventName,
				PeriodStart:   ts.PeriodStart.Format(model.DateLayout),
				PeriodEnd:     ts.PeriodEnd.Format(model.DateLayout),
				TotalHours:    ts.TotalHours,
				ApprovedBy:    ts.ApprovedBy,
			},
		})
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].row.VolunteerName != selected[j].row.VolunteerName {
			return selected[i].row.VolunteerName < selected[j].row.VolunteerName
		}
		return selected[i].start.Before(selected[j].start)
	})

	rows := make([]model.TimesheetRow, 0, len(selected))
	for _, k := range selected {
		rows = append(rows, k.row)
	}
	return rows
}
