package services

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// ReportingPeriod is an inclusive range of calendar dates
type ReportingPeriod struct {
	Start time.Time
	End   time.Time
}

func (p ReportingPeriod) String() string {
	return p.Start.Format(model.DateLayout) + " to " + p.End.Format(model.DateLayout)
}

// LatestPeriod returns the most recent completed reporting period before now.
// Occurrences of rule mark the last day of each period, and each period spans
// periodDays days ending on that day.
func LatestPeriod(rule string, periodDays int, now time.Time) (ReportingPeriod, error) {
	if periodDays < 1 {
		return ReportingPeriod{}, fmt.Errorf("%w: period must span at least one day", model.ErrValidation)
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return ReportingPeriod{}, fmt.Errorf("%w: invalid period rule: %v", model.ErrValidation, err)
	}

	// Anchor far enough back that yearly rules still have a previous occurrence
	today := dateOnly(now)
	r.DTStart(today.AddDate(-2, 0, 0))

	last := r.Before(today, false)
	if last.IsZero() {
		return ReportingPeriod{}, fmt.Errorf("%w: period rule has no occurrence before %s", model.ErrNotFound, today.Format(model.DateLayout))
	}

	end := dateOnly(last)
	return ReportingPeriod{Start: end.AddDate(0, 0, -(periodDays - 1)), End: end}, nil
}

// VolunteerLister lists registered volunteers
type VolunteerLister interface {
	List(ctx context.Context) ([]model.Volunteer, error)
}

// PeriodResult summarises a batch timesheet run
type PeriodResult struct {
	Period    ReportingPeriod
	Submitted []model.Timesheet
	// Volunteers whose timesheet for the period was already decided
	Skipped []string
}

// GeneratePeriodTimesheets submits a PENDING aggregate timesheet for each
// ACTIVE volunteer with hours in the period. Timesheets for the period that
// are already APPROVED or REJECTED are left alone.
func GeneratePeriodTimesheets(ctx context.Context, engine *AccrualEngine, volunteers VolunteerLister, session model.Session, logger *zap.Logger, period ReportingPeriod) (*PeriodResult, error) {
	all, err := volunteers.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &PeriodResult{Period: period}
	for _, v := range all {
		if v.Status != model.VolunteerActive {
			continue
		}

		decided, err := hasDecidedTimesheet(ctx, engine, v.ID, period)
		if err != nil {
			return nil, err
		}
		if decided {
			result.Skipped = append(result.Skipped, v.ID)
			continue
		}

		generated, err := engine.Generate(ctx, v.ID, period.Start, period.End)
		if err != nil {
			return nil, err
		}
		if generated.TotalHours == 0 {
			continue
		}

		ts, err := engine.Submit(ctx, session, v.ID, period.Start, period.End, model.TimesheetPending)
		if err != nil {
			return nil, fmt.Errorf("failed to submit timesheet for volunteer %s: %w", v.ID, err)
		}
		result.Submitted = append(result.Submitted, *ts)
	}

	logger.Info("Period timesheets generated",
		zap.String("period", period.String()),
		zap.Int("submitted", len(result.Submitted)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

func hasDecidedTimesheet(ctx context.Context, engine *AccrualEngine, volunteerID string, period ReportingPeriod) (bool, error) {
	sheets, err := engine.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return false, err
	}
	for _, ts := range sheets {
		if ts.IsAccrualLine() || !ts.PeriodStart.Equal(period.Start) || !ts.PeriodEnd.Equal(period.End) {
			continue
		}
		if ts.ApprovalStatus != model.TimesheetPending {
			return true, nil
		}
	}
	return false, nil
}

// ErrReportingNotConfigured is returned by PeriodRunner when no period rule is set
var ErrReportingNotConfigured = fmt.Errorf("%w: reporting period is not configured", model.ErrValidation)

// PeriodRunner runs GeneratePeriodTimesheets for the latest period of a
// configured rule. It is invoked by the CLI and by the serve scheduler.
type PeriodRunner struct {
	Engine     *AccrualEngine
	Volunteers VolunteerLister
	Rule       string
	PeriodDays int
	Logger     *zap.Logger
	Now        func() time.Time
}

// Run generates timesheets for the latest completed period
func (r *PeriodRunner) Run(ctx context.Context, session model.Session) (*PeriodResult, error) {
	if r.Rule == "" {
		return nil, ErrReportingNotConfigured
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	period, err := LatestPeriod(r.Rule, r.PeriodDays, now())
	if err != nil {
		return nil, err
	}
	return GeneratePeriodTimesheets(ctx, r.Engine, r.Volunteers, session, r.Logger, period)
}
