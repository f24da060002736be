package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

func TestLatestPeriod(t *testing.T) {
	tests := []struct {
		name      string
		rule      string
		days      int
		now       time.Time
		wantStart string
		wantEnd   string
	}{
		{
			name:      "weekly ending sunday",
			rule:      "FREQ=WEEKLY;BYDAY=SU",
			days:      7,
			now:       fixedNow,
			wantStart: "2025-03-03",
			wantEnd:   "2025-03-09",
		},
		{
			name:      "occurrence today is not complete",
			rule:      "FREQ=WEEKLY;BYDAY=SU",
			days:      7,
			now:       time.Date(2025, 3, 9, 17, 0, 0, 0, time.UTC),
			wantStart: "2025-02-24",
			wantEnd:   "2025-03-02",
		},
		{
			name:      "month end",
			rule:      "FREQ=MONTHLY;BYMONTHDAY=-1",
			days:      28,
			now:       fixedNow,
			wantStart: "2025-02-01",
			wantEnd:   "2025-02-28",
		},
		{
			name:      "single day",
			rule:      "FREQ=DAILY",
			days:      1,
			now:       fixedNow,
			wantStart: "2025-03-11",
			wantEnd:   "2025-03-11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, err := LatestPeriod(tt.rule, tt.days, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, period.Start.Format(model.DateLayout))
			assert.Equal(t, tt.wantEnd, period.End.Format(model.DateLayout))
		})
	}
}

func TestLatestPeriod_Invalid(t *testing.T) {
	_, err := LatestPeriod("INVALID_RRULE_SYNTAX", 7, fixedNow)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = LatestPeriod("FREQ=WEEKLY;BYDAY=SU", 0, fixedNow)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestReportingPeriodString(t *testing.T) {
	p := ReportingPeriod{Start: day("2025-03-03"), End: day("2025-03-09")}
	assert.Equal(t, "2025-03-03 to 2025-03-09", p.String())
}

func TestGeneratePeriodTimesheets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := model.Session{ActorID: "scheduler"}
	period := ReportingPeriod{Start: day("2025-03-03"), End: day("2025-03-09")}

	ada := f.volunteer(t, "ada@example.org")
	grace := f.volunteer(t, "grace@example.org")
	bob := f.volunteer(t, "bob@example.org")
	carol := f.volunteer(t, "carol@example.org")
	_, err := f.registry.Deactivate(ctx, session, bob.ID)
	require.NoError(t, err)

	seedAttendance(t, f,
		model.Attendance{ID: "a1", VolunteerID: ada.ID, EventID: "e1", CheckInTime: day("2025-03-04"), HoursWorked: 3},
		model.Attendance{ID: "a2", VolunteerID: ada.ID, EventID: "e2", CheckInTime: day("2025-03-10"), HoursWorked: 5},
		model.Attendance{ID: "a3", VolunteerID: bob.ID, EventID: "e1", CheckInTime: day("2025-03-04"), HoursWorked: 2},
		model.Attendance{ID: "a4", VolunteerID: carol.ID, EventID: "e1", CheckInTime: day("2025-03-05"), HoursWorked: 4},
	)

	decided, err := f.accrual.Submit(ctx, session, carol.ID, period.Start, period.End, model.TimesheetPending)
	require.NoError(t, err)
	_, err = f.accrual.Approve(ctx, decided.ID, "admin-1")
	require.NoError(t, err)

	result, err := GeneratePeriodTimesheets(ctx, f.accrual, f.registry, session, zap.NewNop(), period)
	require.NoError(t, err)

	require.Len(t, result.Submitted, 1)
	assert.Equal(t, ada.ID, result.Submitted[0].VolunteerID)
	assert.Equal(t, 3.0, result.Submitted[0].TotalHours)
	assert.Equal(t, model.TimesheetPending, result.Submitted[0].ApprovalStatus)
	assert.Equal(t, []string{carol.ID}, result.Skipped)

	graceSheets, err := f.accrual.ListByVolunteer(ctx, grace.ID)
	require.NoError(t, err)
	assert.Empty(t, graceSheets)

	carolSheet, err := f.accrual.Get(ctx, decided.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TimesheetApproved, carolSheet.ApprovalStatus)

	// Running again updates the pending aggregate in place
	again, err := GeneratePeriodTimesheets(ctx, f.accrual, f.registry, session, zap.NewNop(), period)
	require.NoError(t, err)
	require.Len(t, again.Submitted, 1)
	assert.Equal(t, result.Submitted[0].ID, again.Submitted[0].ID)
}

func TestPeriodRunner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada := f.volunteer(t, "ada@example.org")
	seedAttendance(t, f,
		model.Attendance{ID: "a1", VolunteerID: ada.ID, EventID: "e1", CheckInTime: day("2025-03-08"), HoursWorked: 2},
	)

	runner := &PeriodRunner{
		Engine:     f.accrual,
		Volunteers: f.registry,
		PeriodDays: 7,
		Logger:     zap.NewNop(),
		Now:        func() time.Time { return fixedNow },
	}

	_, err := runner.Run(ctx, model.Session{})
	assert.ErrorIs(t, err, ErrReportingNotConfigured)
	assert.ErrorIs(t, err, model.ErrValidation)

	runner.Rule = "FREQ=WEEKLY;BYDAY=SU"
	result, err := runner.Run(ctx, model.Session{})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03 to 2025-03-09", result.Period.String())
	require.Len(t, result.Submitted, 1)
	assert.Equal(t, 2.0, result.Submitted[0].TotalHours)
	assert.Equal(t, "system", result.Submitted[0].LastModifiedBy)
}
