package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

type mockVolunteerSheet struct {
	rows []model.Volunteer
	err  error
}

func (m *mockVolunteerSheet) ListVolunteers(_ context.Context) ([]model.Volunteer, error) {
	return m.rows, m.err
}

type mockTimesheetSheet struct {
	calls    int
	tabTitle string
	rows     []model.TimesheetRow
	err      error
}

func (m *mockTimesheetSheet) PublishTimesheets(_ context.Context, tabTitle string, rows []model.TimesheetRow) error {
	m.calls++
	m.tabTitle = tabTitle
	m.rows = rows
	return m.err
}

func TestImportVolunteers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.volunteer(t, "existing@example.org")

	sheet := &mockVolunteerSheet{rows: []model.Volunteer{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.org"},
		{FirstName: "Dup", LastName: "Licate", Email: "existing@example.org"},
		{FirstName: "", LastName: "Nameless", Email: "nameless@example.org"},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.org", Phone: "07700 900123"},
	}}

	result, err := ImportVolunteers(ctx, f.registry, sheet, model.Session{ActorID: "importer"}, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, result.Imported, 2)
	assert.Equal(t, "ada@example.org", result.Imported[0].Email)
	assert.Equal(t, "grace@example.org", result.Imported[1].Email)
	assert.Equal(t, "importer", result.Imported[1].LastModifiedBy)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "existing@example.org", result.Skipped[0].Email)
	assert.Equal(t, "Conflict", result.Skipped[0].Kind)
	assert.Equal(t, "nameless@example.org", result.Skipped[1].Email)
	assert.Equal(t, "Validation", result.Skipped[1].Kind)

	all, err := f.registry.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestImportVolunteers_SheetError(t *testing.T) {
	f := newFixture(t)
	sheet := &mockVolunteerSheet{err: errors.New("quota exceeded")}

	_, err := ImportVolunteers(context.Background(), f.registry, sheet, model.Session{}, zap.NewNop())
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestPublishTimesheets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	period := ReportingPeriod{Start: day("2025-03-01"), End: day("2025-03-31")}

	zoe := f.volunteer(t, "zoe@example.org")
	zoe.FirstName = "Zoe"
	_, err := f.registry.Update(ctx, model.Session{}, *zoe)
	require.NoError(t, err)
	ada := f.volunteer(t, "ada@example.org")
	ada.FirstName = "Ada"
	_, err = f.registry.Update(ctx, model.Session{}, *ada)
	require.NoError(t, err)

	approve := func(ts *model.Timesheet) {
		t.Helper()
		_, err := f.accrual.Approve(ctx, ts.ID, "admin-1")
		require.NoError(t, err)
	}

	zoeLine, err := f.accrual.EnsureLine(ctx, zoe.ID, "e1", "Food bank", day("2025-03-15"))
	require.NoError(t, err)
	_, err = f.accrual.ApplyDelta(ctx, zoe.ID, "e1", 3)
	require.NoError(t, err)
	approve(zoeLine)

	adaLate, err := f.accrual.EnsureLine(ctx, ada.ID, "e2", "Soup run", day("2025-03-20"))
	require.NoError(t, err)
	approve(adaLate)

	adaEarly, err := f.accrual.EnsureLine(ctx, ada.ID, "e1", "Food bank", day("2025-03-15"))
	require.NoError(t, err)
	approve(adaEarly)

	// Pending and out-of-period timesheets are not published
	_, err = f.accrual.EnsureLine(ctx, ada.ID, "e3", "Litter pick", day("2025-03-22"))
	require.NoError(t, err)
	april, err := f.accrual.EnsureLine(ctx, ada.ID, "e4", "Litter pick", day("2025-04-02"))
	require.NoError(t, err)
	approve(april)

	orphan, err := f.accrual.Submit(ctx, model.Session{}, "removed-volunteer", day("2025-03-01"), day("2025-03-31"), model.TimesheetPending)
	require.NoError(t, err)
	approve(orphan)

	sheet := &mockTimesheetSheet{}
	result, err := PublishTimesheets(ctx, f.accrual, f.registry, sheet, zap.NewNop(), period)
	require.NoError(t, err)

	assert.Equal(t, 1, sheet.calls)
	assert.Equal(t, "Timesheets 2025-03-01 to 2025-03-31", sheet.tabTitle)
	assert.Equal(t, result.Rows, sheet.rows)
	require.Len(t, result.Rows, 4)

	assert.Equal(t, "Ada Unteer", result.Rows[0].VolunteerName)
	assert.Equal(t, "Food bank", result.Rows[0].EventName)
	assert.Equal(t, "Ada Unteer", result.Rows[1].VolunteerName)
	assert.Equal(t, "Soup run", result.Rows[1].EventName)
	assert.Equal(t, "Zoe Unteer", result.Rows[2].VolunteerName)
	assert.Equal(t, 3.0, result.Rows[2].TotalHours)
	assert.Equal(t, "admin-1", result.Rows[2].ApprovedBy)
	assert.Equal(t, "zoe@example.org", result.Rows[2].Email)
	assert.Equal(t, "removed-volunteer", result.Rows[3].VolunteerName)
	assert.Equal(t, "All events", result.Rows[3].EventName)
	assert.Empty(t, result.Rows[3].Email)
}

func TestPublishTimesheets_NothingApproved(t *testing.T) {
	f := newFixture(t)
	sheet := &mockTimesheetSheet{}

	result, err := PublishTimesheets(context.Background(), f.accrual, f.registry, sheet, zap.NewNop(),
		ReportingPeriod{Start: day("2025-03-01"), End: day("2025-03-31")})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 0, sheet.calls)
}

func TestPublishTimesheets_SheetError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	line, err := f.accrual.EnsureLine(ctx, "vol-1", "e1", "Food bank", day("2025-03-15"))
	require.NoError(t, err)
	_, err = f.accrual.Approve(ctx, line.ID, "admin-1")
	require.NoError(t, err)

	sheet := &mockTimesheetSheet{err: errors.New("sheet locked")}
	_, err = PublishTimesheets(ctx, f.accrual, f.registry, sheet, zap.NewNop(),
		ReportingPeriod{Start: day("2025-03-01"), End: day("2025-03-31")})
	assert.ErrorContains(t, err, "sheet locked")
}
