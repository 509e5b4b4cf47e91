package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, PeriodDaily, ParsePeriod("daily"))
	assert.Equal(t, PeriodWeekly, ParsePeriod("Weekly"))
	assert.Equal(t, PeriodMonthly, ParsePeriod("monthly"))
	assert.Equal(t, PeriodMonthly, ParsePeriod("yearly"))
	assert.Equal(t, PeriodMonthly, ParsePeriod(""))
}

// 从 From 到 now 所在日期（含两端）的日历日数
func daysCovered(t *testing.T, w Window, now time.Time) int {
	t.Helper()

	from, err := time.ParseInLocation(DateLayout, w.From, now.Location())
	require.NoError(t, err)

	n := 0
	for d := from; d.Format(DateLayout) <= now.Format(DateLayout); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func TestWindowFor(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 30, 0, 0, time.Local)

	daily := WindowFor(PeriodDaily, now)
	assert.Equal(t, Window{From: "2026-10-19", To: "2026-10-19"}, daily)

	weekly := WindowFor(PeriodWeekly, now)
	assert.Equal(t, Window{From: "2026-10-13"}, weekly)
	assert.Equal(t, 7, daysCovered(t, weekly, now))

	monthly := WindowFor(PeriodMonthly, now)
	assert.Equal(t, Window{From: "2026-09-20"}, monthly)
	assert.Equal(t, 30, daysCovered(t, monthly, now))
}

func TestWindowFor_AcrossMonthBoundary(t *testing.T) {
	now := time.Date(2026, 3, 3, 0, 5, 0, 0, time.Local)

	weekly := WindowFor(PeriodWeekly, now)
	assert.Equal(t, "2026-02-25", weekly.From)
	assert.Equal(t, 7, daysCovered(t, weekly, now))
	assert.Equal(t, 30, daysCovered(t, WindowFor(PeriodMonthly, now), now))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Daily_Allocations.xlsx", Filename(PeriodDaily))
	assert.Equal(t, "Weekly_Allocations.xlsx", Filename(PeriodWeekly))
	assert.Equal(t, "Monthly_Allocations.xlsx", Filename(ParsePeriod("unknown")))
}

func TestWrite(t *testing.T) {
	allocations := []*domain.Allocation{
		{ID: 7, Date: "2026-10-19", Shift: "A", ShiftTime: "06:00 AM", AllocTime: "05:45 AM", AllocatedBy: "Asha",
			Role: "Assembly", SubRole: "Floor Conveyor (1-5)", Station: "FC1", OperatorName: "Worker C1", OperatorCode: "405"},
		{ID: 8, Date: "2026-10-19", Shift: "B", ShiftTime: "02:00 PM", AllocTime: "01:40 PM", AllocatedBy: "Ben",
			Role: "Body Shop", Station: "Station 2", OperatorName: "Worker 102", OperatorCode: "102"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, allocations))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"7", "2026-10-19", "A", "06:00 AM", "05:45 AM", "Asha", "Assembly", "Floor Conveyor (1-5)", "FC1", "Worker C1", "405"}, rows[1])
	assert.Equal(t, "Body Shop", rows[2][6])
	assert.Equal(t, "", rows[2][7])
	assert.Equal(t, "102", rows[2][10])
}
