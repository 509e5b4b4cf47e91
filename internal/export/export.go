// Package export 负责将分配记录按周期筛选并导出为 xlsx 表格
package export

import (
	"io"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

const (
	DateLayout = "2006-01-02"
	SheetName  = "Allocations"
)

// ParsePeriod 无法识别的周期一律按 monthly 处理
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodDaily:
		return PeriodDaily
	case PeriodWeekly:
		return PeriodWeekly
	default:
		return PeriodMonthly
	}
}

// Window 是按日历日期计算的闭区间，To 为空表示不设上限
type Window struct {
	From string
	To   string
}

// WindowFor 计算导出范围：daily 只包含当天，weekly 与 monthly 分别包含截至今天的 7 个与 30 个日历日（含今天）及之后的记录
func WindowFor(p Period, now time.Time) Window {
	today := now.Format(DateLayout)
	switch p {
	case PeriodDaily:
		return Window{From: today, To: today}
	case PeriodWeekly:
		return Window{From: now.AddDate(0, 0, -6).Format(DateLayout)}
	default:
		return Window{From: now.AddDate(0, 0, -29).Format(DateLayout)}
	}
}

func Filename(p Period) string {
	switch p {
	case PeriodDaily:
		return "Daily_Allocations.xlsx"
	case PeriodWeekly:
		return "Weekly_Allocations.xlsx"
	default:
		return "Monthly_Allocations.xlsx"
	}
}

var Header = []string{
	"id", "date", "shift", "shift_time", "alloc_time", "allocated_by",
	"role", "sub_role", "station", "operator_name", "operator_code",
}

// Write 将记录写成只有一个工作表的 xlsx 文件
func Write(w io.Writer, allocations []*domain.Allocation) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, a := range allocations {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		row := []any{
			a.ID, a.Date, a.Shift, a.ShiftTime, a.AllocTime, a.AllocatedBy,
			a.Role, a.SubRole, a.Station, a.OperatorName, a.OperatorCode,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
