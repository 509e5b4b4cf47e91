package domain

import "time"

type DraftStep int

const (
	DraftStepEmpty DraftStep = iota
	DraftStepShiftSubmitted
	DraftStepSelectionSubmitted
)

func (s DraftStep) String() string {
	switch s {
	case DraftStepShiftSubmitted:
		return "shift_submitted"
	case DraftStepSelectionSubmitted:
		return "selection_submitted"
	default:
		return "empty"
	}
}

// 第一步：班次信息
type ShiftDetails struct {
	Date        string `json:"date"`
	Shift       string `json:"shift"`
	ShiftTime   string `json:"shiftTime"`
	AllocTime   string `json:"allocTime"`
	AllocatedBy string `json:"allocatedBy"`
}

// 第二步：工位与操作员
type StationSelection struct {
	Station      string `json:"station"`
	OperatorName string `json:"operatorName"`
	OperatorCode string `json:"operatorCode"`
}

// AllocationDraft 是某个会话正在填写的分配草稿，Step 决定哪些字段有效：
// Selection 只有在 Shift 已经存在时才可能被设置
type AllocationDraft struct {
	Step      DraftStep         `json:"step"`
	Shift     *ShiftDetails     `json:"shift"`
	Selection *StationSelection `json:"selection"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// 重新提交第一步时丢弃之前的第二步选择，必须重新经过第二步才能提交
func (d *AllocationDraft) SetShift(details ShiftDetails) {
	d.Shift = &details
	d.Selection = nil
	d.Step = DraftStepShiftSubmitted
	d.UpdatedAt = time.Now()
}

func (d *AllocationDraft) SetSelection(selection StationSelection) error {
	if d.Step < DraftStepShiftSubmitted || d.Shift == nil {
		return ErrStepOutOfOrder
	}

	d.Selection = &selection
	d.Step = DraftStepSelectionSubmitted
	d.UpdatedAt = time.Now()
	return nil
}

func (d *AllocationDraft) IsComplete() bool {
	return d != nil && d.Step == DraftStepSelectionSubmitted && d.Shift != nil && d.Selection != nil
}

// 合并两步的数据，角色和子角色只取自草稿所有者
func (d *AllocationDraft) Allocation(owner *User) (*Allocation, error) {
	if !d.IsComplete() {
		return nil, ErrMissingDraft
	}

	return &Allocation{
		Date:         d.Shift.Date,
		Shift:        d.Shift.Shift,
		ShiftTime:    d.Shift.ShiftTime,
		AllocTime:    d.Shift.AllocTime,
		AllocatedBy:  d.Shift.AllocatedBy,
		Role:         owner.Role,
		SubRole:      owner.SubRole,
		Station:      d.Selection.Station,
		OperatorName: d.Selection.OperatorName,
		OperatorCode: d.Selection.OperatorCode,
	}, nil
}
