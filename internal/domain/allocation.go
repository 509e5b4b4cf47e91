package domain

import "time"

// 已提交的分配记录，插入后不再修改
type Allocation struct {
	ID           int64     `json:"id"`
	Date         string    `json:"date"`
	Shift        string    `json:"shift"`
	ShiftTime    string    `json:"shiftTime"`
	AllocTime    string    `json:"allocTime"`
	AllocatedBy  string    `json:"allocatedBy"`
	Role         string    `json:"role"`
	SubRole      string    `json:"subRole"`
	Station      string    `json:"station"`
	OperatorName string    `json:"operatorName"`
	OperatorCode string    `json:"operatorCode"`
	CreatedAt    time.Time `json:"createdAt"`
}
