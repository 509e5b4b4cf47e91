package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
)

// InsertAllocation 单行插入，id 由数据库自增生成，并发提交不会冲突
func (r *Repository) InsertAllocation(ctx context.Context, a *domain.Allocation) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := r.rebind(`
		INSERT INTO allocations (
			date, shift, shift_time, alloc_time, allocated_by,
			role, sub_role, station, operator_name, operator_code, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`)

	createdAt := time.Now().UTC()
	args := []any{
		a.Date, a.Shift, a.ShiftTime, a.AllocTime, a.AllocatedBy,
		a.Role, a.SubRole, a.Station, a.OperatorName, a.OperatorCode, createdAt,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&a.ID); err != nil {
		return err
	}
	a.CreatedAt = createdAt

	return nil
}

// GetAllocationsBetween 返回 date 在 [from, to] 之间的记录，to 为空表示不设上限。
// date 以 YYYY-MM-DD 文本保存，可以直接按字符串比较。
func (r *Repository) GetAllocationsBetween(ctx context.Context, from string, to string) ([]*domain.Allocation, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := r.rebind(`
		SELECT id, date, shift, shift_time, alloc_time, allocated_by,
			role, sub_role, station, operator_name, operator_code, created_at
		FROM allocations
		WHERE date >= $1 AND ($2 = '' OR date <= $2)
		ORDER BY date, id
	`)

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	allocations := make([]*domain.Allocation, 0)
	for rows.Next() {
		a := &domain.Allocation{}
		if err := rows.Scan(allocationDst(a)...); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return allocations, nil
}

func allocationDst(a *domain.Allocation) []any {
	return []any{
		&a.ID, &a.Date, &a.Shift, &a.ShiftTime, &a.AllocTime, &a.AllocatedBy,
		&a.Role, &a.SubRole, &a.Station, &a.OperatorName, &a.OperatorCode, nullableTime{&a.CreatedAt},
	}
}
