// Package workflow 实现分配表单的两步填写流程：
// 第一步填写班次信息，第二步选择工位与操作员，确认后写入数据库并清除草稿。
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
)

// DraftStore 按会话 ID 保存草稿
type DraftStore interface {
	Get(ctx context.Context, sessionID string) (*domain.AllocationDraft, error)
	Save(ctx context.Context, sessionID string, draft *domain.AllocationDraft) error
	// Take 原子地取出并删除草稿，同一份草稿只能被取出一次
	Take(ctx context.Context, sessionID string) (*domain.AllocationDraft, error)
	Delete(ctx context.Context, sessionID string) error
}

type AllocationStore interface {
	InsertAllocation(ctx context.Context, allocation *domain.Allocation) error
}

type CatalogResolver interface {
	Resolve(role, subRole string) (stations []string, operators []string)
}

// Session 是已登录的会话，User 必须来自服务端的用户记录而不是客户端提交的数据
type Session struct {
	ID   string
	User *domain.User
}

type ShiftInput struct {
	Date        string
	Shift       string
	ShiftTime   string
	ShiftPeriod string
	AllocTime   string
	AllocPeriod string
}

type SelectionInput struct {
	Station  string
	Operator string
}

type Options struct {
	Stations  []string `json:"stations"`
	Operators []string `json:"operators"`
}

type Workflow struct {
	drafts  DraftStore
	store   AllocationStore
	catalog CatalogResolver
}

func New(drafts DraftStore, store AllocationStore, catalog CatalogResolver) *Workflow {
	return &Workflow{
		drafts:  drafts,
		store:   store,
		catalog: catalog,
	}
}

func checkSession(sess *Session) error {
	if sess == nil || sess.ID == "" || sess.User == nil {
		return domain.ErrUnauthenticated
	}
	return nil
}

// JoinTime 将时间与上下午拼接成展示用的字符串，例如 "08:30 AM"
func JoinTime(t, period string) string {
	return t + " " + period
}

// Draft 返回当前会话的草稿，不存在时返回空草稿
func (w *Workflow) Draft(ctx context.Context, sess *Session) (*domain.AllocationDraft, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	draft, err := w.drafts.Get(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, domain.ErrDraftNotFound) {
			return &domain.AllocationDraft{}, nil
		}
		return nil, err
	}

	return draft, nil
}

// Options 返回当前用户角色可选的工位与操作员
func (w *Workflow) Options(sess *Session) (*Options, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	stations, operators := w.catalog.Resolve(sess.User.Role, sess.User.SubRole)
	return &Options{Stations: stations, Operators: operators}, nil
}

func (w *Workflow) SubmitShift(ctx context.Context, sess *Session, in ShiftInput) (*domain.AllocationDraft, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	draft := &domain.AllocationDraft{}
	draft.SetShift(domain.ShiftDetails{
		Date:        in.Date,
		Shift:       in.Shift,
		ShiftTime:   JoinTime(in.ShiftTime, in.ShiftPeriod),
		AllocTime:   JoinTime(in.AllocTime, in.AllocPeriod),
		AllocatedBy: sess.User.Name,
	})

	if err := w.drafts.Save(ctx, sess.ID, draft); err != nil {
		return nil, err
	}

	return draft, nil
}

func (w *Workflow) SubmitSelection(ctx context.Context, sess *Session, in SelectionInput) (*domain.AllocationDraft, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	draft, err := w.drafts.Get(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, domain.ErrDraftNotFound) {
			return nil, domain.ErrStepOutOfOrder
		}
		return nil, err
	}
	if draft.Step < domain.DraftStepShiftSubmitted {
		return nil, domain.ErrStepOutOfOrder
	}

	// 工位和操作员列表只根据服务端记录的角色解析
	stations, operators := w.catalog.Resolve(sess.User.Role, sess.User.SubRole)
	if len(stations) == 0 || len(operators) == 0 {
		return nil, domain.ErrEmptyCatalogSelection
	}

	name, code, err := domain.ParseOperatorToken(in.Operator)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(stations, in.Station) {
		return nil, domain.ErrStationNotInCatalog
	}
	if !containsOperator(operators, name, code) {
		return nil, domain.ErrOperatorNotInCatalog
	}

	if err := draft.SetSelection(domain.StationSelection{
		Station:      in.Station,
		OperatorName: name,
		OperatorCode: code,
	}); err != nil {
		return nil, err
	}

	if err := w.drafts.Save(ctx, sess.ID, draft); err != nil {
		return nil, err
	}

	return draft, nil
}

func containsOperator(operators []string, name, code string) bool {
	for _, op := range operators {
		n, c, err := domain.ParseOperatorToken(op)
		if err != nil {
			continue
		}
		if n == name && c == code {
			return true
		}
	}
	return false
}

// Summary 返回即将提交的记录（尚无 ID），草稿不完整时返回 ErrMissingDraft
func (w *Workflow) Summary(ctx context.Context, sess *Session) (*domain.Allocation, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	draft, err := w.drafts.Get(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, domain.ErrDraftNotFound) {
			return nil, domain.ErrMissingDraft
		}
		return nil, err
	}

	return draft.Allocation(sess.User)
}

// Commit 将草稿写入数据库并清除草稿。
// 写入失败时草稿会被放回，用户可以直接重试。
func (w *Workflow) Commit(ctx context.Context, sess *Session) (*domain.Allocation, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	// 先检查草稿是否完整，避免不完整的草稿被取出
	if _, err := w.Summary(ctx, sess); err != nil {
		return nil, err
	}

	draft, err := w.drafts.Take(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, domain.ErrDraftNotFound) {
			// 被同一会话的另一次提交抢先取走了
			return nil, domain.ErrMissingDraft
		}
		return nil, err
	}

	allocation, err := draft.Allocation(sess.User)
	if err != nil {
		w.restore(ctx, sess.ID, draft)
		return nil, err
	}

	if err := w.store.InsertAllocation(ctx, allocation); err != nil {
		w.restore(ctx, sess.ID, draft)
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}

	return allocation, nil
}

func (w *Workflow) restore(ctx context.Context, sessionID string, draft *domain.AllocationDraft) {
	// 请求超时导致的失败同样需要放回草稿
	if err := w.drafts.Save(context.WithoutCancel(ctx), sessionID, draft); err != nil {
		slog.Error("无法恢复分配草稿", "session", sessionID, "error", err)
	}
}

// Discard 丢弃当前会话的草稿，会话结束时调用
func (w *Workflow) Discard(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return w.drafts.Delete(ctx, sessionID)
}
