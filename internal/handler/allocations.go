package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/workflow"
)

func (h *Handler) GetAllocationOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.workflow.Options(currentSession(r))
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", options)
}

// draftView 在草稿之外附带步骤名称，前端据此决定停留在哪一步
type draftView struct {
	*domain.AllocationDraft
	StepName string `json:"stepName"`
}

func (h *Handler) GetAllocationDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.workflow.Draft(r.Context(), currentSession(r))
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", draftView{AllocationDraft: draft, StepName: draft.Step.String()})
}

func (h *Handler) DiscardAllocationDraft(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		h.redirectResponse(w, r, domain.ErrUnauthenticated.Error(), RedirectLogin)
		return
	}

	if err := h.workflow.Discard(r.Context(), sess.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successRedirect(w, r, "draft discarded", nil, RedirectStep1)
}

func (h *Handler) SubmitShiftDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date        string `json:"date" validate:"required,datetime=2006-01-02"`
		Shift       string `json:"shift" validate:"required"`
		ShiftTime   string `json:"shift_time" validate:"required,clock12"`
		ShiftPeriod string `json:"shift_period" validate:"required,oneof=AM PM"`
		AllocTime   string `json:"alloc_time" validate:"required,clock12"`
		AllocPeriod string `json:"alloc_period" validate:"required,oneof=AM PM"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	draft, err := h.workflow.SubmitShift(r.Context(), currentSession(r), workflow.ShiftInput{
		Date:        req.Date,
		Shift:       req.Shift,
		ShiftTime:   req.ShiftTime,
		ShiftPeriod: req.ShiftPeriod,
		AllocTime:   req.AllocTime,
		AllocPeriod: req.AllocPeriod,
	})
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successRedirect(w, r, "shift details saved", draft, RedirectStep2)
}

func (h *Handler) SubmitStationSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Station  string `json:"station" validate:"required"`
		Operator string `json:"operator" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	draft, err := h.workflow.SubmitSelection(r.Context(), currentSession(r), workflow.SelectionInput{
		Station:  req.Station,
		Operator: req.Operator,
	})
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successRedirect(w, r, "station selection saved", draft, RedirectSummary)
}

func (h *Handler) GetAllocationSummary(w http.ResponseWriter, r *http.Request) {
	allocation, err := h.workflow.Summary(r.Context(), currentSession(r))
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", allocation)
}

func (h *Handler) CommitAllocation(w http.ResponseWriter, r *http.Request) {
	allocation, err := h.workflow.Commit(r.Context(), currentSession(r))
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successRedirect(w, r, "allocation saved", allocation, RedirectExports)
}
