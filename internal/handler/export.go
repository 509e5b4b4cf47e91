package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) ExportAllocations(w http.ResponseWriter, r *http.Request) {
	period := export.ParsePeriod(chi.URLParam(r, "period"))
	window := export.WindowFor(period, time.Now())

	allocations, err := h.repository.GetAllocationsBetween(r.Context(), window.From, window.To)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if len(allocations) == 0 {
		h.errorResponse(w, r, "no allocation data available")
		return
	}

	// 先写到缓冲区，生成失败时还能返回 JSON 错误
	var buf bytes.Buffer
	if err := export.Write(&buf, allocations); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(period)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logInternalServerError(r, err)
	}
}
