package httpapi

import (
	"net/http"
	"time"

	"github.com/andresouza701/lineops/internal/domain"
	"github.com/andresouza701/lineops/internal/repository"
	"github.com/andresouza701/lineops/internal/service"
)

// LineHandler 电话线路/SIM卡的HTTP入口
// 普通CRUD直连repository；状态覆盖和查询走service层
type LineHandler struct {
	lines  repository.LinesRepository
	status *service.LineStatusService
	query  *service.QueryService
}

func NewLineHandler(lines repository.LinesRepository, status *service.LineStatusService, query *service.QueryService) *LineHandler {
	return &LineHandler{lines: lines, status: status, query: query}
}

// ListLines GET /api/v1/lines?status=&search=&page=&size=&include_deleted=
func (h *LineHandler) ListLines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.LineFilters{
		Status:         q.Get("status"),
		Search:         q.Get("search"),
		IncludeDeleted: q.Get("include_deleted") == "true",
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 20)

	items, total, err := h.lines.ListPhoneLines(r.Context(), filters, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	}))
}

type lineBody struct {
	PhoneNumber string `json:"phone_number"`
	SIMCardID   string `json:"sim_card_id"`
	Status      string `json:"status"`
}

// CreateLine POST /api/v1/lines
func (h *LineHandler) CreateLine(w http.ResponseWriter, r *http.Request) {
	var body lineBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if body.PhoneNumber == "" || body.SIMCardID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("phone_number and sim_card_id are required"))
		return
	}
	if body.Status != "" && !domain.ValidLineStatus(body.Status) {
		writeJSON(w, http.StatusBadRequest, Fail("invalid phone line status"))
		return
	}

	phoneLineID, err := h.lines.CreatePhoneLine(r.Context(), &domain.PhoneLine{
		PhoneNumber: body.PhoneNumber,
		SIMCardID:   body.SIMCardID,
		Status:      body.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]string{"phone_line_id": phoneLineID}))
}

// GetLine GET /api/v1/lines/{id}
func (h *LineHandler) GetLine(w http.ResponseWriter, r *http.Request, phoneLineID string) {
	line, err := h.lines.GetPhoneLine(r.Context(), phoneLineID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(line))
}

// DeleteLine DELETE /api/v1/lines/{id}
func (h *LineHandler) DeleteLine(w http.ResponseWriter, r *http.Request, phoneLineID string) {
	if err := h.lines.DeletePhoneLine(r.Context(), phoneLineID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

type statusBody struct {
	Status string `json:"status"`
}

// OverrideStatus PUT /api/v1/lines/{id}/status — 管理员手动设置线路状态
func (h *LineHandler) OverrideStatus(w http.ResponseWriter, r *http.Request, phoneLineID string) {
	var body statusBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if body.Status == "" {
		writeJSON(w, http.StatusBadRequest, Fail("status is required"))
		return
	}

	err := h.status.OverrideStatus(r.Context(), service.OverrideStatusRequest{
		PhoneLineID: phoneLineID,
		Status:      body.Status,
		PrincipalID: principalID(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// LineAllocations GET /api/v1/lines/{id}/allocations — 线路当前活跃分配
func (h *LineHandler) LineAllocations(w http.ResponseWriter, r *http.Request, phoneLineID string) {
	allocations, err := h.query.ActiveAllocationsForLine(r.Context(), phoneLineID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(allocations))
}

// LineHistory GET /api/v1/lines/{id}/history?from=&to= — 线路分配历史（RFC3339时间范围）
func (h *LineHandler) LineHistory(w http.ResponseWriter, r *http.Request, phoneLineID string) {
	q := r.URL.Query()
	var from, to *time.Time
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid 'from' timestamp: use RFC3339"))
			return
		}
		from = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid 'to' timestamp: use RFC3339"))
			return
		}
		to = &t
	}

	history, err := h.query.LineHistory(r.Context(), phoneLineID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(history))
}

// ListSIMCards GET /api/v1/simcards?status=&carrier=&search=&page=&size=
func (h *LineHandler) ListSIMCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.SIMFilters{
		Status:         q.Get("status"),
		Carrier:        q.Get("carrier"),
		Search:         q.Get("search"),
		IncludeDeleted: q.Get("include_deleted") == "true",
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 20)

	items, total, err := h.lines.ListSIMCards(r.Context(), filters, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	}))
}

type simBody struct {
	ICCID   string `json:"iccid"`
	Carrier string `json:"carrier"`
	Status  string `json:"status"`
}

// CreateSIMCard POST /api/v1/simcards
func (h *LineHandler) CreateSIMCard(w http.ResponseWriter, r *http.Request) {
	var body simBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if body.ICCID == "" || body.Carrier == "" {
		writeJSON(w, http.StatusBadRequest, Fail("iccid and carrier are required"))
		return
	}
	if body.Status != "" && !domain.ValidSIMStatus(body.Status) {
		writeJSON(w, http.StatusBadRequest, Fail("invalid sim card status"))
		return
	}

	simCardID, err := h.lines.CreateSIMCard(r.Context(), &domain.SIMCard{
		ICCID:   body.ICCID,
		Carrier: body.Carrier,
		Status:  body.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]string{"sim_card_id": simCardID}))
}

// GetSIMCard GET /api/v1/simcards/{id}
func (h *LineHandler) GetSIMCard(w http.ResponseWriter, r *http.Request, simCardID string) {
	sim, err := h.lines.GetSIMCard(r.Context(), simCardID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sim))
}

// StatusCounts GET /api/v1/stats/status-counts — 线路/SIM卡状态分布
func (h *LineHandler) StatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.query.CountByStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(counts))
}
