package handler

import (
	"net/http"

	"github.com/opsdesk/shift-backend/internal/domain"
)

type createShiftsRequest struct {
	EmployeeIDs []string `json:"employeeIds" validate:"required,min=1,dive,required"`
	StartDate   string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate     string   `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	ShiftType   string   `json:"shiftType" validate:"required,oneof=Morning Afternoon"`
	ShiftStart  string   `json:"shiftStart" validate:"required,hhmm"`
	ShiftEnd    string   `json:"shiftEnd" validate:"required,hhmm"`
	Notes       string   `json:"notes"`
}

type updateShiftsRequest struct {
	EmployeeIDs []string `json:"employeeIds" validate:"omitempty,dive,required"`
	StartDate   *string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	ShiftType   *string  `json:"shiftType" validate:"omitempty,oneof=Morning Afternoon"`
	ShiftStart  *string  `json:"shiftStart" validate:"omitempty,hhmm"`
	ShiftEnd    *string  `json:"shiftEnd" validate:"omitempty,hhmm"`
	Notes       *string  `json:"notes"`
}

// patch copies the whitelisted fields. Anything else in the body is ignored.
func (req updateShiftsRequest) patch() domain.ShiftPatch {
	patch := domain.ShiftPatch{
		EmployeeIDs: req.EmployeeIDs,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		ShiftStart:  req.ShiftStart,
		ShiftEnd:    req.ShiftEnd,
		Notes:       req.Notes,
	}
	if req.ShiftType != nil {
		shiftType := domain.ShiftType(*req.ShiftType)
		patch.ShiftType = &shiftType
	}
	return patch
}

func (h *Handler) CreateShifts(w http.ResponseWriter, r *http.Request) {
	var req createShiftsRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shifts, err := h.scheduler.Create(r.Context(), domain.ShiftIntent{
		EmployeeIDs: req.EmployeeIDs,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		ShiftType:   domain.ShiftType(req.ShiftType),
		ShiftStart:  req.ShiftStart,
		ShiftEnd:    req.ShiftEnd,
		Notes:       req.Notes,
	})
	if err != nil {
		h.shiftError(w, r, err)
		return
	}

	h.createdResponse(w, r, "shifts created", shifts)
}

func (h *Handler) GetAllShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.scheduler.List(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "shifts loaded", shifts)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(ShiftIDCtxKey).(string)

	shift, err := h.scheduler.Get(r.Context(), id)
	if err != nil {
		h.shiftError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift loaded", shift)
}

func (h *Handler) UpdateShifts(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(ShiftIDCtxKey).(string)

	var req updateShiftsRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shifts, err := h.scheduler.Update(r.Context(), id, req.patch())
	if err != nil {
		h.shiftError(w, r, err)
		return
	}

	h.successResponse(w, r, "shifts updated", shifts)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(ShiftIDCtxKey).(string)

	shift, err := h.scheduler.Delete(r.Context(), id)
	if err != nil {
		h.shiftError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift deleted", shift)
}
