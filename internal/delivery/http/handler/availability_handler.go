package handler

import (
	"net/http"
	"strconv"

	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/response"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
	}
}

// GetAvailableSlots handles GET /appointments/available?doctor_id=&start_date=&end_date=
func (h *AvailabilityHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	doctorID, err := strconv.Atoi(query.Get("doctor_id"))
	if err != nil || doctorID <= 0 {
		response.Error(w, http.StatusBadRequest, "Invalid doctor_id", nil)
		return
	}

	startDate := query.Get("start_date")
	if startDate == "" {
		response.ValidationError(w, map[string]string{"start_date": "start_date is required"})
		return
	}

	slots, err := h.availabilityUsecase.GetAvailableSlots(r.Context(), doctorID, startDate, query.Get("end_date"))
	if err != nil {
		switch err {
		case usecase.ErrInvalidDateFormat:
			response.Error(w, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD", nil)
		case usecase.ErrDateRangeTooLarge:
			response.Error(w, http.StatusBadRequest, "Date range is too large", nil)
		default:
			response.InternalServerError(w, "Failed to get available slots")
		}
		return
	}

	response.Success(w, http.StatusOK, "Available slots retrieved successfully", slots)
}
