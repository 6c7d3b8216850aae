package handler

import (
	"net/http"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/response"
	"clinic-booking/pkg/validator"
)

type DoctorHandler struct {
	doctorUsecase usecase.DoctorUsecase
	validator     *validator.CustomValidator
}

func NewDoctorHandler(doctorUsecase usecase.DoctorUsecase, validator *validator.CustomValidator) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase: doctorUsecase,
		validator:     validator,
	}
}

func (h *DoctorHandler) GetAllDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctorUsecase.GetAllDoctors(r.Context(), r.URL.Query().Get("specialization"))
	if err != nil {
		response.InternalServerError(w, "Failed to get doctors")
		return
	}

	response.Success(w, http.StatusOK, "Doctors retrieved successfully", doctors)
}

func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "doctor ID")
	if !ok {
		return
	}

	doctor, err := h.doctorUsecase.GetDoctor(r.Context(), id)
	if err != nil {
		if err == usecase.ErrDoctorNotFound {
			response.NotFound(w, "Doctor not found")
			return
		}
		response.InternalServerError(w, "Failed to get doctor")
		return
	}

	response.Success(w, http.StatusOK, "Doctor retrieved successfully", doctor)
}

func (h *DoctorHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.doctorUsecase.CreateDoctor(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrDoctorEmailExists:
			response.Conflict(w, "Doctor email already exists", "")
		default:
			response.InternalServerError(w, "Failed to create doctor")
		}
		return
	}

	response.Created(w, "Doctor created successfully", doctor)
}

func (h *DoctorHandler) UpdateDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "doctor ID")
	if !ok {
		return
	}

	var req dto.UpdateDoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.doctorUsecase.UpdateDoctor(r.Context(), id, &req)
	if err != nil {
		switch err {
		case usecase.ErrDoctorNotFound:
			response.NotFound(w, "Doctor not found")
		case usecase.ErrDoctorEmailExists:
			response.Conflict(w, "Doctor email already exists", "")
		default:
			response.InternalServerError(w, "Failed to update doctor")
		}
		return
	}

	response.Success(w, http.StatusOK, "Doctor updated successfully", doctor)
}

func (h *DoctorHandler) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "doctor ID")
	if !ok {
		return
	}

	if err := h.doctorUsecase.DeleteDoctor(r.Context(), id); err != nil {
		if err == usecase.ErrDoctorNotFound {
			response.NotFound(w, "Doctor not found")
			return
		}
		response.InternalServerError(w, "Failed to delete doctor")
		return
	}

	response.Success(w, http.StatusOK, "Doctor deleted successfully", nil)
}
