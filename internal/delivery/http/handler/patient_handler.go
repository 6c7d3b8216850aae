package handler

import (
	"net/http"

	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/response"
)

type PatientHandler struct {
	patientUsecase usecase.PatientUsecase
}

func NewPatientHandler(patientUsecase usecase.PatientUsecase) *PatientHandler {
	return &PatientHandler{
		patientUsecase: patientUsecase,
	}
}

func (h *PatientHandler) GetAllPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.patientUsecase.GetAllPatients(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get patients")
		return
	}

	response.Success(w, http.StatusOK, "Patients retrieved successfully", patients)
}

func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "patient ID")
	if !ok {
		return
	}

	patient, err := h.patientUsecase.GetPatient(r.Context(), id)
	if err != nil {
		if err == usecase.ErrPatientNotFound {
			response.NotFound(w, "Patient not found")
			return
		}
		response.InternalServerError(w, "Failed to get patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient retrieved successfully", patient)
}
