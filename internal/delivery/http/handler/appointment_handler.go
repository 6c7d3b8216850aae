package handler

import (
	"errors"
	"net/http"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/response"
	"clinic-booking/pkg/validator"

	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.CreateAppointment(r.Context(), &req)
	if err != nil {
		writeAppointmentError(w, err, "Failed to create appointment")
		return
	}

	response.Created(w, "Appointment created successfully", appointment)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), id)
	if err != nil {
		writeAppointmentError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

func (h *AppointmentHandler) GetAppointmentsByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathID(w, r, "patient_id", "patient ID")
	if !ok {
		return
	}

	appointments, err := h.appointmentUsecase.GetAppointmentsByPatient(r.Context(), patientID)
	if err != nil {
		response.InternalServerError(w, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetAppointmentsByEmail(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	if email == "" {
		response.Error(w, http.StatusBadRequest, "Email is required", nil)
		return
	}

	appointments, err := h.appointmentUsecase.GetAppointmentsByEmail(r.Context(), email)
	if err != nil {
		response.InternalServerError(w, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetAllAppointments(w http.ResponseWriter, r *http.Request) {
	doctorID, err := queryInt(r, "doctor_id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor_id", nil)
		return
	}
	patientID, err := queryInt(r, "patient_id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid patient_id", nil)
		return
	}

	query := dto.AppointmentListQuery{
		DoctorID:  doctorID,
		PatientID: patientID,
		Status:    r.URL.Query().Get("status"),
		Date:      r.URL.Query().Get("date"),
	}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointments, err := h.appointmentUsecase.GetAllAppointments(r.Context(), &query)
	if err != nil {
		writeAppointmentError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) ApproveAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.ApproveAppointment(r.Context(), id)
	if err != nil {
		writeAppointmentError(w, err, "Failed to approve appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment approved", appointment)
}

func (h *AppointmentHandler) RejectAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.RejectAppointment(r.Context(), id)
	if err != nil {
		writeAppointmentError(w, err, "Failed to reject appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment rejected", appointment)
}

func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.CancelAppointment(r.Context(), id)
	if err != nil {
		writeAppointmentError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled", appointment)
}

func writeAppointmentError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		response.NotFound(w, "Appointment not found")
	case errors.Is(err, usecase.ErrDoctorNotFound):
		response.NotFound(w, "Doctor not found")
	case errors.Is(err, usecase.ErrServiceNotFound):
		response.NotFound(w, "Service not found")
	case errors.Is(err, usecase.ErrSlotTaken):
		response.BadRequest(w, "This appointment slot is already taken", "slot_taken")
	case errors.Is(err, usecase.ErrSlotBeingBooked):
		response.Conflict(w, "This appointment slot is being booked, please retry", "slot_being_booked")
	case errors.Is(err, usecase.ErrInvalidStatusTransition):
		response.Conflict(w, "Appointment status change is not allowed", "invalid_status_transition")
	case errors.Is(err, usecase.ErrInvalidDateFormat):
		response.Error(w, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD", nil)
	case errors.Is(err, usecase.ErrInvalidTimeFormat):
		response.Error(w, http.StatusBadRequest, "Invalid time format, use HH:MM", nil)
	default:
		response.InternalServerError(w, fallback)
	}
}
