package converter

import (
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO.
// Names are filled from whichever relations are loaded.
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:              appointment.ID,
		PatientID:       appointment.PatientID,
		DoctorID:        appointment.DoctorID,
		ServiceID:       appointment.ServiceID,
		AppointmentDate: appointment.AppointmentDate,
		AppointmentTime: appointment.AppointmentTime,
		Status:          string(appointment.Status),
		Notes:           appointment.Notes,
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}

	if appointment.Doctor.ID != 0 {
		response.DoctorName = appointment.Doctor.FullName()
	}
	if appointment.Patient.ID != 0 {
		response.PatientName = appointment.Patient.FullName()
	}
	if appointment.Service.ID != 0 {
		response.ServiceName = appointment.Service.Name
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to slice of AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
