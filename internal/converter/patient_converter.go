package converter

import (
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
)

func PatientToResponse(patient *entity.Patient) *dto.PatientResponse {
	if patient == nil {
		return nil
	}

	return &dto.PatientResponse{
		ID:          patient.ID,
		FirstName:   patient.FirstName,
		LastName:    patient.LastName,
		Email:       patient.Email,
		Phone:       patient.Phone,
		DateOfBirth: patient.DateOfBirth,
		CreatedAt:   patient.CreatedAt,
	}
}

func PatientsToResponses(patients []entity.Patient) []dto.PatientResponse {
	responses := make([]dto.PatientResponse, len(patients))
	for i := range patients {
		responses[i] = *PatientToResponse(&patients[i])
	}
	return responses
}
