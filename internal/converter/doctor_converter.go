package converter

import (
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
)

func DoctorToResponse(doctor *entity.Doctor) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:             doctor.ID,
		FirstName:      doctor.FirstName,
		LastName:       doctor.LastName,
		FullName:       doctor.FullName(),
		Specialization: doctor.Specialization,
		Email:          doctor.Email,
		Phone:          doctor.Phone,
		CreatedAt:      doctor.CreatedAt,
		UpdatedAt:      doctor.UpdatedAt,
	}
}

func DoctorsToResponses(doctors []entity.Doctor) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i := range doctors {
		responses[i] = *DoctorToResponse(&doctors[i])
	}
	return responses
}
