package converter

import (
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
)

func ServiceToResponse(service *entity.Service) *dto.ServiceResponse {
	if service == nil {
		return nil
	}

	return &dto.ServiceResponse{
		ID:              service.ID,
		Name:            service.Name,
		Description:     service.Description,
		DurationMinutes: service.DurationMinutes,
		Price:           service.Price,
		CreatedAt:       service.CreatedAt,
		UpdatedAt:       service.UpdatedAt,
	}
}

func ServicesToResponses(services []entity.Service) []dto.ServiceResponse {
	responses := make([]dto.ServiceResponse, len(services))
	for i := range services {
		responses[i] = *ServiceToResponse(&services[i])
	}
	return responses
}
