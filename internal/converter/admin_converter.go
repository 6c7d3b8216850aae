package converter

import (
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
)

func AdminToResponse(admin *entity.Admin) *dto.AdminResponse {
	if admin == nil {
		return nil
	}

	return &dto.AdminResponse{
		ID:        admin.ID,
		Username:  admin.Username,
		Role:      entity.RoleAdmin,
		CreatedAt: admin.CreatedAt,
	}
}
