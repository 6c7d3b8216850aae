package handler

import (
	"net/http"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/response"
	"clinic-booking/pkg/validator"
)

type ServiceHandler struct {
	serviceUsecase usecase.ServiceUsecase
	validator      *validator.CustomValidator
}

func NewServiceHandler(serviceUsecase usecase.ServiceUsecase, validator *validator.CustomValidator) *ServiceHandler {
	return &ServiceHandler{
		serviceUsecase: serviceUsecase,
		validator:      validator,
	}
}

func (h *ServiceHandler) GetAllServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.serviceUsecase.GetAllServices(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get services")
		return
	}

	response.Success(w, http.StatusOK, "Services retrieved successfully", services)
}

func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "service ID")
	if !ok {
		return
	}

	svc, err := h.serviceUsecase.GetService(r.Context(), id)
	if err != nil {
		if err == usecase.ErrServiceNotFound {
			response.NotFound(w, "Service not found")
			return
		}
		response.InternalServerError(w, "Failed to get service")
		return
	}

	response.Success(w, http.StatusOK, "Service retrieved successfully", svc)
}

func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateServiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	svc, err := h.serviceUsecase.CreateService(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidPrice:
			response.ValidationError(w, map[string]string{"price": "price must not be negative"})
		default:
			response.InternalServerError(w, "Failed to create service")
		}
		return
	}

	response.Created(w, "Service created successfully", svc)
}

func (h *ServiceHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "service ID")
	if !ok {
		return
	}

	var req dto.UpdateServiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	svc, err := h.serviceUsecase.UpdateService(r.Context(), id, &req)
	if err != nil {
		switch err {
		case usecase.ErrServiceNotFound:
			response.NotFound(w, "Service not found")
		case usecase.ErrInvalidPrice:
			response.ValidationError(w, map[string]string{"price": "price must not be negative"})
		default:
			response.InternalServerError(w, "Failed to update service")
		}
		return
	}

	response.Success(w, http.StatusOK, "Service updated successfully", svc)
}

func (h *ServiceHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "service ID")
	if !ok {
		return
	}

	if err := h.serviceUsecase.DeleteService(r.Context(), id); err != nil {
		if err == usecase.ErrServiceNotFound {
			response.NotFound(w, "Service not found")
			return
		}
		response.InternalServerError(w, "Failed to delete service")
		return
	}

	response.Success(w, http.StatusOK, "Service deleted successfully", nil)
}
