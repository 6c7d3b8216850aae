package handler

import (
	"net/http"
	"strconv"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/response"
	"clinic-booking/pkg/validator"

	"github.com/gorilla/mux"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
	validator       *validator.CustomValidator
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase, validator *validator.CustomValidator) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
		validator:       validator,
	}
}

// GetAllAuditLogs handles GET /audit-logs?action=&admin_id=&limit=
func (h *AuditLogHandler) GetAllAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid limit", nil)
		return
	}
	adminID, err := queryInt(r, "admin_id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid admin_id", nil)
		return
	}

	query := dto.AuditLogListQuery{
		Action:  r.URL.Query().Get("action"),
		AdminID: adminID,
		Limit:   limit,
	}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	logs, err := h.auditLogUsecase.GetAllAuditLogs(r.Context(), &query)
	if err != nil {
		response.InternalServerError(w, "Failed to get audit logs")
		return
	}

	response.Success(w, http.StatusOK, "Audit logs retrieved successfully", logs)
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, http.StatusBadRequest, "Invalid audit log ID", nil)
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), id)
	if err != nil {
		if err == usecase.ErrAuditLogNotFound {
			response.NotFound(w, "Audit log not found")
			return
		}
		response.InternalServerError(w, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}
