package handler

import (
	"mime"
	"net/http"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/delivery/http/middleware"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/response"
	"clinic-booking/pkg/validator"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *validator.CustomValidator
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, validator *validator.CustomValidator) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		validator:   validator,
	}
}

// Login accepts an OAuth2 style form post (username, password) or a JSON body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
			response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	default:
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	token, err := h.authUsecase.Login(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidCredentials:
			w.Header().Set("WWW-Authenticate", "Bearer")
			response.Unauthorized(w, "Incorrect username or password")
		default:
			response.InternalServerError(w, "Failed to login")
		}
		return
	}

	response.Success(w, http.StatusOK, "Login successful", token)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetAdminIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Admin not found in context")
		return
	}
	tokenID, ok := middleware.GetTokenIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Token not found in context")
		return
	}

	if err := h.authUsecase.Logout(r.Context(), adminID, tokenID); err != nil {
		response.InternalServerError(w, "Failed to logout")
		return
	}

	response.Success(w, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) GetCurrentAdmin(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetAdminIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Admin not found in context")
		return
	}

	admin, err := h.authUsecase.GetCurrentAdmin(r.Context(), adminID)
	if err != nil {
		if err == usecase.ErrAdminNotFound {
			response.NotFound(w, "Admin not found")
			return
		}
		response.InternalServerError(w, "Failed to get current admin")
		return
	}

	response.Success(w, http.StatusOK, "Admin retrieved successfully", admin)
}
