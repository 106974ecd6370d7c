package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"mockprep/internal/models"
	"mockprep/internal/utils"
)

// classify maps a domain error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, models.ErrAnswerNotSaved):
		return http.StatusServiceUnavailable, "answer_not_saved"
	case errors.Is(err, models.ErrTooShort):
		return http.StatusUnprocessableEntity, "too_short"
	case errors.Is(err, models.ErrQuotaExceeded):
		return http.StatusForbidden, "quota_exceeded"
	case errors.Is(err, models.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, models.ErrInvalidAIResponse):
		return http.StatusBadGateway, "invalid_ai_response"
	case errors.Is(err, models.ErrTransient):
		return http.StatusServiceUnavailable, "transient"
	}
	return http.StatusInternalServerError, "internal_error"
}

func errorResponse(err error) (int, models.ErrorResponse) {
	status, code := classify(err)
	resp := models.ErrorResponse{Code: code, Message: err.Error()}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		resp.Details = []models.ValidationErrorDetail{{Field: ve.Field, Reason: ve.Reason}}
	}
	// store and driver details stay in the logs
	switch {
	case code == "answer_not_saved":
		resp.Message = "Your answer was not saved. Please retry the submission."
	case status == http.StatusInternalServerError:
		resp.Message = "internal error"
	}
	return status, resp
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, resp := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	utils.JSON(w, status, resp)
}
