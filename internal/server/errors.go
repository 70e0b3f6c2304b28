package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	inspectiondomain "github.com/selfix/washfleet/internal/inspection/domain"
	ledgerdomain "github.com/selfix/washfleet/internal/ledger/domain"
	projectdomain "github.com/selfix/washfleet/internal/project/domain"
	statusdomain "github.com/selfix/washfleet/internal/status/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

var validationSentinels = []error{
	equipmentdomain.ErrInvalidPart,
	equipmentdomain.ErrInvalidSite,
	equipmentdomain.ErrInvalidUnit,
	equipmentdomain.ErrInvalidDate,
	ledgerdomain.ErrInvalidPeriod,
	ledgerdomain.ErrInvalidSite,
	ledgerdomain.ErrInvalidUnit,
	ledgerdomain.ErrUnknownUnit,
	projectdomain.ErrInvalidStatus,
	inspectiondomain.ErrUnknownReportSite,
	inspectiondomain.ErrNoReadings,
}

var notFoundSentinels = []error{
	equipmentdomain.ErrEquipmentNotFound,
	ledgerdomain.ErrRecordNotFound,
	statusdomain.ErrSnapshotNotFound,
	projectdomain.ErrProjectNotFound,
	gorm.ErrRecordNotFound,
}

var conflictSentinels = []error{
	projectdomain.ErrProjectExists,
	projectdomain.ErrInvalidTransition,
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErrs *ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErrs.Errors,
		}
	}

	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest, errorPayload{
				Type:    "validation_error",
				Message: sentinel.Error(),
			}
		}
	}
	for _, sentinel := range notFoundSentinels {
		if errors.Is(err, sentinel) {
			return http.StatusNotFound, errorPayload{
				Type:    "not_found",
				Message: sentinel.Error(),
			}
		}
	}
	for _, sentinel := range conflictSentinels {
		if errors.Is(err, sentinel) {
			return http.StatusConflict, errorPayload{
				Type:    "conflict",
				Message: sentinel.Error(),
			}
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}
