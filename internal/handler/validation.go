package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/contactdesk/contacts-api/internal/constants"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
)

// bindJSON binds and validates the request body, writing a 422 with
// per-field details when validation fails.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds and validates query parameters.
func bindQuery(c *gin.Context, dest any) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		respondValidationError(c, err)
		return false
	}
	return true
}

func respondValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[strings.ToLower(fe.Field())] = validationMessage(fe)
		}
		c.JSON(http.StatusUnprocessableEntity,
			constants.BuildErrorResponse(apperrors.GetErrorMessage(apperrors.ErrInvalidInput), details))
		return
	}

	c.JSON(http.StatusBadRequest,
		constants.BuildErrorResponse(apperrors.GetErrorMessage(apperrors.ErrInvalidInput), err.Error()))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match the format %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation on %s", fe.Tag())
	}
}

// respondError maps a service error onto its HTTP status and message.
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.ToHTTPStatus(err),
		constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
}
