package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/errors"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/response"
	appValidator "github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/validator"
)

// bindAndValidate binds the form or JSON payload into dest, picked by the
// request content type, and runs struct validation rules. When binding or
// validation fails, an error response is written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBind(dest); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.NewBadRequest("invalid request payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, validationError(err))
		return false
	}

	return true
}

// validationError reports missing fields with the generic message clients
// already match on and anything else field by field.
func validationError(err error) error {
	var ve appValidator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return appErrors.NewBadRequest("invalid request payload")
	}
	for _, failure := range ve {
		if failure.Tag != "required" && failure.Tag != "notblank" {
			return appErrors.NewBadRequest(formatValidationError(ve))
		}
	}
	return appErrors.ErrMissingParameters
}

func formatValidationError(ve appValidator.ValidationErrors) string {
	messages := make([]string, 0, len(ve))
	for _, failure := range ve {
		field := prettifyFieldName(failure.Field)
		switch failure.Tag {
		case "required", "notblank":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, failure.Param))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, failure.Param))
		default:
			if failure.Param != "" {
				messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param))
			} else {
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
			}
		}
	}
	return strings.Join(messages, "; ")
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(name)
}
