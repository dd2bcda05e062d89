package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/response"
	"github.com/sangkips/recibo-api/pkg/apperror"
)

// GetStaffUsername extracts the authenticated staff username from the Gin context
func GetStaffUsername(c *gin.Context) string {
	return c.GetString("staff_username")
}

// parseID reads a UUID path parameter, answering 400 when it is malformed
func parseID(c *gin.Context, param, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, "Invalid "+resource+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body into req. Binding tag failures become 422 with
// field errors; malformed JSON becomes 400. An empty body is accepted when allowEmpty is set
func bindJSON(c *gin.Context, req any, allowEmpty bool) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fieldErrors := make([]apperror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   lowerFirst(fe.Field()),
				Message: "failed on the '" + fe.Tag() + "' rule",
			})
		}
		response.ValidationError(c, fieldErrors)
		return false
	}

	response.BadRequest(c, "Invalid request body")
	return false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
