package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

// Коды ошибок в теле ответа.
const (
	codeNotFound   = "not_found"
	codeConflict   = "conflict"
	codeValidation = "validation_error"
	codeInternal   = "internal_error"
)

// ErrorResponse — единый формат тела ошибки.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError переводит доменную ошибку в HTTP-статус и код.
// Текст внутренних ошибок наружу не отдаётся.
func writeError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		abortWithError(c, http.StatusBadRequest, codeValidation, err.Error())
	case domain.IsNotFound(err):
		abortWithError(c, http.StatusNotFound, codeNotFound, err.Error())
	case domain.IsConflict(err):
		abortWithError(c, http.StatusConflict, codeConflict, err.Error())
	default:
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}
