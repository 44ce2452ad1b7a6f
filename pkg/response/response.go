package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ErrorBody is the payload written for every failed request.
type ErrorBody struct {
	Error string `json:"error"`
}

// Success writes data as a JSON document with the given status.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Raw writes an already-encoded JSON document verbatim. Cached payloads go
// through here so cache hits and cold reads produce identical bytes.
func Raw(c *gin.Context, statusCode int, payload []byte) {
	c.Data(statusCode, contentTypeJSON, payload)
}

// Message writes {"message": msg} merged with any extra fields.
func Message(c *gin.Context, statusCode int, msg string, extra gin.H) {
	body := gin.H{"message": msg}
	for key, value := range extra {
		body[key] = value
	}
	c.JSON(statusCode, body)
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		// Surfaced to the access log; never to the client.
		_ = c.Error(err)
	}

	c.JSON(status, ErrorBody{Error: appErr.Message})
}

// Abort writes the error response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
