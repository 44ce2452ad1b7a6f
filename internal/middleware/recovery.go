package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/errors"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/logger"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/response"
)

// ErrRouteNotFound is returned for paths no route matches.
var ErrRouteNotFound = errors.NewBadRequest("URL is not correct")

// Recovery converts panics into a 500 response and logs the error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", r),
					zap.Stack("stack"),
				)
				response.Abort(c, errors.ErrInternalServer)
			}
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with 400 {"error":"URL is not correct"}.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, ErrRouteNotFound)
}
