package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/sfauth/internal/application/dto"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
)

func correlationID(c *gin.Context) string {
	id, _ := c.Request.Context().Value(constants.ContextKeyCorrelationID).(string)
	return id
}

func sendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.SuccessResponse(data, correlationID(c)))
}

func sendError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if authErr, ok := errors.As(err); ok {
		status = authErr.HTTPStatus()
	}
	c.JSON(status, dto.ErrorResponse(err, correlationID(c)))
}
