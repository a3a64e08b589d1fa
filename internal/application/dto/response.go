package dto

import (
	"time"

	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
)

// APIResponse 通用 API 响应结构
type APIResponse struct {
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorDTO   `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Timestamp     int64       `json:"timestamp"`
}

// ErrorDTO 错误信息 DTO
type ErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse 创建成功响应
func SuccessResponse(data interface{}, correlationID string) *APIResponse {
	return &APIResponse{
		Success:       true,
		Data:          data,
		CorrelationID: correlationID,
		Timestamp:     time.Now().Unix(),
	}
}

// ErrorResponse 创建错误响应
func ErrorResponse(err error, correlationID string) *APIResponse {
	errorDTO := &ErrorDTO{
		Code:    string(constants.ErrCodeSystemError),
		Message: "internal server error",
	}
	if authErr, ok := errors.As(err); ok {
		errorDTO.Code = string(authErr.Code())
		errorDTO.Message = authErr.Message()
	}
	return &APIResponse{
		Success:       false,
		Error:         errorDTO,
		CorrelationID: correlationID,
		Timestamp:     time.Now().Unix(),
	}
}
