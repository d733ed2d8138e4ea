// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"worksheet-ai-api/internal/interfaces/http/dto"
	apperrors "worksheet-ai-api/pkg/errors"
	"worksheet-ai-api/pkg/logger"
)

// respondError 统一错误输出：AppError 按错误码映射，其余视为内部错误
func respondError(c *gin.Context, err error, msg string) {
	if apperrors.IsAppError(err) {
		appErr := apperrors.AsAppError(err)
		if appErr.HTTPStatus >= 500 {
			logger.Error(c.Request.Context(), msg, err)
		}
		dto.AppError(c, appErr)
		return
	}
	logger.Error(c.Request.Context(), msg, err)
	dto.AppError(c, apperrors.Wrap(err, apperrors.CodeInternalError, msg))
}
