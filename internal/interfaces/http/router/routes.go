package router

import (
	"worksheet-ai-api/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, worksheetHandler *handler.WorksheetHandler) {
	// 练习册
	worksheets := v1.Group("/worksheets")
	{
		worksheets.POST("/generate", worksheetHandler.GenerateWorksheets)
		worksheets.GET("", worksheetHandler.ListWorksheets)
		worksheets.GET("/:wid", worksheetHandler.GetWorksheet)
		worksheets.GET("/:wid/download", worksheetHandler.DownloadWorksheet)
	}

	// 权益
	entitlements := v1.Group("/entitlements")
	{
		entitlements.GET("/me", worksheetHandler.GetEntitlement)
	}
}
