package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"worksheet-ai-api/internal/application/worksheet"
	"worksheet-ai-api/internal/domain/entity"
	"worksheet-ai-api/internal/domain/repository"
	"worksheet-ai-api/internal/interfaces/http/dto"
	"worksheet-ai-api/internal/interfaces/http/middleware"
	apperrors "worksheet-ai-api/pkg/errors"
	"worksheet-ai-api/pkg/logger"
)

// WorksheetService 练习册应用服务
type WorksheetService interface {
	Generate(ctx context.Context, req worksheet.Request) (*worksheet.Result, error)
	Download(ctx context.Context, userID, worksheetID, format string) (*worksheet.File, error)
	Get(ctx context.Context, userID, worksheetID string) (*entity.WorksheetRecord, []entity.Document, error)
	List(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.WorksheetRecord], error)
	Entitlement(ctx context.Context, userID string) (*worksheet.EntitlementSummary, error)
}

// WorksheetHandler 练习册处理器
type WorksheetHandler struct {
	svc WorksheetService
}

// NewWorksheetHandler 创建练习册处理器
func NewWorksheetHandler(svc WorksheetService) *WorksheetHandler {
	return &WorksheetHandler{svc: svc}
}

// GenerateWorksheets 生成练习册
// @Summary 生成练习册
// @Description format=preview 返回结构化预览，pdf/html/png 返回文件（需订阅）
// @Tags Worksheets
// @Accept json
// @Produce json
// @Param body body dto.GenerateWorksheetRequest true "生成参数"
// @Success 200 {object} dto.Response[dto.WorksheetPreviewResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/worksheets/generate [post]
func (h *WorksheetHandler) GenerateWorksheets(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)

	var req dto.GenerateWorksheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.AppError(c, apperrors.New(apperrors.CodeInvalidParam, "invalid request body").WithDetail(err.Error()))
		return
	}
	svcReq, err := req.ToServiceRequest(userID)
	if err != nil {
		dto.AppError(c, apperrors.New(apperrors.CodeInvalidParam, err.Error()))
		return
	}

	res, err := h.svc.Generate(ctx, svcReq)
	if err != nil {
		respondError(c, err, "failed to generate worksheets")
		return
	}

	logger.Info(logger.WithContext(ctx, logger.WorksheetIDKey, res.Record.ID), "worksheets generated",
		"documents", len(res.Documents),
		"pages", res.PageCount,
	)
	if res.File != nil {
		sendFile(c, res.File)
		return
	}
	dto.Success(c, dto.ToWorksheetPreviewResponse(res))
}

// ListWorksheets 历史记录
// @Summary 获取生成历史
// @Tags Worksheets
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.WorksheetListResponse]
// @Router /v1/worksheets [get]
func (h *WorksheetHandler) ListWorksheets(c *gin.Context) {
	pageReq := dto.BindPage(c)

	result, err := h.svc.List(c.Request.Context(), middleware.GetUserIDFromGin(c),
		repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, "failed to list worksheets")
		return
	}

	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToWorksheetListResponse(result.Items), meta)
}

// GetWorksheet 获取已生成的练习册
// @Summary 获取练习册预览
// @Tags Worksheets
// @Produce json
// @Param wid path string true "练习册 ID"
// @Success 200 {object} dto.Response[dto.WorksheetPreviewResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid} [get]
func (h *WorksheetHandler) GetWorksheet(c *gin.Context) {
	rec, docs, err := h.svc.Get(c.Request.Context(), middleware.GetUserIDFromGin(c), dto.BindWorksheetID(c))
	if err != nil {
		respondError(c, err, "failed to get worksheet")
		return
	}
	dto.Success(c, dto.ToStoredWorksheetResponse(rec, docs))
}

// DownloadWorksheet 下载练习册文件
// @Summary 下载练习册
// @Tags Worksheets
// @Produce application/pdf,text/html,image/png
// @Param wid path string true "练习册 ID"
// @Param format query string false "pdf/html/png"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid}/download [get]
func (h *WorksheetHandler) DownloadWorksheet(c *gin.Context) {
	file, err := h.svc.Download(c.Request.Context(), middleware.GetUserIDFromGin(c), dto.BindWorksheetID(c), c.Query("format"))
	if err != nil {
		respondError(c, err, "failed to download worksheet")
		return
	}
	sendFile(c, file)
}

// GetEntitlement 当前用户权益
// @Summary 获取当前用户权益
// @Tags Entitlements
// @Produce json
// @Success 200 {object} dto.Response[dto.EntitlementResponse]
// @Router /v1/entitlements/me [get]
func (h *WorksheetHandler) GetEntitlement(c *gin.Context) {
	summary, err := h.svc.Entitlement(c.Request.Context(), middleware.GetUserIDFromGin(c))
	if err != nil {
		respondError(c, err, "failed to get entitlement")
		return
	}
	dto.Success(c, dto.ToEntitlementResponse(summary))
}

func sendFile(c *gin.Context, f *worksheet.File) {
	c.Header("Content-Disposition", `attachment; filename="`+f.Filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(f.Data)))
	c.Data(http.StatusOK, f.ContentType, f.Data)
}
