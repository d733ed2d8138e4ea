package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksheet-ai-api/internal/application/entitlement"
	"worksheet-ai-api/internal/application/worksheet"
	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/entity"
	"worksheet-ai-api/internal/domain/repository"
	"worksheet-ai-api/internal/infrastructure/render"
	"worksheet-ai-api/internal/interfaces/http/handler"
	"worksheet-ai-api/internal/interfaces/http/middleware"
	apperrors "worksheet-ai-api/pkg/errors"
	"worksheet-ai-api/pkg/utils"
)

const testSecret = "test-secret"

type fakeService struct {
	lastRequest worksheet.Request
	generateErr error
	result      *worksheet.Result
	file        *worksheet.File
}

func (s *fakeService) Generate(_ context.Context, req worksheet.Request) (*worksheet.Result, error) {
	s.lastRequest = req
	if s.generateErr != nil {
		return nil, s.generateErr
	}
	return s.result, nil
}

func (s *fakeService) Download(_ context.Context, _, _, _ string) (*worksheet.File, error) {
	return s.file, nil
}

func (s *fakeService) Get(_ context.Context, _, id string) (*entity.WorksheetRecord, []entity.Document, error) {
	return nil, nil, apperrors.New(apperrors.CodeWorksheetNotFound, "worksheet not found")
}

func (s *fakeService) List(_ context.Context, _ string, p repository.Pagination) (*repository.PagedResult[*entity.WorksheetRecord], error) {
	return &repository.PagedResult[*entity.WorksheetRecord]{Page: p.Page, PageSize: p.PageSize}, nil
}

func (s *fakeService) Entitlement(context.Context, string) (*worksheet.EntitlementSummary, error) {
	return &worksheet.EntitlementSummary{
		Decision:    entitlement.Decision{Allowed: true, CurrentCount: 2, RemainingCount: 3, MonthlyLimit: 5},
		CanDownload: false,
	}, nil
}

func newTestRouter(t *testing.T, svc *fakeService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{App: config.AppConfig{Name: "worksheet-api", Env: "test"}}
	r := NewWithDeps(cfg, RouterHandlers{
		Health:    handler.NewHealthHandler(nil, nil),
		Worksheet: handler.NewWorksheetHandler(svc),
	}, middleware.AuthConfig{Secret: testSecret, SkipPaths: middleware.DefaultSkipPaths}, nil)
	return r.Engine()
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.NewJWTManager(testSecret, "", "").GenerateToken(userID, "", "authenticated", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, engine *gin.Engine, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   struct {
		ErrorCode string         `json:"error_code"`
		Details   string         `json:"details"`
		Meta      map[string]any `json:"meta"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRouter_LiveSkipsAuth(t *testing.T) {
	w := do(t, newTestRouter(t, &fakeService{}), http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_RequiresToken(t *testing.T) {
	engine := newTestRouter(t, &fakeService{})

	w := do(t, engine, http.MethodGet, "/v1/entitlements/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_missing", decodeError(t, w).Error.ErrorCode)

	w = do(t, engine, http.MethodGet, "/v1/entitlements/me", "Bearer nope", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_invalid", decodeError(t, w).Error.ErrorCode)
}

func TestRouter_UpgradeRequiredSignal(t *testing.T) {
	svc := &fakeService{
		generateErr: apperrors.UpgradeRequired("monthly worksheet limit reached").
			WithDetail("monthly_limit").
			WithMeta("current_count", 5).
			WithMeta("remaining_count", 0).
			WithMeta("monthly_limit", 5).
			WithMeta("is_premium", false),
	}
	w := do(t, newTestRouter(t, svc), http.MethodPost, "/v1/worksheets/generate", bearer(t, "user-1"), map[string]any{
		"topics": []string{"Cats"},
		"count":  2,
	})

	require.Equal(t, http.StatusForbidden, w.Code)
	env := decodeError(t, w)
	assert.Equal(t, http.StatusForbidden, env.Code)
	assert.Equal(t, "upgrade_required", env.Error.ErrorCode)
	assert.Equal(t, "monthly_limit", env.Error.Details)
	assert.EqualValues(t, 0, env.Error.Meta["remaining_count"])
	assert.EqualValues(t, 5, env.Error.Meta["current_count"])
	assert.Equal(t, "user-1", svc.lastRequest.UserID)
}

func TestRouter_GeneratePreview(t *testing.T) {
	doc := entity.NewDocument("Cats", "A cat sat.")
	svc := &fakeService{result: &worksheet.Result{
		Record:    &entity.WorksheetRecord{ID: "4f9c3c1e-0000-4000-8000-000000000001", CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		Documents: []entity.Document{doc},
		PageCount: 2,
		Usage:     entitlement.Decision{Allowed: true, CurrentCount: 1, RemainingCount: 4, MonthlyLimit: 5},
	}}
	w := do(t, newTestRouter(t, svc), http.MethodPost, "/v1/worksheets/generate", bearer(t, "user-1"), map[string]any{
		"topics":     []string{"Cats"},
		"activities": []string{"wh_questions", "drawAndTell"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env struct {
		Data struct {
			WorksheetID string           `json:"worksheet_id"`
			PageCount   int              `json:"page_count"`
			Documents   []map[string]any `json:"documents"`
			Usage       map[string]any   `json:"usage"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, svc.result.Record.ID, env.Data.WorksheetID)
	assert.Equal(t, 2, env.Data.PageCount)
	require.Len(t, env.Data.Documents, 1)
	assert.Equal(t, "Cats", env.Data.Documents[0]["title"])
	assert.EqualValues(t, 4, env.Data.Usage["remaining_count"])
	assert.Equal(t, []entity.ActivityKind{entity.ActivityWhQuestions, entity.ActivityDrawAndTell}, svc.lastRequest.Activities)
}

func TestRouter_GenerateRejectsUnknownActivity(t *testing.T) {
	svc := &fakeService{}
	w := do(t, newTestRouter(t, svc), http.MethodPost, "/v1/worksheets/generate", bearer(t, "user-1"), map[string]any{
		"topics":     []string{"Cats"},
		"activities": []string{"crossword"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_param", decodeError(t, w).Error.ErrorCode)
	assert.Empty(t, svc.lastRequest.UserID)
}

func TestRouter_DownloadSendsAttachment(t *testing.T) {
	svc := &fakeService{file: &worksheet.File{
		Format:      render.FormatHTML,
		ContentType: "text/html; charset=utf-8",
		Filename:    "worksheet-4f9c3c1e.html",
		Data:        []byte("<html></html>"),
	}}
	w := do(t, newTestRouter(t, svc), http.MethodGet, "/v1/worksheets/4f9c3c1e/download?format=html", bearer(t, "user-1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="worksheet-4f9c3c1e.html"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "<html></html>", w.Body.String())
}

func TestRouter_NotFoundAndEntitlement(t *testing.T) {
	engine := newTestRouter(t, &fakeService{})

	w := do(t, engine, http.MethodGet, "/v1/worksheets/missing", bearer(t, "user-1"), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "worksheet_not_found", decodeError(t, w).Error.ErrorCode)

	w = do(t, engine, http.MethodGet, "/v1/entitlements/me", bearer(t, "user-1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, false, env.Data["can_download"])
	assert.EqualValues(t, 3, env.Data["remaining_count"])
}
