package worksheet

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksheet-ai-api/internal/application/entitlement"
	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/entity"
	"worksheet-ai-api/internal/domain/repository"
	"worksheet-ai-api/internal/infrastructure/render"
	wfmodel "worksheet-ai-api/internal/workflow/model"
	apperrors "worksheet-ai-api/pkg/errors"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func (r *fakeUsers) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		cp := *u
		r.users[u.ID] = &cp
	}
	return nil
}

func (r *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsers) UpdateSubscription(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUsers) IncrementUsage(_ context.Context, id string, delta, month, year int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		u = entity.NewUser(id, "")
		r.users[id] = u
	}
	if u.LastGenerationMonth == month && u.LastGenerationYear == year {
		u.MonthlyGeneratedCount += delta
	} else {
		u.MonthlyGeneratedCount = delta
		u.LastGenerationMonth = month
		u.LastGenerationYear = year
	}
	return nil
}

func (r *fakeUsers) usage(id string) int {
	u, _ := r.GetByID(context.Background(), id)
	now := time.Now().UTC()
	return u.UsageIn(int(now.Month()), now.Year())
}

type fakeWorksheets struct {
	mu        sync.Mutex
	records   map[string]*entity.WorksheetRecord
	createErr error
}

func (r *fakeWorksheets) Create(_ context.Context, rec *entity.WorksheetRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

func (r *fakeWorksheets) GetByID(_ context.Context, id string) (*entity.WorksheetRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id], nil
}

func (r *fakeWorksheets) ListByUser(_ context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.WorksheetRecord], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.WorksheetRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			items = append(items, rec)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

type directTx struct{}

func (directTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mapCache struct {
	mu    sync.Mutex
	items map[string]*entity.WorksheetRecord
	loads int
}

func (c *mapCache) Put(_ context.Context, rec *entity.WorksheetRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[rec.ID] = rec
	return nil
}

func (c *mapCache) GetOrLoad(ctx context.Context, id string, load func(context.Context) (*entity.WorksheetRecord, error)) (*entity.WorksheetRecord, error) {
	c.mu.Lock()
	rec, ok := c.items[id]
	c.mu.Unlock()
	if ok {
		return rec, nil
	}
	c.loads++
	return load(ctx)
}

type recordingPublisher struct {
	events []*entity.WorksheetGeneratedEvent
	err    error
}

func (p *recordingPublisher) PublishWorksheetGenerated(_ context.Context, evt *entity.WorksheetGeneratedEvent) error {
	p.events = append(p.events, evt)
	return p.err
}

type serviceFixture struct {
	svc        *Service
	users      *fakeUsers
	worksheets *fakeWorksheets
	cache      *mapCache
	publisher  *recordingPublisher
	calls      *int
}

func serviceTestConfig() *config.Config {
	return &config.Config{
		Entitlement: config.EntitlementConfig{MonthlyLimit: 5, CountableAction: config.CountableGenerate},
		Generation:  config.GenerationConfig{MaxCount: 5, MaxTopics: 3, MaxSeedWords: 4, MaxParallel: 2, Timeout: time.Second},
		Render:      config.RenderConfig{DefaultFormat: "pdf", BaseFontSize: 12},
	}
}

func newServiceFixture(t *testing.T, cfg *config.Config, provider ContentProvider) *serviceFixture {
	t.Helper()
	calls := 0
	counting := providerFunc(func(ctx context.Context, in *wfmodel.WorksheetGenerateInput) (*wfmodel.WorksheetGenerateOutput, error) {
		calls++
		return provider.Generate(ctx, in)
	})

	users := &fakeUsers{users: map[string]*entity.User{}}
	worksheets := &fakeWorksheets{records: map[string]*entity.WorksheetRecord{}}
	cache := &mapCache{items: map[string]*entity.WorksheetRecord{}}
	publisher := &recordingPublisher{}

	svc := NewService(
		entitlement.NewGate(users, cfg),
		NewGenerator(counting, NewNormalizer(), &config.Config{Generation: config.GenerationConfig{MaxParallel: 1}}),
		render.NewDefaultRegistry(cfg),
		worksheets,
		directTx{},
		cache,
		publisher,
		cfg,
	)
	return &serviceFixture{svc: svc, users: users, worksheets: worksheets, cache: cache, publisher: publisher, calls: &calls}
}

func catsProvider() ContentProvider {
	return providerFunc(func(context.Context, *wfmodel.WorksheetGenerateInput) (*wfmodel.WorksheetGenerateOutput, error) {
		return &wfmodel.WorksheetGenerateOutput{
			Raw: `{"title":"Cats","content":"A cat sat.","whQuestions":[{"question":"Who sat?","answer":"A cat"}]}`,
		}, nil
	})
}

func (f *serviceFixture) premium(id string) {
	u := entity.NewUser(id, "")
	u.SubscriptionStatus = entity.SubscriptionPremium
	f.users.users[id] = u
}

func requireAppError(t *testing.T, err error, code apperrors.ErrorCode) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.Equal(t, code, appErr.Code, err.Error())
	return appErr
}

func TestService_GeneratePreviewCountsUsage(t *testing.T) {
	f := newServiceFixture(t, serviceTestConfig(), catsProvider())

	res, err := f.svc.Generate(context.Background(), Request{
		UserID:     "u1",
		Topics:     []string{" cats ", ""},
		Activities: []entity.ActivityKind{entity.ActivityWhQuestions},
		Count:      2,
	})
	require.NoError(t, err)

	assert.Nil(t, res.File)
	assert.Len(t, res.Documents, 2)
	assert.Equal(t, 4, res.PageCount)
	assert.Equal(t, 2, res.Usage.CurrentCount)
	assert.Equal(t, 3, res.Usage.RemainingCount)
	assert.Equal(t, []string{"cats"}, []string(res.Record.Topics))
	assert.Equal(t, 2, f.users.usage("u1"))

	assert.Contains(t, f.worksheets.records, res.Record.ID)
	assert.Contains(t, f.cache.items, res.Record.ID)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, FormatPreview, f.publisher.events[0].Format)
	assert.Equal(t, 2, f.publisher.events[0].Counted)
}

func TestService_MonthlyLimitReturnsUpgradeRequired(t *testing.T) {
	f := newServiceFixture(t, serviceTestConfig(), catsProvider())
	now := time.Now().UTC()
	require.NoError(t, f.users.IncrementUsage(context.Background(), "u1", 4, int(now.Month()), now.Year()))

	_, err := f.svc.Generate(context.Background(), Request{UserID: "u1", Topics: []string{"cats"}, Count: 2})
	appErr := requireAppError(t, err, apperrors.CodeUpgradeRequired)

	assert.Equal(t, http.StatusForbidden, appErr.HTTPStatus)
	assert.Equal(t, "upgrade_required", appErr.Reason())
	assert.Equal(t, entitlement.ReasonMonthlyLimit, appErr.Detail)
	assert.Equal(t, 4, appErr.Meta["current_count"])
	assert.Equal(t, 1, appErr.Meta["remaining_count"])
	assert.Zero(t, *f.calls)
	assert.Empty(t, f.worksheets.records)
	assert.Equal(t, 4, f.users.usage("u1"))
}

func TestService_FileRequiresPremium(t *testing.T) {
	f := newServiceFixture(t, serviceTestConfig(), catsProvider())

	_, err := f.svc.Generate(context.Background(), Request{UserID: "free", Topics: []string{"cats"}, Format: "pdf"})
	appErr := requireAppError(t, err, apperrors.CodeUpgradeRequired)
	assert.Equal(t, entitlement.ReasonNotPremium, appErr.Detail)
	assert.Zero(t, *f.calls)
	assert.Zero(t, f.users.usage("free"))
}

func TestService_PremiumDownloadsPDF(t *testing.T) {
	f := newServiceFixture(t, serviceTestConfig(), catsProvider())
	f.premium("p1")

	res, err := f.svc.Generate(context.Background(), Request{
		UserID:     "p1",
		Topics:     []string{"cats"},
		Activities: []entity.ActivityKind{entity.ActivityWhQuestions},
		Format:     "PDF",
	})
	require.NoError(t, err)
	require.NotNil(t, res.File)
	assert.Equal(t, render.FormatPDF, res.File.Format)
	assert.Equal(t, "application/pdf", res.File.ContentType)
	assert.True(t, bytes.HasPrefix(res.File.Data, []byte("%PDF-")))
	assert.Equal(t, entitlement.Unlimited, res.Usage.RemainingCount)
	assert.True(t, res.Usage.Premium)

	file, err := f.svc.Download(context.Background(), "p1", res.Record.ID, "html")
	require.NoError(t, err)
	assert.Contains(t, string(file.Data), "Answer Key: Cats")
	assert.Equal(t, 1, f.users.usage("p1"))
}

func TestService_GenerationFailureDoesNotCount(t *testing.T) {
	boom := errors.New("llm down")
	f := newServiceFixture(t, serviceTestConfig(), providerFunc(func(context.Context, *wfmodel.WorksheetGenerateInput) (*wfmodel.WorksheetGenerateOutput, error) {
		return nil, boom
	}))

	_, err := f.svc.Generate(context.Background(), Request{UserID: "u1", Topics: []string{"cats"}, Count: 2})
	appErr := requireAppError(t, err, apperrors.CodeGenerationFailed)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.worksheets.records)
	assert.Empty(t, f.publisher.events)
	assert.Zero(t, f.users.usage("u1"))
}

func TestService_StoreFailureDoesNotCount(t *testing.T) {
	f := newServiceFixture(t, serviceTestConfig(), catsProvider())
	f.worksheets.createErr = errors.New("connection reset")

	_, err := f.svc.Generate(context.Background(), Request{UserID: "u1", Topics: []string{"cats"}})
	requireAppError(t, err, apperrors.CodeStoreFailed)
	assert.Zero(t, f.users.usage("u1"))
	assert.Empty(t, f.cache.items)
	assert.Empty(t, f.publisher.events)
}

func TestService_PublishFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture(t, serviceTestConfig(), catsProvider())
	f.publisher.err = errors.New("stream unavailable")

	res, err := f.svc.Generate(context.Background(), Request{UserID: "u1", Topics: []string{"cats"}})
	require.NoError(t, err)
	assert.NotNil(t, res.Record)
}

func TestService_CountableDownloadSkipsPreviews(t *testing.T) {
	cfg := serviceTestConfig()
	cfg.Entitlement.CountableAction = config.CountableDownload
	f := newServiceFixture(t, cfg, catsProvider())

	res, err := f.svc.Generate(context.Background(), Request{UserID: "u1", Topics: []string{"cats"}, Count: 3})
	require.NoError(t, err)
	assert.Zero(t, f.users.usage("u1"))
	assert.Equal(t, 5, res.Usage.RemainingCount)
}

func TestService_InvalidRequests(t *testing.T) {
	f := newServiceFixture(t, serviceTestConfig(), catsProvider())
	ctx := context.Background()

	cases := map[string]Request{
		"no topics":       {UserID: "u1", Topics: []string{"  "}},
		"too many topics": {UserID: "u1", Topics: []string{"a", "b", "c", "d"}},
		"count too high":  {UserID: "u1", Topics: []string{"a"}, Count: 6},
		"negative count":  {UserID: "u1", Topics: []string{"a"}, Count: -1},
		"seed words":      {UserID: "u1", Topics: []string{"a"}, SeedWords: []string{"a", "b", "c", "d", "e"}},
		"bad format":      {UserID: "u1", Topics: []string{"a"}, Format: "docx"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Generate(ctx, req)
			requireAppError(t, err, apperrors.CodeInvalidParam)
		})
	}

	_, err := f.svc.Generate(ctx, Request{Topics: []string{"a"}})
	requireAppError(t, err, apperrors.CodeUnauthorized)
	assert.Zero(t, *f.calls)
}

func TestService_GetAndDownloadChecks(t *testing.T) {
	f := newServiceFixture(t, serviceTestConfig(), catsProvider())
	f.premium("owner")
	ctx := context.Background()

	res, err := f.svc.Generate(ctx, Request{UserID: "owner", Topics: []string{"cats"}})
	require.NoError(t, err)
	id := res.Record.ID

	// 清空缓存后走仓储回源
	delete(f.cache.items, id)
	rec, docs, err := f.svc.Get(ctx, "owner", id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "Cats", docs[0].Title)
	assert.Equal(t, 1, f.cache.loads)

	_, _, err = f.svc.Get(ctx, "someone-else", id)
	requireAppError(t, err, apperrors.CodeWorksheetNotFound)
	_, _, err = f.svc.Get(ctx, "owner", "not-a-uuid")
	requireAppError(t, err, apperrors.CodeWorksheetNotFound)

	_, err = f.svc.Download(ctx, "someone-else", id, "pdf")
	requireAppError(t, err, apperrors.CodeUpgradeRequired)

	_, err = f.svc.Download(ctx, "owner", id, "docx")
	requireAppError(t, err, apperrors.CodeInvalidParam)

	file, err := f.svc.Download(ctx, "owner", id, "")
	require.NoError(t, err)
	assert.Equal(t, render.FormatPDF, file.Format)
	assert.Equal(t, "worksheet-"+id[:8]+".pdf", file.Filename)
}

func TestService_ListAndEntitlement(t *testing.T) {
	f := newServiceFixture(t, serviceTestConfig(), catsProvider())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Generate(ctx, Request{UserID: "u1", Topics: []string{"cats"}})
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, "u1", repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	sum, err := f.svc.Entitlement(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, sum.CanDownload)
	assert.Equal(t, 2, sum.CurrentCount)
	assert.Equal(t, 3, sum.RemainingCount)
	assert.Equal(t, 5, sum.MonthlyLimit)
}
