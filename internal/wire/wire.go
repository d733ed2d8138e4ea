//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"worksheet-ai-api/internal/application/entitlement"
	"worksheet-ai-api/internal/application/worksheet"
	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/repository"
	"worksheet-ai-api/internal/infrastructure/llm"
	"worksheet-ai-api/internal/infrastructure/messaging"
	"worksheet-ai-api/internal/infrastructure/persistence/postgres"
	"worksheet-ai-api/internal/infrastructure/persistence/redis"
	"worksheet-ai-api/internal/infrastructure/render"
	"worksheet-ai-api/internal/interfaces/http/handler"
	"worksheet-ai-api/internal/interfaces/http/middleware"
	"worksheet-ai-api/internal/interfaces/http/router"
	"worksheet-ai-api/internal/workflow/chain"
	workflowport "worksheet-ai-api/internal/workflow/port"
)

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		PostgresSet,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		GenerationSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeGenerator 初始化离线生成器（不依赖存储，用于 worksheetctl）
func InitializeGenerator(cfg *config.Config) (*worksheet.Generator, error) {
	wire.Build(GeneratorSet)
	return nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewWorksheetRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.WorksheetRepository), new(*postgres.WorksheetRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewWorksheetCache,
	redis.NewRateLimiter,
	wire.Bind(new(worksheet.RecordCache), new(*redis.WorksheetCache)),
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
	wire.Bind(new(worksheet.EventPublisher), new(*messaging.Producer)),
)

// GeneratorSet 内容生成链路
var GeneratorSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	chain.NewWorksheetChain,
	wire.Bind(new(worksheet.ContentProvider), new(*chain.WorksheetChain)),
	worksheet.NewNormalizer,
	worksheet.NewGenerator,
)

// GenerationSet 完整生成服务
var GenerationSet = wire.NewSet(
	GeneratorSet,
	entitlement.NewGate,
	render.NewDefaultRegistry,
	worksheet.NewService,
	wire.Bind(new(handler.WorksheetService), new(*worksheet.Service)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideAuthConfig,
	handler.NewHealthHandler,
	handler.NewWorksheetHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)
