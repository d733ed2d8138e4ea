package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/entity"
	"worksheet-ai-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 同步表结构
	if err := dataLayer.PgClient.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("Schema migrated.")

	// 4. 可选：预置订阅用户（本地联调使用）
	userID := strings.TrimSpace(os.Getenv("BOOTSTRAP_PREMIUM_USER_ID"))
	if userID == "" {
		fmt.Println("Bootstrap completed successfully.")
		return
	}

	existing, err := dataLayer.UserRepo.GetByID(ctx, userID)
	if err != nil {
		log.Fatalf("failed to check user existence: %v", err)
	}
	user := existing
	if user == nil {
		fmt.Printf("Creating user: %s...\n", userID)
		user = entity.NewUser(userID, os.Getenv("BOOTSTRAP_PREMIUM_USER_EMAIL"))
		if err := dataLayer.UserRepo.Create(ctx, user); err != nil {
			log.Fatalf("failed to create user: %v", err)
		}
	}

	periodEnd := time.Now().AddDate(1, 0, 0)
	user.SubscriptionStatus = entity.SubscriptionPremium
	user.CancelAtPeriodEnd = false
	user.CurrentPeriodEnd = &periodEnd
	if err := dataLayer.UserRepo.UpdateSubscription(ctx, user); err != nil {
		log.Fatalf("failed to update subscription: %v", err)
	}
	fmt.Printf("User %s is premium until %s.\n", userID, periodEnd.Format(time.DateOnly))

	fmt.Println("Bootstrap completed successfully.")
}
