package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/interfaces/http/middleware"
)

func TestPostgresOnlyDataLayer_AvailableOutsideInjectors(t *testing.T) {
	var layer PostgresOnlyDataLayer
	assert.Nil(t, layer.PgClient)
	assert.Nil(t, layer.TxManager)
	assert.Nil(t, layer.UserRepo)
	assert.Nil(t, layer.WorksheetRepo)
}

func TestProvideAuthConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Security.JWT = config.JWTConfig{Secret: "s3cret", Issuer: "auth.example", Audience: "worksheets"}

	got := ProvideAuthConfig(cfg)
	assert.Equal(t, "s3cret", got.Secret)
	assert.Equal(t, "auth.example", got.Issuer)
	assert.Equal(t, "worksheets", got.Audience)
	assert.Equal(t, middleware.DefaultSkipPaths, got.SkipPaths)
}
