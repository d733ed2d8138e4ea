package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "worksheet:abc", WorksheetKey("abc"))
	assert.Equal(t, "ratelimit:user-1:POST /v1/worksheets", BuildRateLimitKey("user-1", "POST /v1/worksheets"))
}
