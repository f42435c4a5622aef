package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("SOME_KEY", "value")
	assert.Equal(t, "value", GetEnv("SOME_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("MISSING_KEY", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("DB_CONNECT_TIMEOUT", "25")
	assert.Equal(t, 25, GetEnvInt("DB_CONNECT_TIMEOUT", 10))

	t.Setenv("DB_CONNECT_TIMEOUT", "not-a-number")
	assert.Equal(t, 10, GetEnvInt("DB_CONNECT_TIMEOUT", 10))

	assert.Equal(t, 10, GetEnvInt("UNSET_TIMEOUT", 10))
}
