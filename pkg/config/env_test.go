package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("SECRET_CACHE_TEST_STR", "value")
	assert.Equal(t, "value", GetEnv("SECRET_CACHE_TEST_STR", "def"))

	t.Setenv("SECRET_CACHE_TEST_STR", "")
	assert.Equal(t, "def", GetEnv("SECRET_CACHE_TEST_STR", "def"))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("SECRET_CACHE_TEST_BOOL", "true")
	assert.True(t, GetEnvBool("SECRET_CACHE_TEST_BOOL", false))

	t.Setenv("SECRET_CACHE_TEST_BOOL", "0")
	assert.False(t, GetEnvBool("SECRET_CACHE_TEST_BOOL", true))

	t.Setenv("SECRET_CACHE_TEST_BOOL", "not-a-bool")
	assert.True(t, GetEnvBool("SECRET_CACHE_TEST_BOOL", true), "invalid value falls back to default")

	t.Setenv("SECRET_CACHE_TEST_BOOL", "")
	assert.False(t, GetEnvBool("SECRET_CACHE_TEST_BOOL", false))
}
