package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withEnv(t *testing.T, values map[string]string) {
	t.Helper()
	prev := Env
	Env = values
	t.Cleanup(func() { Env = prev })
}

func TestGetEnvPrefersLoadedFile(t *testing.T) {
	withEnv(t, map[string]string{"FOODFOX_TEST_KEY": "from-file"})
	t.Setenv("FOODFOX_TEST_KEY", "from-os")

	assert.Equal(t, "from-file", GetEnv("FOODFOX_TEST_KEY", "def"))
	assert.Equal(t, "def", GetEnv("FOODFOX_MISSING_KEY", "def"))
}

func TestTypedGetters(t *testing.T) {
	withEnv(t, map[string]string{
		"FLAG_ON":   "true",
		"FLAG_BAD":  "maybe",
		"WORKERS":   "4",
		"WORKERS_X": "four",
		"TTL":       "90s",
		"TTL_BAD":   "soon",
	})

	assert.True(t, GetBool("FLAG_ON", false))
	assert.True(t, GetBool("FLAG_BAD", true))
	assert.False(t, GetBool("FLAG_UNSET", false))
	assert.Equal(t, 4, GetInt("WORKERS", 1))
	assert.Equal(t, 1, GetInt("WORKERS_X", 1))
	assert.Equal(t, 90*time.Second, GetDuration("TTL", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("TTL_BAD", time.Minute))
}
