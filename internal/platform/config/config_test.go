package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseViper() *viper.Viper {
	v := viper.New()
	v.Set("PORT", "9090")
	v.Set("STORAGE_DRIVER", "memory")
	v.Set("CHANGE_FEED", "store")
	v.Set("JWT_SECRET", "test-secret")
	v.Set("APPROVAL_LOCK_TTL", "5s")
	v.Set("APPROVAL_MAX_ATTEMPTS", 4)
	v.Set("PROJECTION_PERIOD", "YEAR")
	return v
}

func TestFromViper_Memory(t *testing.T) {
	cfg, err := fromViper(baseViper())
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 5*time.Second, cfg.ApprovalLockTTL)
	assert.Equal(t, 4, cfg.ApprovalMaxAttempts)
	assert.Equal(t, "year", cfg.ProjectionPeriod)
}

func TestFromViper_Defaults(t *testing.T) {
	v := baseViper()
	v.Set("APPROVAL_LOCK_TTL", "soon")
	v.Set("APPROVAL_MAX_ATTEMPTS", 0)

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.ApprovalLockTTL)
	assert.Equal(t, 3, cfg.ApprovalMaxAttempts)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"postgres without url", "STORAGE_DRIVER", "postgres"},
		{"unknown driver", "STORAGE_DRIVER", "mongo"},
		{"redis feed without url", "CHANGE_FEED", "redis"},
		{"unknown feed", "CHANGE_FEED", "kafka"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := baseViper()
			v.Set(tt.key, tt.val)
			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}

	v := baseViper()
	v.Set("IS_PRODUCTION", true)
	_, err := fromViper(v)
	assert.Error(t, err, "memory storage is refused in production")
}
