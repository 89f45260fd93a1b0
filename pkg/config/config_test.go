package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, StorageDriverLocal, cfg.Certificates.StorageDriver)
	assert.Equal(t, "UCEF System", cfg.Mail.FromName)
	assert.Equal(t, "noreply@ucef.com", cfg.Mail.FromEmail)
	assert.Equal(t, 3, cfg.Notifications.MaxRetries)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CERTIFICATE_STORAGE_DRIVER", "S3")
	v.Set("ALLOWED_ORIGINS", "http://localhost:5173, https://events.example.edu ,")
	v.Set("NOTIFY_RETRY_DELAY", "not-a-duration")

	cfg := fromViper(v)
	assert.Equal(t, StorageDriverS3, cfg.Certificates.StorageDriver)
	assert.Equal(t, []string{"http://localhost:5173", "https://events.example.edu"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Notifications.RetryDelay)
}

func TestUnknownStorageDriverFallsBackToLocal(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CERTIFICATE_STORAGE_DRIVER", "gcs")

	cfg := fromViper(v)
	assert.Equal(t, StorageDriverLocal, cfg.Certificates.StorageDriver)
}
