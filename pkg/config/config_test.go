package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	conf, err := Load("forms-service")
	require.NoError(t, err)

	assert.Equal(t, "forms-service", conf.ServiceName)
	assert.Equal(t, "localhost", conf.DB.Host)
	assert.Equal(t, "5432", conf.DB.Port)
	assert.Equal(t, "8080", conf.Server.Port)
	assert.Equal(t, "development", conf.Server.Env)
	assert.Equal(t, 24, conf.JWT.ExpirationHours)
	assert.Equal(t, time.Hour, conf.DB.ConnMaxLifetime)
	assert.True(t, conf.S3.ForcePathStyle)
	assert.Equal(t, int64(10<<20), conf.Upload.MaxFileSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")
	t.Setenv("S3_BUCKET", "uploads")
	t.Setenv("S3_FORCE_PATH_STYLE", "false")
	t.Setenv("UPLOAD_MAX_FILE_SIZE", "1024")
	t.Setenv("ADMIN_EMAIL", "root@example.org")

	conf, err := Load("forms-service")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", conf.DB.Host)
	assert.Equal(t, "9090", conf.Server.Port)
	assert.Equal(t, 2, conf.JWT.ExpirationHours)
	assert.Equal(t, "uploads", conf.S3.Bucket)
	assert.False(t, conf.S3.ForcePathStyle)
	assert.Equal(t, int64(1024), conf.Upload.MaxFileSize)
	assert.Equal(t, "root@example.org", conf.AdminEmail)
}

func TestGetDSN(t *testing.T) {
	db := DBConfig{
		Host: "localhost", Port: "5432", User: "postgres",
		Password: "secret", DBName: "forms", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=forms sslmode=disable",
		db.GetDSN())
}

func TestValidate_Production(t *testing.T) {
	t.Run("default signing key rejected", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("S3_BUCKET", "uploads")
		t.Setenv("S3_REGION", "us-east-1")
		t.Setenv("S3_ACCESS_KEY", "key")
		t.Setenv("S3_SECRET_KEY", "secret")

		_, err := Load("forms-service")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
	})

	t.Run("missing object store rejected", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SIGNING_KEY", "real-secret")

		_, err := Load("forms-service")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "S3_BUCKET")
	})

	t.Run("complete production config accepted", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SIGNING_KEY", "real-secret")
		t.Setenv("S3_BUCKET", "uploads")
		t.Setenv("S3_REGION", "us-east-1")
		t.Setenv("S3_ACCESS_KEY", "key")
		t.Setenv("S3_SECRET_KEY", "secret")

		_, err := Load("forms-service")
		assert.NoError(t, err)
	})
}
