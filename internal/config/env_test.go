package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/coverly")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("BUCKET_NAME", "")
	t.Setenv("GEN_TIMEOUT", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	os.Unsetenv("GEN_TIMEOUT")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/coverly", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.GenTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "gemini-1.5-flash", cfg.GenModel)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GEN_TIMEOUT", "15s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.GenTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes, "bad ints fall back to the default")
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	setBaseEnv(t)
	path := filepath.Join(t.TempDir(), "coverly.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gen_model: gemini-2.0-flash
gen_timeout: 30s
port: "7000"
`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", cfg.GenModel)
	assert.Equal(t, 30*time.Second, cfg.GenTimeout)
	assert.Equal(t, "7000", cfg.Port)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.BucketName = "uploads"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL not set")
	assert.Contains(t, err.Error(), "JWT_SECRET not set")
	assert.Contains(t, err.Error(), "AWS_ACCESS_KEY")

	cfg.DatabaseURL = "postgres://x"
	cfg.JWTSecret = "k"
	cfg.AwsAccessKey, cfg.AwsSecretKey = "a", "b"
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.ArchiveEnabled())
}
