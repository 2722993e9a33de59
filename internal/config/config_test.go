package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, 12, cfg.Password.BcryptCost)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "memory", cfg.RateLimit.Store)
	assert.Equal(t, time.Minute, cfg.RateLimit.DefaultWindow)
	assert.Equal(t, "log", cfg.Notify.Channel)
	assert.Equal(t, "any", cfg.Onboarding.Transitions)
	assert.Equal(t, 48*time.Hour, cfg.Onboarding.ReminderWindow)
	assert.Equal(t, 30*time.Second, cfg.Contracts.PDFTimeout)
	assert.Equal(t, "Company", cfg.Contracts.CompanyName)
	assert.Equal(t, int64(5<<20), cfg.Uploads.MaxBytes)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_EXPIRATION_HOURS", "8")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("PASSWORD_PEPPER", "pepper")
	t.Setenv("DATABASE_URL", "postgres://localhost/hr")
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_STORE", "redis")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1,10.0.0.2")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("ONBOARDING_TRANSITIONS", "strict")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.JWT.ExpirationHours)
	assert.Equal(t, 10, cfg.Password.BcryptCost)
	assert.Equal(t, "pepper", cfg.Password.Pepper)
	assert.Equal(t, "postgres://localhost/hr", cfg.Database.URL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.RateLimit.Store)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.DefaultWindow)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.RateLimit.Whitelist)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "strict", cfg.Onboarding.Transitions)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("JWT_SECRET", testSecret)

	yaml := `
contracts:
  company_name: Acme Ltd
  notice_days: 60
notify:
  channel: aws
  from_email: hr@acme.test
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hr_admin.yaml"), []byte(yaml), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", cfg.Contracts.CompanyName)
	assert.Equal(t, 60, cfg.Contracts.NoticeDays)
	assert.Equal(t, "aws", cfg.Notify.Channel)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Environment wins over the file.
	t.Setenv("CONTRACTS_COMPANY_NAME", "Acme GmbH")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", cfg.Contracts.CompanyName)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "at least 32 characters"},
		{"zero expiry", map[string]string{"JWT_SECRET": testSecret, "JWT_EXPIRATION_HOURS": "0"}, "at least 1 hour"},
		{"bcrypt cost", map[string]string{"JWT_SECRET": testSecret, "BCRYPT_COST": "4"}, "bcrypt cost out of range"},
		{"store", map[string]string{"JWT_SECRET": testSecret, "RATE_LIMIT_STORE": "memcached"}, "RATE_LIMIT_STORE"},
		{"channel", map[string]string{"JWT_SECRET": testSecret, "NOTIFY_CHANNEL": "pigeon"}, "NOTIFY_CHANNEL"},
		{"aws without sender", map[string]string{"JWT_SECRET": testSecret, "NOTIFY_CHANNEL": "aws"}, "NOTIFY_FROM_EMAIL"},
		{"transitions", map[string]string{"JWT_SECRET": testSecret, "ONBOARDING_TRANSITIONS": "loose"}, "ONBOARDING_TRANSITIONS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewJWTConfig(t *testing.T) {
	cfg, err := NewJWTConfig(testSecret, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.ExpirationHours)

	_, err = NewJWTConfig("", 24)
	assert.Error(t, err)
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg, err := NewPasswordConfig(10, "")
	require.NoError(t, err)

	hash, err := cfg.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, cfg.VerifyPassword("correct horse", hash))
	assert.False(t, cfg.VerifyPassword("wrong horse", hash))

	again, err := cfg.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "bcrypt salts every hash")
}

func TestPasswordConfig_Pepper(t *testing.T) {
	peppered, err := NewPasswordConfig(10, "pepper-1")
	require.NoError(t, err)
	hash, err := peppered.HashPassword("secret-pass")
	require.NoError(t, err)

	assert.True(t, peppered.VerifyPassword("secret-pass", hash))

	plain, _ := NewPasswordConfig(10, "")
	assert.False(t, plain.VerifyPassword("secret-pass", hash))

	rotated, _ := NewPasswordConfig(10, "pepper-2")
	assert.False(t, rotated.VerifyPassword("secret-pass", hash))
}

func TestNewPasswordConfig_CostRange(t *testing.T) {
	for _, cost := range []int{9, 15} {
		_, err := NewPasswordConfig(cost, "")
		assert.Error(t, err, "cost %d", cost)
	}
	for _, cost := range []int{10, 14} {
		_, err := NewPasswordConfig(cost, "")
		assert.NoError(t, err, "cost %d", cost)
	}
}
