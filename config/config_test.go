package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envLookup(map[string]string{
		"APP_ENV":            "production",
		"PORT":               "9090",
		"SENDGRID_API_KEY":   "SG.key",
		"MAIL_FROM_NAME":     "Site",
		"MAIL_FROM_ADDRESS":  "site@example.com",
		"CONTACT_RECIPIENTS": " a@example.com, ,b@example.com ",
		"RATE_LIMIT_STORE":   "redis",
		"REDIS_URL":          "redis://localhost:6379/0",
		"TRUST_PROXY":        "false",
		"NATIVE_COOKIES":     "true",
		"MAIL_TIMEOUT":       "3s",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "SG.key", cfg.SendGridKey)
	assert.Equal(t, "Site", cfg.From.Name)
	assert.Equal(t, "site@example.com", cfg.From.Address)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Recipients)
	assert.Equal(t, StoreRedis, cfg.RateLimit)
	assert.False(t, cfg.TrustProxy)
	assert.True(t, cfg.NativeCookies)
	assert.Equal(t, 3*time.Second, cfg.MailTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "port", env: map[string]string{"PORT": "eighty"}},
		{name: "bool", env: map[string]string{"TRUST_PROXY": "maybe"}},
		{name: "duration", env: map[string]string{"MAIL_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, cfg.applyEnv(envLookup(tt.env)))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Recipients = []string{"team@example.com"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with recipients", mutate: func(*Config) {}},
		{name: "no recipients", mutate: func(c *Config) { c.Recipients = nil }, wantErr: "CONTACT_RECIPIENTS"},
		{name: "unknown store", mutate: func(c *Config) { c.RateLimit = "memcached" }, wantErr: "memcached"},
		{name: "redis without url", mutate: func(c *Config) { c.RateLimit = StoreRedis }, wantErr: "REDIS_URL"},
		{name: "postgres without url", mutate: func(c *Config) { c.RateLimit = StorePostgres }, wantErr: "DATABASE_URL"},
		{name: "production without key", mutate: func(c *Config) { c.Env = EnvProduction }, wantErr: "SENDGRID_API_KEY"},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SENDGRID_API_KEY", "SG.from-env")
	t.Setenv("PORT", "")

	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 7070
from:
  name: MaxScale
  address: hello@example.com
recipients:
  - team@example.com
mail_timeout: 5s
sendgrid_api_key: SG.from-file
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "hello@example.com", cfg.From.Address)
	assert.Equal(t, []string{"team@example.com"}, cfg.Recipients)
	assert.Equal(t, 5*time.Second, cfg.MailTimeout)
	assert.Equal(t, "SG.from-env", cfg.SendGridKey, "environment overrides the file")
}
