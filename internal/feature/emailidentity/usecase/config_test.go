package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"email_identity/internal/feature/emailidentity/domain/entity"
)

func clearIdentityEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"IDENTITY_CONFIG_FILE", "IDENTITY_TABLE", "IDENTITY_EMAIL_FIELD", "IDENTITY_HASH_EMAIL_FIELD",
		"IDENTITY_HASH_PASSWORD_FIELD", "IDENTITY_CONFIRM_FIELD", "IDENTITY_HASH_ALGORITHM",
		"IDENTITY_CONFIRM_LOOKUP",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "hash_email", cfg.Column(entity.FieldHashedEmail))
	assert.Equal(t, "hash_password", cfg.Column(entity.FieldHashedPassword))
	assert.Equal(t, "hash_confirm", cfg.Column(entity.FieldConfirmToken))
	assert.Equal(t, "email", cfg.Column(entity.FieldEmail))
	assert.Equal(t, 32, cfg.HashLength)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"injection in table name", func(c *Config) { c.Table = "user; DROP TABLE x" }},
		{"empty column", func(c *Config) { c.ConfirmField = "" }},
		{"unknown algorithm", func(c *Config) { c.HashAlgorithm = "sha1" }},
		{"length mismatch", func(c *Config) { c.HashLength = 64 }},
		{"unknown lookup", func(c *Config) { c.ConfirmLookup = "id" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadConfig_Env(t *testing.T) {
	clearIdentityEnv(t)
	t.Setenv("IDENTITY_TABLE", "members")
	t.Setenv("IDENTITY_HASH_ALGORITHM", "sha3-256")
	t.Setenv("IDENTITY_CONFIRM_LOOKUP", "email")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "members", cfg.Table)
	assert.Equal(t, HashAlgorithmSHA3, cfg.HashAlgorithm)
	assert.Equal(t, 64, cfg.HashLength)
	assert.Equal(t, ConfirmLookupEmail, cfg.ConfirmLookup)
	assert.Equal(t, entity.FieldEmail, cfg.ConfirmLookup.Field())
}

func TestLoadConfig_YAMLWithEnvOverride(t *testing.T) {
	clearIdentityEnv(t)

	path := filepath.Join(t.TempDir(), "identity.yaml")
	doc := []byte("table: accounts\nemailField: mail\nconfirmField: confirm_code\n")
	require.NoError(t, os.WriteFile(path, doc, 0o600))

	t.Setenv("IDENTITY_CONFIG_FILE", path)
	t.Setenv("IDENTITY_EMAIL_FIELD", "login")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "accounts", cfg.Table)
	assert.Equal(t, "login", cfg.EmailField, "env wins over file")
	assert.Equal(t, "confirm_code", cfg.ConfirmField)
	assert.Equal(t, "hash_email", cfg.HashEmailField, "unset keys keep defaults")
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearIdentityEnv(t)
		t.Setenv("IDENTITY_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := LoadConfig()

		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		clearIdentityEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("table: [unclosed"), 0o600))
		t.Setenv("IDENTITY_CONFIG_FILE", path)

		_, err := LoadConfig()

		assert.Error(t, err)
	})

	t.Run("invalid identifier from env", func(t *testing.T) {
		clearIdentityEnv(t)
		t.Setenv("IDENTITY_CONFIRM_FIELD", "bad-name")

		_, err := LoadConfig()

		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
