package usecase

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"email_identity/internal/feature/emailidentity/domain/entity"
)

// ConfirmLookup はメール確認時にレコードを検索するカラムを選択します。
type ConfirmLookup string

const (
	// ConfirmLookupHashEmail はハッシュ化メールアドレスのカラムで検索します。
	ConfirmLookupHashEmail ConfirmLookup = "hash_email"
	// ConfirmLookupEmail はハッシュ値を使って平文メールアドレスのカラムで検索します。
	// 旧来のデータはこの方法でしか確認できません。
	ConfirmLookupEmail ConfirmLookup = "email"
)

// Field は検索に対応するレコードのフィールドを返します。
func (c ConfirmLookup) Field() entity.Field {
	if c == ConfirmLookupEmail {
		return entity.FieldEmail
	}
	return entity.FieldHashedEmail
}

const (
	HashAlgorithmMD5  = "md5"
	HashAlgorithmSHA3 = "sha3-256"
)

// Config は生成時に固定される設定を保持します。
type Config struct {
	Table             string        `yaml:"table"`
	EmailField        string        `yaml:"emailField"`
	HashEmailField    string        `yaml:"hashEmailField"`
	HashPasswordField string        `yaml:"hashPasswordField"`
	ConfirmField      string        `yaml:"confirmField"`
	HashLength        int           `yaml:"hashLength"`
	HashAlgorithm     string        `yaml:"hashAlgorithm"`
	ConfirmLookup     ConfirmLookup `yaml:"confirmLookup"`
}

// DefaultConfig は既存のユーザーテーブルで使われているカラム構成を返します。
func DefaultConfig() Config {
	return Config{
		Table:             "user",
		EmailField:        "email",
		HashEmailField:    "hash_email",
		HashPasswordField: "hash_password",
		ConfirmField:      "hash_confirm",
		HashLength:        32,
		HashAlgorithm:     HashAlgorithmMD5,
		ConfirmLookup:     ConfirmLookupHashEmail,
	}
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Column はレコードのフィールドに対応する設定済みのカラム名を返します。
func (c Config) Column(f entity.Field) string {
	switch f {
	case entity.FieldEmail:
		return c.EmailField
	case entity.FieldHashedEmail:
		return c.HashEmailField
	case entity.FieldHashedPassword:
		return c.HashPasswordField
	case entity.FieldConfirmToken:
		return c.ConfirmField
	default:
		return ""
	}
}

// Validate は各名前がSQL識別子として正しいこと、ハッシュ設定が整合していることを検証します。
func (c Config) Validate() error {
	names := map[string]string{
		"table":             c.Table,
		"emailField":        c.EmailField,
		"hashEmailField":    c.HashEmailField,
		"hashPasswordField": c.HashPasswordField,
		"confirmField":      c.ConfirmField,
	}
	for key, name := range names {
		if !identifierRe.MatchString(name) {
			return fmt.Errorf("%w: %s %q is not a valid identifier", ErrInvalidConfig, key, name)
		}
	}

	want := 0
	switch c.HashAlgorithm {
	case HashAlgorithmMD5:
		want = 32
	case HashAlgorithmSHA3:
		want = 64
	default:
		return fmt.Errorf("%w: unsupported hash algorithm %q", ErrInvalidConfig, c.HashAlgorithm)
	}
	if c.HashLength != want {
		return fmt.Errorf("%w: hash length %d does not match %s output length %d",
			ErrInvalidConfig, c.HashLength, c.HashAlgorithm, want)
	}

	switch c.ConfirmLookup {
	case ConfirmLookupHashEmail, ConfirmLookupEmail:
	default:
		return fmt.Errorf("%w: unsupported confirm lookup %q", ErrInvalidConfig, c.ConfirmLookup)
	}
	return nil
}

// LoadConfig はデフォルト値、IDENTITY_CONFIG_FILEで指定されたYAMLファイル（任意）、
// IDENTITY_*環境変数の順に設定を重ねて構築します。
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := strings.TrimSpace(os.Getenv("IDENTITY_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read identity config: %w", err)
		}
		if err := mergeYAML(&cfg, data); err != nil {
			return Config{}, err
		}
	}

	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeYAML はYAMLの空でない値をcfgに上書きします。
func mergeYAML(cfg *Config, data []byte) error {
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse identity config: %w", err)
	}
	setIf(&cfg.Table, parsed.Table)
	setIf(&cfg.EmailField, parsed.EmailField)
	setIf(&cfg.HashEmailField, parsed.HashEmailField)
	setIf(&cfg.HashPasswordField, parsed.HashPasswordField)
	setIf(&cfg.ConfirmField, parsed.ConfirmField)
	setIf(&cfg.HashAlgorithm, parsed.HashAlgorithm)
	if parsed.ConfirmLookup != "" {
		cfg.ConfirmLookup = parsed.ConfirmLookup
	}
	if parsed.HashLength > 0 {
		cfg.HashLength = parsed.HashLength
	} else if parsed.HashAlgorithm == HashAlgorithmSHA3 {
		cfg.HashLength = 64
	}
	return nil
}

func overrideFromEnv(cfg *Config) {
	setIf(&cfg.Table, os.Getenv("IDENTITY_TABLE"))
	setIf(&cfg.EmailField, os.Getenv("IDENTITY_EMAIL_FIELD"))
	setIf(&cfg.HashEmailField, os.Getenv("IDENTITY_HASH_EMAIL_FIELD"))
	setIf(&cfg.HashPasswordField, os.Getenv("IDENTITY_HASH_PASSWORD_FIELD"))
	setIf(&cfg.ConfirmField, os.Getenv("IDENTITY_CONFIRM_FIELD"))
	if algo := strings.TrimSpace(os.Getenv("IDENTITY_HASH_ALGORITHM")); algo != "" {
		cfg.HashAlgorithm = algo
		if algo == HashAlgorithmSHA3 {
			cfg.HashLength = 64
		} else {
			cfg.HashLength = 32
		}
	}
	if lookup := strings.TrimSpace(os.Getenv("IDENTITY_CONFIRM_LOOKUP")); lookup != "" {
		cfg.ConfirmLookup = ConfirmLookup(lookup)
	}
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
