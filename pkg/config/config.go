// Package config resolves the Loki connection configuration from
// environment variables and an optional YAML config file. Environment
// variables win over file values field by field; the merged result is
// built once at startup and never mutated afterwards.
package config

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"sigs.k8s.io/yaml"
)

// ConfigFileName is the config file looked up in the working directory.
// The home-directory fallback is the same name with a leading dot.
const ConfigFileName = "loki-mcp-server.yaml"

// Environment variable names consumed by Resolve.
const (
	EnvAddr            = "LOKI_ADDR"
	EnvUsername        = "LOKI_USERNAME"
	EnvPassword        = "LOKI_PASSWORD"
	EnvTenantID        = "LOKI_TENANT_ID"
	EnvBearerToken     = "LOKI_BEARER_TOKEN"
	EnvBearerTokenFile = "LOKI_BEARER_TOKEN_FILE"
	EnvCACertPath      = "LOKI_CA_CERT_PATH"
	EnvClientCertPath  = "LOKI_CLIENT_CERT_PATH"
	EnvClientKeyPath   = "LOKI_CLIENT_KEY_PATH"
	EnvOrgID           = "LOKI_ORG_ID"
	EnvTLSSkipVerify   = "LOKI_TLS_SKIP_VERIFY"
	EnvConfigPath      = "LOKI_CONFIG_PATH"
	EnvDebug           = "LOKI_DEBUG"
)

// Config is the resolved connection configuration for the Loki backend.
// All fields are optional at this layer; operations that need the server
// address fail individually when it is absent.
type Config struct {
	Addr            string `json:"addr" validate:"omitempty,url"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	TenantID        string `json:"tenant_id"`
	BearerToken     string `json:"bearer_token"`
	BearerTokenFile string `json:"bearer_token_file" validate:"omitempty,file"`
	CACertPath      string `json:"ca_cert_path" validate:"omitempty,file"`
	ClientCertPath  string `json:"client_cert_path" validate:"omitempty,file"`
	ClientKeyPath   string `json:"client_key_path" validate:"omitempty,file"`
	OrgID           string `json:"org_id"`
	TLSSkipVerify   bool   `json:"tls_skip_verify"`
}

// Resolve builds the connection configuration by overlaying environment
// variables on top of an optional config file. It never fails: unreadable
// or unparsable files and schema violations are logged and skipped so the
// server can still start and report per-call errors instead.
func Resolve(logger zerolog.Logger) *Config {
	cfg := fromEnv()

	if fileCfg, path := loadFile(logger); fileCfg != nil {
		logger.Debug().Str("path", path).Msg("loaded config file")
		cfg.merge(fileCfg)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		// Advisory only: a bad path or malformed URL still fails at
		// request time with a proper error.
		logger.Warn().Err(err).Msg("config validation failed")
	}

	if cfg.Addr == "" {
		logger.Warn().Msgf("no Loki server address configured; set %s or add addr to the config file", EnvAddr)
	}

	return cfg
}

// fromEnv builds a Config from environment variables only.
func fromEnv() *Config {
	return &Config{
		Addr:            os.Getenv(EnvAddr),
		Username:        os.Getenv(EnvUsername),
		Password:        os.Getenv(EnvPassword),
		TenantID:        os.Getenv(EnvTenantID),
		BearerToken:     os.Getenv(EnvBearerToken),
		BearerTokenFile: os.Getenv(EnvBearerTokenFile),
		CACertPath:      os.Getenv(EnvCACertPath),
		ClientCertPath:  os.Getenv(EnvClientCertPath),
		ClientKeyPath:   os.Getenv(EnvClientKeyPath),
		OrgID:           os.Getenv(EnvOrgID),
		TLSSkipVerify:   os.Getenv(EnvTLSSkipVerify) == "true",
	}
}

// loadFile tries the config file candidates in priority order and returns
// the first one that reads and parses, or nil when none does.
func loadFile(logger zerolog.Logger) (*Config, string) {
	var candidates []string
	if path := os.Getenv(EnvConfigPath); path != "" {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, ConfigFileName)
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, "."+ConfigFileName))
	}

	for _, path := range candidates {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("path", path).Msg("failed to read config file")
			}
			continue
		}
		fileCfg := &Config{}
		if err := yaml.Unmarshal(raw, fileCfg); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to parse config file")
			continue
		}
		return fileCfg, path
	}
	return nil, ""
}

// merge fills empty fields from other. Fields already set from the
// environment are never overwritten.
func (c *Config) merge(other *Config) {
	if c.Addr == "" {
		c.Addr = other.Addr
	}
	if c.Username == "" {
		c.Username = other.Username
	}
	if c.Password == "" {
		c.Password = other.Password
	}
	if c.TenantID == "" {
		c.TenantID = other.TenantID
	}
	if c.BearerToken == "" {
		c.BearerToken = other.BearerToken
	}
	if c.BearerTokenFile == "" {
		c.BearerTokenFile = other.BearerTokenFile
	}
	if c.CACertPath == "" {
		c.CACertPath = other.CACertPath
	}
	if c.ClientCertPath == "" {
		c.ClientCertPath = other.ClientCertPath
	}
	if c.ClientKeyPath == "" {
		c.ClientKeyPath = other.ClientKeyPath
	}
	if c.OrgID == "" {
		c.OrgID = other.OrgID
	}
	if !c.TLSSkipVerify {
		c.TLSSkipVerify = other.TLSSkipVerify
	}
}

// Redacted returns a copy safe for display and telemetry: the password
// and bearer token are stripped.
func (c *Config) Redacted() Config {
	out := *c
	out.Password = ""
	out.BearerToken = ""
	return out
}
