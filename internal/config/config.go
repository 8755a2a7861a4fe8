package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"apkdrop/internal/structures"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSendGridHook       = "https://api.sendgrid.com/v3/mail/send"
	DefaultSendGridAuthPrefix = "Bearer"
	DefaultLogLevel           = "info"
	DefaultHTTPTimeout        = 60 * time.Second
)

// Environment variables that override values from the config file.
const (
	EnvSendGridHook       = "APKDROP_SENDGRID_HOOK"
	EnvSendGridAuthPrefix = "APKDROP_SENDGRID_AUTH_PREFIX"
	EnvSendGridAuth       = "APKDROP_SENDGRID_AUTH"
	EnvEmailFrom          = "APKDROP_EMAIL_FROM"
	EnvCredentials        = "APKDROP_GOOGLE_CREDENTIALS"
	EnvLogLevel           = "APKDROP_LOG_LEVEL"
	EnvLogFile            = "APKDROP_LOG_FILE"
)

// Load reads the config file. A missing file yields an empty config.
func Load() (structures.Config, error) {
	cfgPath, err := Path()
	if err != nil {
		return structures.Config{}, err
	}
	return LoadFile(cfgPath)
}

func LoadFile(cfgPath string) (structures.Config, error) {
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return structures.Config{}, nil
		}
		return structures.Config{}, err
	}
	var cfg structures.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return structures.Config{}, err
	}
	return cfg, nil
}

func Save(cfg structures.Config) error {
	cfgPath, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(cfgPath, cfg)
}

func SaveFile(cfgPath string, cfg structures.Config) error {
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(cfgPath, data, 0600)
}

func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "apkdrop", "config.yaml"), nil
}

// ApplyEnv overrides cfg fields with any APKDROP_* variables that are set.
func ApplyEnv(cfg structures.Config) structures.Config {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&cfg.SendGridHook, EnvSendGridHook)
	override(&cfg.SendGridAuthPrefix, EnvSendGridAuthPrefix)
	override(&cfg.SendGridAuth, EnvSendGridAuth)
	override(&cfg.EmailFrom, EnvEmailFrom)
	override(&cfg.CredentialsPath, EnvCredentials)
	override(&cfg.LogLevel, EnvLogLevel)
	override(&cfg.LogFile, EnvLogFile)
	return cfg
}

// WithDefaults fills the fields that have a built-in default.
func WithDefaults(cfg structures.Config) structures.Config {
	if cfg.SendGridHook == "" {
		cfg.SendGridHook = DefaultSendGridHook
	}
	if cfg.SendGridAuthPrefix == "" {
		cfg.SendGridAuthPrefix = DefaultSendGridAuthPrefix
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	return cfg
}

// Resolve loads the config file, applies env overrides and then defaults.
func Resolve() (structures.Config, error) {
	cfg, err := Load()
	if err != nil {
		return structures.Config{}, err
	}
	return WithDefaults(ApplyEnv(cfg)), nil
}
