package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 設定キー
const (
	KeyBackend            = "backend"
	KeyEndpoint           = "endpoint"
	KeyRequestTimeout     = "requestTimeoutMs"
	KeyFetchTimeout       = "fetchTimeoutMs"
	KeyGeminiModel        = "geminiModel"
	KeyGeminiAPIKey       = "geminiApiKey"
	KeyGeminiPrompt       = "geminiPrompt"
	KeyLogLevel           = "logLevel"
	KeyRejectWhileLoading = "rejectWhileLoading"
)

// Backend の種類
const (
	BackendRemote = "remote"
	BackendGemini = "gemini"
)

// Config は YAML から読み込んだキーと値を保持します。
type Config struct {
	values map[string]any
}

// New は値を直接指定して Config を作ります。
func New(values map[string]any) *Config {
	if values == nil {
		values = make(map[string]any)
	}
	return &Config{values: values}
}

// Load は path の YAML を読み込みます。ファイルが存在しない場合は空の設定（すべて既定値）を返します。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(nil), nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse は YAML のバイト列から Config を作ります。
func Parse(data []byte) (*Config, error) {
	values := make(map[string]any)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return New(values), nil
}

// GetString は文字列の値を返します。見つからない、または文字列でなければ空文字です。
func (c *Config) GetString(key string) string {
	value, ok := c.values[key]
	if !ok {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return ""
	}
	return str
}

// GetStringOrDefault は文字列の値を返します。空なら defaultValue です。
func (c *Config) GetStringOrDefault(key, defaultValue string) string {
	value := c.GetString(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetIntOrDefault は整数の値を返します。
func (c *Config) GetIntOrDefault(key string, defaultValue int) int {
	value, ok := c.values[key]
	if !ok {
		return defaultValue
	}
	intValue, ok := value.(int)
	if !ok {
		return defaultValue
	}
	return intValue
}

// GetBoolOrDefault は真偽値を返します。
func (c *Config) GetBoolOrDefault(key string, defaultValue bool) bool {
	value, ok := c.values[key]
	if !ok {
		return defaultValue
	}
	b, ok := value.(bool)
	if !ok {
		return defaultValue
	}
	return b
}

// GetDurationOrDefault はミリ秒で指定された整数を時間として返します。負数や不正な値なら defaultValue です。
func (c *Config) GetDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	intValue := c.GetIntOrDefault(key, -1)
	if intValue < 0 {
		return defaultValue
	}
	return time.Duration(intValue) * time.Millisecond
}

// Backend は使用するバックエンド名を返します。
func (c *Config) Backend() string {
	return strings.ToLower(c.GetStringOrDefault(KeyBackend, BackendRemote))
}

// GeminiAPIKey は設定ファイル、なければ環境変数 GEMINI_API_KEY から API キーを返します。
func (c *Config) GeminiAPIKey() string {
	return c.GetStringOrDefault(KeyGeminiAPIKey, os.Getenv("GEMINI_API_KEY"))
}

// LogLevel は slog のログレベルを返します。
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.GetStringOrDefault(KeyLogLevel, "info"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
