package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Nyukimin/playwright-ai-agent/internal/domain/llm"
	"github.com/Nyukimin/playwright-ai-agent/internal/domain/prompt"
)

const (
	// FileName は設定ファイル名
	FileName = "agentic.config.yaml"
	// EnvFileName はAPIキーを保存する.envファイル名
	EnvFileName = ".env"
	// APIKeyEnv はAPIキーの環境変数名
	APIKeyEnv = "AI_API_KEY"
)

// デフォルトの命名規則
var (
	DefaultLocatorClassSuffixes = []string{"Locator", "Locators", "Element", "Elements"}
	DefaultLocatorParamSuffixes = []string{
		"Button", "Btn", "Text", "Txt", "Input", "Field", "Label", "Icon",
		"Checkbox", "Radio", "Dropdown", "Toggle", "Switch", "Hyperlink", "Link", "Anchor",
		"Img", "Image", "Row", "Col", "Cell", "Item", "Tab", "Pane",
		"Section", "Container", "Box", "Wrapper",
	}
	DefaultPageClassSuffixes = []string{"Page", "Pages", "Method", "Methods", "Component", "Components"}
)

// Config はエージェント全体の設定
type Config struct {
	LastUpdated string        `yaml:"lastUpdated,omitempty"`
	AI          AIConfig      `yaml:"ai"`
	Locators    ProjectConfig `yaml:"locators"`
	Pages       ProjectConfig `yaml:"pages"`
	Log         LogConfig     `yaml:"log"`
}

// AIConfig はLLMプロバイダー設定
type AIConfig struct {
	Provider            string            `yaml:"provider" env:"AGENTIC_AI_PROVIDER"`
	APIURL              string            `yaml:"apiUrl,omitempty" env:"AGENTIC_AI_URL"`
	Model               string            `yaml:"model,omitempty" env:"AGENTIC_AI_MODEL"`
	AuthMethod          string            `yaml:"authMethod,omitempty"`
	Headers             map[string]string `yaml:"headers,omitempty"`
	TimeoutMS           int               `yaml:"timeout,omitempty"`
	MaxRetries          int               `yaml:"maxRetries,omitempty"`
	CustomRequestFormat bool              `yaml:"customRequestFormat,omitempty"`
	APIKey              string            `yaml:"-" env:"AI_API_KEY"` // 設定ファイルには保存しない
}

// ProjectConfig はテストスイートの配置と命名規則
type ProjectConfig struct {
	Directory     string   `yaml:"directory"`
	ClassSuffixes []string `yaml:"classSuffixes,omitempty"`
	ParamSuffixes []string `yaml:"paramSuffixes,omitempty"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level  string `yaml:"level" env:"AGENTIC_LOG_LEVEL"`
	Format string `yaml:"format"`
}

// LoadConfig は設定ファイルを読み込む
func LoadConfig(path string) (*Config, error) {
	// ファイル読み込み
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// YAMLパース
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// デフォルト値設定
	cfg.setDefaults()

	// 環境変数で上書き
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// バリデーション
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults はデフォルト値を設定
func (c *Config) setDefaults() {
	if c.AI.TimeoutMS == 0 {
		c.AI.TimeoutMS = int(llm.DefaultTimeout / time.Millisecond)
	}

	if c.Locators.ClassSuffixes == nil {
		c.Locators.ClassSuffixes = append([]string(nil), DefaultLocatorClassSuffixes...)
	}

	if c.Locators.ParamSuffixes == nil {
		c.Locators.ParamSuffixes = append([]string(nil), DefaultLocatorParamSuffixes...)
	}

	if c.Pages.ClassSuffixes == nil {
		c.Pages.ClassSuffixes = append([]string(nil), DefaultPageClassSuffixes...)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate は設定の妥当性を検証
func (c *Config) Validate() error {
	// AI設定検証
	switch llm.ProviderName(c.AI.Provider) {
	case llm.ProviderLocal:
		if c.AI.APIURL == "" {
			return fmt.Errorf("ai apiUrl is required for the local provider")
		}
	case llm.ProviderOpenAI, llm.ProviderAnthropic:
		if c.AI.Model == "" {
			return fmt.Errorf("ai model is required for provider %s", c.AI.Provider)
		}
	default:
		return fmt.Errorf("unknown ai provider: %q", c.AI.Provider)
	}

	if c.AI.TimeoutMS < 0 {
		return fmt.Errorf("invalid ai timeout: %d", c.AI.TimeoutMS)
	}

	// プロジェクト設定検証
	if c.Locators.Directory == "" {
		return fmt.Errorf("locators directory is required")
	}

	if c.Pages.Directory == "" {
		return fmt.Errorf("pages directory is required")
	}

	// ログ設定検証
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}

	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format: %q (must be json or console)", c.Log.Format)
	}

	return nil
}

// ToProviderConfig はブローカー用の設定に変換
func (c *Config) ToProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:            llm.ProviderName(c.AI.Provider),
		BaseURL:             c.AI.APIURL,
		Model:               c.AI.Model,
		AuthMethod:          llm.AuthMethod(c.AI.AuthMethod),
		APIKey:              c.AI.APIKey,
		Headers:             c.AI.Headers,
		Timeout:             time.Duration(c.AI.TimeoutMS) * time.Millisecond,
		MaxRetries:          c.AI.MaxRetries,
		CustomRequestFormat: c.AI.CustomRequestFormat,
	}
}

// Naming はプロンプト用の命名規則に変換
func (c *Config) Naming() prompt.Naming {
	return prompt.Naming{
		Locators: prompt.Convention{
			ClassSuffixes: c.Locators.ClassSuffixes,
			ParamSuffixes: c.Locators.ParamSuffixes,
		},
		Pages: prompt.Convention{
			ClassSuffixes: c.Pages.ClassSuffixes,
		},
	}
}
