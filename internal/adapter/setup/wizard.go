package setup

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Nyukimin/playwright-ai-agent/internal/adapter/config"
	"github.com/Nyukimin/playwright-ai-agent/internal/domain/llm"
)

const (
	defaultPageDir    = "src/pages"
	defaultLocatorDir = "src/locators"
	defaultLocalURL   = "http://localhost:8080/v1/chat/completions"
)

type providerChoice struct {
	label  string
	name   llm.ProviderName
	models []string
}

var providerChoices = []providerChoice{
	{label: "OpenAI", name: llm.ProviderOpenAI, models: []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1"}},
	{label: "Anthropic", name: llm.ProviderAnthropic, models: []string{"claude-sonnet-4-20250514", "claude-3-5-haiku-latest"}},
	{label: "Local", name: llm.ProviderLocal},
}

// Wizard は対話的に設定を作成する
type Wizard struct {
	p           Prompter
	out         io.Writer
	logger      zerolog.Logger
	existingKey string
}

// Option はWizardの設定
type Option func(*Wizard)

// WithExistingKey は保存済みのAPIキーを再利用の候補にする
func WithExistingKey(key string) Option {
	return func(w *Wizard) {
		w.existingKey = key
	}
}

// NewWizard は新しいWizardを作成
func NewWizard(p Prompter, out io.Writer, logger zerolog.Logger, opts ...Option) *Wizard {
	w := &Wizard{p: p, out: out, logger: logger}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run は質問に沿って設定を組み立てる。保存は呼び出し側が行う
func (w *Wizard) Run() (*config.Config, error) {
	fmt.Fprintln(w.out, "Playwright AI Agent Setup")

	ai, err := w.askAI()
	if err != nil {
		return nil, err
	}

	locators, pageDefault, err := w.askLocators()
	if err != nil {
		return nil, err
	}

	pages, err := w.askPages(pageDefault)
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{
		AI:       ai,
		Locators: locators,
		Pages:    pages,
		Log:      config.LogConfig{Level: "info", Format: "console"},
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("setup produced invalid config: %w", err)
	}

	w.logger.Debug().
		Str("provider", cfg.AI.Provider).
		Str("locators", cfg.Locators.Directory).
		Str("pages", cfg.Pages.Directory).
		Msg("setup answers collected")

	return cfg, nil
}

func (w *Wizard) askAI() (config.AIConfig, error) {
	fmt.Fprintln(w.out, "\nAI Setup")

	labels := make([]string, len(providerChoices))
	for i, c := range providerChoices {
		labels[i] = c.label
	}
	idx, err := w.p.Choose("Choose AI provider:", labels, 0)
	if err != nil {
		return config.AIConfig{}, err
	}
	choice := providerChoices[idx]

	if choice.name == llm.ProviderLocal {
		apiURL, err := w.p.Ask("Enter your local API URL:", defaultLocalURL, ValidateURL)
		if err != nil {
			return config.AIConfig{}, err
		}
		return config.AIConfig{Provider: string(choice.name), APIURL: apiURL}, nil
	}

	m, err := w.p.Choose("Select model:", choice.models, 0)
	if err != nil {
		return config.AIConfig{}, err
	}
	apiKey, err := w.askAPIKey()
	if err != nil {
		return config.AIConfig{}, err
	}

	return config.AIConfig{
		Provider: string(choice.name),
		Model:    choice.models[m],
		APIKey:   apiKey,
	}, nil
}

// askAPIKey は保存済みキーがあれば再利用を確認し、なければ入力させる
func (w *Wizard) askAPIKey() (string, error) {
	if w.existingKey != "" {
		keep, err := w.p.Confirm("Use the API key saved in "+config.EnvFileName+"?", true)
		if err != nil {
			return "", err
		}
		if keep {
			return w.existingKey, nil
		}
	}
	return w.p.Secret("API Key:", ValidateAPIKey)
}

// askLocators はロケーター設定を尋ね、ページディレクトリの既定値も返す
func (w *Wizard) askLocators() (config.ProjectConfig, string, error) {
	fmt.Fprintln(w.out, "\nLocator Config")

	dedicated, err := w.p.Confirm("Do you (intend to) use a dedicated locator folder?", true)
	if err != nil {
		return config.ProjectConfig{}, "", err
	}

	def := defaultPageDir
	if dedicated {
		def = defaultLocatorDir
	}
	dir, err := w.p.Ask("Locators directory:", def, ValidateDirectory)
	if err != nil {
		return config.ProjectConfig{}, "", err
	}

	// ロケーターをページと同居させる場合はページの既定値も揃える
	pageDefault := defaultPageDir
	if !dedicated {
		pageDefault = dir
	}

	classes, params, err := w.askSuffixes(config.DefaultLocatorClassSuffixes, config.DefaultLocatorParamSuffixes)
	if err != nil {
		return config.ProjectConfig{}, "", err
	}
	return config.ProjectConfig{Directory: dir, ClassSuffixes: classes, ParamSuffixes: params}, pageDefault, nil
}

func (w *Wizard) askPages(def string) (config.ProjectConfig, error) {
	fmt.Fprintln(w.out, "\nPage Config")

	dir, err := w.p.Ask("Page directory:", def, ValidateDirectory)
	if err != nil {
		return config.ProjectConfig{}, err
	}

	classes, _, err := w.askSuffixes(config.DefaultPageClassSuffixes, nil)
	if err != nil {
		return config.ProjectConfig{}, err
	}
	return config.ProjectConfig{Directory: dir, ClassSuffixes: classes}, nil
}

// askSuffixes は既定の接尾辞を提示し、採用しない場合は入力させる
func (w *Wizard) askSuffixes(classDefaults, paramDefaults []string) ([]string, []string, error) {
	fmt.Fprintf(w.out, "\nDefault class suffixes: %s\n", strings.Join(classDefaults, ", "))
	if paramDefaults != nil {
		fmt.Fprintf(w.out, "Default parameter suffixes: %s\n", strings.Join(paramDefaults, ", "))
	}
	fmt.Fprintln(w.out, "Tip: Fewer suffixes = stricter patterns (recommended for linting)")

	useDefaults, err := w.p.Confirm("Use default suffixes?", true)
	if err != nil {
		return nil, nil, err
	}
	if useDefaults {
		return clone(classDefaults), clone(paramDefaults), nil
	}

	classes, err := w.p.Ask("Suffixes for classes (comma-separated):", strings.Join(classDefaults, ", "), ValidateSuffixes)
	if err != nil {
		return nil, nil, err
	}
	if paramDefaults == nil {
		return ParseSuffixes(classes), nil, nil
	}

	params, err := w.p.Ask("Suffixes for params (comma-separated):", strings.Join(paramDefaults, ", "), ValidateSuffixes)
	if err != nil {
		return nil, nil, err
	}
	return ParseSuffixes(classes), ParseSuffixes(params), nil
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
