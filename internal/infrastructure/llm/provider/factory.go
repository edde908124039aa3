package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Nyukimin/playwright-ai-agent/internal/domain/llm"
	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/llm/claude"
	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/llm/local"
	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/llm/openai"
)

// knownEndpoints はURL部分一致によるプロバイダー判定表
var knownEndpoints = []struct {
	substr string
	name   llm.ProviderName
}{
	{"api.openai.com", llm.ProviderOpenAI},
	{"api.anthropic.com", llm.ProviderAnthropic},
}

// Detect はベースURLからプロバイダーを判定し、該当なしならlocalを返す
func Detect(baseURL string) llm.ProviderName {
	for _, e := range knownEndpoints {
		if strings.Contains(baseURL, e.substr) {
			return e.name
		}
	}
	return llm.ProviderLocal
}

// Factory はプロバイダー名からStrategyを引くレジストリ
type Factory struct {
	strategies map[llm.ProviderName]llm.Strategy
}

// NewFactory は全プロバイダーを登録したFactoryを作成
func NewFactory() *Factory {
	f := &Factory{strategies: make(map[llm.ProviderName]llm.Strategy)}
	f.register(openai.New())
	f.register(claude.New())
	f.register(local.New())
	return f
}

func (f *Factory) register(s llm.Strategy) {
	f.strategies[s.Name()] = s
}

// Create は名前に対応するStrategyを返す
func (f *Factory) Create(name llm.ProviderName) (llm.Strategy, error) {
	s, ok := f.strategies[name]
	if !ok {
		return nil, &llm.ConfigError{
			Field:  "provider",
			Reason: fmt.Sprintf("%q is unknown (available: %s)", name, f.availableList()),
		}
	}
	return s, nil
}

// DefaultConfig はプロバイダーの既定設定を返す
func (f *Factory) DefaultConfig(name llm.ProviderName) (llm.ProviderConfig, error) {
	s, err := f.Create(name)
	if err != nil {
		return llm.ProviderConfig{}, err
	}
	return s.DefaultConfig(), nil
}

// Available は登録済みプロバイダー名を名前順で返す
func (f *Factory) Available() []llm.ProviderName {
	names := make([]llm.ProviderName, 0, len(f.strategies))
	for name := range f.strategies {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// CreateFromPreset は既定設定にcfgを重ねて検証し、Strategyと確定設定を返す
func (f *Factory) CreateFromPreset(name llm.ProviderName, cfg llm.ProviderConfig) (llm.Strategy, llm.ProviderConfig, error) {
	s, err := f.Create(name)
	if err != nil {
		return nil, llm.ProviderConfig{}, err
	}

	merged := s.DefaultConfig().Merge(cfg).WithDefaults()
	merged.Provider = name
	if err := s.ValidateConfig(merged); err != nil {
		return nil, llm.ProviderConfig{}, err
	}
	return s, merged, nil
}

func (f *Factory) availableList() string {
	names := f.Available()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
