package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/filesystem"
)

// EnvManager は.envファイルのAPIキーを管理
type EnvManager struct {
	fs   *filesystem.Service
	path string
}

// NewEnvManager は新しいEnvManagerを作成
func NewEnvManager(fs *filesystem.Service) *EnvManager {
	return &EnvManager{fs: fs, path: EnvFileName}
}

// APIKey は.envに保存されたAPIキーを返す。未保存なら空文字
func (m *EnvManager) APIKey() (string, error) {
	vars, err := m.read()
	if err != nil {
		return "", err
	}
	return vars[APIKeyEnv], nil
}

// UpdateAPIKey はAPIキーを設定し、他の変数は保持する
// キーが未保存なら末尾に追記し、既存のコメントを残す
func (m *EnvManager) UpdateAPIKey(ctx context.Context, key string) error {
	vars, err := m.read()
	if err != nil {
		return err
	}

	if _, ok := vars[APIKeyEnv]; !ok {
		return m.appendKey(ctx, key)
	}

	vars[APIKeyEnv] = key
	if err := godotenv.Write(vars, m.fs.Resolve(m.path)); err != nil {
		return fmt.Errorf("failed to write %s: %w", m.path, err)
	}
	return nil
}

func (m *EnvManager) appendKey(ctx context.Context, key string) error {
	line, err := godotenv.Marshal(map[string]string{APIKeyEnv: key})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", APIKeyEnv, err)
	}

	if m.fs.Exists(m.path) {
		content, err := m.fs.ReadFile(ctx, m.path)
		if err != nil {
			return err
		}
		if content != "" && !strings.HasSuffix(content, "\n") {
			line = "\n" + line
		}
	}
	return m.fs.AppendFile(ctx, m.path, line+"\n")
}

func (m *EnvManager) read() (map[string]string, error) {
	if !m.fs.Exists(m.path) {
		return map[string]string{}, nil
	}
	vars, err := godotenv.Read(m.fs.Resolve(m.path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", m.path, err)
	}
	return vars, nil
}
