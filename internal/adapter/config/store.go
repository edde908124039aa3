package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/filesystem"
)

// lastUpdatedLayout は最終更新日時の表記 (dd/mm/yyyy, hh:mm:ss)
const lastUpdatedLayout = "02/01/2006, 15:04:05"

// keyWriter はAPIキーの保存先
type keyWriter interface {
	UpdateAPIKey(ctx context.Context, key string) error
}

// Store は設定ファイルと.envを保存する
type Store struct {
	fs     *filesystem.Service
	env    keyWriter
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore は新しいStoreを作成
func NewStore(fs *filesystem.Service, logger zerolog.Logger) *Store {
	return &Store{
		fs:     fs,
		env:    NewEnvManager(fs),
		logger: logger,
		now:    time.Now,
	}
}

type backup struct {
	file    string
	content string
}

// Save は設定を保存する。APIKeyは設定ファイルではなく.envに書き込む
// 途中で失敗した場合は保存前の内容に戻す
func (s *Store) Save(ctx context.Context, cfg *Config) error {
	backups, err := s.createBackups(ctx)
	if err != nil {
		return err
	}

	if err := s.write(ctx, cfg); err != nil {
		s.logger.Warn().Err(err).Msg("config write failed, restoring backups")
		if restoreErr := s.restoreBackups(ctx, backups); restoreErr != nil {
			return errors.Join(err, restoreErr)
		}
		return err
	}

	s.logger.Info().Str("file", FileName).Msg("config saved")
	return nil
}

func (s *Store) write(ctx context.Context, cfg *Config) error {
	out := *cfg
	out.LastUpdated = s.now().Format(lastUpdatedLayout)

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := s.fs.WriteFile(ctx, FileName, string(data)); err != nil {
		return err
	}

	if cfg.AI.APIKey != "" {
		if err := s.env.UpdateAPIKey(ctx, cfg.AI.APIKey); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) createBackups(ctx context.Context) ([]backup, error) {
	var backups []backup
	for _, file := range []string{FileName, EnvFileName} {
		if !s.fs.Exists(file) {
			continue
		}
		content, err := s.fs.ReadFile(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to back up %s: %w", file, err)
		}
		backups = append(backups, backup{file: file, content: content})
	}
	return backups, nil
}

func (s *Store) restoreBackups(ctx context.Context, backups []backup) error {
	var errs []error
	for _, b := range backups {
		if err := s.fs.WriteFile(context.WithoutCancel(ctx), b.file, b.content); err != nil {
			s.logger.Error().Err(err).Str("file", b.file).Msg("failed to restore backup")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
