package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrOutsideBase はbaseディレクトリの外を指す書き込み先
var ErrOutsideBase = errors.New("path escapes base directory")

// Service はテストスイートのファイル読み書きを担う
// 相対パスはbaseを基準に解決される
type Service struct {
	base string
}

// NewService は新しいServiceを作成。baseが空の場合はカレントディレクトリ基準
func NewService(base string) *Service {
	return &Service{base: base}
}

// Resolve はpathを絶対パスまたはbase基準のパスに解決
func (s *Service) Resolve(path string) string {
	if filepath.IsAbs(path) || s.base == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(s.base, path)
}

// Contain はpathをbase配下の書き込み先に解決する
// 絶対パスと、正規化後にbaseの外へ出るパスは拒否する
func (s *Service) Contain(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) || filepath.VolumeName(path) != "" {
		return "", fmt.Errorf("%w: %q", ErrOutsideBase, path)
	}

	base := s.base
	if base == "" {
		base = "."
	}
	full := filepath.Join(base, path)
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideBase, path)
	}
	return full, nil
}

// ReadFile はファイル全体をテキストとして読み込む
func (s *Service) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(s.Resolve(path))
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(content), nil
}

// WriteFile はbase配下のファイルに書き込む。親ディレクトリがなければ作成する
func (s *Service) WriteFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.Contain(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

// AppendFile はbase配下のファイル末尾に追記する。ファイルがなければ作成する
func (s *Service) AppendFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.Contain(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to file %s: %w", path, err)
	}
	return f.Close()
}

// Exists はパスが存在するかを返す
func (s *Service) Exists(path string) bool {
	_, err := os.Stat(s.Resolve(path))
	return !errors.Is(err, fs.ErrNotExist)
}

// EnsureDir はbase配下にディレクトリを作成する(既存なら何もしない)
func (s *Service) EnsureDir(path string) error {
	full, err := s.Contain(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// ListFiles はディレクトリ配下の拡張子extのファイルを再帰的に列挙する
// extが空なら全ファイル。結果はbase基準の相対パスで昇順
func (s *Service) ListFiles(ctx context.Context, dir, ext string) ([]string, error) {
	root := s.Resolve(dir)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || (ext != "" && filepath.Ext(path) != ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.Join(dir, rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}
