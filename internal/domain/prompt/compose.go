package prompt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Nyukimin/playwright-ai-agent/internal/domain/task"
)

// maxParallelReads はファイル読み込みの同時実行数上限
const maxParallelReads = 8

// FileReader はソースファイルの読み込みを抽象化
type FileReader interface {
	ReadFile(ctx context.Context, path string) (string, error)
}

// Convention はTargetごとの命名規則
type Convention struct {
	ClassSuffixes []string
	ParamSuffixes []string
}

// Naming はプロジェクトの命名規則設定
type Naming struct {
	Locators Convention
	Pages    Convention
}

// Hints は指定ターゲットの命名規則ヒントを返す。規則を持たないTargetは何も返さない
func (n Naming) Hints(targets []task.Target) []string {
	var hints []string
	for _, target := range targets {
		var conv Convention
		switch target {
		case task.TargetLocator:
			conv = n.Locators
		case task.TargetPage:
			conv = Convention{ClassSuffixes: n.Pages.ClassSuffixes}
		default:
			continue
		}
		if len(conv.ClassSuffixes) > 0 {
			hints = append(hints, fmt.Sprintf("Naming Convention for %s Classes: %s", target, strings.Join(conv.ClassSuffixes, ", ")))
		}
		if len(conv.ParamSuffixes) > 0 {
			hints = append(hints, fmt.Sprintf("Naming Convention for %s Variables: %s", target, strings.Join(conv.ParamSuffixes, ", ")))
		}
	}
	return hints
}

// SourceFile は読み込み・圧縮済みのソースファイル
type SourceFile struct {
	Path    string
	Content string
}

// Tag はファイルのタグ名(拡張子なしのベース名、'_'は'-'に置換)
func (f SourceFile) Tag() string {
	base := filepath.Base(f.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "_", "-")
}

// Document はレンダリング前のプロンプト構造
type Document struct {
	Persona       string
	MainObjective string
	Instructions  []string
	Rules         []string
	Naming        []string
	Files         []SourceFile
}

// Input はプロンプト構築の入力
type Input struct {
	Intent  task.Intent
	Targets []task.Target
	Files   []string
}

// Composer はサービス種別・ターゲット・ソースファイルからシステムプロンプトを組み立てる
type Composer struct {
	reader  FileReader
	naming  Naming
	compact bool
}

// Option はComposerの設定
type Option func(*Composer)

// WithCompact はタグ間の空白を除いた出力に切り替える
func WithCompact(compact bool) Option {
	return func(c *Composer) {
		c.compact = compact
	}
}

// NewComposer は新しいComposerを作成
func NewComposer(reader FileReader, naming Naming, opts ...Option) *Composer {
	c := &Composer{reader: reader, naming: naming}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Build はプロンプト構造を組み立てる。ファイル読み込みエラーはそのまま返す
func (c *Composer) Build(ctx context.Context, in Input) (Document, error) {
	if !in.Intent.Valid() {
		return Document{}, fmt.Errorf("unknown service intent: %q", in.Intent)
	}

	files, err := c.load(ctx, in.Files)
	if err != nil {
		return Document{}, err
	}

	return Document{
		Persona:       Persona,
		MainObjective: MainObjective(in.Intent),
		Instructions:  Instructions(in.Intent),
		Rules:         Rules(in.Intent, in.Targets),
		Naming:        c.naming.Hints(in.Targets),
		Files:         files,
	}, nil
}

// Compose はプロンプトを組み立ててレンダリングする
func (c *Composer) Compose(ctx context.Context, in Input) (string, error) {
	doc, err := c.Build(ctx, in)
	if err != nil {
		return "", err
	}
	return Render(doc, c.compact), nil
}

// ComposeSummary はコード要約用のプロンプトを組み立てる
func (c *Composer) ComposeSummary(ctx context.Context, kind SummaryKind, paths []string) (string, error) {
	body, err := Summary(kind)
	if err != nil {
		return "", err
	}
	files, err := c.load(ctx, paths)
	if err != nil {
		return "", err
	}
	return RenderSummary(body, files, c.compact), nil
}

// load はファイルを並列に読み込み、入力順で返す
func (c *Composer) load(ctx context.Context, paths []string) ([]SourceFile, error) {
	files := make([]SourceFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, path := range paths {
		g.Go(func() error {
			content, err := c.reader.ReadFile(ctx, path)
			if err != nil {
				return err
			}
			files[i] = SourceFile{Path: path, Content: Minify(content)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
