package orchestrator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Nyukimin/playwright-ai-agent/internal/domain/llm"
	"github.com/Nyukimin/playwright-ai-agent/internal/domain/prompt"
	"github.com/Nyukimin/playwright-ai-agent/internal/domain/response"
	"github.com/Nyukimin/playwright-ai-agent/internal/domain/task"
	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/llm/broker"
)

// defaultDirective は補足情報がないときのユーザーメッセージ
const defaultDirective = "Apply the task to the provided code and respond with the JSON object only."

// summaryDirective は要約時のユーザーメッセージ
const summaryDirective = "Summarize the provided files."

// Request はエージェント実行リクエスト
type Request struct {
	Intent  task.Intent
	Targets []task.Target
	Files   []string
	Context string // エラーメッセージ、URLなど
	Write   bool   // 応答のファイル内容を書き出すか
}

// Result はエージェント実行結果
type Result struct {
	JobID    task.JobID
	Response response.Structured
	Raw      string
	Written  bool
}

// Composer はプロンプト組み立てのインターフェース
type Composer interface {
	Compose(ctx context.Context, in prompt.Input) (string, error)
	ComposeSummary(ctx context.Context, kind prompt.SummaryKind, paths []string) (string, error)
}

// Completer はLLM呼び出しのインターフェース
type Completer interface {
	ChatCompletion(ctx context.Context, messages []llm.Message, opts ...broker.CallOption) (llm.Response, error)
}

// FileWriter は生成結果の書き出しインターフェース
type FileWriter interface {
	WriteFile(ctx context.Context, path, content string) error
}

// Orchestrator はプロンプト構築・LLM呼び出し・応答検証を統括
type Orchestrator struct {
	composer  Composer
	completer Completer
	writer    FileWriter
	logger    zerolog.Logger
}

// New は新しいOrchestratorを作成。writerがnilの場合は書き出しできない
func New(composer Composer, completer Completer, writer FileWriter, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		composer:  composer,
		completer: completer,
		writer:    writer,
		logger:    logger,
	}
}

// Run はタスクを実行し、検証済みの応答を返す
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	// 1. タスクを作成
	jobID := task.NewJobID()
	t := task.NewTask(jobID, req.Intent, req.Targets, req.Files).WithContext(req.Context)
	if err := t.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid task: %w", err)
	}

	log := o.logger.With().
		Str("job_id", jobID.String()).
		Str("intent", string(t.Intent())).
		Logger()
	log.Info().Strs("files", t.Files()).Msg("agent task started")

	// 2. プロンプト構築
	system, err := o.composer.Compose(ctx, prompt.Input{
		Intent:  t.Intent(),
		Targets: t.Targets(),
		Files:   t.Files(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("prompt composition failed: %w", err)
	}

	// 3. LLM呼び出し
	user := t.Context()
	if user == "" {
		user = defaultDirective
	}
	raw, err := o.complete(ctx, system, user)
	if err != nil {
		return Result{}, err
	}

	// 4. 応答検証
	structured, err := response.Parse(raw)
	if err != nil {
		log.Warn().Err(err).Msg("model response rejected")
		return Result{JobID: jobID, Raw: raw}, fmt.Errorf("invalid model response: %w", err)
	}

	result := Result{JobID: jobID, Response: structured, Raw: raw}

	// 5. 書き出し
	if req.Write {
		if o.writer == nil {
			return result, fmt.Errorf("write requested but no file writer configured")
		}
		if err := o.writer.WriteFile(ctx, structured.FilePath, structured.FileContents); err != nil {
			return result, fmt.Errorf("failed to write %s: %w", structured.FilePath, err)
		}
		result.Written = true
	}

	log.Info().
		Str("file_path", structured.FilePath).
		Int("changes", len(structured.ChangeLog)).
		Int("recommendations", len(structured.Recommendations)).
		Bool("written", result.Written).
		Msg("agent task completed")

	return result, nil
}

// Summarize はファイル群のコード要約を取得する
func (o *Orchestrator) Summarize(ctx context.Context, kind prompt.SummaryKind, files []string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("at least one source file is required")
	}

	system, err := o.composer.ComposeSummary(ctx, kind, files)
	if err != nil {
		return "", fmt.Errorf("prompt composition failed: %w", err)
	}

	o.logger.Info().Str("kind", string(kind)).Int("files", len(files)).Msg("code summary requested")
	return o.complete(ctx, system, summaryDirective)
}

func (o *Orchestrator) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.completer.ChatCompletion(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	return resp.Text(), nil
}
