package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Nyukimin/playwright-ai-agent/internal/adapter/config"
	"github.com/Nyukimin/playwright-ai-agent/internal/adapter/logging"
	"github.com/Nyukimin/playwright-ai-agent/internal/adapter/setup"
	"github.com/Nyukimin/playwright-ai-agent/internal/application/orchestrator"
	"github.com/Nyukimin/playwright-ai-agent/internal/domain/prompt"
	"github.com/Nyukimin/playwright-ai-agent/internal/domain/task"
	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/filesystem"
	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/llm/broker"
)

const usage = `Usage: playwright-ai-agent <command> [flags] [files...]

Commands:
  init                                   interactive setup, writes agentic.config.yaml and .env
  generate|heal|improve [flags] files    run the agent on the given files or directories
      -target LOCATOR,PAGE,TEST,API      content kinds (default: all)
      -context "..."                     error message, URL or other details for the model
      -write                             write the returned file to disk
  summarize -kind base|example files     summarize code conventions
  ping                                   check the AI provider connection
`

func main() {
	// .env は任意。既存の環境変数は上書きしない
	_ = godotenv.Load(config.EnvFileName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd, rest := args[0], args[1:]
	if cmd == "init" {
		return runInit(ctx, stdout, stderr)
	}

	// 設定読み込み
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\nRun 'playwright-ai-agent init' first.\n", err)
		return 1
	}
	logger := logging.New(cfg.Log, stderr)

	// 依存関係構築
	deps, err := buildDependencies(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize")
		return 1
	}

	switch cmd {
	case "ping":
		return runPing(ctx, deps, stdout)
	case "summarize":
		return runSummarize(ctx, deps, rest, stdout, stderr)
	default:
		intent, err := task.ParseIntent(cmd)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n\n%s", err, usage)
			return 2
		}
		return runAgent(ctx, deps, intent, rest, stdout, stderr)
	}
}

// Dependencies はアプリケーション依存関係
type Dependencies struct {
	broker       *broker.Broker
	files        *filesystem.Service
	orchestrator *orchestrator.Orchestrator
	logger       zerolog.Logger
}

// buildDependencies は依存関係を構築
func buildDependencies(cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	// 1. LLM Broker
	b, err := broker.New(cfg.ToProviderConfig(), broker.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	// 2. File service
	files := filesystem.NewService("")

	// 3. Prompt composer
	composer := prompt.NewComposer(files, cfg.Naming(), prompt.WithCompact(true))

	// 4. Application Orchestrator
	orch := orchestrator.New(composer, b, files, logger)

	logger.Debug().Str("provider", string(b.Provider())).Msg("dependency injection complete")

	return &Dependencies{
		broker:       b,
		files:        files,
		orchestrator: orch,
		logger:       logger,
	}, nil
}

func runInit(ctx context.Context, stdout, stderr io.Writer) int {
	logger := logging.New(config.LogConfig{Level: "info", Format: "console"}, stderr)
	files := filesystem.NewService("")

	prompter, err := setup.NewReadlinePrompter()
	if err != nil {
		logger.Error().Err(err).Msg("setup requires an interactive terminal")
		return 1
	}
	defer prompter.Close()

	return initProject(ctx, prompter, files, logger, stdout, stderr)
}

// initProject はウィザードの回答を保存し、プロジェクトのディレクトリを用意する
func initProject(ctx context.Context, prompter setup.Prompter, files *filesystem.Service, logger zerolog.Logger, stdout, stderr io.Writer) int {
	var opts []setup.Option
	existing, err := config.NewEnvManager(files).APIKey()
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring unreadable " + config.EnvFileName)
	} else if existing != "" {
		opts = append(opts, setup.WithExistingKey(existing))
	}

	cfg, err := setup.NewWizard(prompter, stdout, logger, opts...).Run()
	if err != nil {
		if errors.Is(err, setup.ErrAborted) {
			fmt.Fprintln(stderr, "Setup cancelled.")
			return 130
		}
		logger.Error().Err(err).Msg("setup failed")
		return 1
	}

	if err := config.NewStore(files, logger).Save(ctx, cfg); err != nil {
		logger.Error().Err(err).Msg("failed to save configuration")
		return 1
	}

	for _, dir := range []string{cfg.Locators.Directory, cfg.Pages.Directory} {
		if err := files.EnsureDir(dir); err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("failed to create project directory")
		}
	}

	fmt.Fprintf(stdout, "Configuration written to %s\n", config.FileName)
	return 0
}

func runPing(ctx context.Context, deps *Dependencies, stdout io.Writer) int {
	if !deps.broker.TestConnection(ctx) {
		fmt.Fprintf(stdout, "%s: connection failed\n", deps.broker.Provider())
		return 1
	}
	fmt.Fprintf(stdout, "%s: ok\n", deps.broker.Provider())
	return 0
}

func runAgent(ctx context.Context, deps *Dependencies, intent task.Intent, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(string(intent), flag.ContinueOnError)
	fs.SetOutput(stderr)
	targetFlag := fs.String("target", "", "comma-separated targets: LOCATOR, PAGE, TEST, API")
	contextFlag := fs.String("context", "", "error message, URL or other details")
	writeFlag := fs.Bool("write", false, "write the returned file to disk")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	targets, err := task.ParseTargets(*targetFlag)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	files, err := expandFiles(ctx, deps.files, fs.Args())
	if err != nil {
		deps.logger.Error().Err(err).Msg("failed to resolve source files")
		return 1
	}

	result, err := deps.orchestrator.Run(ctx, orchestrator.Request{
		Intent:  intent,
		Targets: targets,
		Files:   files,
		Context: *contextFlag,
		Write:   *writeFlag,
	})
	if err != nil {
		ev := deps.logger.Error().Err(err)
		if !result.JobID.IsZero() {
			ev = ev.Str("job_id", result.JobID.String())
		}
		ev.Msg("agent task failed")
		return 1
	}

	out, err := json.MarshalIndent(result.Response, "", "  ")
	if err != nil {
		deps.logger.Error().Err(err).Msg("failed to encode result")
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}

func runSummarize(ctx context.Context, deps *Dependencies, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	kindFlag := fs.String("kind", string(prompt.SummaryExample), "summary kind: base or example")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	kind, err := prompt.ParseSummaryKind(*kindFlag)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	files, err := expandFiles(ctx, deps.files, fs.Args())
	if err != nil {
		deps.logger.Error().Err(err).Msg("failed to resolve source files")
		return 1
	}

	summary, err := deps.orchestrator.Summarize(ctx, kind, files)
	if err != nil {
		deps.logger.Error().Err(err).Msg("summary failed")
		return 1
	}
	fmt.Fprintln(stdout, summary)
	return 0
}

// expandFiles はディレクトリ引数を配下の.tsファイルに展開する
func expandFiles(ctx context.Context, files *filesystem.Service, args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(files.Resolve(arg))
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		listed, err := files.ListFiles(ctx, arg, ".ts")
		if err != nil {
			return nil, err
		}
		out = append(out, listed...)
	}
	return out, nil
}

// getConfigPath は設定ファイルパスを取得
func getConfigPath() string {
	if path := os.Getenv("AGENTIC_CONFIG"); path != "" {
		return path
	}
	return config.FileName
}
