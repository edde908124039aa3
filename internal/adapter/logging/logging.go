package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Nyukimin/playwright-ai-agent/internal/adapter/config"
)

// New はログ設定からロガーを作成。formatがconsoleなら人間向け出力、それ以外はJSON
// 不正なレベルはinfoとして扱う
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
