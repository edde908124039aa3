package task

import (
	"fmt"
	"strings"
)

// Intent は実行するサービス種別
type Intent string

const (
	IntentGenerate Intent = "AI.CREATE"
	IntentHeal     Intent = "AI.HEAL"
	IntentImprove  Intent = "AI.IMPROVE"
)

// Target は生成・修復対象のコンテンツ種別
type Target string

const (
	TargetLocator Target = "LOCATOR"
	TargetPage    Target = "PAGE"
	TargetTest    Target = "TEST"
	TargetAPI     Target = "API"
)

// AllTargets は全ターゲットを固定順で返す
func AllTargets() []Target {
	return []Target{TargetLocator, TargetPage, TargetTest, TargetAPI}
}

// Action はルール選択に使う操作種別
type Action string

const (
	ActionGenerate Action = "Generate"
	ActionUpdate   Action = "Update"
)

// Actions はIntentに対応するActionを順に返す
func (i Intent) Actions() []Action {
	switch i {
	case IntentGenerate:
		return []Action{ActionGenerate}
	case IntentHeal:
		return []Action{ActionUpdate}
	case IntentImprove:
		return []Action{ActionGenerate, ActionUpdate}
	default:
		return nil
	}
}

// Valid はIntentが既知の値かを判定
func (i Intent) Valid() bool {
	return i.Actions() != nil
}

// ParseIntent はCLI用の名前(generate/create, heal, improve)またはAI.*表記からIntentを解決
func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generate", "create", "ai.create":
		return IntentGenerate, nil
	case "heal", "ai.heal":
		return IntentHeal, nil
	case "improve", "ai.improve":
		return IntentImprove, nil
	default:
		return "", fmt.Errorf("unknown service intent: %q", s)
	}
}

// ParseTargets はカンマ区切りのターゲット名を解決し、重複を除いて入力順で返す
func ParseTargets(s string) ([]Target, error) {
	var targets []Target
	seen := make(map[Target]bool)

	for _, part := range strings.Split(s, ",") {
		name := strings.ToUpper(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		t := Target(name)
		if !t.Valid() {
			return nil, fmt.Errorf("unknown target: %q", part)
		}
		if !seen[t] {
			seen[t] = true
			targets = append(targets, t)
		}
	}
	return targets, nil
}

// Valid はTargetが既知の値かを判定
func (t Target) Valid() bool {
	for _, known := range AllTargets() {
		if t == known {
			return true
		}
	}
	return false
}

// Task は1回のエージェント実行の入力を表す値オブジェクト
type Task struct {
	jobID   JobID
	intent  Intent
	targets []Target
	files   []string
	context string // エラーメッセージやURLなど任意の補足
}

// NewTask は新しいTaskを作成
func NewTask(jobID JobID, intent Intent, targets []Target, files []string) Task {
	return Task{
		jobID:   jobID,
		intent:  intent,
		targets: append([]Target(nil), targets...),
		files:   append([]string(nil), files...),
	}
}

// JobID はジョブIDを返す
func (t Task) JobID() JobID {
	return t.jobID
}

// Intent はサービス種別を返す
func (t Task) Intent() Intent {
	return t.intent
}

// Targets は指定ターゲットのコピーを返す
func (t Task) Targets() []Target {
	return append([]Target(nil), t.targets...)
}

// Files はソースファイルパスのコピーを返す
func (t Task) Files() []string {
	return append([]string(nil), t.files...)
}

// Context は補足情報を返す
func (t Task) Context() string {
	return t.context
}

// WithContext は補足情報を設定した新しいTaskを返す
func (t Task) WithContext(context string) Task {
	t.context = context
	return t
}

// Validate はTaskが実行可能かを検証
func (t Task) Validate() error {
	if !t.intent.Valid() {
		return fmt.Errorf("unknown service intent: %q", t.intent)
	}
	for _, target := range t.targets {
		if !target.Valid() {
			return fmt.Errorf("unknown target: %q", target)
		}
	}
	if len(t.files) == 0 {
		return fmt.Errorf("at least one source file is required")
	}
	return nil
}
