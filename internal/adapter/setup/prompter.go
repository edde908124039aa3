package setup

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// ErrAborted はユーザーが入力を中断した
var ErrAborted = errors.New("setup aborted")

// Prompter は対話的な質問のインターフェース
type Prompter interface {
	Ask(question, def string, validate Validator) (string, error)
	Confirm(question string, def bool) (bool, error)
	Secret(question string, validate Validator) (string, error)
	Choose(question string, options []string, def int) (int, error)
}

// ReadlinePrompter は端末で動作するPrompter
type ReadlinePrompter struct {
	rl  *readline.Instance
	out io.Writer
}

// NewReadlinePrompter は標準入出力を使うReadlinePrompterを作成
func NewReadlinePrompter() (*ReadlinePrompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "? ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	return &ReadlinePrompter{rl: rl, out: rl.Stdout()}, nil
}

// Close は端末を解放
func (p *ReadlinePrompter) Close() error {
	return p.rl.Close()
}

// Ask は1行の入力を受け取る。空入力はdefを返す
func (p *ReadlinePrompter) Ask(question, def string, validate Validator) (string, error) {
	prompt := "? " + question + " "
	if def != "" {
		prompt += "(" + def + ") "
	}

	for {
		p.rl.SetPrompt(prompt)
		line, err := p.rl.Readline()
		if err != nil {
			return "", mapReadError(err)
		}

		answer := strings.TrimSpace(line)
		if answer == "" {
			answer = def
		}
		if validate != nil {
			if err := validate(answer); err != nil {
				fmt.Fprintf(p.out, "  >> %v\n", err)
				continue
			}
		}
		return answer, nil
	}
}

// Confirm はyes/noを受け取る
func (p *ReadlinePrompter) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}

	var result bool
	_, err := p.Ask(question+" ["+hint+"]", "", func(input string) error {
		switch strings.ToLower(input) {
		case "":
			result = def
		case "y", "yes":
			result = true
		case "n", "no":
			result = false
		default:
			return errors.New("please answer y or n")
		}
		return nil
	})
	return result, err
}

// Secret はエコーなしで入力を受け取る
func (p *ReadlinePrompter) Secret(question string, validate Validator) (string, error) {
	for {
		raw, err := p.rl.ReadPassword("? " + question + " ")
		if err != nil {
			return "", mapReadError(err)
		}

		answer := strings.TrimSpace(string(raw))
		if validate != nil {
			if err := validate(answer); err != nil {
				fmt.Fprintf(p.out, "  >> %v\n", err)
				continue
			}
		}
		return answer, nil
	}
}

// Choose は番号付きの選択肢から1つ選ばせ、そのインデックスを返す
func (p *ReadlinePrompter) Choose(question string, options []string, def int) (int, error) {
	fmt.Fprintf(p.out, "? %s\n", question)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}

	answer, err := p.Ask("Enter a number", strconv.Itoa(def+1), func(input string) error {
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(options) {
			return fmt.Errorf("choose a number between 1 and %d", len(options))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	n, _ := strconv.Atoi(answer)
	return n - 1, nil
}

func mapReadError(err error) error {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return ErrAborted
	}
	return err
}
