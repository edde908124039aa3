package response

import (
	"errors"
	"fmt"
)

// ErrValidation は全ての検証エラーが一致する基底エラー
var ErrValidation = errors.New("response validation failed")

// ErrNoJSON は応答にJSONオブジェクトが見つからない
var ErrNoJSON = fmt.Errorf("%w: no JSON found", ErrValidation)

// SyntaxError は修復後もJSONとして解釈できない
type SyntaxError struct {
	Reason   string
	Repaired string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrValidation
}

// FieldError はスキーマ上のフィールドの欠落または型不一致
type FieldError struct {
	Field    string
	Expected FieldType
	Missing  bool
}

func (e *FieldError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s: missing required field %q", ErrValidation, e.Field)
	}
	return fmt.Sprintf("%s: field %q must be %s", ErrValidation, e.Field, e.Expected)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}
