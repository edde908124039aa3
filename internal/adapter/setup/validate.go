package setup

import (
	"errors"
	"net/url"
	"strings"
)

// Validator は入力値を検証し、不正ならユーザー向けのエラーを返す
type Validator func(input string) error

// ValidateDirectory はディレクトリパスを検証
func ValidateDirectory(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return errors.New("directory cannot be empty")
	}
	if strings.ContainsAny(trimmed, `<>:"|?*`) {
		return errors.New("invalid characters in path")
	}
	return nil
}

// ValidateURL は絶対URLかを検証
func ValidateURL(input string) error {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("please enter a valid URL")
	}
	return nil
}

// ValidateAPIKey はAPIキーの形式を検証
func ValidateAPIKey(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return errors.New("API key cannot be empty")
	}
	if len(trimmed) < 10 {
		return errors.New("API key seems too short")
	}
	return nil
}

// ValidateSuffixes はカンマ区切りの接尾辞が1つ以上あるかを検証
func ValidateSuffixes(input string) error {
	if len(ParseSuffixes(input)) == 0 {
		return errors.New("enter at least one suffix")
	}
	return nil
}

// ParseSuffixes はカンマ区切りの接尾辞を空要素と重複を除いて返す
func ParseSuffixes(input string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(input, ",") {
		s := strings.TrimSpace(part)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
