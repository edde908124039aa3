package response

import "strings"

// quoteState は文字列リテラルの内外を追跡する
type quoteState struct {
	quote   byte
	escaped bool
}

// step はcを読み進め、cが文字列リテラル(区切り文字を含む)の一部かを返す
func (q *quoteState) step(c byte) bool {
	if q.quote != 0 {
		switch {
		case q.escaped:
			q.escaped = false
		case c == '\\':
			q.escaped = true
		case c == q.quote:
			q.quote = 0
		}
		return true
	}
	if c == '"' || c == '\'' {
		q.quote = c
		return true
	}
	return false
}

// Extract は最初の'{'から最後の'}'までを切り出す
func Extract(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	return raw[start : end+1], true
}

// Repair は末尾カンマ除去、シングルクォート変換、裸のキーのクォートをこの順で適用
func Repair(s string) string {
	s = stripTrailingCommas(s)
	s = singleToDoubleQuotes(s)
	return quoteBareKeys(s)
}

func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var st quoteState
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !st.step(c) && c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func singleToDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			// ダブルクォート文字列はそのままコピー
			j := i + 1
			for j < len(s) && s[j] != '"' {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(s) {
				j = len(s) - 1
			}
			b.WriteString(s[i : j+1])
			i = j
		case '\'':
			b.WriteByte('"')
			j := i + 1
			for ; j < len(s) && s[j] != '\''; j++ {
				switch {
				case s[j] == '\\' && j+1 < len(s) && s[j+1] == '\'':
					b.WriteByte('\'')
					j++
				case s[j] == '\\' && j+1 < len(s):
					b.WriteByte('\\')
					b.WriteByte(s[j+1])
					j++
				case s[j] == '"':
					b.WriteString(`\"`)
				default:
					b.WriteByte(s[j])
				}
			}
			if j < len(s) {
				b.WriteByte('"')
			}
			i = j
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func quoteBareKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	var st quoteState
	for i := 0; i < len(s); i++ {
		c := s[i]
		b.WriteByte(c)
		if st.step(c) || (c != '{' && c != ',') {
			continue
		}

		j := i + 1
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		k := j
		if k < len(s) && isIdentStart(s[k]) {
			k++
			for k < len(s) && isIdentPart(s[k]) {
				k++
			}
		}
		if k == j {
			continue
		}
		colon := k
		for colon < len(s) && isSpace(s[colon]) {
			colon++
		}
		if colon >= len(s) || s[colon] != ':' {
			continue
		}

		b.WriteString(s[i+1 : j])
		b.WriteByte('"')
		b.WriteString(s[j:k])
		b.WriteByte('"')
		i = k - 1
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
