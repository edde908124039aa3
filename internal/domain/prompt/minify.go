package prompt

import "strings"

// Minify はソースコードのブロックコメントを除去し空白を詰める
// 文字列・テンプレート・正規表現リテラルと行コメントはそのまま残す
// 改行を含む空白は改行1つに、それ以外は空白1つに畳む
// '{' '}' ';' 周りの空白は除去するが、'{'の前と'}'の後の改行は残す
func Minify(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	var (
		pending bool // 直前に空白(またはブロックコメント)がある
		newline bool // その空白に改行が含まれる
		last    byte // 直前に出力した非空白文字
		comment bool // 直前の出力が行コメント
		code    byte // 直前に出力したコメント以外の文字
	)

	flush := func(next byte) {
		if !pending {
			return
		}
		pending = false
		nl := newline
		newline = false

		if last == 0 {
			return
		}
		switch {
		case comment:
			b.WriteByte('\n')
		case next == '{':
			if nl {
				b.WriteByte('\n')
			}
		case last == '}':
			if nl {
				b.WriteByte('\n')
			}
		case next == '}' || next == ';' || last == '{' || last == ';':
		case nl:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case isSpace(c):
			pending = true
			if c == '\n' {
				newline = true
			}
			continue

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end == -1 {
				end = len(src) - i - 2
			}
			if strings.ContainsRune(src[i:i+2+end], '\n') {
				newline = true
			}
			pending = true
			i += end + 3
			continue

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := strings.IndexByte(src[i:], '\n')
			if end == -1 {
				end = len(src) - i
			}
			flush(c)
			b.WriteString(src[i : i+end])
			last, comment = '/', true
			i += end - 1
			continue

		case c == '"' || c == '\'' || c == '`':
			end := literalEnd(src, i)
			flush(c)
			b.WriteString(src[i:end])
			last, comment, code = c, false, c
			i = end - 1
			continue

		case c == '/' && regexAllowed(b.String(), code):
			end := regexEnd(src, i)
			flush(c)
			b.WriteString(src[i:end])
			last, comment, code = src[end-1], false, src[end-1]
			i = end - 1
			continue
		}

		flush(c)
		b.WriteByte(c)
		last, comment, code = c, false, c
	}
	return b.String()
}

// literalEnd は位置startで始まる文字列リテラルの終端の次の位置を返す
func literalEnd(src string, start int) int {
	quote := src[start]
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			if quote != '`' {
				return i
			}
		}
	}
	return len(src)
}

// regexPrefixes は直後の'/'が正規表現リテラルの開始になるキーワード
var regexPrefixes = []string{"return", "typeof", "case", "throw", "void", "delete", "instanceof"}

// regexAllowed は出力済みのコードoutの後ろで'/'が除算ではなく正規表現の開始かを判定
// codeはout中のコメントを除く最後の文字
func regexAllowed(out string, code byte) bool {
	end := len(out)
	for end > 0 && isSpace(out[end-1]) {
		end--
	}

	switch {
	case code == 0:
		return true
	case code == '+' || code == '-':
		// a++ / b は除算
		return end < 2 || out[end-2] != code
	case strings.IndexByte("=(,:[!&|?{};*%<>~^", code) >= 0:
		return true
	case !isIdentPart(code):
		return false
	}

	start := end
	for start > 0 && isIdentPart(out[start-1]) {
		start--
	}
	word := out[start:end]
	for _, kw := range regexPrefixes {
		if word == kw {
			return true
		}
	}
	return false
}

// regexEnd は位置startで始まる正規表現リテラルの、フラグを含む終端の次の位置を返す
// 文字クラス内の'/'では終了しない。閉じられないまま改行に達した場合は改行の位置を返す
func regexEnd(src string, start int) int {
	inClass := false
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '\n':
			return i
		case '/':
			if inClass {
				continue
			}
			i++
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			return i
		}
	}
	return len(src)
}

func isIdentPart(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
