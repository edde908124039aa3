package prompt

import (
	"regexp"
	"strings"
	"testing"
)

func TestMinify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapse spaces", "const   a =  1", "const a = 1"},
		{"brace padding", "if (a) {  b();  }", "if (a){b();}"},
		{"semicolon padding", "a() ;  b()", "a();b()"},
		{"block comment", "/* header */\nconst a = 1; /* trailing */", "const a = 1;"},
		{"block comment between tokens", "a/**/b", "a b"},
		{"newline kept between statements", "const a = 1\nconst b = 2", "const a = 1\nconst b = 2"},
		{"newline kept after closing brace", "const o = {}\nfoo()", "const o ={}\nfoo()"},
		{"newline kept before opening brace", "return\n{ a: 1 }", "return\n{a: 1}"},
		{"line comment preserved", "a(); // keep me\n}", "a();// keep me\n}"},
		{"string untouched", `const s = "a  /* b */  {  }";`, `const s = "a  /* b */  {  }";`},
		{"template untouched", "const s = `x\n   y`;", "const s = `x\n   y`;"},
		{"url in string", "page.goto('https://x.test//a');", "page.goto('https://x.test//a');"},
		{"regex untouched", "const r = /a ; b/", "const r = /a ; b/"},
		{"regex class with slash and braces", "if (/[/{ }]+ x/g.test(s)) {  f();  }", "if (/[/{ }]+ x/g.test(s)){f();}"},
		{"regex after return", "return /a ; b/.test(s)", "return /a ; b/.test(s)"},
		{"regex with escaped slash", "s.replace(/\\/ ; /g, '')", "s.replace(/\\/ ; /g, '')"},
		{"division", "a = b / c ; d", "a = b / c;d"},
		{"division after postfix increment", "x = i++ / 2 ;", "x = i++ / 2;"},
		{"trim", "\n\n  a  \n", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Minify(tt.in); got != tt.want {
				t.Errorf("Minify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMinify_PreservesTokens(t *testing.T) {
	src := `import { test, expect } from '@playwright/test';

/**
 * Login page object
 */
export class LoginPage extends BasePage {
    readonly submit = this.page.locator('.btn-submit');

    async login(user: string, pass: string): Promise<void> {
        await this.page.fill('#user', user);
        await this.page.fill('#pass', pass);
        if (user === 'admin') {
            await this.submit.click();
        } else {
            throw new Error(` + "`unknown user ${user}`" + `);
        }
    }
}
`
	blockComment := regexp.MustCompile(`(?s)/\*.*?\*/`)
	strip := func(s string) string {
		return strings.Join(strings.Fields(s), "")
	}

	want := strip(blockComment.ReplaceAllString(src, ""))
	if got := strip(Minify(src)); got != want {
		t.Errorf("Minify changed tokens:\n got %s\nwant %s", got, want)
	}
}
