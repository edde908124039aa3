package prompt

import (
	"fmt"
	"strings"

	"github.com/Nyukimin/playwright-ai-agent/internal/domain/task"
)

// SummaryKind はコード要約の種類
type SummaryKind string

const (
	SummaryBase    SummaryKind = "base"
	SummaryExample SummaryKind = "example"
)

// ParseSummaryKind は名前からSummaryKindを解決
func ParseSummaryKind(s string) (SummaryKind, error) {
	switch k := SummaryKind(strings.ToLower(strings.TrimSpace(s))); k {
	case SummaryBase, SummaryExample:
		return k, nil
	default:
		return "", fmt.Errorf("unknown summary kind: %q", s)
	}
}

var exampleCategories = map[task.Target]string{
	task.TargetLocator: `<category name="LOCATOR"><conventions>Defined as const objects. Use data-testid attributes.</conventions><structure>One file per feature. Flat key-value structure.</structure><usage>Imported into page objects. Used in page.fill/click methods.</usage><notes>No dynamic generation. Typed with as const for safety.</notes></category>`,
	task.TargetPage:    `<category name="PAGE"><conventions>Each page extends BasePage. One class per file. Method names describe actions.</conventions><structure>Located under 'app/pages'. Constructor takes Playwright page fixture.</structure><usage>Instantiated in tests. Interact with locators directly.</usage><notes>Methods are procedural, one per action (e.g., login).</notes></category>`,
	task.TargetTest:    `<category name="TEST"><conventions>Use Playwright test runner. Single test per file. Descriptive test names.</conventions><structure>Located under 'tests/'. Use Playwright fixtures.</structure><usage>Call methods on page objects. Use expect for assertions.</usage><notes>No custom fixtures or hooks detected.</notes></category>`,
	task.TargetAPI:     `<category name="API"><conventions>No API usage found in provided files.</conventions><structure>N/A</structure><usage>N/A</usage><notes>May exist elsewhere in the codebase.</notes></category>`,
}

const baseExample = `<example><input>
{
    fileName: 'base/BasePage.ts',
    content: ` + "`" + `export abstract class BasePage {
        constructor(protected readonly page: Page) {}

        protected async goto(url: string) {
            await this.page.goto(url);
        }
    }` + "`" + `
}
</input><output><code_summary><category name="PAGE"><conventions>Base class for all pages. Abstract. Requires Playwright Page instance in constructor.</conventions><structure>Located in 'base/'. Contains shared navigation and utility methods.</structure><usage>Extended by concrete Page classes to inherit navigation.</usage><notes>Foundation for Page Object Model hierarchy.</notes></category><category name="LOCATOR"><conventions>Base locator structures or classes, if any, that define standard selector patterns or locator utilities.</conventions><structure>Typically abstract or shared locator constants or classes located in 'base/locators' or similar.</structure><usage>Extended or imported by feature-specific locator files to ensure consistency.</usage><notes>If none found, state "No locator base classes detected."</notes></category></code_summary></output></example>`

const implementedExampleInput = `<example><input>
{
    fileName: 'app/pages/LoginPage.ts',
    content: ` + "`" + `import { LOGIN_LOCATORS } from '../locators/login';
    export class LoginPage extends BasePage {
        async login(username: string, password: string) {
            await this.page.fill(LOGIN_LOCATORS.USERNAME, username);
            await this.page.fill(LOGIN_LOCATORS.PASSWORD, password);
            await this.page.click(LOGIN_LOCATORS.SUBMIT);
        }
    }` + "`" + `
},
{
    fileName: 'tests/login.spec.ts',
    content: ` + "`" + `import { test, expect } from '@playwright/test';
    import { LoginPage } from '../../app/pages/LoginPage';

    test('user can login', async ({ page }) => {
        const loginPage = new LoginPage(page);
        await loginPage.login('admin', 'password');
        await expect(page).toHaveURL('/dashboard');
    });` + "`" + `
}
</input>`

// Summary はコード要約の指示文書を返す
// base は基底・抽象クラス、example は実装済みクラスの規約を抽出させる
func Summary(kind SummaryKind) (string, error) {
	targets := task.AllTargets()
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = string(t)
	}

	var objective, extra, example string
	switch kind {
	case SummaryBase:
		objective = "Perform static analysis of the *base* or *abstract* classes used in:\n* " + strings.Join(names, "S\n* ") + "S"
		extra = "If additional base patterns (e.g., Actor base classes) exist, include them as custom <category> entries"
		example = baseExample
	case SummaryExample:
		objective = "Perform static analysis of the *existing implemented* classes and files for:\n* " + strings.ToLower(strings.Join(names, "s\n* ")) + "s"
		extra = "If additional patterns (e.g., Actor implementations) exist, include them as custom <category> entries"
		var cats strings.Builder
		for _, t := range targets {
			cats.WriteString(exampleCategories[t])
		}
		example = implementedExampleInput + "<output><code_summary>" + cats.String() + "</code_summary></output></example>"
	default:
		return "", fmt.Errorf("unknown summary kind: %q", kind)
	}

	rules := []string{
		"Return only the XML structure. Do not include any prose, commentary, markdown or extra text",
		"The output must begin with <code_summary> and end with </code_summary>",
		"Each <category> block must describe the conventions, inheritance, usage, structure and purpose",
		"Include a <category> for each of: " + strings.Join(names, ", "),
		`If a category is not found, state so clearly in its fields (e.g. "No usage found in provided files")`,
		extra,
	}

	return "<main_objective>" + objective + "</main_objective><rules>\n" + bulletList(rules) + "\n</rules>" + example, nil
}
