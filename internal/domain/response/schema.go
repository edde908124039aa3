package response

import "strings"

// FieldType はスキーマ上のフィールド型
type FieldType string

const (
	TypeString          FieldType = "string"
	TypeStringArray     FieldType = "string[]"
	TypeRecommendations FieldType = "{ snippet: string, reason: string }[]"
)

// Field はスキーマの1フィールド
type Field struct {
	Name     string
	Type     FieldType
	Optional bool
}

// Schema はモデルが返すべきJSONの形。順序はエラー判定順でもある
var Schema = []Field{
	{Name: "filePath", Type: TypeString},
	{Name: "fileContents", Type: TypeString},
	{Name: "changeLog", Type: TypeStringArray, Optional: true},
	{Name: "recommendations", Type: TypeRecommendations, Optional: true},
}

// Recommendation は変更に伴う注意点
type Recommendation struct {
	Snippet string `json:"snippet"`
	Reason  string `json:"reason"`
}

// Structured は検証済みのモデル応答
type Structured struct {
	FilePath        string           `json:"filePath"`
	FileContents    string           `json:"fileContents"`
	ChangeLog       []string         `json:"changeLog,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// FormatHint はスキーマをプロンプト用の型表記に変換
// 例: { filePath: string, fileContents: string, changeLog?: string[], ... }
func FormatHint() string {
	parts := make([]string, len(Schema))
	for i, f := range Schema {
		name := f.Name
		if f.Optional {
			name += "?"
		}
		parts[i] = name + ": " + string(f.Type)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
