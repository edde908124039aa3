package response

import (
	"github.com/tidwall/gjson"
)

// Parse はモデル応答からJSONを抽出・修復し、スキーマに沿って検証する
func Parse(raw string) (Structured, error) {
	extracted, ok := Extract(raw)
	if !ok {
		return Structured{}, ErrNoJSON
	}

	repaired := Repair(extracted)
	if !gjson.Valid(repaired) {
		return Structured{}, &SyntaxError{Reason: "invalid JSON after repair", Repaired: repaired}
	}
	root := gjson.Parse(repaired)
	if !root.IsObject() {
		return Structured{}, &SyntaxError{Reason: "top-level value is not an object", Repaired: repaired}
	}

	fields := members(root)

	var out Structured
	for _, f := range Schema {
		v, ok := fields[f.Name]
		if !ok || v.Type == gjson.Null {
			if !f.Optional {
				return Structured{}, &FieldError{Field: f.Name, Expected: f.Type, Missing: true}
			}
			continue
		}
		if err := assign(&out, f, v); err != nil {
			return Structured{}, err
		}
	}
	return out, nil
}

func assign(out *Structured, f Field, v gjson.Result) error {
	mismatch := &FieldError{Field: f.Name, Expected: f.Type}

	switch f.Type {
	case TypeString:
		if v.Type != gjson.String {
			return mismatch
		}
		switch f.Name {
		case "filePath":
			out.FilePath = v.String()
		case "fileContents":
			out.FileContents = v.String()
		}

	case TypeStringArray:
		items, ok := stringArray(v)
		if !ok {
			return mismatch
		}
		out.ChangeLog = items

	case TypeRecommendations:
		if !v.IsArray() {
			return mismatch
		}
		recs := make([]Recommendation, 0, len(v.Array()))
		for _, item := range v.Array() {
			if !item.IsObject() {
				return mismatch
			}
			rec := members(item)
			snippet, reason := rec["snippet"], rec["reason"]
			if snippet.Type != gjson.String || reason.Type != gjson.String {
				return mismatch
			}
			recs = append(recs, Recommendation{Snippet: snippet.String(), Reason: reason.String()})
		}
		out.Recommendations = recs
	}
	return nil
}

// members はオブジェクトのメンバーをキーごとに返す。重複キーは後の値を採用する
func members(obj gjson.Result) map[string]gjson.Result {
	m := make(map[string]gjson.Result)
	obj.ForEach(func(key, value gjson.Result) bool {
		m[key.String()] = value
		return true
	})
	return m
}

func stringArray(v gjson.Result) ([]string, bool) {
	if !v.IsArray() {
		return nil, false
	}
	arr := v.Array()
	items := make([]string, 0, len(arr))
	for _, item := range arr {
		if item.Type != gjson.String {
			return nil, false
		}
		items = append(items, item.String())
	}
	return items, true
}
