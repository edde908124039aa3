package prompt

import (
	"strings"

	"github.com/valyala/bytebufferpool"
)

// xmlWriter はタグ付きテキストを組み立てる
type xmlWriter struct {
	buf *bytebufferpool.ByteBuffer
	sep string
}

func (w *xmlWriter) open(tag string) {
	w.buf.WriteString("<" + tag + ">" + w.sep)
}

func (w *xmlWriter) close(tag string) {
	w.buf.WriteString("</" + tag + ">" + w.sep)
}

func (w *xmlWriter) element(tag, body string) {
	w.buf.WriteString("<" + tag + ">")
	w.buf.WriteString(body)
	w.buf.WriteString("</" + tag + ">" + w.sep)
}

func (w *xmlWriter) code(files []SourceFile, naming []string) {
	w.open("code")
	if len(naming) > 0 {
		w.element("naming-convention", bulletList(naming))
	}
	for _, f := range files {
		w.element(f.Tag(), f.Content)
	}
	w.close("code")
}

func newXMLWriter(compact bool) *xmlWriter {
	w := &xmlWriter{buf: bytebufferpool.Get(), sep: "\n"}
	if compact {
		w.sep = ""
	}
	return w
}

func (w *xmlWriter) String() string {
	s := strings.TrimSuffix(w.buf.String(), w.sep)
	bytebufferpool.Put(w.buf)
	return s
}

// Render はDocumentを固定順のタグ構造に変換する
// compactの場合はタグ間の改行を出力しない
func Render(doc Document, compact bool) string {
	w := newXMLWriter(compact)

	w.open("system-prompt")
	w.element("persona", doc.Persona)

	w.open("task")
	w.element("main-objective", doc.MainObjective)
	w.element("instructions", bulletList(doc.Instructions))
	w.open("rules")
	for _, rule := range doc.Rules {
		w.element("rule", rule)
	}
	w.close("rules")
	w.close("task")

	w.code(doc.Files, doc.Naming)
	w.close("system-prompt")

	return w.String()
}

// RenderSummary は要約指示とファイル群をタグ構造に変換する
func RenderSummary(body string, files []SourceFile, compact bool) string {
	w := newXMLWriter(compact)

	w.open("system-prompt")
	w.element("persona", Persona)
	w.buf.WriteString(body + w.sep)
	w.code(files, nil)
	w.close("system-prompt")

	return w.String()
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return "* " + strings.Join(items, "\n* ")
}
