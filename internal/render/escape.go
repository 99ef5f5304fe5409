package render

import (
	"strings"

	"github.com/dop251/goja"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML coerces value to a string the way JavaScript's String() does and
// escapes the five HTML-significant characters. Every "&" in the output that
// was present in the input becomes "&amp;", so escaping is not idempotent.
func EscapeHTML(value interface{}) string {
	return htmlEscaper.Replace(toString(value))
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case goja.Value:
		return v.String()
	}
	return goja.New().ToValue(value).String()
}
