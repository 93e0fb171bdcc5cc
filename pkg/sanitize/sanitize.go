// Package sanitize は利用者の自由入力からマークアップを取り除きます。
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text はすべての HTML タグを除去し、エスケープされた文字を元に戻して前後の空白を削ります。
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
