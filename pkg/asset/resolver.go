package asset

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultImageDir はページ画像を格納するデフォルトのサブディレクトリ名です。
	DefaultImageDir = "images"
	// DefaultPageBaseName はページ画像の共通のベースファイル名 (拡張子なし) です。
	DefaultPageBaseName = "coloring_page"
	// BookFileSuffix は PDF ファイル名の末尾です。
	BookFileSuffix = "_MagicColorBook.pdf"
)

var unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]`)

// BookFileName は子どもの名前から PDF のファイル名を生成します。
// 例: "Leo" -> "Leo_MagicColorBook.pdf"
func BookFileName(childName string) string {
	name := strings.TrimSpace(unsafeFileChars.ReplaceAllString(childName, "_"))
	if name == "" {
		name = "My"
	}
	return name + BookFileSuffix
}

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// GenerateIndexedPath は、指定されたベースパスの拡張子の前に連番を挿入し、
// 新しいパス文字列を生成します。index は1以上の整数である必要があります。
// 例: "path/to/image.png", 1 -> "path/to/image_1.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// PageFileName は画像の MIME タイプに合わせたページ画像のベースファイル名を返します。
// 例: "image/jpeg" -> "coloring_page.jpg"
func PageFileName(mimeType string) string {
	return DefaultPageBaseName + ExtensionForMIME(mimeType)
}

// ExtensionForMIME は画像の MIME タイプに対応する拡張子を返します。
func ExtensionForMIME(mimeType string) string {
	switch NormalizeImageMIME(mimeType, nil) {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// NormalizeImageMIME は MIME タイプからパラメータを除いて小文字にそろえます。
// mimeType が空の場合は data の内容から判定します。
func NormalizeImageMIME(mimeType string, data []byte) string {
	if strings.TrimSpace(mimeType) == "" && len(data) > 0 {
		mimeType = http.DetectContentType(data)
	}
	m := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if m == "image/jpg" {
		return "image/jpeg"
	}
	return m
}

// IsEmbeddableImage は PDF に埋め込める画像形式 (PNG, JPEG, GIF) かどうかを返します。
func IsEmbeddableImage(mimeType string) bool {
	switch NormalizeImageMIME(mimeType, nil) {
	case "image/png", "image/jpeg", "image/gif":
		return true
	default:
		return false
	}
}
