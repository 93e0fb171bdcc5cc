package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"

	"github.com/shouni/go-coloring-kit/pkg/asset"
	"github.com/shouni/go-coloring-kit/pkg/domain"

	"github.com/go-pdf/fpdf"
)

var (
	// ErrNotExportable は未完了のページが残っている場合のエラーです。
	ErrNotExportable = errors.New("すべてのページが完了するまでエクスポートできません")
	// ErrUnsupportedImage は PDF に埋め込めない画像形式のエラーです。
	ErrUnsupportedImage = errors.New("PDF に埋め込めない画像形式です")
)

// ページレイアウト (A4 縦, mm)
const (
	pageMargin     = 10.0
	captionInset   = 20.0
	captionFromBot = 20.0
	captionSize    = 12.0
	captionLineH   = 5.0
	fontFamily     = "Helvetica"
)

var (
	coverColor   = [3]int{79, 70, 229}
	captionColor = [3]int{150, 150, 150}
)

// PDFRenderer は表紙と完了ページから印刷用 PDF を組み立てます。
type PDFRenderer struct {
	creator string
}

// NewPDFRenderer は PDFRenderer を作成します。
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{creator: "go-coloring-kit"}
}

// Render は PDF を w に書き出し、ページ数を返します。
// 失敗したページと、画像を埋め込めないページは出力に含めません。
func (r *PDFRenderer) Render(w io.Writer, settings domain.BookSettings, pages []domain.ColoringPage) (int, error) {
	if !domain.PagesExportable(pages) {
		return 0, ErrNotExportable
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(settings.ChildName+"'s Coloring Book", true)
	pdf.SetAuthor(settings.ChildName, true)
	pdf.SetCreator(r.creator, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)

	r.renderCover(pdf, tr, settings)

	for _, p := range pages {
		if p.Status != domain.StatusCompleted || !p.HasImage() {
			continue
		}
		if pdf.Err() {
			break
		}
		if err := r.renderPage(pdf, tr, p); err != nil {
			slog.Warn("ページを PDF から除外しました", "page", p.ID, "error", err)
		}
	}

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("PDF の組み立てに失敗しました: %w", err)
	}
	count := pdf.PageCount()
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("PDF の書き出しに失敗しました: %w", err)
	}
	return count, nil
}

func (r *PDFRenderer) renderCover(pdf *fpdf.Fpdf, tr func(string) string, settings domain.BookSettings) {
	pdf.AddPage()
	w, h := pdf.GetPageSize()

	pdf.SetFillColor(coverColor[0], coverColor[1], coverColor[2])
	pdf.Rect(0, 0, w, h, "F")
	pdf.SetTextColor(255, 255, 255)

	pdf.SetFont(fontFamily, "B", 40)
	pdf.SetXY(0, 65)
	pdf.CellFormat(w, 20, tr(settings.ChildName+"'s"), "", 1, "C", false, 0, "")
	pdf.SetXY(0, 85)
	pdf.CellFormat(w, 20, "Coloring Book", "", 1, "C", false, 0, "")

	pdf.SetFont(fontFamily, "", 20)
	pdf.SetXY(pageMargin, 120)
	pdf.MultiCell(w-2*pageMargin, 10, tr("Theme: "+settings.Theme), "", "C", false)
}

// renderPage は画像ページを1枚追加します。
// 画像を登録できない場合はページを追加せず、fpdf のエラー状態も戻します。
func (r *PDFRenderer) renderPage(pdf *fpdf.Fpdf, tr func(string) string, p domain.ColoringPage) error {
	imageType, err := imageTypeOf(p.Image.MimeType, p.Image.Data)
	if err != nil {
		return err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(p.Image.Data)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	opts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(p.ID, opts, bytes.NewReader(p.Image.Data))
	if err := pdf.Error(); err != nil {
		pdf.ClearError()
		return fmt.Errorf("画像を読み込めません: %w", err)
	}

	pdf.AddPage()
	w, h := pdf.GetPageSize()
	size := w - 2*pageMargin
	pdf.ImageOptions(p.ID, pageMargin, pageMargin, size, size, false, opts, 0, "")

	pdf.SetFont(fontFamily, "", captionSize)
	pdf.SetTextColor(captionColor[0], captionColor[1], captionColor[2])
	pdf.SetXY(captionInset, h-captionFromBot-captionLineH)
	pdf.MultiCell(w-2*captionInset, captionLineH, tr(p.Prompt), "", "C", false)
	return nil
}

// imageTypeOf は fpdf が扱う画像形式名を返します。MIME タイプが空の場合は内容から判定します。
func imageTypeOf(mimeType string, data []byte) (string, error) {
	switch asset.NormalizeImageMIME(mimeType, data) {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mimeType)
	}
}
