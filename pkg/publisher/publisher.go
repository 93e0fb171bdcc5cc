package publisher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-coloring-kit/pkg/asset"
	"github.com/shouni/go-coloring-kit/pkg/domain"
)

const pdfContentType = "application/pdf"

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir  string
	SaveImages bool // 完了ページの画像も個別に保存する
}

// Artifact はメモリ上に組み立てた PDF です。
type Artifact struct {
	FileName  string
	Data      []byte
	PageCount int
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	PDFPath    string   // 生成された PDF のパス
	PageCount  int      // 表紙を含むページ数
	ImagePaths []string // 保存されたページ画像のパスリスト
}

// BookPublisher は成果物の組み立てと永続化を担います。
type BookPublisher struct {
	writer   asset.OutputWriter
	renderer *PDFRenderer
}

// NewBookPublisher は BookPublisher を作成します。writer は Publish を使わない場合 nil でも構いません。
func NewBookPublisher(writer asset.OutputWriter) *BookPublisher {
	return &BookPublisher{
		writer:   writer,
		renderer: NewPDFRenderer(),
	}
}

// Export は PDF をメモリ上に組み立てます。
func (p *BookPublisher) Export(settings domain.BookSettings, pages []domain.ColoringPage) (*Artifact, error) {
	var buf bytes.Buffer
	count, err := p.renderer.Render(&buf, settings, pages)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		FileName:  asset.BookFileName(settings.ChildName),
		Data:      buf.Bytes(),
		PageCount: count,
	}, nil
}

// Publish は PDF を組み立てて出力先に保存し、生成されたファイル情報を返却します。
func (p *BookPublisher) Publish(ctx context.Context, settings domain.BookSettings, pages []domain.ColoringPage, opts Options) (PublishResult, error) {
	result := PublishResult{}
	if p.writer == nil {
		return result, fmt.Errorf("OutputWriter が設定されていません")
	}

	// 1. PDF の組み立て
	artifact, err := p.Export(settings, pages)
	if err != nil {
		return result, err
	}
	result.PageCount = artifact.PageCount

	// 2. 出力パスの解決
	pdfPath, err := asset.ResolveOutputPath(opts.OutputDir, artifact.FileName)
	if err != nil {
		return result, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}

	// 3. ページ画像の保存
	if opts.SaveImages {
		paths, err := p.saveImages(ctx, pages, opts.OutputDir)
		if err != nil {
			return result, fmt.Errorf("画像の書き込みに失敗しました: %w", err)
		}
		result.ImagePaths = paths
	}

	// 4. PDF の書き出し
	if err := p.writer.Write(ctx, pdfPath, bytes.NewReader(artifact.Data), pdfContentType); err != nil {
		return result, fmt.Errorf("PDF の書き込みに失敗しました: %w", err)
	}
	result.PDFPath = pdfPath

	slog.InfoContext(ctx, "塗り絵ブックを保存しました", "path", pdfPath, "pages", artifact.PageCount)
	return result, nil
}

// saveImages は完了ページの画像を連番付きで保存します。拡張子は画像の MIME タイプに合わせます。
func (p *BookPublisher) saveImages(ctx context.Context, pages []domain.ColoringPage, outputDir string) ([]string, error) {
	imgDir, err := asset.ResolveOutputPath(outputDir, asset.DefaultImageDir)
	if err != nil {
		return nil, err
	}

	var saved []string
	for _, page := range pages {
		if page.Status != domain.StatusCompleted || !page.HasImage() {
			continue
		}
		mimeType := asset.NormalizeImageMIME(page.Image.MimeType, page.Image.Data)
		basePath, err := asset.ResolveOutputPath(imgDir, asset.PageFileName(mimeType))
		if err != nil {
			return saved, err
		}
		pagePath, err := asset.GenerateIndexedPath(basePath, page.Index+1)
		if err != nil {
			return saved, fmt.Errorf("ページ %s の出力パス生成に失敗しました: %w", page.ID, err)
		}

		slog.DebugContext(ctx, "ページ画像を保存しています", "page", page.ID, "path", pagePath)
		if err := p.writer.Write(ctx, pagePath, bytes.NewReader(page.Image.Data), mimeType); err != nil {
			return saved, fmt.Errorf("ページ %s の保存に失敗しました (path: %s): %w", page.ID, pagePath, err)
		}
		saved = append(saved, pagePath)
	}
	return saved, nil
}
