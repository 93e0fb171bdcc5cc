package publisher

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/go-coloring-kit/pkg/asset"
	"github.com/shouni/go-coloring-kit/pkg/domain"

	"github.com/google/go-cmp/cmp"
	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(4, 4, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("PNG のエンコードに失敗しました: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("JPEG のエンコードに失敗しました: %v", err)
	}
	return buf.Bytes()
}

func makePages(t *testing.T, statuses ...domain.PageStatus) []domain.ColoringPage {
	t.Helper()
	data := pngBytes(t)
	pages := make([]domain.ColoringPage, len(statuses))
	for i, s := range statuses {
		p := domain.NewColoringPage(i, "A dinosaur floating near the moon")
		p.Status = s
		if s == domain.StatusCompleted {
			p.Image = &imgdom.ImageResponse{Data: data, MimeType: "image/png"}
		}
		pages[i] = p
	}
	return pages
}

var leo = domain.BookSettings{ChildName: "Leo", Theme: "Space Dinosaurs"}

func TestBookPublisher_Export(t *testing.T) {
	pub := NewBookPublisher(nil)
	c, f := domain.StatusCompleted, domain.StatusFailed

	t.Run("表紙と完了ページで6ページ", func(t *testing.T) {
		art, err := pub.Export(leo, makePages(t, c, c, c, c, c))
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if art.PageCount != 6 {
			t.Errorf("PageCount = %d, want 6", art.PageCount)
		}
		if art.FileName != "Leo_MagicColorBook.pdf" {
			t.Errorf("FileName = %q", art.FileName)
		}
		if !bytes.HasPrefix(art.Data, []byte("%PDF-")) {
			t.Error("PDF ヘッダがありません")
		}
	})

	t.Run("失敗ページは省略される", func(t *testing.T) {
		art, err := pub.Export(leo, makePages(t, c, c, f, c, c))
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if art.PageCount != 5 {
			t.Errorf("PageCount = %d, want 5", art.PageCount)
		}
	})

	t.Run("すべて失敗なら表紙のみ", func(t *testing.T) {
		art, err := pub.Export(leo, makePages(t, f, f))
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if art.PageCount != 1 {
			t.Errorf("PageCount = %d, want 1", art.PageCount)
		}
	})

	t.Run("未完了ページがあれば拒否", func(t *testing.T) {
		for _, pages := range [][]domain.ColoringPage{
			nil,
			makePages(t, c, domain.StatusGenerating),
			makePages(t, domain.StatusPending),
		} {
			if _, err := pub.Export(leo, pages); !errors.Is(err, ErrNotExportable) {
				t.Errorf("ErrNotExportable を期待しましたが %v でした", err)
			}
		}
	})

	t.Run("埋め込めない画像のページだけ省略される", func(t *testing.T) {
		pages := makePages(t, c, c, c, c, c)
		pages[1].Image = &imgdom.ImageResponse{Data: []byte("RIFF....WEBPVP8 "), MimeType: "image/webp"}
		pages[3].Image = &imgdom.ImageResponse{Data: []byte("\x89PNG\r\n\x1a\nbroken"), MimeType: "image/png"}
		art, err := pub.Export(leo, pages)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if art.PageCount != 4 {
			t.Errorf("PageCount = %d, want 4", art.PageCount)
		}
	})

	t.Run("JPEG も埋め込める", func(t *testing.T) {
		pages := makePages(t, c, c)
		pages[0].Image = &imgdom.ImageResponse{Data: jpegBytes(t), MimeType: "image/jpeg"}
		art, err := pub.Export(leo, pages)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if art.PageCount != 3 {
			t.Errorf("PageCount = %d, want 3", art.PageCount)
		}
	})

	t.Run("ラテン文字以外の名前でも書き出せる", func(t *testing.T) {
		art, err := pub.Export(domain.BookSettings{ChildName: "みお", Theme: "うちゅう"}, makePages(t, c))
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if art.PageCount != 2 {
			t.Errorf("PageCount = %d, want 2", art.PageCount)
		}
	})
}

func TestBookPublisher_Publish(t *testing.T) {
	pub := NewBookPublisher(asset.NewLocalWriter())
	c, f := domain.StatusCompleted, domain.StatusFailed

	t.Run("PDF と完了ページの画像を保存する", func(t *testing.T) {
		dir := t.TempDir()
		res, err := pub.Publish(context.Background(), leo, makePages(t, c, f, c), Options{OutputDir: dir, SaveImages: true})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if res.PDFPath != filepath.Join(dir, "Leo_MagicColorBook.pdf") {
			t.Errorf("PDFPath = %q", res.PDFPath)
		}
		if res.PageCount != 3 {
			t.Errorf("PageCount = %d, want 3", res.PageCount)
		}
		if _, err := os.Stat(res.PDFPath); err != nil {
			t.Errorf("PDF が保存されていません: %v", err)
		}
		var names []string
		for _, p := range res.ImagePaths {
			if filepath.Dir(p) != filepath.Join(dir, "images") {
				t.Errorf("保存先が不正です: %s", p)
			}
			names = append(names, filepath.Base(p))
		}
		want := []string{"coloring_page_1.png", "coloring_page_3.png"}
		if diff := cmp.Diff(want, names); diff != "" {
			t.Errorf("ImagePaths mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("拡張子は画像の MIME タイプに合わせる", func(t *testing.T) {
		dir := t.TempDir()
		pages := makePages(t, c, c)
		data := jpegBytes(t)
		pages[1].Image = &imgdom.ImageResponse{Data: data, MimeType: "image/jpeg"}
		res, err := pub.Publish(context.Background(), leo, pages, Options{OutputDir: dir, SaveImages: true})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if len(res.ImagePaths) != 2 {
			t.Fatalf("ImagePaths = %v", res.ImagePaths)
		}
		if !strings.HasSuffix(res.ImagePaths[0], "coloring_page_1.png") {
			t.Errorf("1枚目 = %s", res.ImagePaths[0])
		}
		if !strings.HasSuffix(res.ImagePaths[1], "coloring_page_2.jpg") {
			t.Errorf("2枚目 = %s, want coloring_page_2.jpg", res.ImagePaths[1])
		}
		got, err := os.ReadFile(res.ImagePaths[1])
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, data) {
			t.Error("JPEG の内容が一致しません")
		}
	})
}

func TestImageTypeOf(t *testing.T) {
	data := pngBytes(t)
	if got, err := imageTypeOf("", data); err != nil || got != "PNG" {
		t.Errorf("内容からの判定: got %q, %v", got, err)
	}
	if got, err := imageTypeOf("image/jpeg", nil); err != nil || got != "JPG" {
		t.Errorf("got %q, %v", got, err)
	}
	if _, err := imageTypeOf("image/webp", nil); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("webp: err = %v, want ErrUnsupportedImage", err)
	}
}
