package asset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBookFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Leo", "Leo_MagicColorBook.pdf"},
		{" Mia ", "Mia_MagicColorBook.pdf"},
		{"a/b", "a_b_MagicColorBook.pdf"},
		{"", "My_MagicColorBook.pdf"},
	}
	for _, tt := range tests {
		if got := BookFileName(tt.in); got != tt.want {
			t.Errorf("BookFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPageFileName(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", "coloring_page.png"},
		{"image/jpeg", "coloring_page.jpg"},
		{"IMAGE/JPG", "coloring_page.jpg"},
		{"image/gif", "coloring_page.gif"},
		{"image/jpeg; charset=binary", "coloring_page.jpg"},
		{"", "coloring_page.png"},
	}
	for _, tt := range tests {
		if got := PageFileName(tt.mime); got != tt.want {
			t.Errorf("PageFileName(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestNormalizeImageMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if got := NormalizeImageMIME("", png); got != "image/png" {
		t.Errorf("内容からの判定: got %q", got)
	}
	if got := NormalizeImageMIME(" Image/JPG ", nil); got != "image/jpeg" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeImageMIME("", nil); got != "" {
		t.Errorf("空入力: got %q", got)
	}
}

func TestIsEmbeddableImage(t *testing.T) {
	for mime, want := range map[string]bool{
		"image/png":  true,
		"image/jpeg": true,
		"image/gif":  true,
		"image/webp": false,
		"image/heic": false,
		"":           false,
	} {
		if got := IsEmbeddableImage(mime); got != want {
			t.Errorf("IsEmbeddableImage(%q) = %v, want %v", mime, got, want)
		}
	}
}

func TestLocalWriter_Write(t *testing.T) {
	ctx := context.Background()
	w := NewLocalWriter()

	t.Run("親ディレクトリを作成して書き込む", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "book.pdf")
		if err := w.Write(ctx, path, strings.NewReader("%PDF-1.3"), "application/pdf"); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "%PDF-1.3" {
			t.Errorf("内容 = %q", data)
		}
	})

	t.Run("リモートパスは拒否", func(t *testing.T) {
		err := w.Write(ctx, "gs://bucket/book.pdf", strings.NewReader("x"), "application/pdf")
		if !errors.Is(err, ErrRemoteNotSupported) {
			t.Errorf("err = %v", err)
		}
	})
}
