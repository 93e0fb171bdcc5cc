package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrRemoteNotSupported はローカル以外の出力先が指定された場合のエラーです。
var ErrRemoteNotSupported = errors.New("ローカル以外の出力先には対応していません")

// OutputWriter はデータを保存先に書き出すためのインターフェースです。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// LocalWriter はローカルファイルシステムに書き出す OutputWriter です。
type LocalWriter struct{}

// NewLocalWriter は LocalWriter を返します。
func NewLocalWriter() *LocalWriter {
	return &LocalWriter{}
}

// Write は親ディレクトリを作成してからファイルを書き出します。
func (w *LocalWriter) Write(ctx context.Context, path string, r io.Reader, _ string) error {
	if strings.Contains(path, "://") {
		return fmt.Errorf("%w: %s", ErrRemoteNotSupported, path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗しました: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ファイルの作成に失敗しました: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("ファイルの書き込みに失敗しました (path: %s): %w", path, err)
	}
	return f.Close()
}
