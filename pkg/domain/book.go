package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyChildName は子どもの名前が空の場合のエラーです。
	ErrEmptyChildName = errors.New("子どもの名前が入力されていません")
	// ErrEmptyTheme はテーマが空の場合のエラーです。
	ErrEmptyTheme = errors.New("テーマが入力されていません")
	// ErrUnknownDetailLevel は解釈できない詳細度が指定された場合のエラーです。
	ErrUnknownDetailLevel = errors.New("不明な詳細度です")
)

// DetailLevel は画像生成に渡す品質（解像度）の段階です。
type DetailLevel string

const (
	DetailStandard DetailLevel = "standard"
	DetailHighDef  DetailLevel = "high_def"
	DetailUltraHD  DetailLevel = "ultra_hd"
)

// ImageSize は詳細度に対応する画像サイズ ("1K", "2K", "4K") を返します。
// 不明な値は標準扱いです。
func (d DetailLevel) ImageSize() string {
	switch d {
	case DetailHighDef:
		return "2K"
	case DetailUltraHD:
		return "4K"
	default:
		return "1K"
	}
}

// ParseDetailLevel は文字列から DetailLevel を解釈します。
// 空文字は標準として扱い、"1K"/"2K"/"4K" の表記も受け付けます。
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "1k":
		return DetailStandard, nil
	case "high_def", "highdef", "2k":
		return DetailHighDef, nil
	case "ultra_hd", "ultrahd", "4k":
		return DetailUltraHD, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDetailLevel, s)
	}
}

// BookSettings は塗り絵ブックの生成条件です。
// 値型として扱い、生成開始時点のコピーが実行中のランに固定されます。
type BookSettings struct {
	ChildName   string      `json:"child_name"`
	Theme       string      `json:"theme"`
	DetailLevel DetailLevel `json:"detail_level"`
}

// Validate は名前とテーマが空でないことを検証します。
func (s BookSettings) Validate() error {
	if strings.TrimSpace(s.ChildName) == "" {
		return ErrEmptyChildName
	}
	if strings.TrimSpace(s.Theme) == "" {
		return ErrEmptyTheme
	}
	return nil
}

// Normalized は前後の空白を除去し、詳細度を既定値で補った設定を返します。
func (s BookSettings) Normalized() BookSettings {
	s.ChildName = strings.TrimSpace(s.ChildName)
	s.Theme = strings.TrimSpace(s.Theme)
	if s.DetailLevel == "" {
		s.DetailLevel = DetailStandard
	}
	return s
}
