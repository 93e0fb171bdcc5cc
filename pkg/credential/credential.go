// Package credential は Gemini API キーの選択状態と事前チェックを扱います。
package credential

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrMissingCredential は API キーが選択されていない場合のエラーです。
var ErrMissingCredential = errors.New("API キーが選択されていません")

// Detector はキーが選択済みかどうかを問い合わせる機能です。
type Detector interface {
	HasSelectedKey(ctx context.Context) (bool, error)
}

// DetectorFunc は関数を Detector として扱うアダプタです。
type DetectorFunc func(ctx context.Context) (bool, error)

// HasSelectedKey は f(ctx) を呼び出します。
func (f DetectorFunc) HasSelectedKey(ctx context.Context) (bool, error) { return f(ctx) }

// KeyStore は実行時に選択された API キーを保持します。
type KeyStore struct {
	mu  sync.RWMutex
	key string
}

// NewKeyStore は初期キーを持つ KeyStore を作成します。
func NewKeyStore(initial string) *KeyStore {
	return &KeyStore{key: strings.TrimSpace(initial)}
}

// Key は現在のキーを返します。
func (s *KeyStore) Key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// Select はキーを差し替えます。空白のみのキーは ErrMissingCredential です。
func (s *KeyStore) Select(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingCredential
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return nil
}

// HasSelectedKey はキーが設定済みかを返します。KeyStore 自身も Detector です。
func (s *KeyStore) HasSelectedKey(context.Context) (bool, error) {
	return s.Key() != "", nil
}

// Status は事前チェックの結果です。
type Status struct {
	Present bool `json:"present"`
	// Checked は検出機能に実際に問い合わせたかを示します。
	Checked bool `json:"checked"`
}

// Gate は生成前の資格情報チェックを行います。
// 検出機能を持たない環境では「選択済み」とみなします。
type Gate struct {
	detector Detector
}

// NewGate は Gate を作成します。detector は nil でも構いません。
func NewGate(detector Detector) *Gate {
	return &Gate{detector: detector}
}

// Check は資格情報の有無を返します。
// 問い合わせ自体が失敗した場合は未選択として扱います。
func (g *Gate) Check(ctx context.Context) Status {
	if g == nil || g.detector == nil {
		return Status{Present: true}
	}
	ok, err := g.detector.HasSelectedKey(ctx)
	if err != nil {
		return Status{Present: false, Checked: true}
	}
	return Status{Present: ok, Checked: true}
}

// Require は資格情報がない場合に ErrMissingCredential を返します。
func (g *Gate) Require(ctx context.Context) error {
	if !g.Check(ctx).Present {
		return ErrMissingCredential
	}
	return nil
}
