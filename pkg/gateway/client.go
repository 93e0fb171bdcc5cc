package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"net/http"
	"sync"

	"github.com/shouni/go-coloring-kit/pkg/credential"

	"golang.org/x/sync/singleflight"
	"google.golang.org/genai"
)

// KeySource は現在選択されている API キーを返します。
type KeySource interface {
	Key() string
}

// ClientFactory は API キーから ContentGenerator を生成する関数です。
type ClientFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// ClientProvider は選択中のキーに対応する Gemini クライアントを遅延生成して使い回します。
// 同じキーに対する同時初期化は singleflight で1回にまとめます。
// ContentGenerator を満たすため、そのまま GeminiGateway に渡せます。
type ClientProvider struct {
	keys    KeySource
	factory ClientFactory

	mu      sync.RWMutex
	clients map[string]ContentGenerator
	group   singleflight.Group
}

// NewClientProvider は ClientProvider を作成します。factory が nil の場合は Gemini API クライアントを使用します。
func NewClientProvider(keys KeySource, httpClient *http.Client, factory ClientFactory) *ClientProvider {
	if factory == nil {
		factory = NewGenAIFactory(httpClient)
	}
	return &ClientProvider{
		keys:    keys,
		factory: factory,
		clients: make(map[string]ContentGenerator),
	}
}

// NewGenAIFactory は genai.Client の Models を返す ClientFactory を作成します。
func NewGenAIFactory(httpClient *http.Client) ClientFactory {
	return func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
		}
		return client.Models, nil
	}
}

// Generator は現在のキーに対応する ContentGenerator を返します。
func (p *ClientProvider) Generator(ctx context.Context) (ContentGenerator, error) {
	key := p.keys.Key()
	if key == "" {
		return nil, credential.ErrMissingCredential
	}
	id := fingerprint(key)

	p.mu.RLock()
	gen, ok := p.clients[id]
	p.mu.RUnlock()
	if ok {
		return gen, nil
	}

	v, err, _ := p.group.Do(id, func() (any, error) {
		p.mu.RLock()
		cached, ok := p.clients[id]
		p.mu.RUnlock()
		if ok {
			return cached, nil
		}
		created, err := p.factory(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.clients[id] = created
		p.mu.Unlock()
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(ContentGenerator), nil
}

// GenerateContent は現在のキーのクライアントに委譲します。
func (p *ClientProvider) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	gen, err := p.Generator(ctx)
	if err != nil {
		return nil, err
	}
	return gen.GenerateContent(ctx, model, contents, config)
}

// GenerateContentStream は現在のキーのクライアントに委譲します。
func (p *ClientProvider) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	gen, err := p.Generator(ctx)
	if err != nil {
		return func(yield func(*genai.GenerateContentResponse, error) bool) {
			yield(nil, err)
		}
	}
	return gen.GenerateContentStream(ctx, model, contents, config)
}

// fingerprint はキャッシュ用にキーをハッシュ化します。
func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
