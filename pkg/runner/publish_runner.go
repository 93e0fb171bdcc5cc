package runner

import (
	"context"

	"github.com/shouni/go-coloring-kit/pkg/config"
	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/publisher"
)

// DefaultPublisherRunner は pkg/publisher を利用した標準実装です。
type DefaultPublisherRunner struct {
	cfg       config.Config
	publisher *publisher.BookPublisher
}

// NewDefaultPublisherRunner は依存関係を注入して初期化します。
func NewDefaultPublisherRunner(cfg config.Config, pub *publisher.BookPublisher) *DefaultPublisherRunner {
	return &DefaultPublisherRunner{
		cfg:       cfg,
		publisher: pub,
	}
}

// Run は終端状態のランから PDF を組み立てて outputDir に保存します。
func (pr *DefaultPublisherRunner) Run(ctx context.Context, state domain.RunState, outputDir string, saveImages bool) (publisher.PublishResult, error) {
	opts := publisher.Options{
		OutputDir:  outputDir,
		SaveImages: saveImages,
	}
	return pr.publisher.Publish(ctx, state.Settings, state.Pages, opts)
}

// Export は保存処理を行わず、PDF をメモリ上に組み立てて返却します。
// Web ハンドラーでのダウンロード応答に使用します。
func (pr *DefaultPublisherRunner) Export(state domain.RunState) (*publisher.Artifact, error) {
	return pr.publisher.Export(state.Settings, state.Pages)
}
