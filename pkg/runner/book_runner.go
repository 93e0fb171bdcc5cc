package runner

import (
	"context"
	"log/slog"

	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/generator"
)

// ColoringBookRunner は BookGenerator を同期的に実行し、進捗をログに流します。
type ColoringBookRunner struct {
	generator *generator.BookGenerator
}

// NewColoringBookRunner は依存関係を注入して初期化します。
func NewColoringBookRunner(gen *generator.BookGenerator) *ColoringBookRunner {
	return &ColoringBookRunner{generator: gen}
}

// Run はランを最後まで実行し、終端状態を返します。
func (r *ColoringBookRunner) Run(ctx context.Context, settings domain.BookSettings) (domain.RunState, error) {
	last := ""
	unsubscribe := r.generator.Subscribe(func(s domain.RunState) {
		if s.Progress == last {
			return
		}
		last = s.Progress
		slog.InfoContext(ctx, s.Progress, "run_id", s.RunID)
	})
	defer unsubscribe()

	state, err := r.generator.Generate(ctx, settings)
	if err != nil {
		slog.ErrorContext(ctx, "塗り絵ブックの生成に失敗しました", "error", err)
		return state, err
	}

	counts := state.Counts()
	slog.InfoContext(ctx, "塗り絵ブックの生成が完了しました",
		"completed", counts[domain.StatusCompleted],
		"failed", counts[domain.StatusFailed],
	)
	return state, nil
}
