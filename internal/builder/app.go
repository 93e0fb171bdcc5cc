package builder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shouni/go-coloring-kit/internal/config"
	"github.com/shouni/go-coloring-kit/pkg/asset"
	"github.com/shouni/go-coloring-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各コマンドに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config         // Configは、環境変数と設定ファイルから読み込まれた設定です。
	Options config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Writer  asset.OutputWriter     // Writerは、生成された内容を保存するための出力先です。
	Manager *workflow.Manager      // Managerは、生成・出力・チャットの各Runnerを構築します。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	// ストリーミングの返信を途中で切らないよう、タイムアウトは各呼び出しの context に任せます。
	httpClient := &http.Client{}
	writer := asset.NewLocalWriter()

	mgr, err := workflow.New(ctx, workflow.ManagerArgs{
		Config:     cfg.Kit,
		HTTPClient: httpClient,
		Writer:     writer,
	})
	if err != nil {
		return nil, fmt.Errorf("ワークフローの初期化に失敗したのだ: %w", err)
	}

	return &AppContext{
		Config:  cfg,
		Options: cfg.Options,
		Writer:  writer,
		Manager: mgr,
	}, nil
}
