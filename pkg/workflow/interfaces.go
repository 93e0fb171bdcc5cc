package workflow

import (
	"context"
	"io"

	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/publisher"
)

// Workflow は、塗り絵ブック生成の各工程を担当するRunnerを構築するためのインターフェースを定義します。
type Workflow interface {
	BuildBookRunner() (BookRunner, error)
	BuildPublishRunner() (PublishRunner, error)
	BuildChatRunner() (ChatRunner, error)
}

// BookRunner は、テーマからシーンを展開し、全ページの線画を生成する責務を持ちます。
type BookRunner interface {
	Run(ctx context.Context, settings domain.BookSettings) (domain.RunState, error)
}

// PublishRunner は、終端状態のランを PDF にまとめて出力する責務を持ちます。
type PublishRunner interface {
	Run(ctx context.Context, state domain.RunState, outputDir string, saveImages bool) (publisher.PublishResult, error)
	Export(state domain.RunState) (*publisher.Artifact, error)
}

// ChatRunner は、アシスタントとの1つの会話を端末などの Writer に流す責務を持ちます。
type ChatRunner interface {
	Run(ctx context.Context, message string, out io.Writer) error
	Close()
}
