package workflow

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shouni/go-coloring-kit/pkg/archive"
	"github.com/shouni/go-coloring-kit/pkg/asset"
	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/config"
	"github.com/shouni/go-coloring-kit/pkg/credential"
	"github.com/shouni/go-coloring-kit/pkg/gateway"
	"github.com/shouni/go-coloring-kit/pkg/generator"
	"github.com/shouni/go-coloring-kit/pkg/prompts"
	"github.com/shouni/go-coloring-kit/pkg/publisher"
)

// ManagerArgs は Manager の構築に必要な依存関係です。
type ManagerArgs struct {
	Config     config.Config
	HTTPClient *http.Client
	Writer     asset.OutputWriter
	// Generator を指定した場合は Gemini クライアントの代わりに使用します。
	Generator gateway.ContentGenerator
	// Detector は資格情報の検出機能です。nil の場合は KeyStore 自身を使用します。
	Detector credential.Detector
	// PromptBuilder が nil の場合は埋め込みテンプレートを使用します。
	PromptBuilder prompts.PromptBuilder
}

// Manager は、ワークフローの各工程を担う Runner 群と共有コンポーネントを構築・管理します。
type Manager struct {
	cfg       config.Config
	keys      *credential.KeyStore
	gate      *credential.Gate
	gateway   *gateway.GeminiGateway
	generator *generator.BookGenerator
	archive   *archive.Archive
	publisher *publisher.BookPublisher
	chats     *chat.Store
}

// New は、設定を基に新しい Manager を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	if args.Writer == nil {
		return nil, fmt.Errorf("OutputWriter は必須です")
	}
	cfg := args.Config.Normalize()

	keys := credential.NewKeyStore(cfg.GeminiAPIKey)
	detector := args.Detector
	if detector == nil {
		detector = keys
	}

	gen := args.Generator
	if gen == nil {
		gen = gateway.NewClientProvider(keys, args.HTTPClient, nil)
	}

	pb, err := initializePromptBuilder(args.PromptBuilder)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.NewGeminiGateway(cfg, gen, pb)
	if err != nil {
		return nil, fmt.Errorf("ゲートウェイの初期化に失敗しました: %w", err)
	}

	arc := archive.New(cfg.ArchiveTTL)
	bookGen, err := generator.NewBookGenerator(cfg, gw, generator.WithOnFinish(arc.Put))
	if err != nil {
		return nil, fmt.Errorf("生成エンジンの初期化に失敗しました: %w", err)
	}

	return &Manager{
		cfg:       cfg,
		keys:      keys,
		gate:      credential.NewGate(detector),
		gateway:   gw,
		generator: bookGen,
		archive:   arc,
		publisher: publisher.NewBookPublisher(args.Writer),
		chats:     chat.NewStore(gw, cfg.ChatSessionTTL),
	}, nil
}

// initializePromptBuilder は PromptBuilder を初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializePromptBuilder(pb prompts.PromptBuilder) (prompts.PromptBuilder, error) {
	if pb != nil {
		return pb, nil
	}
	builder, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}
	return builder, nil
}

// Config は正規化済みの設定を返します。
func (m *Manager) Config() config.Config               { return m.cfg }
func (m *Manager) Keys() *credential.KeyStore          { return m.keys }
func (m *Manager) Gate() *credential.Gate              { return m.gate }
func (m *Manager) Generator() *generator.BookGenerator { return m.generator }
func (m *Manager) Archive() *archive.Archive           { return m.archive }
func (m *Manager) Publisher() *publisher.BookPublisher { return m.publisher }
func (m *Manager) ChatStore() *chat.Store              { return m.chats }

// Gateway はチャットとシーン生成で共有するモデル呼び出しを返します。
func (m *Manager) Gateway() gateway.Gateway { return m.gateway }
