package workflow

import (
	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/runner"

	"github.com/google/uuid"
)

// BuildBookRunner は、塗り絵ブック生成を担当する Runner を作成します。
// Runner は Manager の BookGenerator を共有するため、同時に実行できるランは1つです。
func (m *Manager) BuildBookRunner() (BookRunner, error) {
	return runner.NewColoringBookRunner(m.generator), nil
}

// BuildPublishRunner は、成果物のパブリッシュを担当する Runner を作成します。
func (m *Manager) BuildPublishRunner() (PublishRunner, error) {
	return runner.NewDefaultPublisherRunner(m.cfg, m.publisher), nil
}

// BuildChatRunner は、新しい会話セッションを持つ Runner を作成します。
// Store には登録しないため、Runner を閉じればセッションも破棄されます。
func (m *Manager) BuildChatRunner() (ChatRunner, error) {
	return runner.NewChatRunner(chat.NewSession(uuid.NewString(), m.gateway)), nil
}
