package generator

import (
	"context"

	"github.com/shouni/go-coloring-kit/pkg/domain"

	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// SceneGateway は BookGenerator が利用するモデル呼び出しの契約です。
// gateway.Gateway はこれを満たします。
type SceneGateway interface {
	ExpandTheme(ctx context.Context, theme string) ([]string, error)
	SynthesizeImage(ctx context.Context, prompt string, level domain.DetailLevel) (*imgdom.ImageResponse, error)
}

// Listener は状態が変化するたびにスナップショットを受け取ります。
// 生成処理と同じゴルーチンで同期的に呼ばれるため、ブロックしてはいけません。
// また Listener の中から BookGenerator の状態を変更するメソッドを呼んではいけません。
type Listener func(state domain.RunState)
