package gateway

import (
	"context"
	"errors"
	"iter"

	"github.com/shouni/go-coloring-kit/pkg/domain"

	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
	"google.golang.org/genai"
)

var (
	// ErrNoImageReturned はモデルの応答に画像データが含まれない場合のエラーです。
	ErrNoImageReturned = errors.New("モデルから画像データが返されませんでした")
	// ErrUnsupportedImageType はモデルが PDF に埋め込めない形式の画像を返した場合のエラーです。
	ErrUnsupportedImageType = errors.New("モデルが未対応の形式の画像を返しました")
	// ErrMalformedPromptList はシーン一覧の応答が解釈できない場合のエラーです。
	// ExpandTheme 内で回復されるため、呼び出し元には返りません。
	ErrMalformedPromptList = errors.New("シーン一覧の応答を解釈できません")
)

// Gateway は外部の生成モデルへのアクセスを抽象化します。
type Gateway interface {
	// ExpandTheme はテーマからシーン記述の一覧を生成します。
	// 応答が壊れている場合は代替シーンで埋め、通信エラーのみを返します。
	ExpandTheme(ctx context.Context, theme string) ([]string, error)
	// SynthesizeImage はシーン記述から塗り絵画像を1枚生成します。
	SynthesizeImage(ctx context.Context, prompt string, level domain.DetailLevel) (*imgdom.ImageResponse, error)
	// StreamChatReply は過去の会話を文脈として、返信の断片を順に流します。
	StreamChatReply(ctx context.Context, prior domain.Transcript, message string) iter.Seq2[string, error]
}

// ContentGenerator は Gemini のコンテンツ生成 API の最小面です。
// *genai.Models がこれを満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}
