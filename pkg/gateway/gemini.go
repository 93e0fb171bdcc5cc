package gateway

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/shouni/go-coloring-kit/pkg/asset"
	"github.com/shouni/go-coloring-kit/pkg/config"
	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/prompts"

	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
	"google.golang.org/genai"
)

const jsonMIMEType = "application/json"

// GeminiGateway は Gemini API を用いた Gateway の実装です。
type GeminiGateway struct {
	cfg           config.Config
	generator     ContentGenerator
	promptBuilder prompts.PromptBuilder
}

// NewGeminiGateway は依存関係を注入して初期化します。
func NewGeminiGateway(cfg config.Config, gen ContentGenerator, pb prompts.PromptBuilder) (*GeminiGateway, error) {
	if gen == nil {
		return nil, fmt.Errorf("ContentGenerator は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("PromptBuilder は必須です")
	}
	return &GeminiGateway{
		cfg:           cfg.Normalize(),
		generator:     gen,
		promptBuilder: pb,
	}, nil
}

// ExpandTheme はテーマから PageCount 件のシーン記述を生成します。
func (g *GeminiGateway) ExpandTheme(ctx context.Context, theme string) ([]string, error) {
	count := g.cfg.PageCount
	prompt, err := g.promptBuilder.Build(prompts.ModeSceneList, prompts.TemplateData{Theme: theme, Count: count})
	if err != nil {
		return nil, fmt.Errorf("シーン一覧プロンプトの生成に失敗しました: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	slog.InfoContext(ctx, "Gateway: シーン一覧を生成しています", "model", g.cfg.GeminiModel, "theme", theme)
	resp, err := g.generator.GenerateContent(ctx, g.cfg.GeminiModel,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: jsonMIMEType,
			ResponseSchema: &genai.Schema{
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("シーン一覧リクエストに失敗しました: %w", err)
	}

	var raw string
	if resp != nil {
		raw = resp.Text()
	}
	scenes, err := parseSceneList(raw, count)
	if err != nil {
		slog.WarnContext(ctx, "Gateway: シーン一覧が解釈できないため代替シーンを使用します", "theme", theme, "error", err)
		return fallbackScenes(prompts.FallbackScene(theme), count), nil
	}
	return scenes, nil
}

// SynthesizeImage はシーン記述に塗り絵用の指示を付加して画像を1枚生成します。
func (g *GeminiGateway) SynthesizeImage(ctx context.Context, prompt string, level domain.DetailLevel) (*imgdom.ImageResponse, error) {
	full, err := g.promptBuilder.Build(prompts.ModeColoringPage, prompts.TemplateData{
		Scene:           prompt,
		StyleDirectives: g.cfg.StyleDirectives,
	})
	if err != nil {
		return nil, fmt.Errorf("画像プロンプトの生成に失敗しました: %w", err)
	}

	req := imgdom.ImageGenerationRequest{
		Prompt:      full,
		AspectRatio: g.cfg.AspectRatio,
	}
	return g.generateImage(ctx, req, level.ImageSize())
}

func (g *GeminiGateway) generateImage(ctx context.Context, req imgdom.ImageGenerationRequest, imageSize string) (*imgdom.ImageResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	genCfg := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   imageSize,
		},
	}
	slog.DebugContext(ctx, "Gateway: 画像を生成しています", "model", g.cfg.ImageModel, "image_size", imageSize)
	resp, err := g.generator.GenerateContent(ctx, g.cfg.ImageModel,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		genCfg,
	)
	if err != nil {
		return nil, fmt.Errorf("画像生成リクエストに失敗しました: %w", err)
	}

	img := firstInlineImage(resp)
	if img == nil {
		return nil, ErrNoImageReturned
	}
	img.MimeType = asset.NormalizeImageMIME(img.MimeType, img.Data)
	if !asset.IsEmbeddableImage(img.MimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImageType, img.MimeType)
	}
	return img, nil
}

// firstInlineImage は応答に含まれる最初のインライン画像を返します。
func firstInlineImage(resp *genai.GenerateContentResponse) *imgdom.ImageResponse {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return &imgdom.ImageResponse{
				Data:     part.InlineData.Data,
				MimeType: part.InlineData.MIMEType,
			}
		}
	}
	return nil
}

// StreamChatReply はペルソナを指示として会話を開始し、返信の断片を順に流します。
// 途中で失敗した場合はエラーを一度だけ流して終了します。
func (g *GeminiGateway) StreamChatReply(ctx context.Context, prior domain.Transcript, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
		defer cancel()

		contents := buildChatContents(prior, message)
		genCfg := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(g.cfg.ChatPersona, genai.RoleUser),
		}

		for resp, err := range g.generator.GenerateContentStream(ctx, g.cfg.ChatModel, contents, genCfg) {
			if err != nil {
				yield("", fmt.Errorf("チャット応答のストリーミングに失敗しました: %w", err))
				return
			}
			if resp == nil {
				continue
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

// buildChatContents は履歴と新しいメッセージを Gemini の Content 列に変換します。
// 空のアシスタント発話は文脈に含めません。
func buildChatContents(prior domain.Transcript, message string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(prior)+1)
	for _, m := range prior {
		if m.Text == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if m.Speaker == domain.SpeakerAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return append(contents, genai.NewContentFromText(message, genai.RoleUser))
}
