package config

import (
	"time"
)

// デフォルト値の定義
const (
	DefaultGeminiModel    = "gemini-3-flash-preview"
	DefaultImageModel     = "gemini-3-pro-image-preview"
	DefaultChatModel      = "gemini-3-pro-preview"
	DefaultPageCount      = 5
	DefaultAspectRatio    = "1:1"
	DefaultRateInterval   = 2 * time.Second
	DefaultRateBurst      = 1
	DefaultRequestTimeout = 3 * time.Minute
	DefaultArchiveTTL     = 1 * time.Hour
	DefaultChatSessionTTL = 30 * time.Minute

	DefaultStyleDirectives = "Thick black outlines, solid white background, no shading, minimal detail, high contrast, clean lines."
	DefaultChatPersona     = "You are a friendly, imaginative assistant for a children's coloring book app. You help kids and parents come up with creative ideas for coloring pages and tell short, magical stories about their creations. Keep it positive, safe, and fun."
)

// Config は Go Coloring Kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiModel string // シーン一覧の生成用
	ImageModel  string // 塗り絵画像の生成用
	ChatModel   string // チャットアシスタント用

	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string

	// --- Generation Settings ---
	StyleDirectives string
	ChatPersona     string
	PageCount       int
	AspectRatio     string
	RateInterval    time.Duration
	RateBurst       int

	// --- Timeout & Retention ---
	RequestTimeout time.Duration
	ArchiveTTL     time.Duration
	ChatSessionTTL time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:     DefaultGeminiModel,
		ImageModel:      DefaultImageModel,
		ChatModel:       DefaultChatModel,
		StyleDirectives: DefaultStyleDirectives,
		ChatPersona:     DefaultChatPersona,
		PageCount:       DefaultPageCount,
		AspectRatio:     DefaultAspectRatio,
		RateInterval:    DefaultRateInterval,
		RateBurst:       DefaultRateBurst,
		RequestTimeout:  DefaultRequestTimeout,
		ArchiveTTL:      DefaultArchiveTTL,
		ChatSessionTTL:  DefaultChatSessionTTL,
	}
}

// Normalize はゼロ値のフィールドをデフォルト値で埋めた設定を返します。
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if c.GeminiModel == "" {
		c.GeminiModel = def.GeminiModel
	}
	if c.ImageModel == "" {
		c.ImageModel = def.ImageModel
	}
	if c.ChatModel == "" {
		c.ChatModel = def.ChatModel
	}
	if c.StyleDirectives == "" {
		c.StyleDirectives = def.StyleDirectives
	}
	if c.ChatPersona == "" {
		c.ChatPersona = def.ChatPersona
	}
	if c.PageCount <= 0 {
		c.PageCount = def.PageCount
	}
	if c.AspectRatio == "" {
		c.AspectRatio = def.AspectRatio
	}
	if c.RateInterval < 0 {
		c.RateInterval = 0
	}
	if c.RateBurst <= 0 {
		c.RateBurst = def.RateBurst
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.ArchiveTTL <= 0 {
		c.ArchiveTTL = def.ArchiveTTL
	}
	if c.ChatSessionTTL <= 0 {
		c.ChatSessionTTL = def.ChatSessionTTL
	}
	return c
}
