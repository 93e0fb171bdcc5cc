package config

import (
	"fmt"
	"os"
	"time"

	kitcfg "github.com/shouni/go-coloring-kit/pkg/config"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
	"gopkg.in/yaml.v3"
)

// デフォルト値の定義なのだ
const (
	DefaultServerAddr = ":8080"
	DefaultOutputDir  = "output" // generate コマンドの保存先なのだ
)

// Config はアプリケーション全体の環境設定を保持する構造体なのだ。
type Config struct {
	Kit        kitcfg.Config
	ServerAddr string
	ConfigFile string

	Options GenerateOptions
}

// fileConfig は YAML 設定ファイルの形なのだ。API キーは書かせないのだ。
type fileConfig struct {
	GeminiModel     string        `yaml:"gemini_model"`
	ImageModel      string        `yaml:"image_model"`
	ChatModel       string        `yaml:"chat_model"`
	StyleDirectives string        `yaml:"style_directives"`
	ChatPersona     string        `yaml:"chat_persona"`
	PageCount       int           `yaml:"page_count"`
	AspectRatio     string        `yaml:"aspect_ratio"`
	RateInterval    time.Duration `yaml:"rate_interval"`
	RateBurst       int           `yaml:"rate_burst"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ArchiveTTL      time.Duration `yaml:"archive_ttl"`
	ChatSessionTTL  time.Duration `yaml:"chat_session_ttl"`
	ServerAddr      string        `yaml:"server_addr"`
}

// LoadConfig は .env、環境変数、YAML ファイルの順に設定を重ねて返すのだ！
// path が空の場合は CONFIG_FILE を見るのだ。
func LoadConfig(path string) (*Config, error) {
	// .env はあれば読むだけなのだ
	_ = godotenv.Load()

	kit := kitcfg.DefaultConfig()
	kit.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", os.Getenv("API_KEY"))
	kit.GeminiModel = envutil.GetEnv("GEMINI_MODEL", kit.GeminiModel)
	kit.ImageModel = envutil.GetEnv("IMAGE_GEMINI_MODEL", kit.ImageModel)
	kit.ChatModel = envutil.GetEnv("CHAT_GEMINI_MODEL", kit.ChatModel)

	cfg := &Config{
		Kit:        kit,
		ServerAddr: envutil.GetEnv("SERVER_ADDR", DefaultServerAddr),
		ConfigFile: path,
	}
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = envutil.GetEnv("CONFIG_FILE", "")
	}
	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗したのだ (%s): %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("設定ファイルの解析に失敗したのだ (%s): %w", path, err)
	}

	setString(&c.Kit.GeminiModel, fc.GeminiModel)
	setString(&c.Kit.ImageModel, fc.ImageModel)
	setString(&c.Kit.ChatModel, fc.ChatModel)
	setString(&c.Kit.StyleDirectives, fc.StyleDirectives)
	setString(&c.Kit.ChatPersona, fc.ChatPersona)
	setString(&c.Kit.AspectRatio, fc.AspectRatio)
	setString(&c.ServerAddr, fc.ServerAddr)
	if fc.PageCount > 0 {
		c.Kit.PageCount = fc.PageCount
	}
	if fc.RateBurst > 0 {
		c.Kit.RateBurst = fc.RateBurst
	}
	setDuration(&c.Kit.RateInterval, fc.RateInterval)
	setDuration(&c.Kit.RequestTimeout, fc.RequestTimeout)
	setDuration(&c.Kit.ArchiveTTL, fc.ArchiveTTL)
	setDuration(&c.Kit.ChatSessionTTL, fc.ChatSessionTTL)
	return nil
}

// ApplyOptions は CLI フラグで指定された値を最後に上書きするのだ。
func (c *Config) ApplyOptions(opts GenerateOptions) {
	c.Options = opts
	setString(&c.Kit.GeminiModel, opts.AIModel)
	setString(&c.Kit.ImageModel, opts.ImageModel)
	setString(&c.Kit.ChatModel, opts.ChatModel)
	setString(&c.ServerAddr, opts.ServerAddr)
	if opts.RateInterval >= 0 {
		c.Kit.RateInterval = opts.RateInterval
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 塗り絵ブックの内容
	ChildName   string // --name
	Theme       string // --theme
	DetailLevel string // --detail

	// 出力
	OutputDir  string // --output-dir
	SaveImages bool   // --save-images

	// AI挙動設定
	AIModel      string        // --model
	ImageModel   string        // --image-model
	ChatModel    string        // --chat-model
	RateInterval time.Duration // --rate-interval (負の値は未指定なのだ)

	// 実行制御
	ConfigFile string // --config
	ServerAddr string // --addr
	Verbose    bool   // --verbose
}
