package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-coloring-kit/internal/config"
	kitcfg "github.com/shouni/go-coloring-kit/pkg/config"

	"github.com/spf13/cobra"
)

var (
	// opts はフラグの値をまとめて受け取るのだ
	opts config.GenerateOptions
	// appCfg は PersistentPreRunE で読み込んだ設定なのだ
	appCfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "coloring-kit",
	Short:             "Gemini で子ども向けの塗り絵ブックを作るのだ。",
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, serveCmd, chatCmd)
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML 設定ファイルのパスなのだ（CONFIG_FILE でも指定できるのだ）。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", "", "シーン一覧の生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "塗り絵画像の生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ChatModel, "chat-model", "", "チャットに使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", kitcfg.DefaultRateInterval, "画像生成リクエストの最小間隔なのだ（0 で無制限）。")

	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出すのだ。")
}

// preRunAppE は、ログの準備と設定の読み込みを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// 明示されなかったフラグは設定ファイルの値を潰さないのだ
	if !cmd.Flags().Changed("rate-interval") {
		opts.RateInterval = -1
	}

	cfg, err := config.LoadConfig(opts.ConfigFile)
	if err != nil {
		return err
	}
	cfg.ApplyOptions(opts)
	appCfg = cfg
	return nil
}

// requireAPIKey は、Gemini を呼ぶコマンドの前に API キーの存在をチェックするのだ。
func requireAPIKey(cmd *cobra.Command, args []string) error {
	if appCfg == nil || appCfg.Kit.GeminiAPIKey == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY（または API_KEY）が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
