package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-coloring-kit/internal/config"
	"github.com/shouni/go-coloring-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、テーマから塗り絵ブックを1冊生成して PDF に保存するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "テーマから塗り絵ブックを生成して PDF に保存するのだ。",
	Long: `テーマを5つのシーンに展開し、1枚ずつ線画を描いてから、
表紙付きの PDF にまとめて保存するのだ。描けなかったページは飛ばすのだよ。`,
	Example: `  coloring-kit generate --name Mia --theme "Space dinosaurs" --detail high_def`,
	PreRunE: requireAPIKey,
	RunE:    generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&opts.ChildName, "name", "n", "", "表紙に載せる子どもの名前なのだ。")
	generateCmd.Flags().StringVarP(&opts.Theme, "theme", "t", "", "塗り絵のテーマなのだ。")
	generateCmd.Flags().StringVarP(&opts.DetailLevel, "detail", "d", "standard", "詳細度（standard / high_def / ultra_hd）なのだ。")
	generateCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "PDF の保存先ディレクトリなのだ。")
	generateCmd.Flags().BoolVar(&opts.SaveImages, "save-images", false, "ページ画像も個別に保存するのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.ChildName == "" || opts.Theme == "" {
		return fmt.Errorf("名前（--name）とテーマ（--theme）を指定してほしいのだ")
	}

	slog.Info("塗り絵ブック生成パイプラインを起動するのだ！",
		"text_model", appCfg.Kit.GeminiModel,
		"image_model", appCfg.Kit.ImageModel,
		"output_dir", opts.OutputDir)

	if err := pipeline.Execute(ctx, appCfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}
