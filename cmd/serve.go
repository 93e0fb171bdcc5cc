package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-coloring-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// serveCmd は、HTTP / WebSocket の API サーバーを起動するのだ。
// API キーは起動後に /api/credential から選ぶこともできるので、事前チェックはしないのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "塗り絵ブックの API サーバーを起動するのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return pipeline.Serve(ctx, appCfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&opts.ServerAddr, "addr", "", "待ち受けアドレスなのだ（既定は SERVER_ADDR か :8080）。")
}
