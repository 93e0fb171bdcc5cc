package cmd

import (
	"os"

	"github.com/shouni/go-coloring-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// chatCmd は、塗り絵アシスタントと端末でおしゃべりするのだ。
var chatCmd = &cobra.Command{
	Use:     "chat",
	Short:   "塗り絵アシスタントと会話するのだ（exit で終了）。",
	PreRunE: requireAPIKey,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.Chat(cmd.Context(), appCfg, os.Stdin, cmd.OutOrStdout())
	},
}
