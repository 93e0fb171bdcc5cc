package runner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/domain"
)

// ChatRunner は1つのチャットセッションを保持し、返信を io.Writer に逐次書き出します。
type ChatRunner struct {
	session *chat.Session
}

// NewChatRunner は Open 状態のセッションで初期化します。
func NewChatRunner(session *chat.Session) *ChatRunner {
	session.Open()
	return &ChatRunner{session: session}
}

// Run はメッセージを送り、アシスタントの返信を届いた分から out に書き出します。
func (r *ChatRunner) Run(ctx context.Context, message string, out io.Writer) error {
	streamed := ""
	var writeErr error
	err := r.session.Send(ctx, message, func(t domain.Transcript) {
		last, ok := t.Last()
		if !ok || last.Speaker != domain.SpeakerAssistant || writeErr != nil {
			return
		}
		if strings.HasPrefix(last.Text, streamed) {
			_, writeErr = io.WriteString(out, last.Text[len(streamed):])
		} else {
			// フォールバックで置き換えられた場合は改行してから全文を書きます。
			_, writeErr = fmt.Fprintf(out, "\n%s", last.Text)
		}
		streamed = last.Text
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("返信の書き出しに失敗しました: %w", writeErr)
	}
	_, err = fmt.Fprintln(out)
	return err
}

// Close はセッションを閉じます。
func (r *ChatRunner) Close() {
	r.session.Close()
}
