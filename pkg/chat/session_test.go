package chat

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shouni/go-coloring-kit/pkg/domain"
)

// fakeStreamer は ReplyStreamer のテスト用実装です。
type fakeStreamer struct {
	chunks []string
	err    error
	block  chan struct{}
	priors []domain.Transcript
}

func (f *fakeStreamer) StreamChatReply(_ context.Context, prior domain.Transcript, _ string) iter.Seq2[string, error] {
	f.priors = append(f.priors, prior)
	return func(yield func(string, error) bool) {
		if f.block != nil {
			<-f.block
		}
		for _, c := range f.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func TestSession_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("断片をその場で連結する", func(t *testing.T) {
		s := NewSession("s1", &fakeStreamer{chunks: []string{"Once ", "upon ", "a time."}})
		s.Open()

		var lens []int
		err := s.Send(ctx, "Tell me a story about a dragon", func(tr domain.Transcript) {
			lens = append(lens, len(tr))
		})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}

		want := domain.Transcript{
			{Speaker: domain.SpeakerUser, Text: "Tell me a story about a dragon"},
			{Speaker: domain.SpeakerAssistant, Text: "Once upon a time."},
		}
		if diff := cmp.Diff(want, s.Transcript()); diff != "" {
			t.Errorf("transcript mismatch (-want +got):\n%s", diff)
		}
		// 追加1回 + 断片3回。アシスタント発話は増えない
		if diff := cmp.Diff([]int{2, 2, 2, 2}, lens); diff != "" {
			t.Errorf("更新回数が不正です (-want +got):\n%s", diff)
		}
	})

	t.Run("途中の失敗はフォールバックで置き換える", func(t *testing.T) {
		s := NewSession("s2", &fakeStreamer{chunks: []string{"Once upon a..."}, err: errors.New("stream broken")})
		s.Open()
		if err := s.Send(ctx, "story please", nil); err != nil {
			t.Fatalf("失敗は回復されるべきです: %v", err)
		}
		last, _ := s.Transcript().Last()
		if last.Speaker != domain.SpeakerAssistant || last.Text != FallbackReply {
			t.Errorf("最後の発話 = %+v", last)
		}
		if n := len(s.Transcript()); n != 2 {
			t.Errorf("履歴の件数 = %d, want 2", n)
		}
	})

	t.Run("2回目の送信は過去の会話を文脈に含める", func(t *testing.T) {
		fs := &fakeStreamer{chunks: []string{"ok"}}
		s := NewSession("s3", fs)
		s.Open()
		_ = s.Send(ctx, "first", nil)
		_ = s.Send(ctx, "second", nil)
		if len(fs.priors) != 2 || len(fs.priors[0]) != 0 || len(fs.priors[1]) != 2 {
			t.Errorf("priors = %+v", fs.priors)
		}
	})

	t.Run("閉じたセッションには送れない", func(t *testing.T) {
		s := NewSession("s4", &fakeStreamer{})
		if err := s.Send(ctx, "hi", nil); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("err = %v", err)
		}
		s.Open()
		s.Close()
		if err := s.Send(ctx, "hi", nil); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("err = %v", err)
		}
		if len(s.Transcript()) != 0 {
			t.Error("履歴が変化しています")
		}
	})

	t.Run("空のメッセージとタグのみのメッセージは拒否", func(t *testing.T) {
		s := NewSession("s5", &fakeStreamer{})
		s.Open()
		for _, msg := range []string{"", "   ", "<img src=x>"} {
			if err := s.Send(ctx, msg, nil); !errors.Is(err, ErrEmptyMessage) {
				t.Errorf("Send(%q) = %v", msg, err)
			}
		}
	})

	t.Run("受信中の送信は拒否", func(t *testing.T) {
		fs := &fakeStreamer{chunks: []string{"slow"}, block: make(chan struct{})}
		s := NewSession("s6", fs)
		s.Open()

		done := make(chan error, 1)
		go func() { done <- s.Send(ctx, "first", nil) }()

		deadline := time.Now().Add(time.Second)
		for !s.Streaming() {
			if time.Now().After(deadline) {
				t.Fatal("ストリーミングが開始されませんでした")
			}
			time.Sleep(time.Millisecond)
		}
		if err := s.Send(ctx, "second", nil); !errors.Is(err, ErrSessionBusy) {
			t.Errorf("err = %v, want ErrSessionBusy", err)
		}
		close(fs.block)
		if err := <-done; err != nil {
			t.Fatal(err)
		}
		if n := len(s.Transcript()); n != 2 {
			t.Errorf("履歴の件数 = %d, want 2", n)
		}
	})
}

func TestStore(t *testing.T) {
	st := NewStore(&fakeStreamer{}, time.Minute)
	sess := st.Create()
	if sess.State() != StateOpen {
		t.Errorf("作成直後は Open であるべきです")
	}
	got, err := st.Get(sess.ID())
	if err != nil || got != sess {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if err := st.Close(sess.ID()); err != nil {
		t.Fatal(err)
	}
	if sess.State() != StateClosed {
		t.Error("Close 後は Closed であるべきです")
	}
	if _, err := st.Get(sess.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v", err)
	}
	if err := st.Close("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v", err)
	}
}
