package runner

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/config"
	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/generator"

	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
)

type stubStreamer struct {
	chunks []string
	err    error
}

func (s stubStreamer) StreamChatReply(context.Context, domain.Transcript, string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range s.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

func TestChatRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("断片を順に書き出す", func(t *testing.T) {
		r := NewChatRunner(chat.NewSession("s", stubStreamer{chunks: []string{"Hello", ", ", "friend!"}}))
		var sb strings.Builder
		if err := r.Run(ctx, "hi", &sb); err != nil {
			t.Fatal(err)
		}
		if got := sb.String(); got != "Hello, friend!\n" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("失敗時はフォールバックを改行して書く", func(t *testing.T) {
		r := NewChatRunner(chat.NewSession("s", stubStreamer{chunks: []string{"Once upon a..."}, err: errors.New("boom")}))
		var sb strings.Builder
		if err := r.Run(ctx, "story", &sb); err != nil {
			t.Fatal(err)
		}
		want := "Once upon a...\n" + chat.FallbackReply + "\n"
		if got := sb.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("閉じた後は送れない", func(t *testing.T) {
		r := NewChatRunner(chat.NewSession("s", stubStreamer{}))
		r.Close()
		if err := r.Run(ctx, "hi", &strings.Builder{}); !errors.Is(err, chat.ErrSessionClosed) {
			t.Errorf("err = %v", err)
		}
	})
}

type stubGateway struct{}

func (stubGateway) ExpandTheme(context.Context, string) ([]string, error) {
	return []string{"a", "b", "c", "d", "e"}, nil
}

func (stubGateway) SynthesizeImage(context.Context, string, domain.DetailLevel) (*imgdom.ImageResponse, error) {
	return &imgdom.ImageResponse{Data: []byte{1}, MimeType: "image/png"}, nil
}

func TestColoringBookRunner_Run(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RateInterval = 0
	gen, err := generator.NewBookGenerator(cfg, stubGateway{})
	if err != nil {
		t.Fatal(err)
	}
	state, err := NewColoringBookRunner(gen).Run(context.Background(), domain.BookSettings{ChildName: "Leo", Theme: "Cats"})
	if err != nil {
		t.Fatal(err)
	}
	if !state.Exportable() || len(state.Completed()) != 5 {
		t.Errorf("state = %+v", state)
	}

	if _, err := NewColoringBookRunner(gen).Run(context.Background(), domain.BookSettings{}); !errors.Is(err, generator.ErrInvalidSettings) {
		t.Errorf("err = %v", err)
	}
}
