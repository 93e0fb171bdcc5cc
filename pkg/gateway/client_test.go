package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shouni/go-coloring-kit/pkg/credential"
)

func TestClientProvider_Generator(t *testing.T) {
	ctx := context.Background()

	t.Run("同じキーでは一度だけ生成する", func(t *testing.T) {
		var calls atomic.Int32
		ks := credential.NewKeyStore("key-1")
		p := NewClientProvider(ks, nil, func(context.Context, string) (ContentGenerator, error) {
			calls.Add(1)
			return &fakeGenerator{}, nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := p.Generator(ctx); err != nil {
					t.Errorf("予期しないエラー: %v", err)
				}
			}()
		}
		wg.Wait()
		if n := calls.Load(); n != 1 {
			t.Errorf("factory 呼び出し回数 = %d, want 1", n)
		}

		if err := ks.Select("key-2"); err != nil {
			t.Fatal(err)
		}
		if _, err := p.Generator(ctx); err != nil {
			t.Fatal(err)
		}
		if n := calls.Load(); n != 2 {
			t.Errorf("キー変更後の factory 呼び出し回数 = %d, want 2", n)
		}
	})

	t.Run("キー未選択は ErrMissingCredential", func(t *testing.T) {
		p := NewClientProvider(credential.NewKeyStore(""), nil, func(context.Context, string) (ContentGenerator, error) {
			t.Fatal("factory が呼ばれてはいけません")
			return nil, nil
		})
		if _, err := p.GenerateContent(ctx, "m", nil, nil); !errors.Is(err, credential.ErrMissingCredential) {
			t.Errorf("err = %v", err)
		}
		for _, err := range p.GenerateContentStream(ctx, "m", nil, nil) {
			if !errors.Is(err, credential.ErrMissingCredential) {
				t.Errorf("stream err = %v", err)
			}
		}
	})

	t.Run("生成に委譲する", func(t *testing.T) {
		fake := &fakeGenerator{resp: textResponse("ok")}
		p := NewClientProvider(credential.NewKeyStore("k"), nil, func(context.Context, string) (ContentGenerator, error) {
			return fake, nil
		})
		resp, err := p.GenerateContent(ctx, "m", nil, nil)
		if err != nil || resp.Text() != "ok" {
			t.Errorf("resp=%v err=%v", resp, err)
		}
	})
}
