// Package archive は完了したランのスナップショットを一定時間保持します。
package archive

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/shouni/go-coloring-kit/pkg/domain"

	"github.com/patrickmn/go-cache"
)

// ErrNotFound は指定したランが保持されていない場合のエラーです。
var ErrNotFound = errors.New("ランが見つかりません")

// Archive は完了したランを RunID で保持するメモリ上のキャッシュです。
type Archive struct {
	items *cache.Cache
	ttl   time.Duration
}

// New は Archive を作成します。
func New(ttl time.Duration) *Archive {
	return &Archive{
		items: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Put はランを保存します。RunID のないスナップショットは無視します。
func (a *Archive) Put(state domain.RunState) {
	if state.RunID == "" {
		return
	}
	a.items.Set(state.RunID, state.Clone(), a.ttl)
	slog.Debug("Archive: ランを保存しました", "run_id", state.RunID, "pages", len(state.Pages))
}

// Get はランを返します。
func (a *Archive) Get(runID string) (domain.RunState, error) {
	v, ok := a.items.Get(runID)
	if !ok {
		return domain.RunState{}, ErrNotFound
	}
	return v.(domain.RunState).Clone(), nil
}

// List は保持しているランを新しい順に返します。
func (a *Archive) List() []domain.RunState {
	items := a.items.Items()
	out := make([]domain.RunState, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(domain.RunState))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}
