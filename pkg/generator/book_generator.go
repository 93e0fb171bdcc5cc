package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shouni/go-coloring-kit/pkg/config"
	"github.com/shouni/go-coloring-kit/pkg/domain"

	"github.com/google/uuid"
	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
	"golang.org/x/time/rate"
)

var (
	// ErrInvalidSettings は名前またはテーマが空の場合に返されます。
	ErrInvalidSettings = errors.New("生成条件が不正です")
	// ErrRunInProgress は別のランが実行中の場合に返されます。
	ErrRunInProgress = errors.New("別の生成処理が実行中です")
	// ErrThemeExpansion はシーン一覧の取得に失敗した場合に返されます。
	ErrThemeExpansion = errors.New("シーン一覧の生成に失敗しました")
	// ErrRunAbandoned はランが破棄され、結果が捨てられた場合に返されます。
	ErrRunAbandoned = errors.New("生成処理は破棄されました")
)

// PageFailureNote は失敗したページに付与する利用者向けの説明です。
const PageFailureNote = "We couldn't draw this page."

// BookGenerator は塗り絵ブック1冊分の生成ランを管理します。
// 同時に実行できるランは1つだけで、状態の変更はすべてランIDで保護されます。
type BookGenerator struct {
	cfg      config.Config
	gateway  SceneGateway
	limiter  *rate.Limiter
	newID    func() string
	now      func() time.Time
	onFinish func(domain.RunState)

	// emitMu は状態変更と通知の順序を直列化します。
	emitMu       sync.Mutex
	mu           sync.Mutex
	state        domain.RunState
	listeners    map[int]Listener
	nextListener int

	wg sync.WaitGroup
}

// Option は BookGenerator の任意設定です。
type Option func(*BookGenerator)

// WithOnFinish は最後まで到達したランのスナップショットを受け取るフックを設定します。
func WithOnFinish(fn func(domain.RunState)) Option {
	return func(g *BookGenerator) { g.onFinish = fn }
}

// WithIDGenerator はランIDの生成方法を差し替えます。
func WithIDGenerator(fn func() string) Option {
	return func(g *BookGenerator) { g.newID = fn }
}

// WithClock は時刻の取得方法を差し替えます。
func WithClock(fn func() time.Time) Option {
	return func(g *BookGenerator) { g.now = fn }
}

// NewBookGenerator は依存関係を注入して初期化します。
func NewBookGenerator(cfg config.Config, gw SceneGateway, opts ...Option) (*BookGenerator, error) {
	if gw == nil {
		return nil, fmt.Errorf("SceneGateway は必須です")
	}
	cfg = cfg.Normalize()

	limit := rate.Inf
	if cfg.RateInterval > 0 {
		limit = rate.Every(cfg.RateInterval)
	}

	g := &BookGenerator{
		cfg:       cfg,
		gateway:   gw,
		limiter:   rate.NewLimiter(limit, cfg.RateBurst),
		newID:     uuid.NewString,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Subscribe は状態変化の通知先を登録し、登録解除用の関数を返します。
func (g *BookGenerator) Subscribe(l Listener) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextListener
	g.nextListener++
	g.listeners[id] = l
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

// Snapshot は現在の状態のコピーを返します。
func (g *BookGenerator) Snapshot() domain.RunState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

// Generate はランを開始し、最後まで同期的に実行します。
func (g *BookGenerator) Generate(ctx context.Context, settings domain.BookSettings) (domain.RunState, error) {
	runID, settings, err := g.begin(settings)
	if err != nil {
		return domain.RunState{}, err
	}
	return g.run(ctx, runID, settings)
}

// Start はランを開始し、残りの処理をバックグラウンドで実行します。
// 受け付けに失敗した場合は状態を変更せずにエラーを返します。
func (g *BookGenerator) Start(ctx context.Context, settings domain.BookSettings) (string, error) {
	runID, settings, err := g.begin(settings)
	if err != nil {
		return "", err
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if _, err := g.run(ctx, runID, settings); err != nil {
			slog.WarnContext(ctx, "BookGenerator: ランが正常に完了しませんでした", "run_id", runID, "error", err)
		}
	}()
	return runID, nil
}

// Wait はバックグラウンドで実行中のランがすべて終了するまで待ちます。
func (g *BookGenerator) Wait() {
	g.wg.Wait()
}

// Abandon は現在のランを破棄し、新しいランを開始できる状態に戻します。
// 実行中のリクエストは中断されませんが、その結果は捨てられます。
func (g *BookGenerator) Abandon() {
	g.emitMu.Lock()
	defer g.emitMu.Unlock()

	g.mu.Lock()
	prev := g.state.RunID
	g.state = domain.RunState{}
	snap := g.state.Clone()
	listeners := g.listenerList()
	g.mu.Unlock()

	if prev != "" {
		slog.Info("BookGenerator: ランを破棄しました", "run_id", prev)
	}
	notify(listeners, snap)
}

// begin は入力を検証し、新しいランを登録します。
func (g *BookGenerator) begin(settings domain.BookSettings) (string, domain.BookSettings, error) {
	settings = settings.Normalized()
	if err := settings.Validate(); err != nil {
		return "", settings, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	g.emitMu.Lock()
	defer g.emitMu.Unlock()

	g.mu.Lock()
	if g.state.InProgress {
		g.mu.Unlock()
		return "", settings, ErrRunInProgress
	}
	runID := g.newID()
	g.state = domain.RunState{
		RunID:      runID,
		Settings:   settings,
		Progress:   domain.ProgressImagining,
		InProgress: true,
		StartedAt:  g.now(),
	}
	snap := g.state.Clone()
	listeners := g.listenerList()
	g.mu.Unlock()

	slog.Info("BookGenerator: ランを開始しました", "run_id", runID, "child_name", settings.ChildName, "theme", settings.Theme, "detail_level", settings.DetailLevel)
	notify(listeners, snap)
	return runID, settings, nil
}

// run はシーン一覧を取得し、各ページを順番に生成します。
func (g *BookGenerator) run(ctx context.Context, runID string, settings domain.BookSettings) (domain.RunState, error) {
	scenes, err := g.gateway.ExpandTheme(ctx, settings.Theme)
	if err != nil {
		slog.ErrorContext(ctx, "BookGenerator: シーン一覧の生成に失敗しました", "run_id", runID, "error", err)
		snap, ok := g.update(runID, func(s *domain.RunState) {
			s.Pages = nil
			s.Progress = domain.ProgressFailed
			s.InProgress = false
			s.Error = ErrThemeExpansion.Error()
			s.FinishedAt = g.now()
		})
		if !ok {
			return domain.RunState{}, ErrRunAbandoned
		}
		g.finish(snap)
		return snap, fmt.Errorf("%w: %w", ErrThemeExpansion, err)
	}

	pages := make([]domain.ColoringPage, len(scenes))
	for i, scene := range scenes {
		pages[i] = domain.NewColoringPage(i, scene)
	}
	if _, ok := g.update(runID, func(s *domain.RunState) { s.Pages = pages }); !ok {
		return domain.RunState{}, ErrRunAbandoned
	}

	total := len(pages)
	for i, page := range pages {
		if _, ok := g.update(runID, func(s *domain.RunState) {
			g.apply(s, i, domain.Dispatched())
			s.Progress = domain.ProgressDrawing(i, total)
		}); !ok {
			return domain.RunState{}, ErrRunAbandoned
		}

		ev := g.synthesize(ctx, runID, page, settings.DetailLevel)
		if _, ok := g.update(runID, func(s *domain.RunState) { g.apply(s, i, ev) }); !ok {
			return domain.RunState{}, ErrRunAbandoned
		}
	}

	snap, ok := g.update(runID, func(s *domain.RunState) {
		s.Progress = domain.ProgressComplete
		s.InProgress = false
		s.FinishedAt = g.now()
	})
	if !ok {
		return domain.RunState{}, ErrRunAbandoned
	}

	counts := snap.Counts()
	slog.InfoContext(ctx, "BookGenerator: ランが完了しました",
		"run_id", runID,
		"completed", counts[domain.StatusCompleted],
		"failed", counts[domain.StatusFailed],
	)
	g.finish(snap)
	return snap, nil
}

// synthesize は1ページ分の画像を生成し、結果をイベントとして返します。
// 失敗してもランは継続するため、エラーはイベントに変換します。
func (g *BookGenerator) synthesize(ctx context.Context, runID string, page domain.ColoringPage, level domain.DetailLevel) domain.PageEvent {
	logger := slog.With("run_id", runID, "page", page.ID)

	if err := g.limiter.Wait(ctx); err != nil {
		logger.WarnContext(ctx, "BookGenerator: レート制限の待機に失敗しました", "error", err)
		return domain.Failed(PageFailureNote)
	}

	startTime := time.Now()
	img, err := g.gateway.SynthesizeImage(ctx, page.Prompt, level)
	if err == nil && !hasData(img) {
		err = errors.New("空の画像データが返されました")
	}
	if err != nil {
		logger.WarnContext(ctx, "BookGenerator: ページの生成に失敗しました", "error", err)
		return domain.Failed(PageFailureNote)
	}

	logger.InfoContext(ctx, "BookGenerator: ページの生成が完了しました", "duration", time.Since(startTime).Round(time.Millisecond))
	return domain.Succeeded(img)
}

func hasData(img *imgdom.ImageResponse) bool {
	return img != nil && len(img.Data) > 0
}

// apply はページにイベントを適用します。不正な遷移は記録して無視します。
func (g *BookGenerator) apply(s *domain.RunState, index int, ev domain.PageEvent) {
	if index < 0 || index >= len(s.Pages) {
		return
	}
	next, err := domain.ApplyPageEvent(s.Pages[index], ev)
	if err != nil {
		slog.Error("BookGenerator: ページ状態の更新を拒否しました", "run_id", s.RunID, "error", err)
		return
	}
	s.Pages[index] = next
}

// update は runID が現在のランと一致する場合に限り fn を適用し、通知します。
// 一致しない場合は何もせず false を返します。
func (g *BookGenerator) update(runID string, fn func(*domain.RunState)) (domain.RunState, bool) {
	g.emitMu.Lock()
	defer g.emitMu.Unlock()

	g.mu.Lock()
	if g.state.RunID != runID {
		g.mu.Unlock()
		slog.Debug("BookGenerator: 古いランの結果を破棄しました", "run_id", runID)
		return domain.RunState{}, false
	}
	// ページ列は Clone で共有を断ち切ってから変更します。
	g.state = g.state.Clone()
	fn(&g.state)
	snap := g.state.Clone()
	listeners := g.listenerList()
	g.mu.Unlock()

	notify(listeners, snap)
	return snap, true
}

func (g *BookGenerator) finish(snap domain.RunState) {
	if g.onFinish != nil {
		g.onFinish(snap)
	}
}

// listenerList は呼び出し側が g.mu を保持している前提です。
func (g *BookGenerator) listenerList() []Listener {
	out := make([]Listener, 0, len(g.listeners))
	for _, id := range slices.Sorted(maps.Keys(g.listeners)) {
		out = append(out, g.listeners[id])
	}
	return out
}

func notify(listeners []Listener, snap domain.RunState) {
	for _, l := range listeners {
		l(snap.Clone())
	}
}
