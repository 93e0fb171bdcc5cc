package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-coloring-kit/internal/builder"
	"github.com/shouni/go-coloring-kit/internal/config"
	"github.com/shouni/go-coloring-kit/internal/server"
	"github.com/shouni/go-coloring-kit/pkg/domain"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Execute は、テーマからシーンを展開して全ページを描き、PDF にまとめて保存するのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	level, err := domain.ParseDetailLevel(cfg.Options.DetailLevel)
	if err != nil {
		return err
	}
	settings := domain.BookSettings{
		ChildName:   cfg.Options.ChildName,
		Theme:       cfg.Options.Theme,
		DetailLevel: level,
	}

	// --- Phase 1: Book Phase (シーン展開と線画生成) ---
	state, err := runBookStep(ctx, appCtx, settings)
	if err != nil {
		return err
	}

	// --- Phase 2: Publish Phase (PDF の保存) ---
	return runPublishStep(ctx, appCtx, state)
}

// runBookStep は ColoringBookRunner を使ってページを順番に生成するのだ
func runBookStep(ctx context.Context, appCtx *builder.AppContext, settings domain.BookSettings) (domain.RunState, error) {
	slog.Info("Phase 1: 塗り絵ページの生成を開始するのだ...", "theme", settings.Theme, "detail_level", settings.DetailLevel)
	bookRunner, err := appCtx.Manager.BuildBookRunner()
	if err != nil {
		return domain.RunState{}, fmt.Errorf("BookRunnerの構築に失敗したのだ: %w", err)
	}

	state, err := bookRunner.Run(ctx, settings)
	if err != nil {
		return state, fmt.Errorf("塗り絵ページの生成に失敗したのだ: %w", err)
	}
	return state, nil
}

// runPublishStep は PublishRunner を使って最終成果物を保存するのだ
func runPublishStep(ctx context.Context, appCtx *builder.AppContext, state domain.RunState) error {
	slog.Info("Phase 2: PDF の保存を開始するのだ...")
	publishRunner, err := appCtx.Manager.BuildPublishRunner()
	if err != nil {
		return fmt.Errorf("PublishRunnerの構築に失敗したのだ: %w", err)
	}

	outputDir := appCtx.Options.OutputDir
	if outputDir == "" {
		outputDir = config.DefaultOutputDir
	}
	result, err := publishRunner.Run(ctx, state, outputDir, appCtx.Options.SaveImages)
	if err != nil {
		return fmt.Errorf("公開処理に失敗したのだ: %w", err)
	}

	slog.Info("塗り絵ブックが完成したのだ！", "path", result.PDFPath, "pages", result.PageCount, "images", len(result.ImagePaths))
	return nil
}

// Serve は HTTP サーバーを起動し、ctx が終わったら穏やかに停止するのだ。
func Serve(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	srv := server.New(appCtx.Manager)
	httpSrv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("サーバーを起動したのだ", "addr", cfg.ServerAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーが異常終了したのだ: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("サーバーを停止するのだ...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		srv.Close()
		err := httpSrv.Shutdown(shutdownCtx)
		appCtx.Manager.Generator().Wait()
		return err
	})
	return g.Wait()
}

// Chat は標準入力から1行ずつ読み、アシスタントの返信を out に流すのだ。
// 空行は無視し、exit または quit で終了するのだ。
func Chat(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	chatRunner, err := appCtx.Manager.BuildChatRunner()
	if err != nil {
		return fmt.Errorf("ChatRunnerの構築に失敗したのだ: %w", err)
	}
	defer chatRunner.Close()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := chatRunner.Run(ctx, line, out); err != nil {
			return err
		}
	}
	return scanner.Err()
}
