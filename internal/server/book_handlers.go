package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shouni/go-coloring-kit/pkg/archive"
	"github.com/shouni/go-coloring-kit/pkg/credential"
	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/generator"
	"github.com/shouni/go-coloring-kit/pkg/publisher"
	"github.com/shouni/go-coloring-kit/pkg/sanitize"

	"github.com/gin-gonic/gin"
)

type bookRequest struct {
	ChildName   string `json:"child_name"`
	Theme       string `json:"theme"`
	DetailLevel string `json:"detail_level"`
}

// startBook はランを受け付け、生成をバックグラウンドで開始するのだ。
func (s *Server) startBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err))
		return
	}
	level, err := domain.ParseDetailLevel(req.DetailLevel)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err))
		return
	}
	settings := domain.BookSettings{
		ChildName:   sanitize.Text(req.ChildName),
		Theme:       sanitize.Text(req.Theme),
		DetailLevel: level,
	}
	if err := settings.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err))
		return
	}

	ctx := c.Request.Context()
	if err := s.mgr.Gate().Require(ctx); err != nil {
		c.JSON(http.StatusPreconditionRequired, errorBody("credential_required", err))
		return
	}

	// ランはリクエストより長生きするので、キャンセルだけ切り離すのだ
	runID, err := s.mgr.Generator().Start(context.WithoutCancel(ctx), settings)
	switch {
	case errors.Is(err, generator.ErrInvalidSettings):
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err))
		return
	case errors.Is(err, generator.ErrRunInProgress):
		c.JSON(http.StatusConflict, errorBody("run_in_progress", err))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, errorBody("internal", err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": runID})
}

func (s *Server) getBook(c *gin.Context) {
	c.JSON(http.StatusOK, s.mgr.Generator().Snapshot())
}

// abandonBook は現在のランを破棄するのだ。実行中の呼び出しの結果は捨てられるのだ。
func (s *Server) abandonBook(c *gin.Context) {
	s.mgr.Generator().Abandon()
	c.JSON(http.StatusOK, s.mgr.Generator().Snapshot())
}

func (s *Server) getPageImage(c *gin.Context) {
	page, ok := s.mgr.Generator().Snapshot().Page(c.Param("pageID"))
	if !ok || page.Status != domain.StatusCompleted || !page.HasImage() {
		c.JSON(http.StatusNotFound, errorBody("not_found", fmt.Errorf("ページ画像がまだないのだ: %s", c.Param("pageID"))))
		return
	}
	mime := page.Image.MimeType
	if mime == "" {
		mime = http.DetectContentType(page.Image.Data)
	}
	c.Data(http.StatusOK, mime, page.Image.Data)
}

func (s *Server) exportBook(c *gin.Context) {
	s.writeExport(c, s.mgr.Generator().Snapshot())
}

type bookListResponse struct {
	Books []domain.RunState `json:"books"`
}

// listArchivedBooks は保持している完了ランを新しい順に返すのだ。画像データは含まないのだ。
func (s *Server) listArchivedBooks(c *gin.Context) {
	c.JSON(http.StatusOK, bookListResponse{Books: s.mgr.Archive().List()})
}

func (s *Server) getArchivedBook(c *gin.Context) {
	state, ok := s.archived(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) exportArchivedBook(c *gin.Context) {
	state, ok := s.archived(c)
	if !ok {
		return
	}
	s.writeExport(c, state)
}

func (s *Server) archived(c *gin.Context) (domain.RunState, bool) {
	state, err := s.mgr.Archive().Get(c.Param("runID"))
	if errors.Is(err, archive.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody("not_found", err))
		return state, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("internal", err))
		return state, false
	}
	return state, true
}

// writeExport は PDF を組み立ててダウンロードとして返すのだ。
func (s *Server) writeExport(c *gin.Context, state domain.RunState) {
	pr, err := s.mgr.BuildPublishRunner()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("internal", err))
		return
	}
	artifact, err := pr.Export(state)
	if errors.Is(err, publisher.ErrNotExportable) {
		c.JSON(http.StatusConflict, errorBody("not_exportable", err))
		return
	}
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "PDF の組み立てに失敗したのだ", "run_id", state.RunID, "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("export_failed", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	c.Data(http.StatusOK, "application/pdf", artifact.Data)
}

func (s *Server) bookSocket(c *gin.Context) {
	s.hub.Serve(c.Writer, c.Request, s.mgr.Generator().Snapshot)
}

// getCredential は資格情報の有無を返すのだ。
func (s *Server) getCredential(c *gin.Context) {
	c.JSON(http.StatusOK, s.mgr.Gate().Check(c.Request.Context()))
}

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

// selectCredential はキーを差し替え、改めてチェックした結果を返すのだ。
func (s *Server) selectCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err))
		return
	}
	if err := s.mgr.Keys().Select(req.APIKey); err != nil {
		if errors.Is(err, credential.ErrMissingCredential) {
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", err))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody("internal", err))
		return
	}
	c.JSON(http.StatusOK, s.mgr.Gate().Check(c.Request.Context()))
}
